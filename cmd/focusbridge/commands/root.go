package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/bryanchriswhite/focusbridge/internal/config"
	"github.com/bryanchriswhite/focusbridge/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "focusbridge",
		Short: "focusbridge - boost the focused niri window with system76-scheduler",
		Long: `focusbridge listens to the niri compositor's event stream and tells
system76-scheduler which process owns the focused window, so the scheduler
can prioritize it.

Run without a subcommand to start the bridge. It exits cleanly when niri
closes the event stream.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runBridge,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/focusbridge/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-pretty", false, "human readable console logs")
	rootCmd.PersistentFlags().String("socket", "", "niri IPC socket (default is $NIRI_SOCKET)")
	rootCmd.PersistentFlags().String("status-addr", "", "serve the read-only status API on this address")

	// Bind flags to viper
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_pretty", rootCmd.PersistentFlags().Lookup("log-pretty"))
	viper.BindPFlag("niri_socket", rootCmd.PersistentFlags().Lookup("socket"))
	viper.BindPFlag("status_addr", rootCmd.PersistentFlags().Lookup("status-addr"))
}

func initConfig() {
	viper.SetEnvPrefix("FOCUSBRIDGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// loadConfig reads the config file, applies flag and environment overrides,
// and configures logging from the result.
func loadConfig() (*config.Manager, error) {
	configMgr, err := config.NewManager(GetConfigFile())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyOverrides(configMgr, viper.GetViper())

	cfg := configMgr.Get()
	logger.Init(cfg.LogLevel, cfg.LogPretty)
	return configMgr, nil
}

func applyOverrides(configMgr *config.Manager, v *viper.Viper) {
	if v.IsSet("log_level") {
		if level := v.GetString("log_level"); level != "" {
			configMgr.SetLogLevel(level)
		}
	}
	if v.IsSet("log_pretty") {
		configMgr.SetLogPretty(v.GetBool("log_pretty"))
	}
	if v.IsSet("niri_socket") {
		if socket := v.GetString("niri_socket"); socket != "" {
			configMgr.SetNiriSocket(socket)
		}
	}
	if v.IsSet("status_addr") {
		if addr := v.GetString("status_addr"); addr != "" {
			configMgr.SetStatusAddr(addr)
		}
	}
}
