package commands

import (
	"fmt"
	"strconv"

	"github.com/bryanchriswhite/focusbridge/internal/logger"
	"github.com/bryanchriswhite/focusbridge/internal/scheduler"
	"github.com/spf13/cobra"
)

var notifyCmd = &cobra.Command{
	Use:   "notify PID",
	Short: "Mark a process as foreground once",
	Long: `Send a single SetForegroundProcess call to the scheduler. Useful to check
that the scheduler service is reachable before running the bridge.`,
	Example: `  # Boost process 1234
  focusbridge notify 1234`,
	Args: cobra.ExactArgs(1),
	RunE: runNotify,
}

func init() {
	rootCmd.AddCommand(notifyCmd)
}

func runNotify(cmd *cobra.Command, args []string) error {
	pid, err := parsePID(args[0])
	if err != nil {
		return err
	}

	configMgr, err := loadConfig()
	if err != nil {
		return err
	}

	notifier, err := scheduler.Connect(configMgr.Get().Scheduler)
	if err != nil {
		return fmt.Errorf("failed to connect to scheduler: %w", err)
	}
	defer notifier.Close()

	if err := notifier.SetForegroundProcess(pid); err != nil {
		return err
	}

	logger.WithComponent("scheduler").Info().Uint32("pid", pid).Msg("Set foreground process")
	return nil
}

func parsePID(arg string) (uint32, error) {
	pid, err := strconv.ParseUint(arg, 10, 32)
	if err != nil || pid == 0 {
		return 0, fmt.Errorf("invalid pid %q", arg)
	}
	return uint32(pid), nil
}
