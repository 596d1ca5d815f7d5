package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/bryanchriswhite/focusbridge/internal/niri"
	"github.com/bryanchriswhite/focusbridge/internal/window"
	"github.com/spf13/cobra"
)

var windowsCmd = &cobra.Command{
	Use:   "windows",
	Short: "List niri windows and their processes",
	Long: `List every window niri knows about together with the process id the
bridge would hand to the scheduler when that window takes focus.`,
	Example: `  # List windows in table format (default)
  focusbridge windows

  # List windows in JSON format
  focusbridge windows --format json`,
	Args: cobra.NoArgs,
	RunE: runWindows,
}

var windowsFormat string

func init() {
	rootCmd.AddCommand(windowsCmd)

	windowsCmd.Flags().StringVarP(&windowsFormat, "format", "f", "table", "output format (table or json)")
}

func runWindows(cmd *cobra.Command, args []string) error {
	configMgr, err := loadConfig()
	if err != nil {
		return err
	}

	sock, err := niri.Dial(configMgr.Get().SocketPath())
	if err != nil {
		return fmt.Errorf("failed to connect to niri: %w", err)
	}
	defer sock.Close()

	windows, err := sock.Windows()
	if err != nil {
		return fmt.Errorf("failed to list windows: %w", err)
	}

	switch windowsFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(windows)
	case "table":
		return printWindowTable(windows)
	default:
		return fmt.Errorf("unknown format %q (want table or json)", windowsFormat)
	}
}

func printWindowTable(windows window.Snapshot) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPID\tAPP ID\tTITLE")
	for _, win := range windows {
		pid := "-"
		if p, ok := win.ForegroundPID(); ok {
			pid = strconv.FormatUint(uint64(p), 10)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", win.ID, pid, win.AppIDOrEmpty(), win.TitleOrEmpty())
	}
	return w.Flush()
}
