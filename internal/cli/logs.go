package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/imi-tools/imirun/internal/run"
)

var (
	logInstanceNo int
	logFile       string
	logLines      int
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Tail the inversion log",
	Long: `Stream the inversion log from the instance. Follows the file until
interrupted; use this to re-attach to a run started earlier.

Examples:
  imirun log
  imirun log -i 1 --logfile preview.log`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return logCommand(logInstanceNo, logFile, logLines)
	},
}

func logCommand(index int, logfile string, lines int) error {
	if err := validateIndex(index); err != nil {
		return err
	}
	w, err := setupWorkflow()
	if err != nil {
		return err
	}

	client, _, err := w.dial(index)
	if err != nil {
		return err
	}
	defer client.Close() //nolint:errcheck

	return run.Tail(client, w.Settings.Remote.IMIDir, logfile, lines, os.Stdout)
}

func init() {
	addInstanceFlag(logCmd, &logInstanceNo)
	logCmd.Flags().StringVar(&logFile, "logfile", run.DefaultLogFile, "log file to tail, relative to the tool directory")
	logCmd.Flags().IntVar(&logLines, "lines", 1000, "lines of history to show before following")
	rootCmd.AddCommand(logCmd)
}
