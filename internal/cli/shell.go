package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var shellInstanceNo int

var shellCmd = &cobra.Command{
	Use:   "shell [command...]",
	Short: "Open an SSH session or run a one-off remote command",
	Long: `With no arguments, open an interactive shell on the instance. With
arguments, run them as a single remote command and exit with its status.

Examples:
  imirun shell
  imirun shell -i 1
  imirun shell "squeue -u ubuntu"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return shellCommand(shellInstanceNo, args)
	},
}

func shellCommand(index int, args []string) error {
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

	if len(args) == 0 {
		return client.Shell()
	}

	code, err := client.ExecInteractive(strings.Join(args, " "), os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		return err
	}
	if code != 0 {
		// Propagate the remote status without wrapping it in a suggestion;
		// the command's own output already said what went wrong.
		return fmt.Errorf("remote command exited with status %d", code)
	}
	return nil
}

func init() {
	addInstanceFlag(shellCmd, &shellInstanceNo)
	rootCmd.AddCommand(shellCmd)
}
