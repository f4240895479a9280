package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/imi-tools/imirun/pkg/sshutil"
)

// Global flags
var (
	configFlag  string
	verboseFlag bool
)

// rootCmd is the base command all actions hang off.
var rootCmd = &cobra.Command{
	Use:   "imirun",
	Short: "Manage EC2 instances for methane inversion runs",
	Long: `imirun provisions and drives the EC2 instances that run the
Integrated Methane Inversion workload.

It keeps a small local registry mapping instance indices (0, 1, ...) to the
cloud instances it manages: launch one with 'create', bootstrap it with
'instance_setup', start an inversion with 'run', and pull the results back
down with 'copy_local'.

Configuration lives in settings.yml, found in the current directory or any
parent. See 'imirun help <command>' for command details.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verboseFlag {
			os.Setenv("IMIRUN_DEBUG", "1") //nolint:errcheck
		}
	},
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	err := rootCmd.Execute()
	sshutil.CloseAgent()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Config returns the --config flag value, empty when unset.
func Config() string {
	return configFlag
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "path to settings.yml (default: search upward from cwd)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug output")
}
