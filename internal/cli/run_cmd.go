package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/imi-tools/imirun/internal/config"
	"github.com/imi-tools/imirun/internal/run"
	"github.com/imi-tools/imirun/internal/transfer"
)

var (
	runInstanceNo int
	runTmux       bool
	runOptions    string
)

var runCmd = &cobra.Command{
	Use:   "run <configfile>",
	Short: "Start an inversion on an instance",
	Long: `Upload the run config to the instance and start the inversion.

The config filename (without extension) must match its RunName value. The
scheduler comes from the config's UseSlurm setting: with UseSlurm true the
run is submitted through sbatch; with UseSlurm false you must pass --tmux,
which detaches the run in a tmux session writing imi_output.log.

After starting, the run log is followed; when the inversion finishes, the
results are pulled down automatically as with copy_local.

Examples:
  imirun run config_test_run.yml
  imirun run config_test_run.yml -i 1 --tmux
  imirun run config_test_run.yml --options "--resume"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommand(args[0], runInstanceNo, runTmux, runOptions)
	},
}

func runCommand(configPath string, index int, tmux bool, options string) error {
	if err := validateIndex(index); err != nil {
		return err
	}

	rc, err := config.LoadRunConfig(configPath)
	if err != nil {
		return err
	}
	if err := rc.ValidateScheduler(tmux); err != nil {
		return err
	}

	w, err := setupWorkflow()
	if err != nil {
		return err
	}

	client, rec, err := w.dial(index)
	if err != nil {
		return err
	}
	defer client.Close() //nolint:errcheck

	tgt, err := w.target(rec)
	if err != nil {
		return err
	}

	fmt.Printf("Starting inversion %s on instance %d...\n", rc.Stem(), index)
	err = run.Submit(client, tgt, w.Settings, run.Options{
		ConfigPath: configPath,
		RunConfig:  rc,
		Tmux:       tmux,
		ExtraArgs:  options,
	}, os.Stdout)
	if err != nil {
		return err
	}

	fmt.Println("Inversion started, following log (Ctrl-C detaches, the run keeps going)...")
	runName := rc.Stem()
	return run.Follow(client, w.Settings.Remote.IMIDir, run.DefaultLogFile, os.Stdout, func() {
		fmt.Println("\nRun completed, copying results...")
		dir, err := transfer.Collect(client, tgt, transfer.CollectOptions{
			RunName:   runName,
			RemoteDir: w.Settings.Remote.OutputDir,
			LocalBase: w.Settings.Paths.LocalData,
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return
		}
		fmt.Printf("Results in %s\n", dir)
	})
}

func init() {
	addInstanceFlag(runCmd, &runInstanceNo)
	runCmd.Flags().BoolVar(&runTmux, "tmux", false, "detach the run in a tmux session instead of sbatch")
	runCmd.Flags().StringVar(&runOptions, "options", "", "extra arguments passed through to run_imi.sh")
	rootCmd.AddCommand(runCmd)
}
