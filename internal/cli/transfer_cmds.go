package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/imi-tools/imirun/internal/transfer"
	"github.com/imi-tools/imirun/internal/ui"
)

var (
	copyLocalInstanceNo int
	copyLocalOverwrite  bool
	copyS3InstanceNo    int
)

var copyLocalCmd = &cobra.Command{
	Use:   "copy_local <run_name>",
	Short: "Copy run results from the instance to local storage",
	Long: `Pull an inversion run's results down from the instance into the
configured local data directory.

Directories (preview, inversion, hemco_prior_emis, archive_sf) come down
with rsync; the log, state vector, and config files with scp. The local
destination is <local_data>/<run_name>; if that exists, a _1/_2/... suffix
is appended unless --overwrite is given.

Examples:
  imirun copy_local test_run
  imirun copy_local test_run -i 1 --overwrite`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return copyLocalCommand(args[0], copyLocalInstanceNo, copyLocalOverwrite)
	},
}

func copyLocalCommand(runName string, index int, overwrite bool) error {
	if err := validateIndex(index); err != nil {
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

	fmt.Printf("Copying results for %s...\n", runName)
	dir, err := transfer.Collect(client, tgt, transfer.CollectOptions{
		RunName:   runName,
		RemoteDir: w.Settings.Remote.OutputDir,
		LocalBase: w.Settings.Paths.LocalData,
		Overwrite: overwrite,
	})
	if err != nil {
		return err
	}

	fmt.Printf("%s Results in %s\n", ui.SymbolSuccess, dir)
	return nil
}

var copyS3Cmd = &cobra.Command{
	Use:   "copy_from_s3 <run_name>",
	Short: "Pull archived run output from S3 onto the instance",
	Long: `Download <s3_data>/<run_name>/<run_name>.tar.gz on the instance and
unpack it into the instance's output directory.

The download runs in a detached tmux session, so it continues after this
command returns; check on it with 'imirun shell "tmux attach -t s3sync"'.

Examples:
  imirun copy_from_s3 test_run
  imirun copy_from_s3 test_run -i 1`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return copyS3Command(args[0], copyS3InstanceNo)
	},
}

func copyS3Command(runName string, index int) error {
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

	err = transfer.PullFromS3(client, w.Settings.Paths.S3Data, runName, w.Settings.Remote.OutputDir)
	if err != nil {
		return err
	}

	fmt.Printf("%s Started S3 download for %s in tmux session s3sync\n", ui.SymbolSuccess, runName)
	return nil
}

func init() {
	addInstanceFlag(copyLocalCmd, &copyLocalInstanceNo)
	copyLocalCmd.Flags().BoolVar(&copyLocalOverwrite, "overwrite", false, "reuse the existing local directory instead of numbering")
	addInstanceFlag(copyS3Cmd, &copyS3InstanceNo)

	rootCmd.AddCommand(copyLocalCmd)
	rootCmd.AddCommand(copyS3Cmd)
}
