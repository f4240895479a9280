package cli

import (
	"github.com/spf13/cobra"
)

var setupInstanceNo int

var setupCmd = &cobra.Command{
	Use:   "instance_setup",
	Short: "Run setup scripts on an existing instance",
	Long: `Push the bootstrap files (tmux installer, slurm fix, region shapefile,
state vector) to the instance recorded under the given index and run the
setup commands. Normally done automatically by 'create'; use this to re-run
the bootstrap or to prepare an instance created with --skip-setup.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setupCommand(setupInstanceNo)
	},
}

func setupCommand(index int) error {
	if err := validateIndex(index); err != nil {
		return err
	}
	w, err := setupWorkflow()
	if err != nil {
		return err
	}

	rec, err := w.Store.Get(index)
	if err != nil {
		return err
	}
	return setupRecordedInstance(w, rec)
}

func init() {
	addInstanceFlag(setupCmd, &setupInstanceNo)
	rootCmd.AddCommand(setupCmd)
}
