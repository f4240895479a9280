package cli

import (
	"github.com/spf13/cobra"

	"github.com/imi-tools/imirun/internal/errors"
)

// addInstanceFlag registers the -i/--instance_no flag index-scoped
// commands share. Index 0 is the common single-instance case.
func addInstanceFlag(cmd *cobra.Command, dest *int) {
	cmd.Flags().IntVarP(dest, "instance_no", "i", 0, "0-based instance index")
}

// validateIndex rejects negative instance indices before any work happens.
func validateIndex(index int) error {
	if index < 0 {
		return errors.New(errors.ErrConfig,
			"Instance index can't be negative",
			"Indices start at 0: imirun <action> -i 0")
	}
	return nil
}
