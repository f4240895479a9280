package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/imi-tools/imirun/internal/cloud"
	"github.com/imi-tools/imirun/internal/registry"
	"github.com/imi-tools/imirun/internal/ui"
)

var getInstanceNo int

var getInstanceCmd = &cobra.Command{
	Use:   "get_instance",
	Short: "Show instances and the selected record",
	Long: `List the account's EC2 instances in the configured region, then show
the record for the given index. The record's state and public address are
reconciled against what the provider reports, so an instance stopped or
terminated outside this tool shows its real state.

Examples:
  imirun get_instance
  imirun get_instance -i 1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return getInstanceCommand(getInstanceNo)
	},
}

func getInstanceCommand(index int) error {
	if err := validateIndex(index); err != nil {
		return err
	}
	w, err := setupWorkflow()
	if err != nil {
		return err
	}

	instances, err := w.Cloud.List()
	if err != nil {
		return err
	}
	fmt.Println(ui.RenderInstanceTable(w.instanceRows(instances)))

	rec, err := w.Store.Get(index)
	if err != nil {
		return err
	}

	rec, err = reconcile(w, rec, instances)
	if err != nil {
		return err
	}

	fmt.Printf("\nSelected instance %d:\n", index)
	fmt.Printf("  ID: %s\n", rec.InstanceID)
	fmt.Printf("  State: %s\n", rec.State)
	if rec.PublicIP != "" {
		fmt.Printf("  Public DNS: %s\n", rec.PublicIP)
	}
	if rec.InstanceType != "" {
		fmt.Printf("  Type: %s\n", rec.InstanceType)
	}
	if rec.LaunchedAt != nil {
		fmt.Printf("  Launched: %s\n", rec.LaunchedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

// reconcile folds the provider's view of the record's instance back into
// the registry. An instance that disappeared from the listing has been
// terminated and cleaned up provider-side.
func reconcile(w *workflow, rec registry.Record, instances []cloud.Instance) (registry.Record, error) {
	var live *cloud.Instance
	for i := range instances {
		if instances[i].ID == rec.InstanceID {
			live = &instances[i]
			break
		}
	}

	updated := rec
	if live == nil {
		updated.State = registry.StateTerminated
		updated.PublicIP = ""
	} else {
		updated.State = stateFromProvider(live.State)
		if updated.State == registry.StateRunning {
			updated.PublicIP = live.PublicDNS
		} else {
			updated.PublicIP = ""
		}
	}

	if updated.State == rec.State && updated.PublicIP == rec.PublicIP {
		return rec, nil
	}
	if err := w.touch(updated); err != nil {
		return rec, err
	}
	return updated, nil
}

func init() {
	addInstanceFlag(getInstanceCmd, &getInstanceNo)
	rootCmd.AddCommand(getInstanceCmd)
}
