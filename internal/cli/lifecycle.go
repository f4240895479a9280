package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/imi-tools/imirun/internal/errors"
	"github.com/imi-tools/imirun/internal/registry"
	"github.com/imi-tools/imirun/internal/ui"
)

var (
	terminateInstanceNo int
	terminateYes        bool
	stopInstanceNo      int
	restartInstanceNo   int
	cancelSpotNo        int
)

var terminateCmd = &cobra.Command{
	Use:   "terminate",
	Short: "Terminate an instance",
	Long: `Terminate the instance recorded under the given index.

WARNING: the attached volume may be deleted with the instance. Any results
not yet pulled down with copy_local are lost.

Examples:
  imirun terminate
  imirun terminate -i 1 --yes`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return terminateCommand(terminateInstanceNo, terminateYes)
	},
}

func terminateCommand(index int, yes bool) error {
	if err := validateIndex(index); err != nil {
		return err
	}
	w, err := setupWorkflow()
	if err != nil {
		return err
	}
	return runTerminate(w, index, yes)
}

// confirmTerminate prompts for the terminate confirmation. A variable so
// tests can substitute the prompt.
var confirmTerminate = func(rec registry.Record) (bool, error) {
	var proceed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Terminate instance %s (index %d)?\nThe attached volume may be deleted.", rec.InstanceID, rec.Index)).
				Value(&proceed),
		),
	)
	if err := form.Run(); err != nil {
		return false, err
	}
	return proceed, nil
}

func runTerminate(w *workflow, index int, yes bool) error {
	rec, err := w.Store.Get(index)
	if err != nil {
		return err
	}
	if rec.State == registry.StateTerminated {
		fmt.Printf("Instance %s is already terminated\n", rec.InstanceID)
		return nil
	}

	if !yes {
		proceed, err := confirmTerminate(rec)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrExec,
				"Couldn't read the terminate confirmation",
				"Pass --yes to terminate without a prompt")
		}
		if !proceed {
			fmt.Println("Aborted")
			return nil
		}
	}

	if err := w.Cloud.Terminate(rec.InstanceID); err != nil {
		return err
	}

	rec.State = registry.StateTerminated
	rec.PublicIP = ""
	if err := w.touch(rec); err != nil {
		return err
	}

	fmt.Printf("%s Terminated instance %s\n", ui.SymbolSuccess, rec.InstanceID)
	return nil
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop a running instance",
	Long: `Stop the instance recorded under the given index. The instance keeps
its volume and can be brought back with 'imirun restart'; its public IP is
released and will change on restart.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopCommand(stopInstanceNo)
	},
}

func stopCommand(index int) error {
	if err := validateIndex(index); err != nil {
		return err
	}
	w, err := setupWorkflow()
	if err != nil {
		return err
	}
	return runStop(w, index)
}

func runStop(w *workflow, index int) error {
	rec, err := w.Store.Get(index)
	if err != nil {
		return err
	}
	if rec.State != registry.StateRunning {
		return errors.New(errors.ErrRegistry,
			fmt.Sprintf("Instance %d is %s, not running", index, rec.State),
			"Only a running instance can be stopped")
	}

	if err := w.Cloud.Stop(rec.InstanceID); err != nil {
		return err
	}

	rec.State = registry.StateStopped
	rec.PublicIP = ""
	if err := w.touch(rec); err != nil {
		return err
	}

	fmt.Printf("%s Stopped instance %s\n", ui.SymbolSuccess, rec.InstanceID)
	return nil
}

var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart a stopped instance",
	Long: `Start the stopped instance recorded under the given index, wait until
it is running again, and record its new public address.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return restartCommand(restartInstanceNo)
	},
}

func restartCommand(index int) error {
	if err := validateIndex(index); err != nil {
		return err
	}
	w, err := setupWorkflow()
	if err != nil {
		return err
	}
	return runRestart(w, index)
}

func runRestart(w *workflow, index int) error {
	rec, err := w.Store.Get(index)
	if err != nil {
		return err
	}
	if rec.State != registry.StateStopped {
		return errors.New(errors.ErrRegistry,
			fmt.Sprintf("Instance %d is %s, not stopped", index, rec.State),
			"Only a stopped instance can be restarted")
	}

	pd := w.Display
	start := time.Now()
	pd.RenderProgress("Starting instance")
	live, err := w.Cloud.Start(rec.InstanceID)
	if err != nil {
		pd.RenderFailed("Starting instance", time.Since(start))
		return err
	}
	pd.RenderSuccess("Instance running at "+live.PublicDNS, time.Since(start))

	rec.State = registry.StateRunning
	rec.PublicIP = live.PublicDNS
	if err := w.touch(rec); err != nil {
		return err
	}
	return nil
}

var cancelSpotCmd = &cobra.Command{
	Use:   "cancel_spot",
	Short: "Cancel an outstanding spot request",
	Long: `Cancel the spot request attached to the instance recorded under the
given index. Only valid while the request is still outstanding (the record
is pending); cancelling does not touch an instance that already launched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cancelSpotCommand(cancelSpotNo)
	},
}

func cancelSpotCommand(index int) error {
	if err := validateIndex(index); err != nil {
		return err
	}
	w, err := setupWorkflow()
	if err != nil {
		return err
	}
	return runCancelSpot(w, index)
}

func runCancelSpot(w *workflow, index int) error {
	rec, err := w.Store.Get(index)
	if err != nil {
		return err
	}
	if rec.State != registry.StatePending || rec.SpotRequestID == "" {
		return errors.New(errors.ErrRegistry,
			fmt.Sprintf("Instance %d has no outstanding spot request", index),
			"cancel_spot only applies while a spot launch is still pending")
	}

	state, err := w.Cloud.SpotRequestState(rec.SpotRequestID)
	if err != nil {
		return err
	}
	if state != "open" && state != "active" {
		return errors.New(errors.ErrAWS,
			fmt.Sprintf("Spot request %s is already %s", rec.SpotRequestID, state),
			"Nothing to cancel")
	}

	if err := w.Cloud.CancelSpotRequest(rec.SpotRequestID); err != nil {
		return err
	}

	fmt.Printf("%s Cancelled spot request %s\n", ui.SymbolSuccess, rec.SpotRequestID)
	return nil
}

func init() {
	addInstanceFlag(terminateCmd, &terminateInstanceNo)
	terminateCmd.Flags().BoolVarP(&terminateYes, "yes", "y", false, "skip the confirmation prompt")
	addInstanceFlag(stopCmd, &stopInstanceNo)
	addInstanceFlag(restartCmd, &restartInstanceNo)
	addInstanceFlag(cancelSpotCmd, &cancelSpotNo)

	rootCmd.AddCommand(terminateCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(restartCmd)
	rootCmd.AddCommand(cancelSpotCmd)
}
