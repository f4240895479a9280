package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/imi-tools/imirun/internal/errors"
	"github.com/imi-tools/imirun/internal/launch"
	"github.com/imi-tools/imirun/internal/registry"
	"github.com/imi-tools/imirun/internal/setup"
	"github.com/imi-tools/imirun/internal/ui"
	"github.com/imi-tools/imirun/pkg/sshutil"
)

var (
	createInstanceNo int
	createOptions    string
	createSkipSetup  bool
)

// sshProbeAttempts x sshProbeInterval bounds how long create waits for the
// instance to accept SSH after passing status checks.
const (
	sshProbeAttempts = 10
	sshProbeInterval = 30 * time.Second
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Launch a new EC2 instance",
	Long: `Launch an EC2 instance from the configured launch template, wait until
it is running and reachable over SSH, then bootstrap it.

The new instance is recorded under the given index (-i, default 0). Settings
from settings.yml (key name, instance type, AMI) layer on top of the launch
template; --options overrides individual request fields on top of both.

Examples:
  imirun create
  imirun create -i 1 --options '{"InstanceType":"t3.micro"}'
  imirun create --options '{"Spot":true}' --skip-setup`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return createCommand(createInstanceNo, createOptions, createSkipSetup)
	},
}

func createCommand(index int, options string, skipSetup bool) error {
	if err := validateIndex(index); err != nil {
		return err
	}

	ov, err := launch.ParseOverrides(options)
	if err != nil {
		return err
	}

	w, err := setupWorkflow()
	if err != nil {
		return err
	}

	if rec, err := w.Store.Get(index); err == nil && rec.State != registry.StateTerminated {
		return errors.New(errors.ErrRegistry,
			fmt.Sprintf("Index %d already tracks instance %s (%s)", index, rec.InstanceID, rec.State),
			fmt.Sprintf("Terminate it first, or launch under a free index: imirun create -i %d", index+1))
	}

	pd := w.Display
	start := time.Now()

	pd.RenderProgress("Requesting instance")
	inst, err := w.Cloud.Launch(launch.BuildRequest(w.Settings.AWS, ov))
	if err != nil {
		pd.RenderFailed("Requesting instance", time.Since(start))
		return err
	}
	pd.RenderSuccess("Instance "+inst.ID+" requested", time.Since(start))

	launched := time.Now().UTC()
	rec := registry.Record{
		Index:         index,
		InstanceID:    inst.ID,
		SpotRequestID: inst.SpotRequestID,
		InstanceType:  inst.Type,
		State:         registry.StatePending,
		LaunchedAt:    &launched,
	}
	if err := w.touch(rec); err != nil {
		return err
	}

	phase := time.Now()
	pd.RenderProgress("Waiting for instance to pass status checks")
	if err := w.Cloud.WaitReady(inst.ID); err != nil {
		pd.RenderFailed("Status checks", time.Since(phase))
		return err
	}

	live, err := w.Cloud.Describe(inst.ID)
	if err != nil {
		return err
	}
	pd.RenderSuccess("Instance running at "+live.PublicDNS, time.Since(phase))

	rec.PublicIP = live.PublicDNS
	rec.State = registry.StateRunning
	if err := w.touch(rec); err != nil {
		return err
	}

	phase = time.Now()
	pd.RenderProgress("Waiting for SSH")
	if err := probeSSH(live.PublicDNS, w.sshOptions()); err != nil {
		pd.RenderFailed("SSH connectivity", time.Since(phase))
		return err
	}
	pd.RenderSuccess("SSH reachable", time.Since(phase))

	if skipSetup {
		pd.RenderSkipped("Instance setup", "--skip-setup")
		return nil
	}
	return setupRecordedInstance(w, rec)
}

// probeSSH retries until the instance accepts an SSH connection. Status
// checks passing doesn't mean sshd is up yet.
func probeSSH(host string, opts sshutil.Options) error {
	var err error
	for attempt := 0; attempt < sshProbeAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(sshProbeInterval)
		}
		if err = sshutil.Probe(host, opts); err == nil {
			return nil
		}
	}
	return errors.Wrap(err, "Instance never became reachable over SSH")
}

// setupRecordedInstance runs the bootstrap against an already recorded,
// running instance. Shared by create and instance_setup.
func setupRecordedInstance(w *workflow, rec registry.Record) error {
	tgt, err := w.target(rec)
	if err != nil {
		return err
	}

	client, err := sshutil.Dial(tgt.Host, w.sshOptions())
	if err != nil {
		return err
	}
	defer client.Close() //nolint:errcheck

	fmt.Println("Setting up instance...")
	plan := setup.BuildPlan(w.Settings, w.BaseDir)
	if err := setup.Apply(client, tgt, plan, os.Stdout); err != nil {
		return err
	}
	fmt.Printf("%s Instance %d ready\n", ui.SymbolSuccess, rec.Index)
	return nil
}

func init() {
	addInstanceFlag(createCmd, &createInstanceNo)
	createCmd.Flags().StringVar(&createOptions, "options", "", `JSON overrides for the launch request, e.g. '{"InstanceType":"t3.micro"}'`)
	createCmd.Flags().BoolVar(&createSkipSetup, "skip-setup", false, "skip the bootstrap after launch")
	rootCmd.AddCommand(createCmd)
}
