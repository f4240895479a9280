package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/imi-tools/imirun/internal/cloud"
	"github.com/imi-tools/imirun/internal/config"
	"github.com/imi-tools/imirun/internal/errors"
	"github.com/imi-tools/imirun/internal/registry"
	"github.com/imi-tools/imirun/internal/transfer"
	"github.com/imi-tools/imirun/internal/ui"
	"github.com/imi-tools/imirun/pkg/sshutil"
)

// workflow holds the state every action needs: the loaded settings, the
// instance registry, the cloud client, and a phase display for progress.
type workflow struct {
	Settings *config.Settings
	BaseDir  string // directory the settings file lives in
	Store    *registry.Store
	Cloud    *cloud.Client
	Display  *ui.PhaseDisplay
}

// setupWorkflow finds and loads settings.yml, validates it, and opens the
// registry. The registry path from the settings resolves relative to the
// settings file, not the cwd, so invocations from subdirectories see the
// same instances.
func setupWorkflow() (*workflow, error) {
	path, err := config.Find(Config())
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, errors.New(errors.ErrConfig,
			"No "+config.SettingsFileName+" found",
			"Create one in your project directory, or point at one with --config")
	}

	settings, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(settings); err != nil {
		return nil, err
	}

	baseDir := filepath.Dir(path)
	regPath := config.ExpandTilde(settings.Registry)
	if !filepath.IsAbs(regPath) {
		regPath = filepath.Join(baseDir, regPath)
	}

	return &workflow{
		Settings: settings,
		BaseDir:  baseDir,
		Store:    registry.NewStore(regPath),
		Cloud:    cloud.New(settings.AWS.Region),
		Display:  ui.NewPhaseDisplay(os.Stdout),
	}, nil
}

// sshOptions builds the SSH options all remote sessions use.
func (w *workflow) sshOptions() sshutil.Options {
	return sshutil.Options{
		User:    w.Settings.Remote.User,
		KeyPath: w.Settings.Paths.SSHKey,
		Timeout: sshutil.DefaultDialTimeout,
	}
}

// target resolves a record to the scp/rsync transfer target.
func (w *workflow) target(rec registry.Record) (transfer.Target, error) {
	addr, err := rec.Address()
	if err != nil {
		return transfer.Target{}, err
	}
	return transfer.Target{
		User:    w.Settings.Remote.User,
		Host:    addr,
		KeyPath: w.Settings.Paths.SSHKey,
	}, nil
}

// dial resolves the record for index and opens an SSH session to it.
func (w *workflow) dial(index int) (*sshutil.Client, registry.Record, error) {
	rec, err := w.Store.Get(index)
	if err != nil {
		return nil, registry.Record{}, err
	}
	addr, err := rec.Address()
	if err != nil {
		return nil, rec, err
	}
	client, err := sshutil.Dial(addr, w.sshOptions())
	if err != nil {
		return nil, rec, err
	}
	return client, rec, nil
}

// touch stamps and persists a record mutation. Called only after the
// provider call it reflects has succeeded.
func (w *workflow) touch(rec registry.Record) error {
	rec.UpdatedAt = time.Now().UTC()
	return w.Store.Put(rec)
}

// instanceRows converts live instances to table rows, labelling each with
// its registry index when one of our records matches it.
func (w *workflow) instanceRows(instances []cloud.Instance) [][]string {
	byID := map[string]int{}
	if recs, err := w.Store.List(); err == nil {
		for _, rec := range recs {
			if rec.InstanceID != "" {
				byID[rec.InstanceID] = rec.Index
			}
		}
	}

	rows := make([][]string, 0, len(instances))
	for _, inst := range instances {
		idx := "-"
		if i, ok := byID[inst.ID]; ok {
			idx = fmt.Sprintf("%d", i)
		}
		dns := inst.PublicDNS
		if dns == "" {
			dns = "N/A"
		}
		launched := ""
		if !inst.LaunchTime.IsZero() {
			launched = inst.LaunchTime.Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{idx, inst.ID, inst.State, inst.Type, dns, launched})
	}
	return rows
}

// stateFromProvider maps a provider instance state name onto the registry
// lifecycle states.
func stateFromProvider(s string) registry.State {
	switch s {
	case "pending":
		return registry.StatePending
	case "running":
		return registry.StateRunning
	case "stopping", "stopped":
		return registry.StateStopped
	case "shutting-down", "terminated":
		return registry.StateTerminated
	default:
		return registry.StateNone
	}
}
