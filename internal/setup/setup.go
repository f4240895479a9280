// Package setup bootstraps a freshly launched instance: it pushes the helper
// scripts and region data files the inversion needs, then runs the remote
// install commands.
package setup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/imi-tools/imirun/internal/config"
	"github.com/imi-tools/imirun/internal/errors"
	"github.com/imi-tools/imirun/internal/logger"
	"github.com/imi-tools/imirun/internal/transfer"
	"github.com/imi-tools/imirun/pkg/sshutil"
)

var log = logger.NewEnvLogger("[setup]")

// fileCopy pairs a local file with its remote destination directory.
type fileCopy struct {
	local     string
	remoteDir string
}

// Plan describes the files and commands a bootstrap will apply.
type Plan struct {
	copies   []fileCopy
	commands []string
}

// BuildPlan assembles the bootstrap plan from the settings. Local paths are
// resolved relative to baseDir, the directory the settings file lives in.
func BuildPlan(s *config.Settings, baseDir string) Plan {
	homeDir := "/home/" + s.Remote.User
	copies := []fileCopy{
		{filepath.Join(baseDir, "tmux_install.sh"), homeDir},
		{filepath.Join(baseDir, "fixslurm.sh"), homeDir},
		{filepath.Join(baseDir, s.Region.Shapefile+".shp"), s.Remote.IMIDir},
		{filepath.Join(baseDir, s.Region.Shapefile+".shx"), s.Remote.IMIDir},
		{filepath.Join(baseDir, s.Region.StateVector), s.Remote.IMIDir},
	}
	commands := []string{
		"sudo apt remove -y tmux",
		"chmod +x tmux_install.sh && ./tmux_install.sh",
		"chmod +x fixslurm.sh && ./fixslurm.sh",
	}
	return Plan{copies: copies, commands: commands}
}

// RemoteCommand returns the single && chain executed on the instance.
// Chaining stops at the first failure so a broken tmux build doesn't get
// half-patched slurm config on top.
func (p Plan) RemoteCommand() string {
	return strings.Join(p.commands, " && ")
}

// Apply pushes the plan's files and runs its remote commands. Missing local
// files are warned about and skipped; a fresh checkout without the optional
// region data should still get tmux installed.
func Apply(r sshutil.Runner, t transfer.Target, p Plan, out io.Writer) error {
	for _, fc := range p.copies {
		if _, err := os.Stat(fc.local); err != nil {
			log.Warn("missing file: %s", fc.local)
			fmt.Fprintf(out, "  ! missing file, skipping: %s\n", fc.local)
			continue
		}
		fmt.Fprintf(out, "  → %s\n", filepath.Base(fc.local))
		if err := transfer.Push(t, fc.local, fc.remoteDir+"/"); err != nil {
			return err
		}
	}

	cmd := p.RemoteCommand()
	log.Debug("remote: %s", cmd)
	code, err := r.ExecStream(cmd, out, out)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrExec,
			"Running the setup commands on the instance failed",
			"Re-run once the instance is reachable: imirun instance_setup")
	}
	if code != 0 {
		return errors.New(errors.ErrExec,
			fmt.Sprintf("Setup commands exited with status %d", code),
			"Check the output above; the chain stops at the first failing step")
	}
	return nil
}
