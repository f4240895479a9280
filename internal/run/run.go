// Package run submits an inversion on a prepared instance and watches its
// log. Submission uploads the run config (and Kalman periods when present),
// then starts run_imi.sh either under sbatch or inside a detached tmux
// session, so the inversion survives the SSH connection going away.
package run

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

// DefaultLogFile is where a tmux-detached run writes its output.
const DefaultLogFile = "imi_output.log"

// kalmanFile is uploaded as periods.csv when it exists next to the config.
const kalmanFile = "KalmanPeriods.csv"

var log = logger.NewEnvLogger("[run]")

// Options describes one inversion submission.
type Options struct {
	ConfigPath string            // local path to the run config
	RunConfig  *config.RunConfig // parsed and validated config
	Tmux       bool              // detached tmux session instead of sbatch
	ExtraArgs  string            // extra arguments passed through to run_imi.sh
}

// BuildStartCommand returns the remote command that launches the inversion.
// Exported so scheduler selection is testable without an instance.
func BuildStartCommand(imiDir, configFile, extraArgs string, tmux bool) string {
	args := configFile
	if extraArgs != "" {
		args += " " + extraArgs
	}
	var start string
	if tmux {
		start = sshutil.TmuxWrap("imi", fmt.Sprintf("./run_imi.sh %s > %s", args, DefaultLogFile))
	} else {
		start = "sbatch run_imi.sh " + args
	}
	return "cd " + imiDir + " && " + start
}

// Submit uploads the run inputs and starts the inversion. The caller is
// expected to have validated the RunConfig (name match, scheduler choice)
// already.
func Submit(r sshutil.Runner, t transfer.Target, s *config.Settings, opts Options, out io.Writer) error {
	imiDir := s.Remote.IMIDir

	// The Kalman periods file is optional; inversions without Kalman mode
	// don't have one.
	kalmanPath := filepath.Join(filepath.Dir(opts.ConfigPath), kalmanFile)
	if _, err := os.Stat(kalmanPath); err == nil {
		fmt.Fprintf(out, "  → %s\n", kalmanFile)
		if err := transfer.Push(t, kalmanPath, imiDir+"/periods.csv"); err != nil {
			return err
		}
	} else {
		log.Warn("%s not found, skipping transfer", kalmanFile)
		fmt.Fprintf(out, "  (%s not found, skipping)\n", kalmanFile)
	}

	fmt.Fprintf(out, "  → %s\n", filepath.Base(opts.ConfigPath))
	if err := transfer.Push(t, opts.ConfigPath, imiDir+"/"); err != nil {
		return err
	}

	cmd := BuildStartCommand(imiDir, filepath.Base(opts.ConfigPath), opts.ExtraArgs, opts.Tmux)
	log.Debug("remote: %s", cmd)

	_, stderr, code, err := r.Exec(cmd)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrExec,
			"Starting the inversion on the instance failed",
			"Check the instance is reachable and run_imi.sh exists in "+imiDir)
	}
	if code != 0 {
		return errors.New(errors.ErrExec,
			fmt.Sprintf("Starting the inversion failed (exit %d): %s", code, strings.TrimSpace(string(stderr))),
			"For tmux runs make sure instance_setup has been done; for Slurm runs check sbatch is available")
	}
	return nil
}
