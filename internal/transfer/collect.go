package transfer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/imi-tools/imirun/internal/errors"
	"github.com/imi-tools/imirun/pkg/sshutil"
)

// resultDirs are the remote output subdirectories mirrored by Collect.
var resultDirs = []string{"preview", "inversion", "hemco_prior_emis", "archive_sf"}

// resultFiles are the remote single files pulled by Collect. The run's own
// config file is handled separately because it gets renamed on the way down.
var resultFiles = []string{"imi_output.log", "StateVector.nc"}

// CollectOptions controls where Collect reads from and writes to.
type CollectOptions struct {
	RunName   string // inversion run name, also the remote output subdir
	RemoteDir string // remote output base, e.g. /home/ubuntu/imi_output_dir
	LocalBase string // local data base, e.g. ~/imi/output
	Overwrite bool   // reuse an existing local directory instead of numbering
}

// ResolveLocalDir picks the local destination directory for a collection.
// With overwrite the plain <base>/<run> path is returned even if it exists;
// otherwise a _N suffix is appended until the name is free.
func ResolveLocalDir(base, runName string, overwrite bool) string {
	dir := filepath.Join(base, runName)
	if overwrite {
		return dir
	}
	candidate := dir
	for n := 1; ; n++ {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
		candidate = fmt.Sprintf("%s_%d", dir, n)
	}
}

// Collect pulls an inversion run's results from the instance into local
// storage. Directories come down with rsync, single files with scp, and any
// *.yml configs in the run directory are picked up by listing them remotely.
// Individual missing items are logged and skipped: a run that died early
// still has partial results worth keeping.
func Collect(r sshutil.Runner, t Target, opts CollectOptions) (string, error) {
	if opts.RunName == "" {
		return "", errors.New(errors.ErrTransfer,
			"A run name is required to collect results",
			"Pass the run name: imirun copy_local <run_name>")
	}

	localDir := ResolveLocalDir(opts.LocalBase, opts.RunName, opts.Overwrite)
	if err := os.MkdirAll(localDir, 0o755); err != nil {
		return "", errors.WrapWithCode(err, errors.ErrTransfer,
			"Couldn't create local directory "+localDir, "")
	}

	remoteRun := opts.RemoteDir + "/" + opts.RunName

	for _, dir := range resultDirs {
		remote := remoteRun + "/" + dir
		local := filepath.Join(localDir, dir)
		if err := PullDir(t, remote, local, os.Stdout); err != nil {
			log.Debug("skipping %s: %v", dir, err)
			fmt.Printf("  (no %s directory on the instance, skipping)\n", dir)
		}
	}

	for _, name := range resultFiles {
		if err := Pull(t, remoteRun+"/"+name, filepath.Join(localDir, name)); err != nil {
			log.Debug("skipping %s: %v", name, err)
		}
	}

	for _, name := range listRemoteYML(r, remoteRun) {
		local := name
		if name == "config_"+opts.RunName+".yml" {
			local = "config.yml"
		}
		if err := Pull(t, remoteRun+"/"+name, filepath.Join(localDir, local)); err != nil {
			log.Debug("skipping %s: %v", name, err)
		}
	}

	return localDir, nil
}

// listRemoteYML returns the base names of *.yml files in the remote run
// directory. A failed listing just yields nothing to pull.
func listRemoteYML(r sshutil.Runner, remoteRun string) []string {
	stdout, _, code, err := r.Exec("ls " + remoteRun + "/*.yml 2>/dev/null")
	if err != nil || code != 0 {
		return nil
	}
	var names []string
	for _, line := range strings.Split(strings.TrimSpace(string(stdout)), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		names = append(names, filepath.Base(line))
	}
	return names
}
