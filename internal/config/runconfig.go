package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/imi-tools/imirun/internal/errors"
	"gopkg.in/yaml.v3"
)

// RunConfig is the slice of the inversion configuration file this tool
// actually reads. The file belongs to the downstream inversion tool; we only
// check the fields that would waste an instance-launch if they were wrong.
type RunConfig struct {
	// RunName must equal the config filename stem (inversion tool requirement).
	RunName string `yaml:"RunName"`

	// UseSlurm is a tristate: nil means the file didn't say.
	UseSlurm *bool `yaml:"UseSlurm"`

	// Path is where the file was loaded from (not part of the YAML).
	Path string `yaml:"-"`
}

// Stem returns the config filename without directory or extension.
func (rc *RunConfig) Stem() string {
	base := filepath.Base(rc.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// LoadRunConfig reads an inversion config file and validates RunName
// against the filename stem.
func LoadRunConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot read run config "+path,
			"Check the file exists")
	}

	rc := &RunConfig{Path: path}
	if err := yaml.Unmarshal(data, rc); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Run config "+path+" is not valid YAML",
			"Check the file syntax")
	}

	if rc.RunName != "" && rc.RunName != rc.Stem() {
		return nil, errors.New(errors.ErrConfig,
			fmt.Sprintf("Config filename '%s' does not match RunName '%s'", rc.Stem(), rc.RunName),
			"Rename the file (or the RunName value) so they match - the inversion tool requires it")
	}

	return rc, nil
}

// ValidateScheduler checks UseSlurm against the --tmux flag.
// UseSlurm=true submits through the cluster scheduler, so a tmux session is
// redundant; UseSlurm=false runs in the foreground, so the command must be
// detached with --tmux to survive disconnects.
func (rc *RunConfig) ValidateScheduler(tmux bool) error {
	if rc.UseSlurm == nil {
		return nil
	}
	if *rc.UseSlurm && tmux {
		return errors.New(errors.ErrConfig,
			"Configuration conflict: UseSlurm=true cannot be used with --tmux",
			"When using Slurm, omit the --tmux option")
	}
	if !*rc.UseSlurm && !tmux {
		return errors.New(errors.ErrConfig,
			"Configuration conflict: UseSlurm=false requires --tmux",
			"Add --tmux so the run survives SSH disconnects")
	}
	return nil
}
