package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRunConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadRunConfig(t *testing.T) {
	path := writeRunConfig(t, "permian_2023.yml", `
RunName: permian_2023
UseSlurm: true
StartDate: 20230101
`)

	rc, err := LoadRunConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "permian_2023", rc.RunName)
	require.NotNil(t, rc.UseSlurm)
	assert.True(t, *rc.UseSlurm)
}

func TestLoadRunConfigNameMismatch(t *testing.T) {
	path := writeRunConfig(t, "permian_2023.yml", "RunName: permian_2022\n")

	_, err := LoadRunConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match RunName")
}

func TestLoadRunConfigQuotedName(t *testing.T) {
	// YAML quoting must not break the stem comparison.
	path := writeRunConfig(t, "permian_2023.yml", `RunName: "permian_2023"`+"\n")

	rc, err := LoadRunConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "permian_2023", rc.RunName)
}

func TestLoadRunConfigMissingFile(t *testing.T) {
	_, err := LoadRunConfig(filepath.Join(t.TempDir(), "absent.yml"))
	assert.Error(t, err)
}

func TestValidateScheduler(t *testing.T) {
	boolPtr := func(b bool) *bool { return &b }

	tests := []struct {
		name     string
		useSlurm *bool
		tmux     bool
		wantErr  bool
	}{
		{name: "slurm without tmux", useSlurm: boolPtr(true), tmux: false},
		{name: "slurm with tmux conflicts", useSlurm: boolPtr(true), tmux: true, wantErr: true},
		{name: "no slurm with tmux", useSlurm: boolPtr(false), tmux: true},
		{name: "no slurm without tmux conflicts", useSlurm: boolPtr(false), tmux: false, wantErr: true},
		{name: "unset skips the check", useSlurm: nil, tmux: false},
		{name: "unset skips the check with tmux", useSlurm: nil, tmux: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := &RunConfig{UseSlurm: tt.useSlurm}
			err := rc.ValidateScheduler(tt.tmux)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
