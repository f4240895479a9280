package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettings(t *testing.T) {
	cfg := DefaultSettings()

	assert.Equal(t, "imikey", cfg.AWS.KeyName)
	assert.Equal(t, "ubuntu", cfg.Remote.User)
	assert.Equal(t, "/home/ubuntu/integrated_methane_inversion", cfg.Remote.IMIDir)
	assert.Equal(t, "/home/ubuntu/imi_output_dir", cfg.Remote.OutputDir)
	assert.Equal(t, "StateVector.nc", cfg.Region.StateVector)
	assert.Equal(t, ".imirun/instances.json", cfg.Registry)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yml")

	content := `
aws:
  region: us-east-1
  ami_id: ami-0abc123
  instance_type: c5.9xlarge
  launch_template_id: lt-0def456
paths:
  ssh_key: ~/.ssh/imikey.pem
  local_data: /data/imi
  s3_data: s3://imidata
region:
  shapefile: CONUS
  state_vector: StateVector.nc
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "us-east-1", cfg.AWS.Region)
	assert.Equal(t, "ami-0abc123", cfg.AWS.AMIID)
	assert.Equal(t, "c5.9xlarge", cfg.AWS.InstanceType)
	assert.Equal(t, "lt-0def456", cfg.AWS.LaunchTemplateID)
	assert.Equal(t, "/data/imi", cfg.Paths.LocalData)
	assert.Equal(t, "s3://imidata", cfg.Paths.S3Data)
	assert.Equal(t, "CONUS", cfg.Region.Shapefile)

	// Defaults still merged under explicit values
	assert.Equal(t, "imikey", cfg.AWS.KeyName)
	assert.Equal(t, "ubuntu", cfg.Remote.User)

	// Tilde expanded for local paths
	home, _ := os.UserHomeDir()
	assert.Equal(t, filepath.Join(home, ".ssh", "imikey.pem"), cfg.Paths.SSHKey)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "settings.yml"))
	require.Error(t, err)
}

func TestFindExplicit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yml")
	require.NoError(t, os.WriteFile(path, []byte("aws: {}"), 0644))

	found, err := Find(path)
	require.NoError(t, err)
	assert.Equal(t, path, found)

	_, err = Find(filepath.Join(dir, "nope.yml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Settings {
		cfg := DefaultSettings()
		cfg.AWS.Region = "us-east-1"
		cfg.AWS.LaunchTemplateID = "lt-0def456"
		cfg.Paths.SSHKey = "/keys/imikey.pem"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr string
	}{
		{
			name:   "valid settings pass",
			mutate: func(cfg *Settings) {},
		},
		{
			name:    "missing region",
			mutate:  func(cfg *Settings) { cfg.AWS.Region = "" },
			wantErr: "region",
		},
		{
			name:    "missing launch template",
			mutate:  func(cfg *Settings) { cfg.AWS.LaunchTemplateID = "" },
			wantErr: "launch template",
		},
		{
			name:    "malformed launch template",
			mutate:  func(cfg *Settings) { cfg.AWS.LaunchTemplateID = "template-1" },
			wantErr: "launch template",
		},
		{
			name:    "malformed ami",
			mutate:  func(cfg *Settings) { cfg.AWS.AMIID = "image-1" },
			wantErr: "AMI",
		},
		{
			name:    "missing ssh key",
			mutate:  func(cfg *Settings) { cfg.Paths.SSHKey = "" },
			wantErr: "SSH key",
		},
		{
			name:    "bad s3 uri",
			mutate:  func(cfg *Settings) { cfg.Paths.S3Data = "http://imidata" },
			wantErr: "s3://",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "x"), ExpandTilde("~/x"))
	assert.Equal(t, home, ExpandTilde("~"))
	assert.Equal(t, "/abs/path", ExpandTilde("/abs/path"))
	assert.Equal(t, "", ExpandTilde(""))
}
