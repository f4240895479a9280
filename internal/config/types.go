package config

// Settings represents the complete settings.yml configuration file.
// Loaded once per invocation and immutable for the rest of the run.
type Settings struct {
	AWS      AWSConfig    `yaml:"aws" mapstructure:"aws"`
	Paths    PathsConfig  `yaml:"paths" mapstructure:"paths"`
	Region   RegionConfig `yaml:"region" mapstructure:"region"`
	Remote   RemoteConfig `yaml:"remote" mapstructure:"remote"`
	Registry string       `yaml:"registry" mapstructure:"registry"`
}

// AWSConfig holds the EC2 provisioning parameters.
type AWSConfig struct {
	// Region is the AWS region instances are launched in (e.g. us-east-1).
	Region string `yaml:"region" mapstructure:"region"`

	// AMIID is the machine image launched when the template doesn't pin one.
	AMIID string `yaml:"ami_id" mapstructure:"ami_id"`

	// InstanceType is the default instance type (overridable per create).
	InstanceType string `yaml:"instance_type" mapstructure:"instance_type"`

	// LaunchTemplateID is the saved launch configuration bundle.
	LaunchTemplateID string `yaml:"launch_template_id" mapstructure:"launch_template_id"`

	// KeyName is the EC2 key pair name attached to new instances.
	KeyName string `yaml:"key_name" mapstructure:"key_name"`
}

// PathsConfig holds local and object-storage data locations.
type PathsConfig struct {
	// SSHKey is the private key file used for all remote sessions.
	SSHKey string `yaml:"ssh_key" mapstructure:"ssh_key"`

	// LocalData is where copy_local places collected run output.
	LocalData string `yaml:"local_data" mapstructure:"local_data"`

	// S3Data is the bucket URI run archives are pulled from (copy_from_s3).
	S3Data string `yaml:"s3_data" mapstructure:"s3_data"`
}

// RegionConfig holds the inversion-domain inputs pushed during instance setup.
type RegionConfig struct {
	// Shapefile is the basename of the region shapefile (.shp/.shx pair).
	Shapefile string `yaml:"shapefile" mapstructure:"shapefile"`

	// StateVector is the state vector NetCDF filename.
	StateVector string `yaml:"state_vector" mapstructure:"state_vector"`
}

// RemoteConfig describes the layout of the remote instance.
type RemoteConfig struct {
	// User is the SSH login user on launched instances.
	User string `yaml:"user" mapstructure:"user"`

	// IMIDir is where the inversion tool is installed on the instance.
	IMIDir string `yaml:"imi_dir" mapstructure:"imi_dir"`

	// OutputDir is where inversion runs write their output on the instance.
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`
}

// DefaultSettings returns Settings with sensible defaults.
// AWS identifiers have no defaults: they must come from settings.yml.
func DefaultSettings() *Settings {
	return &Settings{
		AWS: AWSConfig{
			KeyName: "imikey",
		},
		Paths: PathsConfig{
			LocalData: "~/imi/output",
		},
		Region: RegionConfig{
			StateVector: "StateVector.nc",
		},
		Remote: RemoteConfig{
			User:      "ubuntu",
			IMIDir:    "/home/ubuntu/integrated_methane_inversion",
			OutputDir: "/home/ubuntu/imi_output_dir",
		},
		Registry: ".imirun/instances.json",
	}
}
