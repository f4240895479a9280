package config

import (
	"fmt"
	"strings"

	"github.com/imi-tools/imirun/internal/errors"
)

// Validate checks the settings for errors and returns structured error messages.
func Validate(cfg *Settings) error {
	if cfg.AWS.Region == "" {
		return errors.New(errors.ErrConfig,
			"No AWS region configured",
			"Set aws.region in settings.yml (e.g. us-east-1)")
	}

	if cfg.AWS.LaunchTemplateID == "" {
		return errors.New(errors.ErrConfig,
			"No launch template configured",
			"Set aws.launch_template_id in settings.yml (starts with lt-)")
	}
	if !strings.HasPrefix(cfg.AWS.LaunchTemplateID, "lt-") {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("'%s' doesn't look like a launch template id", cfg.AWS.LaunchTemplateID),
			"Launch template ids start with lt-")
	}

	if cfg.AWS.AMIID != "" && !strings.HasPrefix(cfg.AWS.AMIID, "ami-") {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("'%s' doesn't look like an AMI id", cfg.AWS.AMIID),
			"AMI ids start with ami-")
	}

	if cfg.Paths.SSHKey == "" {
		return errors.New(errors.ErrConfig,
			"No SSH key configured",
			"Set paths.ssh_key in settings.yml to the private key for "+cfg.AWS.KeyName)
	}

	if cfg.Paths.S3Data != "" && !strings.HasPrefix(cfg.Paths.S3Data, "s3://") {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("'%s' is not an s3:// URI", cfg.Paths.S3Data),
			"Set paths.s3_data like s3://imidata")
	}

	if cfg.Remote.User == "" {
		return errors.New(errors.ErrConfig,
			"No remote user configured",
			"Set remote.user in settings.yml (usually ubuntu)")
	}

	if cfg.Registry == "" {
		return errors.New(errors.ErrConfig,
			"No registry path configured",
			"Set registry in settings.yml (default .imirun/instances.json)")
	}

	return nil
}
