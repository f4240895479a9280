// Package launch builds EC2 RunInstances requests from the launch template,
// the static settings, and per-invocation --options overrides.
//
// Precedence, lowest to highest: launch template defaults, settings.yml
// values, --options fields. Later layers only touch fields they set.
package launch

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/ec2"
	"github.com/imi-tools/imirun/internal/config"
	"github.com/imi-tools/imirun/internal/errors"
)

// Overrides is the typed form of the --options JSON payload.
// Field names follow the EC2 API so operators can reuse provider docs.
type Overrides struct {
	InstanceType     string   `json:"InstanceType,omitempty"`
	KeyName          string   `json:"KeyName,omitempty"`
	ImageID          string   `json:"ImageId,omitempty"`
	SubnetID         string   `json:"SubnetId,omitempty"`
	SecurityGroupIDs []string `json:"SecurityGroupIds,omitempty"`

	// Spot requests a one-time spot instance instead of on-demand.
	Spot bool `json:"Spot,omitempty"`
}

// ParseOverrides decodes the --options JSON. Unknown fields are rejected so
// a typo doesn't silently launch the wrong hardware.
func ParseOverrides(raw string) (*Overrides, error) {
	if strings.TrimSpace(raw) == "" {
		return &Overrides{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()

	var ov Overrides
	if err := dec.Decode(&ov); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid --options payload",
			`Example valid format: {"InstanceType": "t3.micro", "KeyName": "my-key"}`)
	}
	return &ov, nil
}

// BuildRequest assembles the RunInstances input for one instance.
func BuildRequest(cfg config.AWSConfig, ov *Overrides) *ec2.RunInstancesInput {
	input := &ec2.RunInstancesInput{
		LaunchTemplate: &ec2.LaunchTemplateSpecification{
			LaunchTemplateId: aws.String(cfg.LaunchTemplateID),
		},
		MinCount: aws.Int64(1),
		MaxCount: aws.Int64(1),
	}

	// Settings layer over the template.
	if cfg.KeyName != "" {
		input.KeyName = aws.String(cfg.KeyName)
	}
	if cfg.InstanceType != "" {
		input.InstanceType = aws.String(cfg.InstanceType)
	}
	if cfg.AMIID != "" {
		input.ImageId = aws.String(cfg.AMIID)
	}

	if ov == nil {
		return input
	}

	// Override layer wins field-by-field.
	if ov.InstanceType != "" {
		input.InstanceType = aws.String(ov.InstanceType)
	}
	if ov.KeyName != "" {
		input.KeyName = aws.String(ov.KeyName)
	}
	if ov.ImageID != "" {
		input.ImageId = aws.String(ov.ImageID)
	}
	if ov.SubnetID != "" {
		input.SubnetId = aws.String(ov.SubnetID)
	}
	if len(ov.SecurityGroupIDs) > 0 {
		input.SecurityGroupIds = aws.StringSlice(ov.SecurityGroupIDs)
	}
	if ov.Spot {
		input.InstanceMarketOptions = &ec2.InstanceMarketOptionsRequest{
			MarketType: aws.String(ec2.MarketTypeSpot),
			SpotOptions: &ec2.SpotMarketOptions{
				SpotInstanceType: aws.String(ec2.SpotInstanceTypeOneTime),
			},
		}
	}

	return input
}
