package launch

import (
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/imi-tools/imirun/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseAWSConfig() config.AWSConfig {
	return config.AWSConfig{
		Region:           "us-east-1",
		LaunchTemplateID: "lt-0def456",
		InstanceType:     "c5.9xlarge",
		KeyName:          "imikey",
	}
}

func TestParseOverrides(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Overrides
		wantErr bool
	}{
		{
			name: "empty payload",
			raw:  "",
			want: Overrides{},
		},
		{
			name: "instance type only",
			raw:  `{"InstanceType":"t3.micro"}`,
			want: Overrides{InstanceType: "t3.micro"},
		},
		{
			name: "full payload",
			raw:  `{"InstanceType":"c5.18xlarge","KeyName":"other","ImageId":"ami-9","SubnetId":"subnet-1","SecurityGroupIds":["sg-1","sg-2"],"Spot":true}`,
			want: Overrides{
				InstanceType:     "c5.18xlarge",
				KeyName:          "other",
				ImageID:          "ami-9",
				SubnetID:         "subnet-1",
				SecurityGroupIDs: []string{"sg-1", "sg-2"},
				Spot:             true,
			},
		},
		{
			name:    "malformed json",
			raw:     `{"InstanceType":`,
			wantErr: true,
		},
		{
			name:    "unknown field rejected",
			raw:     `{"InstanceTyp":"t3.micro"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ov, err := ParseOverrides(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, *ov)
		})
	}
}

func TestBuildRequestDefaults(t *testing.T) {
	input := BuildRequest(baseAWSConfig(), &Overrides{})

	require.NotNil(t, input.LaunchTemplate)
	assert.Equal(t, "lt-0def456", aws.StringValue(input.LaunchTemplate.LaunchTemplateId))
	assert.Equal(t, int64(1), aws.Int64Value(input.MinCount))
	assert.Equal(t, int64(1), aws.Int64Value(input.MaxCount))
	assert.Equal(t, "imikey", aws.StringValue(input.KeyName))
	assert.Equal(t, "c5.9xlarge", aws.StringValue(input.InstanceType))
	assert.Nil(t, input.InstanceMarketOptions)
}

func TestBuildRequestOverrideWins(t *testing.T) {
	ov, err := ParseOverrides(`{"InstanceType":"t3.micro","KeyName":"my-key"}`)
	require.NoError(t, err)

	input := BuildRequest(baseAWSConfig(), ov)
	assert.Equal(t, "t3.micro", aws.StringValue(input.InstanceType))
	assert.Equal(t, "my-key", aws.StringValue(input.KeyName))
	// Untouched fields keep the settings layer.
	assert.Equal(t, "lt-0def456", aws.StringValue(input.LaunchTemplate.LaunchTemplateId))
}

func TestBuildRequestSpot(t *testing.T) {
	input := BuildRequest(baseAWSConfig(), &Overrides{Spot: true})

	require.NotNil(t, input.InstanceMarketOptions)
	assert.Equal(t, "spot", aws.StringValue(input.InstanceMarketOptions.MarketType))
	require.NotNil(t, input.InstanceMarketOptions.SpotOptions)
	assert.Equal(t, "one-time", aws.StringValue(input.InstanceMarketOptions.SpotOptions.SpotInstanceType))
}

func TestBuildRequestNilOverrides(t *testing.T) {
	input := BuildRequest(baseAWSConfig(), nil)
	assert.Equal(t, "c5.9xlarge", aws.StringValue(input.InstanceType))
}
