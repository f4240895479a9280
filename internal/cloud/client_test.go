package cloud

import (
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/ec2"
	imerrors "github.com/imi-tools/imirun/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLaunch(t *testing.T) {
	api := &fakeAPI{}
	c := NewWithAPI(api, "us-east-1")

	inst, err := c.Launch(&ec2.RunInstancesInput{})
	require.NoError(t, err)
	assert.Equal(t, "i-0fake", inst.ID)
	assert.Equal(t, "c5.9xlarge", inst.Type)
	assert.Equal(t, "pending", inst.State)
	assert.Equal(t, []string{"RunInstances"}, api.Calls)
}

func TestLaunchPropagatesProviderError(t *testing.T) {
	cause := errors.New("UnauthorizedOperation: not allowed")
	api := &fakeAPI{RunErr: cause}
	c := NewWithAPI(api, "us-east-1")

	_, err := c.Launch(&ec2.RunInstancesInput{})
	require.Error(t, err)
	assert.True(t, imerrors.IsCode(err, imerrors.ErrAWS))
	// The provider message must reach the operator verbatim.
	assert.Contains(t, err.Error(), "UnauthorizedOperation: not allowed")
	assert.ErrorIs(t, err, cause)
}

func TestLaunchEmptyReservation(t *testing.T) {
	api := &fakeAPI{RunOut: &ec2.Reservation{}}
	c := NewWithAPI(api, "us-east-1")

	_, err := c.Launch(&ec2.RunInstancesInput{})
	assert.Error(t, err)
}

func TestWaitReadyOrdering(t *testing.T) {
	api := &fakeAPI{}
	c := NewWithAPI(api, "us-east-1")

	require.NoError(t, c.WaitReady("i-0fake"))
	assert.Equal(t, []string{"WaitUntilInstanceRunning", "WaitUntilInstanceStatusOk"}, api.Calls)
}

func TestWaitReadyStatusFailure(t *testing.T) {
	api := &fakeAPI{WaitOkErr: errors.New("exceeded wait attempts")}
	c := NewWithAPI(api, "us-east-1")

	err := c.WaitReady("i-0fake")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status checks")
}

func TestDescribeNotFound(t *testing.T) {
	api := &fakeAPI{}
	c := NewWithAPI(api, "us-east-1")

	_, err := c.Describe("i-gone")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestListFlattensReservations(t *testing.T) {
	api := &fakeAPI{
		DescribeOut: &ec2.DescribeInstancesOutput{
			Reservations: []*ec2.Reservation{
				{Instances: []*ec2.Instance{fakeInstance("i-a", "running")}},
				{Instances: []*ec2.Instance{
					fakeInstance("i-b", "stopped"),
					fakeInstance("i-c", "running"),
				}},
			},
		},
	}
	c := NewWithAPI(api, "us-east-1")

	instances, err := c.List()
	require.NoError(t, err)
	require.Len(t, instances, 3)
	assert.Equal(t, "i-a", instances[0].ID)
	assert.Equal(t, "stopped", instances[1].State)
	assert.Equal(t, "i-c", instances[2].ID)
}

func TestStartWaitsThenDescribes(t *testing.T) {
	api := &fakeAPI{
		DescribeOut: &ec2.DescribeInstancesOutput{
			Reservations: []*ec2.Reservation{
				{Instances: []*ec2.Instance{fakeInstance("i-0fake", "running")}},
			},
		},
	}
	c := NewWithAPI(api, "us-east-1")

	inst, err := c.Start("i-0fake")
	require.NoError(t, err)
	assert.Equal(t, "running", inst.State)
	assert.Equal(t, []string{"StartInstances", "WaitUntilInstanceRunning", "DescribeInstances"}, api.Calls)
}

func TestLifecycleErrorsCarryCode(t *testing.T) {
	cause := errors.New("IncorrectInstanceState")
	api := &fakeAPI{TerminateErr: cause, StopErr: cause, StartErr: cause, CancelErr: cause}
	c := NewWithAPI(api, "us-east-1")

	assert.True(t, imerrors.IsCode(c.Terminate("i-x"), imerrors.ErrAWS))
	assert.True(t, imerrors.IsCode(c.Stop("i-x"), imerrors.ErrAWS))
	_, err := c.Start("i-x")
	assert.True(t, imerrors.IsCode(err, imerrors.ErrAWS))
	assert.True(t, imerrors.IsCode(c.CancelSpotRequest("sir-x"), imerrors.ErrAWS))
}

func TestSpotRequestState(t *testing.T) {
	t.Run("returns the provider state", func(t *testing.T) {
		api := &fakeAPI{
			SpotOut: &ec2.DescribeSpotInstanceRequestsOutput{
				SpotInstanceRequests: []*ec2.SpotInstanceRequest{
					{State: aws.String("active")},
				},
			},
		}
		c := NewWithAPI(api, "us-east-1")

		state, err := c.SpotRequestState("sir-abc")
		require.NoError(t, err)
		assert.Equal(t, "active", state)
	})

	t.Run("missing request is an error", func(t *testing.T) {
		c := NewWithAPI(&fakeAPI{}, "us-east-1")
		_, err := c.SpotRequestState("sir-gone")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})
}

func TestFlattenFallsBackToPublicIP(t *testing.T) {
	inst := fakeInstance("i-a", "running")
	inst.PublicDnsName = aws.String("")
	inst.PublicIpAddress = aws.String("54.0.0.9")

	flat := flatten(inst)
	assert.Equal(t, "54.0.0.9", flat.PublicDNS)
}
