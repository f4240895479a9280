// Package cloud is a thin adapter over the EC2 API. It owns no lifecycle
// policy of its own: callers decide what to launch, stop, or cancel, and
// provider errors are passed back with their original message intact.
package cloud

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ec2"
	"github.com/imi-tools/imirun/internal/errors"
	"github.com/imi-tools/imirun/internal/logger"
)

// API is the subset of the EC2 service client this tool uses.
// *ec2.EC2 satisfies it; tests substitute a fake.
type API interface {
	RunInstances(*ec2.RunInstancesInput) (*ec2.Reservation, error)
	TerminateInstances(*ec2.TerminateInstancesInput) (*ec2.TerminateInstancesOutput, error)
	StopInstances(*ec2.StopInstancesInput) (*ec2.StopInstancesOutput, error)
	StartInstances(*ec2.StartInstancesInput) (*ec2.StartInstancesOutput, error)
	DescribeInstances(*ec2.DescribeInstancesInput) (*ec2.DescribeInstancesOutput, error)
	DescribeSpotInstanceRequests(*ec2.DescribeSpotInstanceRequestsInput) (*ec2.DescribeSpotInstanceRequestsOutput, error)
	CancelSpotInstanceRequests(*ec2.CancelSpotInstanceRequestsInput) (*ec2.CancelSpotInstanceRequestsOutput, error)
	WaitUntilInstanceRunning(*ec2.DescribeInstancesInput) error
	WaitUntilInstanceStatusOk(*ec2.DescribeInstanceStatusInput) error
}

// Instance is the flattened view of a provider instance this tool cares about.
type Instance struct {
	ID            string
	State         string
	PublicDNS     string
	Type          string
	LaunchTime    time.Time
	SpotRequestID string
}

// Client wraps the EC2 API with imirun's operations.
type Client struct {
	api    API
	region string
	log    logger.Logger
}

// New creates a Client for the given region using the default credential
// chain (env vars, shared config, instance role).
func New(region string) *Client {
	sess := session.Must(session.NewSession(aws.NewConfig().WithRegion(region)))
	return NewWithAPI(ec2.New(sess), region)
}

// NewWithAPI creates a Client over an explicit API implementation.
func NewWithAPI(api API, region string) *Client {
	return &Client{api: api, region: region, log: logger.NewEnvLogger("[cloud]")}
}

// Launch starts one instance from the prepared request and returns its
// flattened description.
func (c *Client) Launch(input *ec2.RunInstancesInput) (Instance, error) {
	reservation, err := c.api.RunInstances(input)
	if err != nil {
		return Instance{}, errors.WrapWithCode(err, errors.ErrAWS,
			"Launching instance didn't go through",
			"Check your AWS credentials, region, and launch template")
	}
	if len(reservation.Instances) == 0 {
		return Instance{}, errors.New(errors.ErrAWS,
			"Provider returned no instances for the launch request",
			"")
	}
	inst := flatten(reservation.Instances[0])
	c.log.Debug("launched %s (%s)", inst.ID, inst.Type)
	return inst, nil
}

// WaitReady blocks until the instance is running and passes status checks.
// SDK waiter defaults apply (40 attempts, 15s apart for running).
func (c *Client) WaitReady(instanceID string) error {
	describe := &ec2.DescribeInstancesInput{
		InstanceIds: []*string{aws.String(instanceID)},
	}
	if err := c.api.WaitUntilInstanceRunning(describe); err != nil {
		return errors.WrapWithCode(err, errors.ErrAWS,
			fmt.Sprintf("Instance %s never reached running", instanceID),
			"Check the EC2 console for launch failures")
	}

	status := &ec2.DescribeInstanceStatusInput{
		InstanceIds: []*string{aws.String(instanceID)},
	}
	if err := c.api.WaitUntilInstanceStatusOk(status); err != nil {
		return errors.WrapWithCode(err, errors.ErrAWS,
			fmt.Sprintf("Instance %s failed its status checks", instanceID),
			"The instance may still boot; retry with 'imirun get_instance'")
	}
	return nil
}

// Describe returns the flattened view of one instance.
func (c *Client) Describe(instanceID string) (Instance, error) {
	out, err := c.api.DescribeInstances(&ec2.DescribeInstancesInput{
		InstanceIds: []*string{aws.String(instanceID)},
	})
	if err != nil {
		return Instance{}, errors.WrapWithCode(err, errors.ErrAWS,
			fmt.Sprintf("Describing instance %s failed", instanceID),
			"")
	}
	for _, res := range out.Reservations {
		for _, inst := range res.Instances {
			return flatten(inst), nil
		}
	}
	return Instance{}, errors.New(errors.ErrAWS,
		fmt.Sprintf("Instance %s not found", instanceID),
		"It may have been terminated outside imirun")
}

// List returns all instances visible in the region, flattened across
// reservations in provider order.
func (c *Client) List() ([]Instance, error) {
	var instances []Instance
	input := &ec2.DescribeInstancesInput{}
	for {
		out, err := c.api.DescribeInstances(input)
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrAWS,
				"Listing instances failed",
				"Check your AWS credentials and region")
		}
		for _, res := range out.Reservations {
			for _, inst := range res.Instances {
				instances = append(instances, flatten(inst))
			}
		}
		if out.NextToken == nil {
			break
		}
		input.NextToken = out.NextToken
	}
	return instances, nil
}

// Terminate terminates the instance. The attached volume may be deleted
// with it, depending on the launch template's block device mapping.
func (c *Client) Terminate(instanceID string) error {
	_, err := c.api.TerminateInstances(&ec2.TerminateInstancesInput{
		InstanceIds: []*string{aws.String(instanceID)},
	})
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrAWS,
			fmt.Sprintf("Terminating instance %s failed", instanceID),
			"")
	}
	return nil
}

// Stop stops the instance, releasing its public address.
func (c *Client) Stop(instanceID string) error {
	_, err := c.api.StopInstances(&ec2.StopInstancesInput{
		InstanceIds: []*string{aws.String(instanceID)},
	})
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrAWS,
			fmt.Sprintf("Stopping instance %s failed", instanceID),
			"")
	}
	return nil
}

// Start starts a stopped instance and waits for it to run, returning the
// refreshed description (the public address usually changes).
func (c *Client) Start(instanceID string) (Instance, error) {
	_, err := c.api.StartInstances(&ec2.StartInstancesInput{
		InstanceIds: []*string{aws.String(instanceID)},
	})
	if err != nil {
		return Instance{}, errors.WrapWithCode(err, errors.ErrAWS,
			fmt.Sprintf("Starting instance %s failed", instanceID),
			"")
	}
	if err := c.api.WaitUntilInstanceRunning(&ec2.DescribeInstancesInput{
		InstanceIds: []*string{aws.String(instanceID)},
	}); err != nil {
		return Instance{}, errors.WrapWithCode(err, errors.ErrAWS,
			fmt.Sprintf("Instance %s never reached running after start", instanceID),
			"")
	}
	return c.Describe(instanceID)
}

// SpotRequestState returns the provider state of a spot request
// (open, active, closed, cancelled, failed).
func (c *Client) SpotRequestState(requestID string) (string, error) {
	out, err := c.api.DescribeSpotInstanceRequests(&ec2.DescribeSpotInstanceRequestsInput{
		SpotInstanceRequestIds: []*string{aws.String(requestID)},
	})
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrAWS,
			fmt.Sprintf("Describing spot request %s failed", requestID),
			"")
	}
	if len(out.SpotInstanceRequests) == 0 {
		return "", errors.New(errors.ErrAWS,
			fmt.Sprintf("Spot request %s not found", requestID),
			"")
	}
	return aws.StringValue(out.SpotInstanceRequests[0].State), nil
}

// CancelSpotRequest cancels an outstanding spot instance request.
// It does not touch the instance the request may have produced.
func (c *Client) CancelSpotRequest(requestID string) error {
	_, err := c.api.CancelSpotInstanceRequests(&ec2.CancelSpotInstanceRequestsInput{
		SpotInstanceRequestIds: []*string{aws.String(requestID)},
	})
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrAWS,
			fmt.Sprintf("Cancelling spot request %s failed", requestID),
			"")
	}
	return nil
}

// flatten converts the SDK instance to the tool's view, tolerating the
// SDK's pervasive nil pointers.
func flatten(inst *ec2.Instance) Instance {
	out := Instance{
		ID:            aws.StringValue(inst.InstanceId),
		PublicDNS:     aws.StringValue(inst.PublicDnsName),
		Type:          aws.StringValue(inst.InstanceType),
		SpotRequestID: aws.StringValue(inst.SpotInstanceRequestId),
	}
	if inst.State != nil {
		out.State = aws.StringValue(inst.State.Name)
	}
	if inst.LaunchTime != nil {
		out.LaunchTime = *inst.LaunchTime
	}
	if out.PublicDNS == "" {
		out.PublicDNS = aws.StringValue(inst.PublicIpAddress)
	}
	return out
}
