package cloud

import (
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/ec2"
)

// fakeAPI is a scriptable stand-in for the EC2 service client.
// Each field holds the canned response or error for the matching call;
// Calls records the order of operations for assertions.
type fakeAPI struct {
	Calls []string

	RunErr       error
	RunOut       *ec2.Reservation
	TerminateErr error
	StopErr      error
	StartErr     error
	DescribeErr  error
	DescribeOut  *ec2.DescribeInstancesOutput
	SpotErr      error
	SpotOut      *ec2.DescribeSpotInstanceRequestsOutput
	CancelErr    error
	WaitRunErr   error
	WaitOkErr    error
}

func (f *fakeAPI) record(name string) {
	f.Calls = append(f.Calls, name)
}

func (f *fakeAPI) RunInstances(in *ec2.RunInstancesInput) (*ec2.Reservation, error) {
	f.record("RunInstances")
	if f.RunErr != nil {
		return nil, f.RunErr
	}
	if f.RunOut != nil {
		return f.RunOut, nil
	}
	return &ec2.Reservation{Instances: []*ec2.Instance{fakeInstance("i-0fake", "pending")}}, nil
}

func (f *fakeAPI) TerminateInstances(in *ec2.TerminateInstancesInput) (*ec2.TerminateInstancesOutput, error) {
	f.record("TerminateInstances")
	return &ec2.TerminateInstancesOutput{}, f.TerminateErr
}

func (f *fakeAPI) StopInstances(in *ec2.StopInstancesInput) (*ec2.StopInstancesOutput, error) {
	f.record("StopInstances")
	return &ec2.StopInstancesOutput{}, f.StopErr
}

func (f *fakeAPI) StartInstances(in *ec2.StartInstancesInput) (*ec2.StartInstancesOutput, error) {
	f.record("StartInstances")
	return &ec2.StartInstancesOutput{}, f.StartErr
}

func (f *fakeAPI) DescribeInstances(in *ec2.DescribeInstancesInput) (*ec2.DescribeInstancesOutput, error) {
	f.record("DescribeInstances")
	if f.DescribeErr != nil {
		return nil, f.DescribeErr
	}
	if f.DescribeOut != nil {
		return f.DescribeOut, nil
	}
	return &ec2.DescribeInstancesOutput{}, nil
}

func (f *fakeAPI) DescribeSpotInstanceRequests(in *ec2.DescribeSpotInstanceRequestsInput) (*ec2.DescribeSpotInstanceRequestsOutput, error) {
	f.record("DescribeSpotInstanceRequests")
	if f.SpotErr != nil {
		return nil, f.SpotErr
	}
	if f.SpotOut != nil {
		return f.SpotOut, nil
	}
	return &ec2.DescribeSpotInstanceRequestsOutput{}, nil
}

func (f *fakeAPI) CancelSpotInstanceRequests(in *ec2.CancelSpotInstanceRequestsInput) (*ec2.CancelSpotInstanceRequestsOutput, error) {
	f.record("CancelSpotInstanceRequests")
	return &ec2.CancelSpotInstanceRequestsOutput{}, f.CancelErr
}

func (f *fakeAPI) WaitUntilInstanceRunning(in *ec2.DescribeInstancesInput) error {
	f.record("WaitUntilInstanceRunning")
	return f.WaitRunErr
}

func (f *fakeAPI) WaitUntilInstanceStatusOk(in *ec2.DescribeInstanceStatusInput) error {
	f.record("WaitUntilInstanceStatusOk")
	return f.WaitOkErr
}

func fakeInstance(id, state string) *ec2.Instance {
	return &ec2.Instance{
		InstanceId:    aws.String(id),
		InstanceType:  aws.String("c5.9xlarge"),
		State:         &ec2.InstanceState{Name: aws.String(state)},
		PublicDnsName: aws.String("ec2-54-0-0-1.compute-1.amazonaws.com"),
		LaunchTime:    aws.Time(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
	}
}
