package cloud

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/aws/aws-sdk-go/service/cloudwatch/cloudwatchiface"
	"github.com/aws/aws-sdk-go/service/ec2"
	"github.com/aws/aws-sdk-go/service/ec2/ec2iface"
	"github.com/aws/aws-sdk-go/service/elbv2"
	"github.com/aws/aws-sdk-go/service/elbv2/elbv2iface"

	"github.com/jcjorel/ec2-spot-converter-go/cmn"
)

// awsAdapter is the production implementation of Adapter, grounded on
// other_examples' grail-reflow ec2cluster.go (session + ec2iface.EC2API
// wiring) and the teacher's own session-per-client pattern in
// ais/cloud/aws.go.
type awsAdapter struct {
	ec2  ec2iface.EC2API
	elbv2 elbv2iface.ELBV2API
	cw   cloudwatchiface.CloudWatchAPI
	log  cmn.Logger
}

// NewAdapter builds the production Adapter from a shared AWS session.
func NewAdapter(sess *session.Session, log cmn.Logger) Adapter {
	return &awsAdapter{
		ec2:   ec2.New(sess),
		elbv2: elbv2.New(sess),
		cw:    cloudwatch.New(sess),
		log:   log,
	}
}

func (a *awsAdapter) DescribeInstance(ctx context.Context, instanceID string) (*ec2.Instance, error) {
	var out *ec2.Instance
	err := withRetry(ctx, func() error {
		resp, err := a.ec2.DescribeInstancesWithContext(ctx, &ec2.DescribeInstancesInput{
			InstanceIds: []*string{aws.String(instanceID)},
		})
		if err != nil {
			return err
		}
		if len(resp.Reservations) == 0 || len(resp.Reservations[0].Instances) == 0 {
			return fmt.Errorf("instance %s not found", instanceID)
		}
		out = resp.Reservations[0].Instances[0]
		return nil
	})
	return out, err
}

func (a *awsAdapter) WaitInstanceState(ctx context.Context, instanceID, state string) error {
	return instanceStateCadence.poll(ctx, "wait_instance_state", state, func(ctx context.Context) (bool, error) {
		inst, err := a.DescribeInstance(ctx, instanceID)
		if err != nil {
			return false, err
		}
		return aws.StringValue(inst.State.Name) == state, nil
	})
}

func (a *awsAdapter) RunInstance(ctx context.Context, spec *ec2.RunInstancesInput) (*ec2.Instance, error) {
	var out *ec2.Instance
	err := withRetry(ctx, func() error {
		resp, err := a.ec2.RunInstancesWithContext(ctx, spec)
		if err != nil {
			return err
		}
		out = resp.Instances[0]
		return nil
	})
	return out, err
}

func (a *awsAdapter) TerminateInstance(ctx context.Context, instanceID string) error {
	return withRetry(ctx, func() error {
		_, err := a.ec2.TerminateInstancesWithContext(ctx, &ec2.TerminateInstancesInput{
			InstanceIds: []*string{aws.String(instanceID)},
		})
		return err
	})
}

func (a *awsAdapter) StopInstance(ctx context.Context, instanceID string) error {
	return withRetry(ctx, func() error {
		_, err := a.ec2.StopInstancesWithContext(ctx, &ec2.StopInstancesInput{
			InstanceIds: []*string{aws.String(instanceID)},
		})
		return err
	})
}

func (a *awsAdapter) RebootInstance(ctx context.Context, instanceID string) error {
	return withRetry(ctx, func() error {
		_, err := a.ec2.RebootInstancesWithContext(ctx, &ec2.RebootInstancesInput{
			InstanceIds: []*string{aws.String(instanceID)},
		})
		return err
	})
}

// DescribeInstanceUserData fetches the user-data blob via the dedicated
// instance-attribute call; EC2 never inlines it on the Instance describe
// response itself.
func (a *awsAdapter) DescribeInstanceUserData(ctx context.Context, instanceID string) (string, error) {
	var userData string
	err := withRetry(ctx, func() error {
		resp, err := a.ec2.DescribeInstanceAttributeWithContext(ctx, &ec2.DescribeInstanceAttributeInput{
			InstanceId: aws.String(instanceID),
			Attribute:  aws.String(ec2.InstanceAttributeNameUserData),
		})
		if err != nil {
			return err
		}
		if resp.UserData != nil {
			userData = aws.StringValue(resp.UserData.Value)
		}
		return nil
	})
	return userData, err
}

func (a *awsAdapter) DescribeSpotRequestState(ctx context.Context, spotRequestID string) (string, error) {
	var state string
	err := withRetry(ctx, func() error {
		resp, err := a.ec2.DescribeSpotInstanceRequestsWithContext(ctx, &ec2.DescribeSpotInstanceRequestsInput{
			SpotInstanceRequestIds: []*string{aws.String(spotRequestID)},
		})
		if err != nil {
			return err
		}
		if len(resp.SpotInstanceRequests) == 0 {
			return fmt.Errorf("spot request %s not found", spotRequestID)
		}
		state = aws.StringValue(resp.SpotInstanceRequests[0].State)
		return nil
	})
	return state, err
}
