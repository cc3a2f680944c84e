package cloud

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/elbv2"
)

func (a *awsAdapter) RegisterTarget(ctx context.Context, targetGroupArn, instanceID string, port int64) error {
	return withRetry(ctx, func() error {
		_, err := a.elbv2.RegisterTargetsWithContext(ctx, &elbv2.RegisterTargetsInput{
			TargetGroupArn: aws.String(targetGroupArn),
			Targets: []*elbv2.TargetDescription{
				{Id: aws.String(instanceID), Port: aws.Int64(port)},
			},
		})
		return err
	})
}

func (a *awsAdapter) DeregisterTarget(ctx context.Context, targetGroupArn, instanceID string, port int64) error {
	return withRetry(ctx, func() error {
		_, err := a.elbv2.DeregisterTargetsWithContext(ctx, &elbv2.DeregisterTargetsInput{
			TargetGroupArn: aws.String(targetGroupArn),
			Targets: []*elbv2.TargetDescription{
				{Id: aws.String(instanceID), Port: aws.Int64(port)},
			},
		})
		return err
	})
}

// DescribeTargetGroupMemberships returns the ports instanceID is currently
// registered on within targetGroupArn, used by discover_instance_state to
// capture original_target_groups (spec §3) without requiring the operator
// to spell out ports on the command line.
func (a *awsAdapter) DescribeTargetGroupMemberships(ctx context.Context, targetGroupArn, instanceID string) ([]int64, error) {
	var ports []int64
	err := withRetry(ctx, func() error {
		resp, err := a.elbv2.DescribeTargetHealthWithContext(ctx, &elbv2.DescribeTargetHealthInput{
			TargetGroupArn: aws.String(targetGroupArn),
		})
		if err != nil {
			return err
		}
		for _, d := range resp.TargetHealthDescriptions {
			if d.Target == nil || aws.StringValue(d.Target.Id) != instanceID {
				continue
			}
			ports = append(ports, aws.Int64Value(d.Target.Port))
		}
		return nil
	})
	return ports, err
}

// ListTargetGroupArns enumerates every target group in the account/region,
// used when --check-targetgroups was passed with no ARNs (spec §6 "empty
// list ⇒ all target groups").
func (a *awsAdapter) ListTargetGroupArns(ctx context.Context) ([]string, error) {
	var arns []string
	err := withRetry(ctx, func() error {
		arns = arns[:0]
		return a.elbv2.DescribeTargetGroupsPagesWithContext(ctx, &elbv2.DescribeTargetGroupsInput{}, func(page *elbv2.DescribeTargetGroupsOutput, lastPage bool) bool {
			for _, tg := range page.TargetGroups {
				arns = append(arns, aws.StringValue(tg.TargetGroupArn))
			}
			return true
		})
	})
	return arns, err
}

// TargetHealthState returns the provider's per-member health state (one of
// "initial", "healthy", "unhealthy", "unused", "draining", ...) used by
// wait_for_tg_states (spec §4.6, §6).
func (a *awsAdapter) TargetHealthState(ctx context.Context, targetGroupArn, instanceID string, port int64) (string, error) {
	var state string
	err := withRetry(ctx, func() error {
		resp, err := a.elbv2.DescribeTargetHealthWithContext(ctx, &elbv2.DescribeTargetHealthInput{
			TargetGroupArn: aws.String(targetGroupArn),
			Targets: []*elbv2.TargetDescription{
				{Id: aws.String(instanceID), Port: aws.Int64(port)},
			},
		})
		if err != nil {
			return err
		}
		if len(resp.TargetHealthDescriptions) == 0 {
			state = "unused"
			return nil
		}
		state = aws.StringValue(resp.TargetHealthDescriptions[0].TargetHealth.State)
		return nil
	})
	return state, err
}
