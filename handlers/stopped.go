package handlers

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/ec2"

	"github.com/jcjorel/ec2-spot-converter-go/outcome"
)

// WaitStoppedInstance is step 3. If the operator passed
// --do-not-require-stopped-instance the precondition layer (C7) already
// validated this is acceptable; a still-running instance that cannot be
// stopped (e.g. its spot request is cancelled, scenario S3) is bypassed
// here rather than waited on.
func WaitStoppedInstance(ctx context.Context, hc *Context) (outcome.Outcome, error) {
	inst, err := hc.Adapter.DescribeInstance(ctx, hc.Job.InstanceID)
	if err != nil {
		return fail("wait_stopped_instance", err)
	}
	state := aws.StringValue(inst.State.Name)
	if state == ec2.InstanceStateNameStopped {
		return outcome.Ok("instance already stopped"), nil
	}
	if hc.Job.Request.DoNotRequireStoppedInstance {
		return outcome.SkippedBecause("--do-not-require-stopped-instance set, instance left " + state), nil
	}
	if hc.Job.Request.StopInstance {
		if err := hc.Adapter.StopInstance(ctx, hc.Job.InstanceID); err != nil {
			return fail("wait_stopped_instance", err)
		}
	}
	if err := hc.Adapter.WaitInstanceState(ctx, hc.Job.InstanceID, ec2.InstanceStateNameStopped); err != nil {
		return fail("wait_stopped_instance", err)
	}
	return outcome.Ok("instance stopped"), nil
}
