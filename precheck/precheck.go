// Package precheck implements the preconditions and warning surface (C7)
// the executor applies before the step loop runs (spec.md §4.7).
package precheck

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/ec2"

	"github.com/jcjorel/ec2-spot-converter-go/cloud"
	"github.com/jcjorel/ec2-spot-converter-go/cmn"
	"github.com/jcjorel/ec2-spot-converter-go/record"
)

// majorWarningPause is the suggested pause before the step loop starts
// when a major warning was raised, giving the operator a last chance to
// interrupt (spec §4.7 "pause the executor 10 s").
const majorWarningPause = 10 * time.Second

// Check validates the request against live instance state and raises any
// major warnings onto the job record. It never mutates cloud state.
func Check(ctx context.Context, adapter cloud.Adapter, job *record.Job) error {
	inst, err := adapter.DescribeInstance(ctx, job.InstanceID)
	if err != nil {
		return err
	}
	state := aws.StringValue(inst.State.Name)

	if state != ec2.InstanceStateNameStopped {
		if !job.Request.StopInstance && !job.Request.DoNotRequireStoppedInstance {
			return cmn.NewPreconditionFailure("instance %s is %q: pass --stop-instance or --do-not-require-stopped-instance", job.InstanceID, state)
		}
	}

	sourceBilling := record.BillingOnDemand
	if aws.StringValue(inst.InstanceLifecycle) == "spot" {
		sourceBilling = record.BillingSpot
	}
	noOtherChange := job.Request.TargetInstanceType == "" && job.Request.CPUOptions == nil && job.Request.VolumeKmsKeyID == ""
	if sourceBilling == job.Request.TargetBillingModel && noOtherChange && !job.Request.Force {
		return cmn.NewPreconditionFailure("target billing model already %q and no other change requested: pass --force to re-run anyway", job.Request.TargetBillingModel)
	}

	majorWarning := false
	if sourceBilling == record.BillingSpot && inst.SpotInstanceRequestId != nil {
		spotState, err := adapter.DescribeSpotRequestState(ctx, aws.StringValue(inst.SpotInstanceRequestId))
		if err != nil {
			return err
		}
		if spotState == ec2.SpotInstanceStateCancelled {
			job.AddWarning("precheck", "orphan spot request %s is cancelled; the instance is running without an active spot request", aws.StringValue(inst.SpotInstanceRequestId))
			majorWarning = true
		}
	}

	if majorWarning && !job.Request.DoNotPauseOnMajorWarnings {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(majorWarningPause):
		}
	}

	return nil
}
