package handlers

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/ec2"

	"github.com/jcjorel/ec2-spot-converter-go/launchspec"
	"github.com/jcjorel/ec2-spot-converter-go/outcome"
	"github.com/jcjorel/ec2-spot-converter-go/record"
)

// CreateNewInstance is step 14: projects the launch spec from the frozen
// snapshot (C3) and launches the replacement. Idempotent via the job-id
// tag: if a previous attempt already launched an instance (crash before
// the record save, scenario S4) that instance is found and reused instead
// of launching a second one.
func CreateNewInstance(ctx context.Context, hc *Context) (outcome.Outcome, error) {
	if hc.Job.NewInstanceID != "" {
		return outcome.SkippedBecause("replacement instance " + hc.Job.NewInstanceID + " already launched"), nil
	}

	tagged, err := hc.Adapter.ResourcesTaggedWith(ctx, "instance", record.TagKey, hc.Job.JobID)
	if err != nil {
		return fail("create_new_instance", err)
	}
	for _, id := range tagged {
		if id != hc.Job.InstanceID {
			hc.Job.NewInstanceID = id
			return outcome.SkippedBecause("found previously launched replacement " + id), nil
		}
	}

	spec, warnings, err := launchspec.Project(hc.Job)
	if err != nil {
		return fail("create_new_instance", err)
	}
	for _, w := range warnings {
		hc.Job.AddWarning("create_new_instance", "%s", w.Message)
	}

	inst, err := hc.Adapter.RunInstance(ctx, spec)
	if err != nil {
		return fail("create_new_instance", err)
	}
	hc.Job.NewInstanceID = aws.StringValue(inst.InstanceId)

	return outcome.Ok("launched replacement instance " + hc.Job.NewInstanceID), nil
}

// WaitNewInstanceRunning is step 15.
func WaitNewInstanceRunning(ctx context.Context, hc *Context) (outcome.Outcome, error) {
	if err := hc.Adapter.WaitInstanceState(ctx, hc.Job.NewInstanceID, ec2.InstanceStateNameRunning); err != nil {
		return fail("wait_new_instance_running", err)
	}
	return outcome.Ok("replacement instance running"), nil
}
