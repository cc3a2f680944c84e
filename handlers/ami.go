package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/jcjorel/ec2-spot-converter-go/outcome"
	"github.com/jcjorel/ec2-spot-converter-go/record"
)

// amiName derives a deterministic, idempotence-friendly AMI name from the
// job id, so a re-run after a crash can find the image it already created
// instead of creating a second one (spec §9 tag-based idempotence).
func amiName(job *record.Job) string {
	return fmt.Sprintf("%s%s", record.AMINamePrefix, job.JobID)
}

// StartAMICreation is step 8: creates a no-reboot AMI of the (already
// tagged) instance. Looked up by name first so a resumed
// run finds the image already in flight rather than starting a second one.
func StartAMICreation(ctx context.Context, hc *Context) (outcome.Outcome, error) {
	name := amiName(hc.Job)
	if existing, err := hc.Adapter.FindImageByName(ctx, name); err != nil {
		return fail("start_ami_creation", err)
	} else if existing != "" {
		hc.Job.AmiID = existing
		return outcome.SkippedBecause("AMI " + existing + " already requested"), nil
	}
	imageID, err := hc.Adapter.CreateImageNoReboot(ctx, hc.Job.InstanceID, name, record.TagKey, hc.Job.JobID)
	if err != nil {
		return fail("start_ami_creation", err)
	}
	hc.Job.AmiID = imageID
	hc.Job.AmiCreationDate = time.Now()
	return outcome.Ok("requested AMI " + imageID), nil
}

// WaitAMIReady is step 10: blocks until the AMI reaches "available".
func WaitAMIReady(ctx context.Context, hc *Context) (outcome.Outcome, error) {
	if hc.Job.AmiID == "" {
		return fail("wait_ami_ready", fmt.Errorf("no AMI id recorded, start_ami_creation has not run"))
	}
	if err := hc.Adapter.WaitImageAvailable(ctx, hc.Job.AmiID); err != nil {
		return fail("wait_ami_ready", err)
	}
	return outcome.Ok("AMI " + hc.Job.AmiID + " available"), nil
}

// DeregisterImage is step 21: only runs when --delete-ami was requested,
// otherwise the AMI is left behind for the operator (spec §4.5 step 21).
func DeregisterImage(ctx context.Context, hc *Context) (outcome.Outcome, error) {
	if !hc.Job.Request.DeleteAMI {
		return outcome.SkippedBecause("--delete-ami not set"), nil
	}
	if hc.Job.AmiID == "" {
		return outcome.SkippedBecause("no AMI was created for this conversion"), nil
	}
	if err := hc.Adapter.DeregisterImage(ctx, hc.Job.AmiID); err != nil {
		return fail("deregister_image", err)
	}
	return outcome.Ok("deregistered AMI " + hc.Job.AmiID + " and its snapshots"), nil
}
