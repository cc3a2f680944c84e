package handlers

import (
	"context"
	"fmt"

	"github.com/jcjorel/ec2-spot-converter-go/outcome"
)

// GetVolumeDetails is step 5: refreshes OriginalVolumeDetails by
// re-describing every volume on the instance (type/IOPS/throughput/
// encryption), independent of the instance-level capture done in
// discover_instance_state, so a resume always sees current detail even if
// the instance snapshot is older.
func GetVolumeDetails(ctx context.Context, hc *Context) (outcome.Outcome, error) {
	inst := hc.Job.OriginalInstanceState
	if inst == nil {
		return fail("get_volume_details", fmt.Errorf("discover_instance_state has not run yet"))
	}
	volumes, err := captureVolumes(ctx, hc, inst)
	if err != nil {
		return fail("get_volume_details", err)
	}
	hc.Job.OriginalVolumeDetails = volumes
	return outcome.Ok(fmt.Sprintf("described %d volume(s)", len(volumes))), nil
}

// DetachVolumes is step 6: detaches every volume whose DeleteOnTermination
// is false (the root volume is never detached — it flows through the
// AMI). Re-querying the attachment before acting makes this idempotent
// against a partially-applied prior attempt (spec §4.6).
func DetachVolumes(ctx context.Context, hc *Context) (outcome.Outcome, error) {
	detached := 0
	for _, v := range hc.Job.OriginalVolumeDetails {
		if v.DeleteOnTermination {
			continue
		}
		vol, err := hc.Adapter.DescribeVolume(ctx, v.VolumeID)
		if err != nil {
			return fail("detach_volumes", err)
		}
		stillAttached := false
		for _, att := range vol.Attachments {
			if *att.InstanceId == hc.Job.InstanceID {
				stillAttached = true
			}
		}
		if !stillAttached {
			continue
		}
		if err := hc.Adapter.DetachVolume(ctx, v.VolumeID, hc.Job.InstanceID, v.DeviceName); err != nil {
			return fail("detach_volumes", err)
		}
		detached++
	}
	return outcome.Ok(fmt.Sprintf("requested detach for %d volume(s)", detached)), nil
}

// WaitVolumeDetach is step 7. Per the spec's multi-attach open question
// (§9), a multi-attach volume is treated as detached as soon as this
// instance no longer appears in its attachment list, even while the
// volume's own top-level state stays "in-use" because another instance
// still holds it (delegated to the adapter, which implements this
// literally).
func WaitVolumeDetach(ctx context.Context, hc *Context) (outcome.Outcome, error) {
	for _, v := range hc.Job.OriginalVolumeDetails {
		if v.DeleteOnTermination {
			continue
		}
		if err := hc.Adapter.WaitVolumeDetachedFromInstance(ctx, v.VolumeID, hc.Job.InstanceID); err != nil {
			return fail("wait_volume_detach", err)
		}
	}
	return outcome.Ok("all non-root volumes detached"), nil
}
