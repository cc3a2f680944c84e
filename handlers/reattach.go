package handlers

import (
	"context"
	"fmt"

	"github.com/jcjorel/ec2-spot-converter-go/outcome"
)

// ReattachVolumes is step 16: attaches every volume that was NOT part of
// the root block-device mapping (DeleteOnTermination=false at capture
// time) to the running replacement, at its original device name. Already
// re-querying the attachment first makes a resumed run skip volumes a
// prior attempt already reattached.
func ReattachVolumes(ctx context.Context, hc *Context) (outcome.Outcome, error) {
	attached := 0
	for _, v := range hc.Job.OriginalVolumeDetails {
		if v.DeleteOnTermination {
			continue
		}
		vol, err := hc.Adapter.DescribeVolume(ctx, v.VolumeID)
		if err != nil {
			return fail("reattach_volumes", err)
		}
		already := false
		for _, att := range vol.Attachments {
			if *att.InstanceId == hc.Job.NewInstanceID {
				already = true
			}
		}
		if already {
			continue
		}
		if err := hc.Adapter.AttachVolume(ctx, v.VolumeID, hc.Job.NewInstanceID, v.DeviceName); err != nil {
			return fail("reattach_volumes", err)
		}
		attached++
	}
	if attached > 0 {
		hc.Job.RebootRecommended = true
	}
	return outcome.Ok(fmt.Sprintf("reattached %d volume(s)", attached)), nil
}
