package handlers

import (
	"context"
	"fmt"

	"github.com/jcjorel/ec2-spot-converter-go/outcome"
)

// CheckpointInstanceState is step 11, the point-of-no-return (spec §4.5
// step 11, §8 invariant "snapshot immutability"): original_instance_state
// and the ENI/address details were captured exactly once, by
// discover_instance_state (the volume details once more by
// get_volume_details, before any detach), and must never be rewritten — by this point
// detach_volumes has already detached every DeleteOnTermination=false
// volume and prepare_network_interfaces has already flipped each ENI's
// live delete_on_termination to false, so a fresh DescribeInstance here
// would observe the cloud's *transitional* state, not the original one,
// and would corrupt reattach_volumes/configure_network_interfaces. This
// step only checks that original_instance_state was captured; it performs
// no further capture and sets no flag on the record.
func CheckpointInstanceState(ctx context.Context, hc *Context) (outcome.Outcome, error) {
	if hc.Job.OriginalInstanceState == nil {
		return fail("checkpoint_instance_state", fmt.Errorf("original instance state was never captured"))
	}
	return outcome.Ok("instance snapshot frozen, point of no return reached"), nil
}
