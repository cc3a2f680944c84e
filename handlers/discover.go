package handlers

import (
	"context"
	"fmt"

	"github.com/jcjorel/ec2-spot-converter-go/outcome"
)

// ReadStateTable is step 1: by the time the executor reaches the step
// loop it has already called store.Driver.EnsureTable and loaded (or
// created) the record (spec §4.5 step 1), so this handler only confirms
// that precondition and exists as a named, displayed step for operator
// visibility and for --reset-step addressing.
func ReadStateTable(_ context.Context, hc *Context) (outcome.Outcome, error) {
	if hc.Job.InstanceID == "" {
		return fail("read_state_table", fmt.Errorf("no instance id bound to job record"))
	}
	return outcome.Ok("state table ready, record loaded"), nil
}

// DiscoverInstanceState is step 2: captures the original instance,
// volumes, ENIs and addresses (spec §3 invariant 4, §4.4). No later step
// rewrites original_instance_state or the ENI/address details; the volume
// details are described once more by get_volume_details (step 5), before
// any volume is detached.
func DiscoverInstanceState(ctx context.Context, hc *Context) (outcome.Outcome, error) {
	if err := captureSnapshot(ctx, hc); err != nil {
		return fail("discover_instance_state", err)
	}
	return outcome.Ok(fmt.Sprintf("captured instance %s (%s)", hc.Job.InstanceID, hc.Job.SourceBillingModel)), nil
}
