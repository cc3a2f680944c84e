package handlers

import (
	"context"

	"github.com/jcjorel/ec2-spot-converter-go/outcome"
)

// RebootIfNeeded is step 19. Volumes attached after boot may only come up
// cleanly inside the guest OS after a reboot; the operator opts in with
// --reboot-if-needed, and reattach_volumes sets Job.RebootRecommended
// whenever it attached at least one volume. Either one triggers the
// reboot.
func RebootIfNeeded(ctx context.Context, hc *Context) (outcome.Outcome, error) {
	if !hc.Job.Request.RebootIfNeeded && !hc.Job.RebootRecommended {
		return outcome.SkippedBecause("reboot not requested and not recommended"), nil
	}
	if err := hc.Adapter.RebootInstance(ctx, hc.Job.NewInstanceID); err != nil {
		return fail("reboot_if_needed", err)
	}
	return outcome.Ok("replacement instance rebooted"), nil
}
