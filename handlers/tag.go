package handlers

import (
	"context"
	"fmt"

	"github.com/jcjorel/ec2-spot-converter-go/cloud"
	"github.com/jcjorel/ec2-spot-converter-go/outcome"
	"github.com/jcjorel/ec2-spot-converter-go/record"
)

// TagResources is step 4: tags instance, every ENI and every volume
// (including multi-attached and already-detached ones that will be
// reattached later) with ec2-spot-converter:job-id=<instance_id>
// (spec §4.6, §9). CreateTags is itself idempotent, so re-running this
// step after a crash is a plain no-op re-tag.
func TagResources(ctx context.Context, hc *Context) (outcome.Outcome, error) {
	instances, enis, volumes := allResourceIDs(hc.Job)
	if err := cloud.TagMany(ctx, hc.Adapter, [][]string{instances, enis, volumes}, record.TagKey, hc.Job.JobID); err != nil {
		return fail("tag_resources", err)
	}
	return outcome.Ok("tagged instance, ENIs and volumes"), nil
}

// UntagResources is step 20: optionally reconciles target-group
// membership and CloudWatch alarms (spec §4.6 "before untag_resources when
// enabled"), then removes the job-id tag from every resource still
// carrying it, once the conversion has otherwise succeeded (spec §3
// invariant 5, §6 "Resource-tag contract").
func UntagResources(ctx context.Context, hc *Context) (outcome.Outcome, error) {
	reconciledTGs, err := reconcileTargetGroups(ctx, hc)
	if err != nil {
		return fail("untag_resources", err)
	}
	repointedAlarms, err := reconcileCloudWatchAlarms(ctx, hc)
	if err != nil {
		return fail("untag_resources", err)
	}

	resourceTypes := []string{"instance", "network-interface", "volume", "image"}
	var tagged []string
	for _, rt := range resourceTypes {
		ids, err := hc.Adapter.ResourcesTaggedWith(ctx, rt, record.TagKey, hc.Job.JobID)
		if err != nil {
			return fail("untag_resources", err)
		}
		tagged = append(tagged, ids...)
	}
	if err := hc.Adapter.UntagResources(ctx, tagged, record.TagKey); err != nil {
		return fail("untag_resources", err)
	}
	return outcome.Ok(fmt.Sprintf("reconciled %d target-group membership(s), repointed %d alarm(s), removed job-id tag from all remaining resources", reconciledTGs, repointedAlarms)), nil
}
