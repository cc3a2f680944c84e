package handlers

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/ec2"

	"github.com/jcjorel/ec2-spot-converter-go/outcome"
)

// TerminateInstance is step 12. The ENIs were already detached from
// termination's blast radius by prepare_network_interfaces, and any
// volume with DeleteOnTermination=false was already detached by
// detach_volumes/wait_volume_detach, so this only destroys the instance
// and its root volume.
func TerminateInstance(ctx context.Context, hc *Context) (outcome.Outcome, error) {
	inst, err := hc.Adapter.DescribeInstance(ctx, hc.Job.InstanceID)
	if err != nil {
		return fail("terminate_instance", err)
	}
	if aws.StringValue(inst.State.Name) == ec2.InstanceStateNameTerminated {
		return outcome.SkippedBecause("instance already terminated"), nil
	}
	if err := hc.Adapter.TerminateInstance(ctx, hc.Job.InstanceID); err != nil {
		return fail("terminate_instance", err)
	}
	if err := hc.Adapter.WaitInstanceState(ctx, hc.Job.InstanceID, ec2.InstanceStateNameTerminated); err != nil {
		return fail("terminate_instance", err)
	}
	return outcome.Ok("original instance terminated"), nil
}

// WaitResourceRelease is step 13: waits for every detached ENI to report
// "available" and every captured elastic IP to report disassociated, so
// create_new_instance never races the provider's own asynchronous
// detach/disassociate bookkeeping (spec §4.5 step 13).
func WaitResourceRelease(ctx context.Context, hc *Context) (outcome.Outcome, error) {
	for _, eni := range hc.Job.OriginalNetworkInterfaces {
		if err := hc.Adapter.WaitNetworkInterfaceAvailable(ctx, eni.NetworkInterfaceID); err != nil {
			return fail("wait_resource_release", err)
		}
	}
	for _, addr := range hc.Job.OriginalAddresses {
		if err := hc.Adapter.WaitAddressDisassociated(ctx, addr.AllocationID); err != nil {
			return fail("wait_resource_release", err)
		}
	}
	return outcome.Ok("ENIs available, elastic IPs disassociated"), nil
}
