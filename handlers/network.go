package handlers

import (
	"context"
	"fmt"

	"github.com/jcjorel/ec2-spot-converter-go/outcome"
)

// PrepareNetworkInterfaces is step 9: flips DeleteOnTermination to false on
// every captured ENI so that terminate_instance (step 12) detaches rather
// than destroys them (spec §4.5 step 9).
func PrepareNetworkInterfaces(ctx context.Context, hc *Context) (outcome.Outcome, error) {
	changed := 0
	for _, eni := range hc.Job.OriginalNetworkInterfaces {
		if eni.AttachmentID == "" {
			continue
		}
		if err := hc.Adapter.SetNetworkInterfaceDeleteOnTermination(ctx, eni.NetworkInterfaceID, eni.AttachmentID, false); err != nil {
			return fail("prepare_network_interfaces", err)
		}
		changed++
	}
	return outcome.Ok(fmt.Sprintf("set delete_on_termination=false on %d ENI(s)", changed)), nil
}

// ConfigureNetworkInterfaces is step 17: restores each ENI's original
// DeleteOnTermination value now that it is attached to the replacement
// instance, re-describing the fresh attachment id since the old one no
// longer exists (spec §4.5 step 17, §8 preservation property).
func ConfigureNetworkInterfaces(ctx context.Context, hc *Context) (outcome.Outcome, error) {
	changed := 0
	for _, eni := range hc.Job.OriginalNetworkInterfaces {
		fresh, err := hc.Adapter.DescribeNetworkInterface(ctx, eni.NetworkInterfaceID)
		if err != nil {
			return fail("configure_network_interfaces", err)
		}
		if fresh.Attachment == nil {
			continue
		}
		attachmentID := *fresh.Attachment.AttachmentId
		if err := hc.Adapter.SetNetworkInterfaceDeleteOnTermination(ctx, eni.NetworkInterfaceID, attachmentID, eni.OriginalDeleteOnTermination); err != nil {
			return fail("configure_network_interfaces", err)
		}
		changed++
	}
	return outcome.Ok(fmt.Sprintf("restored delete_on_termination on %d ENI(s)", changed)), nil
}
