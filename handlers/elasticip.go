package handlers

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"

	"github.com/jcjorel/ec2-spot-converter-go/outcome"
)

// ManageElasticIP is step 18: reassociates each captured elastic IP
// allocation to the ENI that carried its private IP, now attached to the
// replacement instance under the same network-interface id (spec §4.6
// "reassociate each captured allocation", §8 preservation property).
func ManageElasticIP(ctx context.Context, hc *Context) (outcome.Outcome, error) {
	reassociated := 0
	for _, addr := range hc.Job.OriginalAddresses {
		eniID := eniForPrivateIP(hc, addr.PrivateIPAddress)
		if eniID == "" {
			return fail("manage_elastic_ip", fmt.Errorf("no ENI found for elastic IP %s (private ip %s)", addr.AllocationID, addr.PrivateIPAddress))
		}
		current, err := hc.Adapter.DescribeAddress(ctx, addr.AllocationID)
		if err != nil {
			return fail("manage_elastic_ip", err)
		}
		if aws.StringValue(current.NetworkInterfaceId) == eniID {
			continue
		}
		if _, err := hc.Adapter.AssociateAddress(ctx, addr.AllocationID, eniID, addr.PrivateIPAddress); err != nil {
			return fail("manage_elastic_ip", err)
		}
		reassociated++
	}
	return outcome.Ok(fmt.Sprintf("reassociated %d elastic IP(s)", reassociated)), nil
}

func eniForPrivateIP(hc *Context, privateIP string) string {
	for _, eni := range hc.Job.OriginalNetworkInterfaces {
		if eni.PrivateIPAddress == privateIP {
			return eni.NetworkInterfaceID
		}
	}
	return ""
}
