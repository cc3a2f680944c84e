package cloud

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/ec2"
)

func (a *awsAdapter) DescribeNetworkInterface(ctx context.Context, eniID string) (*ec2.NetworkInterface, error) {
	var out *ec2.NetworkInterface
	err := withRetry(ctx, func() error {
		resp, err := a.ec2.DescribeNetworkInterfacesWithContext(ctx, &ec2.DescribeNetworkInterfacesInput{
			NetworkInterfaceIds: []*string{aws.String(eniID)},
		})
		if err != nil {
			return err
		}
		if len(resp.NetworkInterfaces) == 0 {
			return &eniNotFound{eniID}
		}
		out = resp.NetworkInterfaces[0]
		return nil
	})
	return out, err
}

type eniNotFound struct{ id string }

func (e *eniNotFound) Error() string { return "network interface " + e.id + " not found" }

// SetNetworkInterfaceDeleteOnTermination is used twice with opposite
// values: once (flag=false) in prepare_network_interfaces so termination
// preserves the ENI, once (flag=original) in configure_network_interfaces
// to restore the operator's original setting.
func (a *awsAdapter) SetNetworkInterfaceDeleteOnTermination(ctx context.Context, eniID, attachmentID string, flag bool) error {
	return withRetry(ctx, func() error {
		_, err := a.ec2.ModifyNetworkInterfaceAttributeWithContext(ctx, &ec2.ModifyNetworkInterfaceAttributeInput{
			NetworkInterfaceId: aws.String(eniID),
			Attachment: &ec2.NetworkInterfaceAttachmentChanges{
				AttachmentId:        aws.String(attachmentID),
				DeleteOnTermination: aws.Bool(flag),
			},
		})
		return err
	})
}

func (a *awsAdapter) WaitNetworkInterfaceAvailable(ctx context.Context, eniID string) error {
	return eniAvailableCadence.poll(ctx, "wait_resource_release", eniID, func(ctx context.Context) (bool, error) {
		eni, err := a.DescribeNetworkInterface(ctx, eniID)
		if err != nil {
			return false, err
		}
		return aws.StringValue(eni.Status) == ec2.NetworkInterfaceStatusAvailable, nil
	})
}

func (a *awsAdapter) DescribeAddress(ctx context.Context, allocationID string) (*ec2.Address, error) {
	var out *ec2.Address
	err := withRetry(ctx, func() error {
		resp, err := a.ec2.DescribeAddressesWithContext(ctx, &ec2.DescribeAddressesInput{
			AllocationIds: []*string{aws.String(allocationID)},
		})
		if err != nil {
			return err
		}
		if len(resp.Addresses) == 0 {
			return &addressNotFound{allocationID}
		}
		out = resp.Addresses[0]
		return nil
	})
	return out, err
}

type addressNotFound struct{ id string }

func (e *addressNotFound) Error() string { return "elastic IP allocation " + e.id + " not found" }

// WaitAddressDisassociated blocks until the allocation's association id is
// empty, so create_new_instance never races the provider's asynchronous
// disassociate-on-terminate bookkeeping (spec §4.5 step 13).
func (a *awsAdapter) WaitAddressDisassociated(ctx context.Context, allocationID string) error {
	return addressDisassociateCadence.poll(ctx, "wait_resource_release", allocationID, func(ctx context.Context) (bool, error) {
		addr, err := a.DescribeAddress(ctx, allocationID)
		if err != nil {
			return false, err
		}
		return aws.StringValue(addr.AssociationId) == "", nil
	})
}

func (a *awsAdapter) AssociateAddress(ctx context.Context, allocationID, eniID, privateIP string) (string, error) {
	var associationID string
	err := withRetry(ctx, func() error {
		resp, err := a.ec2.AssociateAddressWithContext(ctx, &ec2.AssociateAddressInput{
			AllocationId:       aws.String(allocationID),
			NetworkInterfaceId: aws.String(eniID),
			PrivateIpAddress:   aws.String(privateIP),
			AllowReassociation: aws.Bool(true),
		})
		if err != nil {
			return err
		}
		associationID = aws.StringValue(resp.AssociationId)
		return nil
	})
	return associationID, err
}
