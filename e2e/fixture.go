// Package e2e runs full conversions against cloud/cloudmock and
// store/bunt.go, exercising the scenarios spec.md §8 names.
package e2e

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/ec2"

	"github.com/jcjorel/ec2-spot-converter-go/cloud/cloudmock"
)

// Fixture builds a two-ENI, three-volume (one multi-attached), one-EIP
// instance matching scenario S1's shape (spec §8), and returns the
// in-memory adapter it is registered in plus the instance id.
func Fixture(lifecycle string) (*cloudmock.Adapter, string) {
	a := cloudmock.New()

	const (
		instanceID = "i-0123456789abcdef0"
		eni1       = "eni-1111111111111111"
		eni2       = "eni-2222222222222222"
		volRoot    = "vol-0000000000000000"
		volData    = "vol-1111111111111111"
		volShared  = "vol-2222222222222222"
		allocID    = "eipalloc-1111111111"
		assocID    = "eipassoc-1111111111"
	)

	a.Instances[instanceID] = &ec2.Instance{
		InstanceId:   aws.String(instanceID),
		ImageId:      aws.String("ami-source000000000"),
		InstanceType: aws.String("m5.large"),
		State:        &ec2.InstanceState{Name: aws.String(ec2.InstanceStateNameRunning)},
		Placement:    &ec2.Placement{AvailabilityZone: aws.String("us-east-1a"), Tenancy: aws.String(ec2.TenancyDefault)},
		Monitoring:   &ec2.Monitoring{State: aws.String(ec2.MonitoringStateDisabled)},
		BlockDeviceMappings: []*ec2.InstanceBlockDeviceMapping{
			{DeviceName: aws.String("/dev/xvda"), Ebs: &ec2.EbsInstanceBlockDevice{VolumeId: aws.String(volRoot), DeleteOnTermination: aws.Bool(true)}},
			{DeviceName: aws.String("/dev/sdf"), Ebs: &ec2.EbsInstanceBlockDevice{VolumeId: aws.String(volData), DeleteOnTermination: aws.Bool(false)}},
			{DeviceName: aws.String("/dev/sdg"), Ebs: &ec2.EbsInstanceBlockDevice{VolumeId: aws.String(volShared), DeleteOnTermination: aws.Bool(false)}},
		},
		NetworkInterfaces: []*ec2.InstanceNetworkInterface{
			{
				NetworkInterfaceId: aws.String(eni1),
				SubnetId:           aws.String("subnet-primary"),
				PrivateIpAddress:   aws.String("10.0.0.5"),
				SourceDestCheck:    aws.Bool(true),
				PrivateIpAddresses: []*ec2.InstancePrivateIpAddress{{Primary: aws.Bool(true), PrivateIpAddress: aws.String("10.0.0.5")}},
				Attachment:         &ec2.InstanceNetworkInterfaceAttachment{AttachmentId: aws.String("eni-attach-1"), DeviceIndex: aws.Int64(0), DeleteOnTermination: aws.Bool(true)},
			},
			{
				NetworkInterfaceId: aws.String(eni2),
				SubnetId:           aws.String("subnet-secondary"),
				PrivateIpAddress:   aws.String("10.0.0.6"),
				SourceDestCheck:    aws.Bool(true),
				PrivateIpAddresses: []*ec2.InstancePrivateIpAddress{{Primary: aws.Bool(true), PrivateIpAddress: aws.String("10.0.0.6")}},
				Attachment:         &ec2.InstanceNetworkInterfaceAttachment{AttachmentId: aws.String("eni-attach-2"), DeviceIndex: aws.Int64(1), DeleteOnTermination: aws.Bool(true)},
			},
		},
	}
	if lifecycle != "" {
		a.Instances[instanceID].InstanceLifecycle = aws.String(lifecycle)
	}

	a.Volumes[volRoot] = &ec2.Volume{VolumeId: aws.String(volRoot), Size: aws.Int64(20), VolumeType: aws.String(ec2.VolumeTypeGp3), State: aws.String(ec2.VolumeStateInUse), Attachments: []*ec2.VolumeAttachment{{InstanceId: aws.String(instanceID), Device: aws.String("/dev/xvda"), State: aws.String(ec2.VolumeAttachmentStateAttached)}}}
	a.Volumes[volData] = &ec2.Volume{VolumeId: aws.String(volData), Size: aws.Int64(100), VolumeType: aws.String(ec2.VolumeTypeGp3), State: aws.String(ec2.VolumeStateInUse), Attachments: []*ec2.VolumeAttachment{{InstanceId: aws.String(instanceID), Device: aws.String("/dev/sdf"), State: aws.String(ec2.VolumeAttachmentStateAttached)}}}
	a.Volumes[volShared] = &ec2.Volume{
		VolumeId: aws.String(volShared), Size: aws.Int64(200), VolumeType: aws.String(ec2.VolumeTypeGp3),
		State:              aws.String(ec2.VolumeStateInUse),
		MultiAttachEnabled: aws.Bool(true),
		Attachments: []*ec2.VolumeAttachment{
			{InstanceId: aws.String(instanceID), Device: aws.String("/dev/sdg"), State: aws.String(ec2.VolumeAttachmentStateAttached)},
			{InstanceId: aws.String("i-otherinstance0000"), Device: aws.String("/dev/sdg"), State: aws.String(ec2.VolumeAttachmentStateAttached)},
		},
	}

	a.ENIs[eni1] = &ec2.NetworkInterface{
		NetworkInterfaceId: aws.String(eni1),
		Status:             aws.String(ec2.NetworkInterfaceStatusInUse),
		PrivateIpAddress:   aws.String("10.0.0.5"),
		Attachment:         &ec2.NetworkInterfaceAttachment{AttachmentId: aws.String("eni-attach-1"), DeviceIndex: aws.Int64(0), DeleteOnTermination: aws.Bool(true)},
		Association:        &ec2.NetworkInterfaceAssociation{AllocationId: aws.String(allocID), AssociationId: aws.String(assocID), PublicIp: aws.String("203.0.113.5")},
	}
	a.ENIs[eni2] = &ec2.NetworkInterface{
		NetworkInterfaceId: aws.String(eni2),
		Status:             aws.String(ec2.NetworkInterfaceStatusInUse),
		PrivateIpAddress:   aws.String("10.0.0.6"),
		Attachment:         &ec2.NetworkInterfaceAttachment{AttachmentId: aws.String("eni-attach-2"), DeviceIndex: aws.Int64(1), DeleteOnTermination: aws.Bool(true)},
	}

	a.Addresses[allocID] = &ec2.Address{AllocationId: aws.String(allocID), AssociationId: aws.String(assocID), NetworkInterfaceId: aws.String(eni1), PrivateIpAddress: aws.String("10.0.0.5")}

	return a, instanceID
}
