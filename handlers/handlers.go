// Package handlers implements the concrete body of every step (C6): the
// volume dance, AMI creation, termination, re-creation, reattachment, EIP
// reassociation, target-group and alarm reconciliation (spec.md §4.6).
// Every handler is idempotent and relies only on the cloud adapter plus
// the current job record: before performing an externally-visible side
// effect it first queries the cloud to see whether that effect is already
// present, per spec §4.5 step 5b and the tag-based idempotence convention
// of §9.
package handlers

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/ec2"

	"github.com/jcjorel/ec2-spot-converter-go/cloud"
	"github.com/jcjorel/ec2-spot-converter-go/cmn"
	"github.com/jcjorel/ec2-spot-converter-go/outcome"
	"github.com/jcjorel/ec2-spot-converter-go/record"
)

// Context bundles everything a handler needs; threaded explicitly rather
// than via a process-wide global, per the design note in spec.md §9 that
// re-expresses the source's global mutable "conversion context" as an
// explicit value.
type Context struct {
	Adapter cloud.Adapter
	Log     cmn.Logger
	Job     *record.Job
}

// Func is the signature every step Action in the registry implements.
type Func func(ctx context.Context, hc *Context) (outcome.Outcome, error)

func fail(step string, err error) (outcome.Outcome, error) {
	return outcome.Outcome{}, cmn.NewStepFailure(step, err)
}

// captureSnapshot re-describes the instance plus its volumes, ENIs and
// addresses and writes them into the job record. Called exactly once, by
// discover_instance_state: original_instance_state and the ENI/address
// details are never rewritten afterwards (spec §3 invariant 4), since
// later steps (detach_volumes, prepare_network_interfaces) mutate the live
// cloud state away from what was originally observed. The volume details
// are refreshed once, by get_volume_details via captureVolumes, before
// detach_volumes runs.
// checkpoint_instance_state only validates that this capture happened;
// it does not call captureSnapshot again.
func captureSnapshot(ctx context.Context, hc *Context) error {
	inst, err := hc.Adapter.DescribeInstance(ctx, hc.Job.InstanceID)
	if err != nil {
		return err
	}
	hc.Job.OriginalInstanceState = inst

	if aws.StringValue(inst.InstanceLifecycle) == "spot" {
		hc.Job.SourceBillingModel = record.BillingSpot
	} else {
		hc.Job.SourceBillingModel = record.BillingOnDemand
	}

	volumes, err := captureVolumes(ctx, hc, inst)
	if err != nil {
		return err
	}
	hc.Job.OriginalVolumeDetails = volumes

	var enis []record.NetworkInterfaceDetail
	for _, ni := range inst.NetworkInterfaces {
		var secondary []record.SecondaryIP
		for _, pip := range ni.PrivateIpAddresses {
			if !aws.BoolValue(pip.Primary) {
				secondary = append(secondary, record.SecondaryIP{PrivateIPAddress: aws.StringValue(pip.PrivateIpAddress)})
			}
		}
		var sgIDs []string
		for _, g := range ni.Groups {
			sgIDs = append(sgIDs, aws.StringValue(g.GroupId))
		}
		deleteOnTerm := false
		deviceIndex := int64(0)
		attachmentID := ""
		if ni.Attachment != nil {
			deleteOnTerm = aws.BoolValue(ni.Attachment.DeleteOnTermination)
			deviceIndex = aws.Int64Value(ni.Attachment.DeviceIndex)
			attachmentID = aws.StringValue(ni.Attachment.AttachmentId)
		}
		enis = append(enis, record.NetworkInterfaceDetail{
			NetworkInterfaceID:         aws.StringValue(ni.NetworkInterfaceId),
			AttachmentID:               attachmentID,
			DeviceIndex:                deviceIndex,
			SubnetID:                   aws.StringValue(ni.SubnetId),
			PrivateIPAddress:           aws.StringValue(ni.PrivateIpAddress),
			SecondaryPrivateIPs:        secondary,
			SecurityGroupIDs:           sgIDs,
			SourceDestCheck:            aws.BoolValue(ni.SourceDestCheck),
			OriginalDeleteOnTermination: deleteOnTerm,
		})
	}
	hc.Job.OriginalNetworkInterfaces = enis

	// The instance-embedded association (ec2.InstanceNetworkInterfaceAssociation)
	// carries only the public IP/DNS, not the allocation id; a fresh
	// DescribeNetworkInterfaces call against the richer ec2.NetworkInterface
	// shape is needed to recover original_addresses.
	var addrs []record.AddressDetail
	for _, ni := range inst.NetworkInterfaces {
		if ni.NetworkInterfaceId == nil {
			continue
		}
		fresh, err := hc.Adapter.DescribeNetworkInterface(ctx, aws.StringValue(ni.NetworkInterfaceId))
		if err != nil {
			return err
		}
		if fresh.Association == nil || fresh.Association.AllocationId == nil {
			continue
		}
		addrs = append(addrs, record.AddressDetail{
			AllocationID:     aws.StringValue(fresh.Association.AllocationId),
			AssociationID:    aws.StringValue(fresh.Association.AssociationId),
			PrivateIPAddress: aws.StringValue(ni.PrivateIpAddress),
		})
	}
	hc.Job.OriginalAddresses = addrs

	if hc.Job.Request.CheckTargetGroupsSet {
		memberships, err := captureTargetGroups(ctx, hc)
		if err != nil {
			return err
		}
		hc.Job.OriginalTargetGroups = memberships
	}

	if !hc.Job.Request.IgnoreUserData {
		userData, err := hc.Adapter.DescribeInstanceUserData(ctx, hc.Job.InstanceID)
		if err != nil {
			return err
		}
		hc.Job.OriginalUserData = userData
	}

	return nil
}

// captureTargetGroups records every (arn, port) pair the instance is
// currently registered in, restricted to the ARNs the operator named with
// --check-targetgroups, or every target group in the account when the
// flag was passed with none (spec §3 original_target_groups, §6
// "--check-targetgroups [ARN …] (empty list ⇒ all target groups)").
func captureTargetGroups(ctx context.Context, hc *Context) ([]record.TargetGroupMembership, error) {
	arns := hc.Job.Request.CheckTargetGroups
	if len(arns) == 0 {
		all, err := hc.Adapter.ListTargetGroupArns(ctx)
		if err != nil {
			return nil, err
		}
		arns = all
	}

	var memberships []record.TargetGroupMembership
	for _, arn := range arns {
		ports, err := hc.Adapter.DescribeTargetGroupMemberships(ctx, arn, hc.Job.InstanceID)
		if err != nil {
			return nil, err
		}
		for _, port := range ports {
			memberships = append(memberships, record.TargetGroupMembership{Arn: arn, Port: port})
		}
	}
	return memberships, nil
}

// captureVolumes describes every EBS volume attached to inst and returns
// the detail list the record needs (spec "get_volume_details" step);
// shared by captureSnapshot so the instance-level and volume-detail
// captures stay consistent.
func captureVolumes(ctx context.Context, hc *Context, inst *ec2.Instance) ([]record.VolumeDetail, error) {
	var volumes []record.VolumeDetail
	for _, bdm := range inst.BlockDeviceMappings {
		if bdm.Ebs == nil {
			continue
		}
		vol, err := hc.Adapter.DescribeVolume(ctx, aws.StringValue(bdm.Ebs.VolumeId))
		if err != nil {
			return nil, err
		}
		volumes = append(volumes, record.VolumeDetail{
			VolumeID:            aws.StringValue(vol.VolumeId),
			DeviceName:          aws.StringValue(bdm.DeviceName),
			MultiAttachEnabled:  aws.BoolValue(vol.MultiAttachEnabled),
			DeleteOnTermination: aws.BoolValue(bdm.Ebs.DeleteOnTermination),
			SizeGiB:             aws.Int64Value(vol.Size),
			VolumeType:          aws.StringValue(vol.VolumeType),
			IOPS:                aws.Int64Value(vol.Iops),
			ThroughputMiBps:     aws.Int64Value(vol.Throughput),
			Encrypted:           aws.BoolValue(vol.Encrypted),
			KmsKeyID:            aws.StringValue(vol.KmsKeyId),
		})
	}
	return volumes, nil
}

// allResourceIDs returns instance + every ENI + every volume id, used by
// tag_resources/untag_resources (spec §4.6 "tags instance, every ENI,
// every volume").
func allResourceIDs(job *record.Job) (instances, enis, volumes []string) {
	instances = []string{job.InstanceID}
	for _, e := range job.OriginalNetworkInterfaces {
		enis = append(enis, e.NetworkInterfaceID)
	}
	for _, v := range job.OriginalVolumeDetails {
		volumes = append(volumes, v.VolumeID)
	}
	return
}
