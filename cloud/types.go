// Package cloud exposes the thin capability interface (C1) the rest of the
// tool invokes: only the provider operations the step handlers actually
// call, with retry/backoff policy and eventual-consistency waits folded in
// here so handlers never see a raw SDK client.
package cloud

import (
	"context"

	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/aws/aws-sdk-go/service/ec2"
)

// Adapter is the minimum operation set spec.md §4.1/§2 (C1) allows C6 to
// invoke. Every call is synchronous from the caller's perspective; the
// adapter never caches, so every call observes fresh provider state.
type Adapter interface {
	// Instance lifecycle.
	DescribeInstance(ctx context.Context, instanceID string) (*ec2.Instance, error)
	WaitInstanceState(ctx context.Context, instanceID, state string) error
	RunInstance(ctx context.Context, spec *ec2.RunInstancesInput) (*ec2.Instance, error)
	TerminateInstance(ctx context.Context, instanceID string) error
	StopInstance(ctx context.Context, instanceID string) error
	RebootInstance(ctx context.Context, instanceID string) error
	DescribeSpotRequestState(ctx context.Context, spotRequestID string) (string, error)
	DescribeInstanceUserData(ctx context.Context, instanceID string) (string, error)

	// Volumes.
	DescribeVolume(ctx context.Context, volumeID string) (*ec2.Volume, error)
	DetachVolume(ctx context.Context, volumeID, instanceID, device string) error
	AttachVolume(ctx context.Context, volumeID, instanceID, device string) error
	WaitVolumeDetachedFromInstance(ctx context.Context, volumeID, instanceID string) error

	// Images (AMIs).
	FindImageByName(ctx context.Context, name string) (string, error)
	CreateImageNoReboot(ctx context.Context, instanceID, name, tagKey, tagValue string) (string, error)
	WaitImageAvailable(ctx context.Context, imageID string) error
	DeregisterImage(ctx context.Context, imageID string) error

	// Network interfaces & addresses.
	DescribeNetworkInterface(ctx context.Context, eniID string) (*ec2.NetworkInterface, error)
	SetNetworkInterfaceDeleteOnTermination(ctx context.Context, eniID, attachmentID string, flag bool) error
	WaitNetworkInterfaceAvailable(ctx context.Context, eniID string) error
	DescribeAddress(ctx context.Context, allocationID string) (*ec2.Address, error)
	AssociateAddress(ctx context.Context, allocationID, eniID, privateIP string) (string, error)
	WaitAddressDisassociated(ctx context.Context, allocationID string) error

	// Tagging (idempotence backbone, spec §9).
	TagResources(ctx context.Context, resourceIDs []string, key, value string) error
	UntagResources(ctx context.Context, resourceIDs []string, key string) error
	ResourcesTaggedWith(ctx context.Context, resourceType, key, value string) ([]string, error)

	// Target groups (optional reconciliation).
	DescribeTargetGroupMemberships(ctx context.Context, targetGroupArn, instanceID string) ([]int64, error)
	ListTargetGroupArns(ctx context.Context) ([]string, error)
	RegisterTarget(ctx context.Context, targetGroupArn, instanceID string, port int64) error
	DeregisterTarget(ctx context.Context, targetGroupArn, instanceID string, port int64) error
	TargetHealthState(ctx context.Context, targetGroupArn, instanceID string, port int64) (string, error)

	// CloudWatch alarms (optional reconciliation).
	AlarmsMatchingPrefixes(ctx context.Context, prefixes []string) ([]*cloudwatch.MetricAlarm, error)
	RepointAlarmInstanceID(ctx context.Context, alarm *cloudwatch.MetricAlarm, from, to string) error
}
