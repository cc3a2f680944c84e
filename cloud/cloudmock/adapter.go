// Package cloudmock implements an in-memory cloud.Adapter double used by
// unit tests and the ginkgo end-to-end scenario suite (spec.md §8); it is
// not wired to AWS and plays the same role as a hand test double found in
// the pack repos' own *_test.go files.
package cloudmock

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/aws/aws-sdk-go/service/ec2"

	"github.com/jcjorel/ec2-spot-converter-go/cloud"
)

// Adapter is a fully in-memory fake of cloud.Adapter.
type Adapter struct {
	mu sync.Mutex

	Instances map[string]*ec2.Instance
	Volumes   map[string]*ec2.Volume
	ENIs      map[string]*ec2.NetworkInterface
	Addresses map[string]*ec2.Address
	Images    map[string]*ec2.Image
	Alarms    []*cloudwatch.MetricAlarm

	// tags[resourceID][key] = value
	Tags map[string]map[string]string

	// targetHealth[arn][instanceID] = state
	TargetHealth map[string]map[string]string

	SpotRequestStates map[string]string

	// UserData[instanceID] backs DescribeInstanceUserData.
	UserData map[string]string

	NextImageSeq int
}

var _ cloud.Adapter = (*Adapter)(nil)

// New builds an empty fake; tests populate the maps directly.
func New() *Adapter {
	return &Adapter{
		Instances:         map[string]*ec2.Instance{},
		Volumes:           map[string]*ec2.Volume{},
		ENIs:              map[string]*ec2.NetworkInterface{},
		Addresses:         map[string]*ec2.Address{},
		Images:            map[string]*ec2.Image{},
		Tags:              map[string]map[string]string{},
		TargetHealth:      map[string]map[string]string{},
		SpotRequestStates: map[string]string{},
		UserData:          map[string]string{},
	}
}

func (a *Adapter) DescribeInstance(_ context.Context, instanceID string) (*ec2.Instance, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	inst, ok := a.Instances[instanceID]
	if !ok {
		return nil, &notFound{"instance", instanceID}
	}
	return inst, nil
}

func (a *Adapter) WaitInstanceState(ctx context.Context, instanceID, state string) error {
	inst, err := a.DescribeInstance(ctx, instanceID)
	if err != nil {
		return err
	}
	if aws.StringValue(inst.State.Name) != state {
		return &notReady{"instance", instanceID, state}
	}
	return nil
}

func (a *Adapter) RunInstance(_ context.Context, spec *ec2.RunInstancesInput) (*ec2.Instance, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.NextImageSeq++
	id := idFromSeq("i-new", a.NextImageSeq)
	inst := &ec2.Instance{
		InstanceId:       aws.String(id),
		ImageId:          spec.ImageId,
		InstanceType:     spec.InstanceType,
		Placement:        &ec2.Placement{AvailabilityZone: spec.Placement.AvailabilityZone},
		State:            &ec2.InstanceState{Name: aws.String(ec2.InstanceStateNameRunning)},
		SubnetId:         nil,
		IamInstanceProfile: nil,
	}
	if spec.InstanceMarketOptions != nil {
		inst.InstanceLifecycle = aws.String("spot")
	}

	for _, attach := range spec.NetworkInterfaces {
		eniID := aws.StringValue(attach.NetworkInterfaceId)
		eni, ok := a.ENIs[eniID]
		if !ok {
			continue
		}
		a.NextImageSeq++
		eni.Attachment = &ec2.NetworkInterfaceAttachment{
			AttachmentId:        aws.String(idFromSeq("eni-attach-new", a.NextImageSeq)),
			DeviceIndex:         attach.DeviceIndex,
			DeleteOnTermination: aws.Bool(false),
			InstanceId:          aws.String(id),
		}
		eni.Status = aws.String(ec2.NetworkInterfaceStatusInUse)
		inst.NetworkInterfaces = append(inst.NetworkInterfaces, &ec2.InstanceNetworkInterface{
			NetworkInterfaceId: aws.String(eniID),
			PrivateIpAddress:   eni.PrivateIpAddress,
		})
	}

	a.Instances[id] = inst
	return inst, nil
}

// TerminateInstance also simulates the provider's cascading release of any
// ENI/elastic-IP still attached to the instance, mirroring what a real
// terminate does once prepare_network_interfaces has preserved the ENIs:
// they become detached (but not destroyed) and any association drops.
func (a *Adapter) TerminateInstance(_ context.Context, instanceID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	inst, ok := a.Instances[instanceID]
	if !ok {
		return nil
	}
	inst.State = &ec2.InstanceState{Name: aws.String(ec2.InstanceStateNameTerminated)}

	for _, ni := range inst.NetworkInterfaces {
		eniID := aws.StringValue(ni.NetworkInterfaceId)
		eni, ok := a.ENIs[eniID]
		if !ok || eni.Attachment == nil || aws.BoolValue(eni.Attachment.DeleteOnTermination) {
			continue
		}
		eni.Attachment = nil
		eni.Status = aws.String(ec2.NetworkInterfaceStatusAvailable)
		for _, addr := range a.Addresses {
			if aws.StringValue(addr.NetworkInterfaceId) == eniID {
				addr.NetworkInterfaceId = nil
				addr.AssociationId = nil
			}
		}
	}
	return nil
}

func (a *Adapter) StopInstance(_ context.Context, instanceID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if inst, ok := a.Instances[instanceID]; ok {
		inst.State = &ec2.InstanceState{Name: aws.String(ec2.InstanceStateNameStopped)}
	}
	return nil
}

func (a *Adapter) RebootInstance(_ context.Context, instanceID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if inst, ok := a.Instances[instanceID]; ok {
		inst.State = &ec2.InstanceState{Name: aws.String(ec2.InstanceStateNameRunning)}
	}
	return nil
}

func (a *Adapter) DescribeSpotRequestState(_ context.Context, spotRequestID string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	state, ok := a.SpotRequestStates[spotRequestID]
	if !ok {
		return "", &notFound{"spot-request", spotRequestID}
	}
	return state, nil
}

func (a *Adapter) DescribeInstanceUserData(_ context.Context, instanceID string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.UserData[instanceID], nil
}

func (a *Adapter) DescribeVolume(_ context.Context, volumeID string) (*ec2.Volume, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	vol, ok := a.Volumes[volumeID]
	if !ok {
		return nil, &notFound{"volume", volumeID}
	}
	return vol, nil
}

func (a *Adapter) DetachVolume(_ context.Context, volumeID, instanceID, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	vol, ok := a.Volumes[volumeID]
	if !ok {
		return &notFound{"volume", volumeID}
	}
	kept := vol.Attachments[:0]
	for _, att := range vol.Attachments {
		if aws.StringValue(att.InstanceId) != instanceID {
			kept = append(kept, att)
		}
	}
	vol.Attachments = kept
	if len(kept) == 0 {
		vol.State = aws.String(ec2.VolumeStateAvailable)
	}
	return nil
}

func (a *Adapter) AttachVolume(_ context.Context, volumeID, instanceID, device string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	vol, ok := a.Volumes[volumeID]
	if !ok {
		return &notFound{"volume", volumeID}
	}
	vol.Attachments = append(vol.Attachments, &ec2.VolumeAttachment{
		InstanceId: aws.String(instanceID),
		Device:     aws.String(device),
		State:      aws.String(ec2.VolumeAttachmentStateAttached),
	})
	vol.State = aws.String(ec2.VolumeStateInUse)
	return nil
}

func (a *Adapter) WaitVolumeDetachedFromInstance(ctx context.Context, volumeID, instanceID string) error {
	vol, err := a.DescribeVolume(ctx, volumeID)
	if err != nil {
		return err
	}
	for _, att := range vol.Attachments {
		if aws.StringValue(att.InstanceId) == instanceID {
			return &notReady{"volume", volumeID, "detached from " + instanceID}
		}
	}
	return nil
}

func (a *Adapter) FindImageByName(_ context.Context, name string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for id, img := range a.Images {
		if aws.StringValue(img.Name) == name {
			return id, nil
		}
	}
	return "", nil
}

func (a *Adapter) CreateImageNoReboot(_ context.Context, instanceID, name, tagKey, tagValue string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.NextImageSeq++
	id := idFromSeq("ami", a.NextImageSeq)
	a.Images[id] = &ec2.Image{
		ImageId: aws.String(id),
		Name:    aws.String(name),
		State:   aws.String(ec2.ImageStatePending),
		BlockDeviceMappings: []*ec2.BlockDeviceMapping{
			{DeviceName: aws.String("/dev/xvda"), Ebs: &ec2.EbsBlockDevice{SnapshotId: aws.String(idFromSeq("snap", a.NextImageSeq))}},
		},
	}
	if a.Tags[id] == nil {
		a.Tags[id] = map[string]string{}
	}
	a.Tags[id][tagKey] = tagValue
	_ = instanceID
	return id, nil
}

func (a *Adapter) WaitImageAvailable(_ context.Context, imageID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	img, ok := a.Images[imageID]
	if !ok {
		return &notFound{"image", imageID}
	}
	img.State = aws.String(ec2.ImageStateAvailable)
	return nil
}

func (a *Adapter) DeregisterImage(_ context.Context, imageID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.Images, imageID)
	return nil
}

func (a *Adapter) DescribeNetworkInterface(_ context.Context, eniID string) (*ec2.NetworkInterface, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	eni, ok := a.ENIs[eniID]
	if !ok {
		return nil, &notFound{"eni", eniID}
	}
	return eni, nil
}

func (a *Adapter) SetNetworkInterfaceDeleteOnTermination(_ context.Context, eniID, _ string, flag bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	eni, ok := a.ENIs[eniID]
	if !ok {
		return &notFound{"eni", eniID}
	}
	if eni.Attachment != nil {
		eni.Attachment.DeleteOnTermination = aws.Bool(flag)
	}
	return nil
}

func (a *Adapter) WaitNetworkInterfaceAvailable(ctx context.Context, eniID string) error {
	eni, err := a.DescribeNetworkInterface(ctx, eniID)
	if err != nil {
		return err
	}
	if aws.StringValue(eni.Status) != ec2.NetworkInterfaceStatusAvailable {
		return &notReady{"eni", eniID, "available"}
	}
	return nil
}

func (a *Adapter) DescribeAddress(_ context.Context, allocationID string) (*ec2.Address, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	addr, ok := a.Addresses[allocationID]
	if !ok {
		return nil, &notFound{"address", allocationID}
	}
	return addr, nil
}

func (a *Adapter) AssociateAddress(_ context.Context, allocationID, eniID, privateIP string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	addr, ok := a.Addresses[allocationID]
	if !ok {
		return "", &notFound{"address", allocationID}
	}
	a.NextImageSeq++
	assoc := idFromSeq("eipassoc", a.NextImageSeq)
	addr.AssociationId = aws.String(assoc)
	addr.NetworkInterfaceId = aws.String(eniID)
	addr.PrivateIpAddress = aws.String(privateIP)
	return assoc, nil
}

func (a *Adapter) WaitAddressDisassociated(ctx context.Context, allocationID string) error {
	addr, err := a.DescribeAddress(ctx, allocationID)
	if err != nil {
		return err
	}
	if aws.StringValue(addr.AssociationId) != "" {
		return &notReady{"address", allocationID, "disassociated"}
	}
	return nil
}

func (a *Adapter) TagResources(_ context.Context, resourceIDs []string, key, value string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, id := range resourceIDs {
		if a.Tags[id] == nil {
			a.Tags[id] = map[string]string{}
		}
		a.Tags[id][key] = value
	}
	return nil
}

func (a *Adapter) UntagResources(_ context.Context, resourceIDs []string, key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, id := range resourceIDs {
		delete(a.Tags[id], key)
	}
	return nil
}

// resourceIDPrefixes maps an EC2 resource type to the id prefix the fake
// uses to tell resource types apart in its flat Tags map.
var resourceIDPrefixes = map[string]string{
	"instance":          "i-",
	"network-interface": "eni-",
	"volume":            "vol-",
	"image":             "ami-",
}

func (a *Adapter) ResourcesTaggedWith(_ context.Context, resourceType string, key, value string) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	prefix := resourceIDPrefixes[resourceType]
	var ids []string
	for id, tags := range a.Tags {
		if tags[key] == value && strings.HasPrefix(id, prefix) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (a *Adapter) DescribeTargetGroupMemberships(_ context.Context, arn, instanceID string) ([]int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.TargetHealth[arn][instanceID]; !ok {
		return nil, nil
	}
	return []int64{80}, nil
}

func (a *Adapter) ListTargetGroupArns(_ context.Context) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var arns []string
	for arn := range a.TargetHealth {
		arns = append(arns, arn)
	}
	return arns, nil
}

func (a *Adapter) RegisterTarget(_ context.Context, arn, instanceID string, _ int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.TargetHealth[arn] == nil {
		a.TargetHealth[arn] = map[string]string{}
	}
	a.TargetHealth[arn][instanceID] = "healthy"
	return nil
}

func (a *Adapter) DeregisterTarget(_ context.Context, arn, instanceID string, _ int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.TargetHealth[arn], instanceID)
	return nil
}

func (a *Adapter) TargetHealthState(_ context.Context, arn, instanceID string, _ int64) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	state, ok := a.TargetHealth[arn][instanceID]
	if !ok {
		return "unused", nil
	}
	return state, nil
}

func (a *Adapter) AlarmsMatchingPrefixes(_ context.Context, prefixes []string) ([]*cloudwatch.MetricAlarm, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(prefixes) == 0 {
		return a.Alarms, nil
	}
	var out []*cloudwatch.MetricAlarm
	for _, al := range a.Alarms {
		name := aws.StringValue(al.AlarmName)
		for _, p := range prefixes {
			if p == "*" || (len(name) >= len(p) && name[:len(p)] == p) {
				out = append(out, al)
				break
			}
		}
	}
	return out, nil
}

func (a *Adapter) RepointAlarmInstanceID(_ context.Context, alarm *cloudwatch.MetricAlarm, from, to string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, d := range alarm.Dimensions {
		if aws.StringValue(d.Name) == "InstanceId" && aws.StringValue(d.Value) == from {
			d.Value = aws.String(to)
		}
	}
	return nil
}

type notFound struct {
	kind, id string
}

func (e *notFound) Error() string { return e.kind + " " + e.id + " not found" }

type notReady struct {
	kind, id, want string
}

func (e *notReady) Error() string { return e.kind + " " + e.id + " not yet " + e.want }

func idFromSeq(prefix string, seq int) string {
	return prefix + "-" + strconv.Itoa(seq)
}
