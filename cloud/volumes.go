package cloud

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/ec2"
)

func (a *awsAdapter) DescribeVolume(ctx context.Context, volumeID string) (*ec2.Volume, error) {
	var out *ec2.Volume
	err := withRetry(ctx, func() error {
		resp, err := a.ec2.DescribeVolumesWithContext(ctx, &ec2.DescribeVolumesInput{
			VolumeIds: []*string{aws.String(volumeID)},
		})
		if err != nil {
			return err
		}
		if len(resp.Volumes) == 0 {
			return &volumeNotFound{volumeID}
		}
		out = resp.Volumes[0]
		return nil
	})
	return out, err
}

type volumeNotFound struct{ id string }

func (e *volumeNotFound) Error() string { return "volume " + e.id + " not found" }

func (a *awsAdapter) DetachVolume(ctx context.Context, volumeID, instanceID, device string) error {
	return withRetry(ctx, func() error {
		_, err := a.ec2.DetachVolumeWithContext(ctx, &ec2.DetachVolumeInput{
			VolumeId:   aws.String(volumeID),
			InstanceId: aws.String(instanceID),
			Device:     aws.String(device),
		})
		return err
	})
}

func (a *awsAdapter) AttachVolume(ctx context.Context, volumeID, instanceID, device string) error {
	return withRetry(ctx, func() error {
		_, err := a.ec2.AttachVolumeWithContext(ctx, &ec2.AttachVolumeInput{
			VolumeId:   aws.String(volumeID),
			InstanceId: aws.String(instanceID),
			Device:     aws.String(device),
		})
		return err
	})
}

// WaitVolumeDetachedFromInstance implements the spec's multi-attach open
// question (§9) literally: a volume is "detached enough" as soon as
// instanceID no longer appears in its attachment list, even if the
// volume's own top-level State remains "in-use" because another instance
// still holds it.
func (a *awsAdapter) WaitVolumeDetachedFromInstance(ctx context.Context, volumeID, instanceID string) error {
	return volumeDetachCadence.poll(ctx, "wait_volume_detach", volumeID, func(ctx context.Context) (bool, error) {
		vol, err := a.DescribeVolume(ctx, volumeID)
		if err != nil {
			return false, err
		}
		for _, att := range vol.Attachments {
			if aws.StringValue(att.InstanceId) == instanceID {
				return false, nil
			}
		}
		return true, nil
	})
}
