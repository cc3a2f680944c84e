package cloud

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/ec2"
)

// FindImageByName backs the AMI idempotence contract (spec §4.6
// "start_ami_creation": "if the image is later found already-present by
// tag, that id is reused"); named-lookup grounded on
// other_examples' terraform-provider-aws resource_aws_ami.go, which also
// re-discovers images via DescribeImages filters rather than assuming a
// fresh create is always safe.
func (a *awsAdapter) FindImageByName(ctx context.Context, name string) (string, error) {
	var imageID string
	err := withRetry(ctx, func() error {
		resp, err := a.ec2.DescribeImagesWithContext(ctx, &ec2.DescribeImagesInput{
			Owners: []*string{aws.String("self")},
			Filters: []*ec2.Filter{
				{Name: aws.String("name"), Values: []*string{aws.String(name)}},
			},
		})
		if err != nil {
			return err
		}
		if len(resp.Images) > 0 {
			imageID = aws.StringValue(resp.Images[0].ImageId)
		}
		return nil
	})
	return imageID, err
}

// CreateImageNoReboot requests the backup image and tags it with the
// job-id at creation time, so it is covered by the resource-tag contract
// (spec §6) the same as the instance/ENIs/volumes, and so untag_resources'
// image cleanup (ResourcesTaggedWith(ctx, "image", ...)) has something to
// find.
func (a *awsAdapter) CreateImageNoReboot(ctx context.Context, instanceID, name, tagKey, tagValue string) (string, error) {
	var imageID string
	err := withRetry(ctx, func() error {
		resp, err := a.ec2.CreateImageWithContext(ctx, &ec2.CreateImageInput{
			InstanceId: aws.String(instanceID),
			Name:       aws.String(name),
			NoReboot:   aws.Bool(true),
			TagSpecifications: []*ec2.TagSpecification{
				{
					ResourceType: aws.String(ec2.ResourceTypeImage),
					Tags:         []*ec2.Tag{{Key: aws.String(tagKey), Value: aws.String(tagValue)}},
				},
			},
		})
		if err != nil {
			return err
		}
		imageID = aws.StringValue(resp.ImageId)
		return nil
	})
	return imageID, err
}

func (a *awsAdapter) WaitImageAvailable(ctx context.Context, imageID string) error {
	return imageAvailableCadence.poll(ctx, "wait_ami_ready", imageID, func(ctx context.Context) (bool, error) {
		resp, err := withRetryDescribeImages(ctx, a, imageID)
		if err != nil {
			return false, err
		}
		if len(resp.Images) == 0 {
			return false, nil
		}
		switch aws.StringValue(resp.Images[0].State) {
		case ec2.ImageStateAvailable:
			return true, nil
		case ec2.ImageStateFailed:
			return false, &imageCreationFailed{imageID, aws.StringValue(resp.Images[0].StateReason.Message)}
		default:
			return false, nil
		}
	})
}

func withRetryDescribeImages(ctx context.Context, a *awsAdapter, imageID string) (*ec2.DescribeImagesOutput, error) {
	var out *ec2.DescribeImagesOutput
	err := withRetry(ctx, func() error {
		resp, err := a.ec2.DescribeImagesWithContext(ctx, &ec2.DescribeImagesInput{
			ImageIds: []*string{aws.String(imageID)},
		})
		out = resp
		return err
	})
	return out, err
}

type imageCreationFailed struct {
	id     string
	reason string
}

func (e *imageCreationFailed) Error() string { return "image " + e.id + " creation failed: " + e.reason }

// DeregisterImage deregisters the AMI and deletes its backing snapshots
// (spec's "deregister_image" step / "AMI (backup image)" glossary entry).
func (a *awsAdapter) DeregisterImage(ctx context.Context, imageID string) error {
	snapshots, err := a.imageSnapshots(ctx, imageID)
	if err != nil {
		return err
	}
	if err := withRetry(ctx, func() error {
		_, err := a.ec2.DeregisterImageWithContext(ctx, &ec2.DeregisterImageInput{ImageId: aws.String(imageID)})
		return err
	}); err != nil {
		return err
	}
	for _, snapID := range snapshots {
		if err := withRetry(ctx, func() error {
			_, err := a.ec2.DeleteSnapshotWithContext(ctx, &ec2.DeleteSnapshotInput{SnapshotId: aws.String(snapID)})
			return err
		}); err != nil {
			return err
		}
	}
	return nil
}

func (a *awsAdapter) imageSnapshots(ctx context.Context, imageID string) ([]string, error) {
	resp, err := withRetryDescribeImages(ctx, a, imageID)
	if err != nil {
		return nil, err
	}
	if len(resp.Images) == 0 {
		return nil, nil
	}
	var ids []string
	for _, bdm := range resp.Images[0].BlockDeviceMappings {
		if bdm.Ebs != nil && bdm.Ebs.SnapshotId != nil {
			ids = append(ids, aws.StringValue(bdm.Ebs.SnapshotId))
		}
	}
	return ids, nil
}
