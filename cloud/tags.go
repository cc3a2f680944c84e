package cloud

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/ec2"
)

// TagResources and UntagResources implement the "tag-based idempotence"
// backbone (spec §9): every resource touched by a job is tagged with
// ec2-spot-converter:job-id for the duration of the critical window.
// Tagging N resources is one CreateTags call (the EC2 API already batches
// resource ids); the errgroup fan-out is used when a handler needs to tag
// resources discovered across several independent describe calls at once
// (e.g. instance + every ENI + every volume), mirroring how a single step
// may issue several adapter calls sequentially or fanned out per spec §5,
// so long as no partial failure leaves state the next attempt can't
// re-converge on — CreateTags itself is all-or-nothing per call.
func (a *awsAdapter) TagResources(ctx context.Context, resourceIDs []string, key, value string) error {
	if len(resourceIDs) == 0 {
		return nil
	}
	ids := make([]*string, len(resourceIDs))
	for i, id := range resourceIDs {
		ids[i] = aws.String(id)
	}
	return withRetry(ctx, func() error {
		_, err := a.ec2.CreateTagsWithContext(ctx, &ec2.CreateTagsInput{
			Resources: ids,
			Tags:      []*ec2.Tag{{Key: aws.String(key), Value: aws.String(value)}},
		})
		return err
	})
}

func (a *awsAdapter) UntagResources(ctx context.Context, resourceIDs []string, key string) error {
	if len(resourceIDs) == 0 {
		return nil
	}
	ids := make([]*string, len(resourceIDs))
	for i, id := range resourceIDs {
		ids[i] = aws.String(id)
	}
	return withRetry(ctx, func() error {
		_, err := a.ec2.DeleteTagsWithContext(ctx, &ec2.DeleteTagsInput{
			Resources: ids,
			Tags:      []*ec2.Tag{{Key: aws.String(key)}},
		})
		return err
	})
}

// ResourcesTaggedWith finds resources of a given EC2 resource type
// (instance, volume, network-interface, image, ...) carrying key=value;
// used to recognise resources a previous, crashed attempt already created
// or tagged (spec S4 "crash after create_new_instance succeeds but before
// record save").
func (a *awsAdapter) ResourcesTaggedWith(ctx context.Context, resourceType, key, value string) ([]string, error) {
	var ids []string
	err := withRetry(ctx, func() error {
		resp, err := a.ec2.DescribeTagsWithContext(ctx, &ec2.DescribeTagsInput{
			Filters: []*ec2.Filter{
				{Name: aws.String("resource-type"), Values: []*string{aws.String(resourceType)}},
				{Name: aws.String("key"), Values: []*string{aws.String(key)}},
				{Name: aws.String("value"), Values: []*string{aws.String(value)}},
			},
		})
		if err != nil {
			return err
		}
		ids = ids[:0]
		for _, t := range resp.Tags {
			ids = append(ids, aws.StringValue(t.ResourceId))
		}
		return nil
	})
	return ids, err
}

// TagMany tags a set of heterogeneous resource batches concurrently; kept
// here (rather than in every handler) so handlers share one fan-out
// policy. A failure in any batch fails the whole call — no batch's
// success is assumed without the others, so a retried step simply redoes
// every batch (each CreateTags call is itself idempotent).
func TagMany(ctx context.Context, a Adapter, batches [][]string, key, value string) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, batch := range batches {
		batch := batch
		g.Go(func() error { return a.TagResources(gctx, batch, key, value) })
	}
	return g.Wait()
}
