package cloud

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
)

// retryableCodes are the throttling/eventual-consistency error codes the
// adapter absorbs internally via bounded exponential backoff (spec §4.1,
// §7 TransientCloudError); everything else is returned to the caller as a
// non-retryable StepFailure.
var retryableCodes = map[string]bool{
	"RequestLimitExceeded":        true,
	"Throttling":                  true,
	"ThrottlingException":         true,
	"InternalError":               true,
	"InvalidInstanceID.NotFound":  true, // eventual consistency after create
	request.ErrCodeResponseTimeout: true,
}

const (
	backoffBase = 500 * time.Millisecond
	backoffMax  = 15 * time.Second
	maxAttempts = 8
)

// withRetry runs op, retrying on transient provider errors with bounded
// exponential backoff. Non-retryable errors are returned immediately.
func withRetry(ctx context.Context, op func() error) error {
	var err error
	delay := backoffBase
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if aerr, ok := err.(awserr.Error); !ok || !retryableCodes[aerr.Code()] {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > backoffMax {
			delay = backoffMax
		}
	}
	return err
}
