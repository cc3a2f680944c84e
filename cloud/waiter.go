package cloud

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/jcjorel/ec2-spot-converter-go/cmn"
)

// pollCadence paces repeated describe-calls inside a waiter loop so a slow
// provider-side transition doesn't turn into a describe-call storm;
// grounded on other_examples' grail-reflow ec2cluster.go, which paces its
// own EC2 describe calls with a golang.org/x/time/rate limiter.
type pollCadence struct {
	limiter *rate.Limiter
	timeout time.Duration
}

func newPollCadence(every time.Duration, timeout time.Duration) *pollCadence {
	return &pollCadence{limiter: rate.NewLimiter(rate.Every(every), 1), timeout: timeout}
}

// poll invokes check repeatedly (paced by the cadence) until it returns
// done=true, an error, or the deadline elapses. done=false,err=nil means
// "still in progress" (spec §4.5 step 5d — internal, does not advance the
// step).
func (p *pollCadence) poll(ctx context.Context, step, what string, check func(ctx context.Context) (done bool, err error)) error {
	deadline := time.Now().Add(p.timeout)
	for {
		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}
		done, err := check(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if time.Now().After(deadline) {
			return &cmn.WaiterTimeout{Step: step, Wait: what}
		}
	}
}

// Suggested cadences from spec §4.5.
var (
	instanceStateCadence       = newPollCadence(15*time.Second, 10*time.Minute)
	imageAvailableCadence      = newPollCadence(30*time.Second, 20*time.Minute)
	volumeDetachCadence        = newPollCadence(15*time.Second, 10*time.Minute)
	eniAvailableCadence        = newPollCadence(15*time.Second, 10*time.Minute)
	addressDisassociateCadence = newPollCadence(15*time.Second, 10*time.Minute)
)
