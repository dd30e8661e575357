package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// PollBackoff paces a consumer driver's re-poll attempts when a Consume
// call returns no messages, instead of busy-looping. It is the same
// backoff/v4 NewExponentialBackOff + WithMaxElapsedTime idiom the teacher
// uses to pace Redis dial retries in redis_stream/redis.go, repurposed from
// "redial" to "re-poll": NextWait grows exponentially up to maxInterval and
// resets whenever the consumer sees work again.
type PollBackoff struct {
	ctx context.Context
	bo  backoff.BackOff
}

// NewPollBackoff builds a PollBackoff bounded by maxElapsed (the consumer
// config's poll timeout) and capped per-step at maxInterval.
func NewPollBackoff(ctx context.Context, initialInterval, maxInterval, maxElapsed time.Duration) *PollBackoff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = initialInterval
	eb.RandomizationFactor = 0
	eb.MaxInterval = maxInterval
	eb.MaxElapsedTime = maxElapsed

	return &PollBackoff{
		ctx: ctx,
		bo:  backoff.WithContext(eb, ctx),
	}
}

// NextWait returns how long to sleep before the next poll attempt, or false
// once the backoff has exceeded its bounded elapsed time (the caller should
// then give up waiting and loop back around to check the shutdown signal).
func (p *PollBackoff) NextWait() (time.Duration, bool) {
	d := p.bo.NextBackOff()
	if d == backoff.Stop {
		return 0, false
	}
	return d, true
}

// Reset clears the backoff state, called as soon as Consume sees work
// again so the next empty poll starts from InitialInterval.
func (p *PollBackoff) Reset() {
	p.bo.Reset()
}
