// Package retry wraps github.com/cenkalti/backoff for the two places the
// toolkit retries a transient failure: bounded-retry disk writes (backoff/v5)
// and the consumer driver's empty-poll backoff (backoff/v4, pollbackoff.go).
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/cockroachdb/errors"
)

// WriteRetrier bounds a disk write (or any other idempotent operation) to a
// fixed number of attempts with exponential backoff between them. It is the
// generalization of the teacher's BackoffWrapper: instead of an
// any-returning Operation it wraps a plain func() error, since persistence
// writes never produce a value the caller needs back.
type WriteRetrier struct {
	ctx     context.Context
	options []backoff.RetryOption
}

// NewWriteRetrier builds a WriteRetrier. initialInterval is the wait before
// the first retry; maxTries is the total number of attempts, including the
// first.
func NewWriteRetrier(ctx context.Context, initialInterval time.Duration, randomizationFactor, multiplier float64, maxTries uint) *WriteRetrier {
	exponentialBackOff := backoff.NewExponentialBackOff()
	exponentialBackOff.InitialInterval = initialInterval
	exponentialBackOff.RandomizationFactor = randomizationFactor
	exponentialBackOff.Multiplier = multiplier

	return &WriteRetrier{
		ctx:     ctx,
		options: []backoff.RetryOption{backoff.WithBackOff(exponentialBackOff), backoff.WithMaxTries(maxTries)},
	}
}

// Do runs op, retrying on a non-nil error until it succeeds or the retry
// budget is exhausted. The final error (if any) is returned wrapped.
func (r *WriteRetrier) Do(op func() error) error {
	_, err := backoff.Retry(r.ctx, func() (struct{}, error) {
		return struct{}{}, op()
	}, r.options...)
	if err != nil {
		return errors.Wrapf(err, "retry budget exhausted")
	}
	return nil
}

// SetNotify registers a callback invoked on every retryable failure,
// matching the teacher's SetNotify.
func (r *WriteRetrier) SetNotify(n backoff.Notify) {
	r.options = append(r.options, backoff.WithNotify(n))
}
