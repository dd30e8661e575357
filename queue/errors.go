package queue

import "github.com/cockroachdb/errors"

// ErrQueueFull is returned by Publish when a bound is configured and
// already reached.
var ErrQueueFull = errors.New("queue: at capacity")

// ErrPersistence tags persistence I/O failures. These are logged and
// swallowed by the caller (spec.md §7): a write failure never fails the
// publish/ack/nack it accompanies.
var ErrPersistence = errors.New("queue: persistence failure")

// ErrHandler tags a consumer handler failure, including a recovered
// panic. It never escapes StartConsumer's loop; the affected message is
// Nack'd instead.
var ErrHandler = errors.New("queue: handler failure")

func errHandlerPanic(recovered any) error {
	return errors.Wrapf(ErrHandler, "handler panicked: %v", recovered)
}
