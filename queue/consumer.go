package queue

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"infratoolkit/rand"
	"infratoolkit/retry"
)

const autoConsumerIDLength = 8

// MessageHandler processes one message. A non-nil error (or a recovered
// panic) is treated as a handler failure: the consumer driver calls
// FailureNotifier.OnFailure if the handler implements it, then Nacks the
// message with requeue=true.
type MessageHandler interface {
	Handle(m *Message) error
}

// FailureNotifier is an optional extension a MessageHandler may implement
// to observe failures before the driver Nacks the message.
type FailureNotifier interface {
	OnFailure(m *Message, err error)
}

// ConsumerConfig controls StartConsumer's polling behavior.
type ConsumerConfig struct {
	ConsumerID      string
	BatchSize       int
	PollTimeout     time.Duration
	PollInterval    time.Duration
	MaxPollInterval time.Duration
	AutoAck         bool
}

func (c ConsumerConfig) withDefaults() ConsumerConfig {
	if c.BatchSize <= 0 {
		c.BatchSize = 1
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = 30 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 10 * time.Millisecond
	}
	if c.MaxPollInterval <= 0 {
		c.MaxPollInterval = time.Second
	}
	if c.ConsumerID == "" {
		id, err := rand.GenerateRandomBytes(autoConsumerIDLength)
		if err != nil {
			logrus.WithError(err).Warn("failed to generate random consumer id, falling back to static id")
			id = "anonymous"
		}
		c.ConsumerID = "consumer-" + id
	}
	return c
}

// StartConsumer launches the consumer driver's polling loop in its own
// goroutine and returns immediately. The loop calls Consume, dispatches
// each returned message to handler outside the queue's lock (per spec.md
// §5, to avoid deadlocking the handler against the queue), and Acks or
// Nacks based on the outcome. On an empty batch it waits via a
// retry.PollBackoff modeled on the teacher's Redis dial-retry idiom,
// instead of busy-polling. The loop exits within one poll interval of
// either ctx cancellation or q.Shutdown being called, the two of which
// are merged with chanutil.Or into the single stop channel below.
func (q *Queue) StartConsumer(ctx context.Context, cfg ConsumerConfig, handler MessageHandler) {
	cfg = cfg.withDefaults()

	go func() {
		stop := q.stop.Combined(ctx)
		pb := retry.NewPollBackoff(ctx, cfg.PollInterval, cfg.MaxPollInterval, cfg.PollTimeout)

		for {
			select {
			case <-stop:
				return
			default:
			}

			batch := q.Consume(cfg.ConsumerID, cfg.BatchSize)
			if len(batch) == 0 {
				wait, ok := pb.NextWait()
				if !ok {
					pb = retry.NewPollBackoff(ctx, cfg.PollInterval, cfg.MaxPollInterval, cfg.PollTimeout)
					continue
				}
				select {
				case <-stop:
					return
				case <-time.After(wait):
				}
				continue
			}
			pb.Reset()

			for _, m := range batch {
				q.dispatch(handler, m, cfg.AutoAck)
			}
		}
	}()
}

// dispatch invokes handler.Handle for m, recovering any panic as a
// handler failure, and Acks or Nacks based on the outcome.
func (q *Queue) dispatch(handler MessageHandler, m *Message, autoAck bool) {
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = errHandlerPanic(r)
			}
		}()
		return handler.Handle(m)
	}()

	if err == nil {
		if autoAck {
			q.Ack(m.ID)
		}
		return
	}

	logrus.WithFields(logrus.Fields{"queue": q.opts.Name, "id": m.ID, "err": err}).Warn("message handler failed")
	if notifier, ok := handler.(FailureNotifier); ok {
		notifier.OnFailure(m, err)
	}
	q.Nack(m.ID, true)
}
