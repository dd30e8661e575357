// Package queue implements a multi-type, at-least-once message queue with
// bounded retries, dead-lettering, and optional on-disk persistence. One
// Queue instance is one independent, thread-safe core.
package queue

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"infratoolkit/chanutil"
	"infratoolkit/idgen"
)

// Options configures a Queue.
type Options struct {
	Name                string
	QueueType           Type
	MaxSize             int
	EnablePersistence   bool
	StoragePath         string
	EnableDeadLetter    bool
	DeadLetterMaxSize   int
}

// Queue is a named, typed message queue. Publish and Consume may run on
// any goroutine; the façade holds its own lock over every multi-step
// transition (consume: pop + in-flight insert; nack: pop from in-flight +
// reinsert or dead-letter) so those remain atomic.
type Queue struct {
	mu   sync.Mutex
	opts Options

	pending    container
	inFlight   map[string]*Message
	deadLetter []*Message

	metrics       Metrics
	processingLog []time.Duration

	persist *persister
	stop    *chanutil.StopSignal
}

// New constructs a Queue and, if persistence is enabled, rehydrates any
// records left over from a prior run: PENDING records return to the
// pending container; PROCESSING records return to the pending container
// with retry_count incremented (re-delivery after an unclean shutdown).
func New(opts Options) (*Queue, error) {
	if opts.Name == "" {
		opts.Name = "default"
	}

	q := &Queue{
		opts:     opts,
		pending:  newContainer(opts.QueueType),
		inFlight: make(map[string]*Message),
		stop:     chanutil.NewStopSignal(),
	}

	if opts.EnablePersistence {
		q.persist = newPersister(opts.StoragePath, opts.Name)
		records, err := q.persist.rehydrate()
		if err != nil {
			return nil, err
		}
		for _, m := range records {
			switch m.Status {
			case StatusProcessing:
				m.RetryCount++
				m.Status = StatusPending
				m.ConsumerID = ""
				q.pending.push(m)
			case StatusPending:
				q.pending.push(m)
			default:
				// COMPLETED/FAILED/DEAD_LETTER records are not re-queued.
			}
		}
	}

	return q, nil
}

// PublishOptions carries the optional parameters to Publish.
type PublishOptions struct {
	ID         string
	Priority   Priority
	Delay      time.Duration
	Headers    map[string]string
	MaxRetries int
}

// Publish enqueues payload and returns its assigned id. Fails with
// ErrQueueFull if MaxSize is set and reached.
func (q *Queue) Publish(payload []byte, opts PublishOptions) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.opts.MaxSize > 0 && q.pending.len() >= q.opts.MaxSize {
		return "", ErrQueueFull
	}

	id := opts.ID
	if id == "" {
		id = idgen.NewMessageID()
	}

	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	now := time.Now()
	m := &Message{
		ID:         id,
		Payload:    payload,
		Priority:   opts.Priority,
		CreatedAt:  now,
		MaxRetries: maxRetries,
		Headers:    opts.Headers,
		Status:     StatusPending,
	}
	if q.opts.QueueType == TypeDelay && opts.Delay > 0 {
		due := now.Add(opts.Delay)
		m.DelayUntil = &due
	}

	q.pending.push(m)
	q.metrics.Published++
	q.metrics.LastActivity = now
	q.touchSizeLocked()

	if q.persist != nil {
		q.persist.save(m, false)
	}

	return id, nil
}

// Consume atomically removes up to batchSize ready heads from the pending
// container, transitioning each to PROCESSING and recording it in the
// in-flight table. An empty pending container yields an empty (not nil)
// slice; Consume never blocks.
func (q *Queue) Consume(consumerID string, batchSize int) []*Message {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now()
	out := make([]*Message, 0, batchSize)
	for i := 0; i < batchSize; i++ {
		m := q.pending.pop(now)
		if m == nil {
			break
		}
		m.Status = StatusProcessing
		m.ProcessedAt = &now
		m.ConsumerID = consumerID
		q.inFlight[m.ID] = m
		out = append(out, m)

		if q.persist != nil {
			q.persist.save(m, false)
		}
	}

	if len(out) > 0 {
		q.metrics.Consumed += int64(len(out))
		q.metrics.LastActivity = now
	}
	q.touchSizeLocked()

	return out
}

// Ack marks id completed, removing it from the in-flight table and
// deleting its persistence record. Returns false if id is unknown.
func (q *Queue) Ack(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	m, ok := q.inFlight[id]
	if !ok {
		return false
	}
	delete(q.inFlight, id)
	m.Status = StatusCompleted

	if m.ProcessedAt != nil {
		q.recordProcessingTimeLocked(time.Since(*m.ProcessedAt))
	}

	if q.persist != nil {
		q.persist.delete(id, false)
	}
	q.touchSizeLocked()

	return true
}

// Nack negative-acknowledges id. When requeue is true and the message has
// retry budget left, it returns to PENDING and is reinserted into the
// pending container. Otherwise it becomes DEAD_LETTER (if enabled) or
// FAILED, and its record moves to the <queue>_failed namespace.
func (q *Queue) Nack(id string, requeue bool) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	m, ok := q.inFlight[id]
	if !ok {
		return false
	}
	delete(q.inFlight, id)
	m.RetryCount++

	if requeue && m.RetryCount <= m.MaxRetries {
		m.Status = StatusPending
		m.ConsumerID = ""
		q.pending.push(m)
		q.metrics.Retried++
		if q.persist != nil {
			q.persist.save(m, false)
		}
	} else {
		if q.opts.EnableDeadLetter {
			m.Status = StatusDeadLetter
			q.pushDeadLetterLocked(m)
		} else {
			m.Status = StatusFailed
		}
		q.metrics.Failed++
		if q.persist != nil {
			q.persist.delete(id, false)
			q.persist.save(m, true)
		}
	}

	q.touchSizeLocked()
	return true
}

// pushDeadLetterLocked appends m to the bounded dead-letter FIFO, dropping
// the oldest entry if the configured bound is exceeded. Caller must hold
// the lock.
func (q *Queue) pushDeadLetterLocked(m *Message) {
	q.deadLetter = append(q.deadLetter, m)
	if q.opts.DeadLetterMaxSize > 0 && len(q.deadLetter) > q.opts.DeadLetterMaxSize {
		q.deadLetter = q.deadLetter[len(q.deadLetter)-q.opts.DeadLetterMaxSize:]
	}
}

// recordProcessingTimeLocked rolls d into the trailing average over the
// last 1000 completions. Caller must hold the lock.
func (q *Queue) recordProcessingTimeLocked(d time.Duration) {
	q.processingLog = append(q.processingLog, d)
	if len(q.processingLog) > processingTimeWindow {
		q.processingLog = q.processingLog[len(q.processingLog)-processingTimeWindow:]
	}
	var sum time.Duration
	for _, v := range q.processingLog {
		sum += v
	}
	q.metrics.AvgProcessingTime = sum / time.Duration(len(q.processingLog))
}

// touchSizeLocked refreshes the size gauges. Caller must hold the lock.
func (q *Queue) touchSizeLocked() {
	q.metrics.CurrentSize = q.pending.len()
	q.metrics.InFlightCount = len(q.inFlight)
	q.metrics.DeadLetterCount = len(q.deadLetter)
}

// Purge discards every pending, in-flight, and dead-letter message,
// deleting any persistence records along with them.
func (q *Queue) Purge() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, m := range q.pending.drain() {
		if q.persist != nil {
			q.persist.delete(m.ID, false)
		}
	}
	for id := range q.inFlight {
		if q.persist != nil {
			q.persist.delete(id, false)
		}
	}
	for _, m := range q.deadLetter {
		if q.persist != nil {
			q.persist.delete(m.ID, true)
		}
	}

	q.inFlight = make(map[string]*Message)
	q.deadLetter = nil
	q.touchSizeLocked()
}

// DeadLetters returns a snapshot of the current dead-letter buffer.
func (q *Queue) DeadLetters() []*Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*Message, len(q.deadLetter))
	copy(out, q.deadLetter)
	return out
}

// Metrics returns a copy of the queue's current counters and gauges.
func (q *Queue) Metrics() Metrics {
	q.mu.Lock()
	defer q.mu.Unlock()
	m := q.metrics
	m.Health = q.healthLocked()
	return m
}

// healthLocked classifies the queue's current state. Caller must hold the
// lock.
func (q *Queue) healthLocked() Health {
	if !q.metrics.LastActivity.IsZero() && time.Since(q.metrics.LastActivity) > idleThreshold {
		return HealthIdle
	}
	if q.opts.MaxSize > 0 && float64(q.pending.len()) >= overloadedThreshold*float64(q.opts.MaxSize) {
		return HealthOverloaded
	}
	return HealthHealthy
}

// Shutdown stops any running consumer driver and flushes in-flight
// messages back to PENDING, re-persisting them so a later restart can
// recover them via rehydrate.
func (q *Queue) Shutdown() {
	q.stop.Stop()

	q.mu.Lock()
	defer q.mu.Unlock()

	for id, m := range q.inFlight {
		m.Status = StatusPending
		m.ConsumerID = ""
		q.pending.push(m)
		if q.persist != nil {
			q.persist.save(m, false)
		}
		delete(q.inFlight, id)
	}
	q.touchSizeLocked()

	logrus.WithFields(logrus.Fields{"queue": q.opts.Name}).Info("queue shut down, in-flight messages returned to pending")
}
