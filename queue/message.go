package queue

import "time"

// Priority orders messages within a priority-variant queue. Higher values
// are serviced first.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityUrgent
)

// Status is a message's position in its lifecycle:
// PENDING -> PROCESSING -> {COMPLETED | FAILED | DEAD_LETTER}.
type Status string

const (
	StatusPending     Status = "PENDING"
	StatusProcessing  Status = "PROCESSING"
	StatusCompleted   Status = "COMPLETED"
	StatusFailed      Status = "FAILED"
	StatusDeadLetter  Status = "DEAD_LETTER"
)

// defaultMaxRetries is the retry budget assigned to a message when Publish
// doesn't override it.
const defaultMaxRetries = 3

// Message is one unit of work moving through a Queue. Payload is opaque
// bytes to the queue; callers choose its encoding.
type Message struct {
	ID          string            `json:"id"`
	Payload     []byte            `json:"payload"`
	Priority    Priority          `json:"priority"`
	CreatedAt   time.Time         `json:"created_at"`
	ProcessedAt *time.Time        `json:"processed_at,omitempty"`
	RetryCount  int               `json:"retry_count"`
	MaxRetries  int               `json:"max_retries"`
	DelayUntil  *time.Time        `json:"delay_until,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	Status      Status            `json:"status"`
	ConsumerID  string            `json:"consumer_id,omitempty"`
}

// ready reports whether a delay-variant message's delay has elapsed as of
// now. Non-delay messages are always ready.
func (m *Message) ready(now time.Time) bool {
	if m.DelayUntil == nil {
		return true
	}
	return !m.DelayUntil.After(now)
}
