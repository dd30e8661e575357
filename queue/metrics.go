package queue

import "time"

// Health summarizes a Queue's current operating state, recomputed by the
// background health monitor every 10s.
type Health string

const (
	HealthHealthy    Health = "healthy"
	HealthIdle       Health = "idle"
	HealthOverloaded Health = "overloaded"
)

const (
	idleThreshold        = 5 * time.Minute
	overloadedThreshold  = 0.9
	processingTimeWindow = 1000
)

// Metrics carries the queue's published/consumed/failed/retried counters
// plus the gauges the health monitor and metrics roller maintain.
type Metrics struct {
	Published int64
	Consumed  int64
	Failed    int64
	Retried   int64

	CurrentSize        int
	InFlightCount       int
	DeadLetterCount     int
	AvgProcessingTime   time.Duration
	LastActivity        time.Time
	Health              Health
}
