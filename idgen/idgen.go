// Package idgen generates message identifiers and jittered background
// intervals. IDs are google/uuid v4 strings, matching how the rest of the
// toolkit's corpus reaches for google/uuid rather than hand-rolling an ID
// scheme; jitter reuses the teacher's own rand.RandomIntBetweenInclusive so
// the health monitors of queues started together don't all wake on the
// exact same tick.
package idgen

import (
	"time"

	"github.com/google/uuid"

	"infratoolkit/rand"
)

// NewMessageID returns a fresh v4 UUID string, used as the queue message ID
// when Publish is given none.
func NewMessageID() string {
	return uuid.NewString()
}

// Jitter returns base plus a random offset in [-spread, +spread], floored
// at zero. Background workers call this once per tick so a fleet of
// in-process cores with identical configured intervals don't all fire at
// once.
func Jitter(base, spread time.Duration) time.Duration {
	if spread <= 0 {
		return base
	}

	spreadMs := int(spread.Milliseconds())
	if spreadMs == 0 {
		return base
	}

	offsetMs := rand.RandomIntBetweenInclusive(-spreadMs, spreadMs, true, true)
	jittered := base + time.Duration(offsetMs)*time.Millisecond
	if jittered < 0 {
		return 0
	}
	return jittered
}
