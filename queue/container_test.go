package queue

import (
	"testing"
	"time"
)

func TestPriorityContainer_TieBreakOnCreationTime(t *testing.T) {
	c := newContainer(TypePriority)

	base := time.Now()
	older := &Message{ID: "older", Priority: PriorityNormal, CreatedAt: base}
	newer := &Message{ID: "newer", Priority: PriorityNormal, CreatedAt: base.Add(time.Second)}

	c.push(newer)
	c.push(older)

	first := c.pop(time.Now())
	if first.ID != "older" {
		t.Fatalf("expected older message first on priority tie, got %s", first.ID)
	}
}

func TestDelayContainer_NotReadyYieldsNil(t *testing.T) {
	c := newContainer(TypeDelay)
	future := time.Now().Add(time.Hour)
	c.push(&Message{ID: "future", DelayUntil: &future, CreatedAt: time.Now()})

	if got := c.pop(time.Now()); got != nil {
		t.Fatalf("expected no ready message, got %v", got)
	}
}

func TestContainer_Remove(t *testing.T) {
	for _, typ := range []Type{TypeFIFO, TypeLIFO, TypePriority, TypeDelay} {
		c := newContainer(typ)
		past := time.Now().Add(-time.Second)
		m := &Message{ID: "x", CreatedAt: time.Now(), DelayUntil: &past}
		c.push(m)
		if !c.remove("x") {
			t.Errorf("%s: expected remove to find pushed message", typ)
		}
		if c.len() != 0 {
			t.Errorf("%s: expected container empty after remove", typ)
		}
	}
}
