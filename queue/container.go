package queue

import (
	"container/heap"
	"container/list"
	"time"
)

// Type selects one of the four ordering disciplines a Queue can use.
type Type string

const (
	TypeFIFO     Type = "fifo"
	TypeLIFO     Type = "lifo"
	TypePriority Type = "priority"
	TypeDelay    Type = "delay"
)

// container is the pending-message store behind a Queue. Exactly one
// variant backs any given Queue instance, selected by Type. All methods
// assume the caller already holds the Queue's lock.
type container interface {
	push(m *Message)
	pop(now time.Time) *Message
	len() int
	remove(id string) bool
	drain() []*Message
}

func newContainer(t Type) container {
	switch t {
	case TypeLIFO:
		return &lifoContainer{l: list.New()}
	case TypePriority:
		h := &priorityHeap{}
		heap.Init(h)
		return &priorityContainer{h: h}
	case TypeDelay:
		h := &delayHeap{}
		heap.Init(h)
		return &delayContainer{h: h}
	default:
		return &fifoContainer{l: list.New()}
	}
}

// fifoContainer pops in insertion order: head is oldest.
type fifoContainer struct {
	l *list.List
}

func (c *fifoContainer) push(m *Message) { c.l.PushBack(m) }

func (c *fifoContainer) pop(time.Time) *Message {
	el := c.l.Front()
	if el == nil {
		return nil
	}
	c.l.Remove(el)
	return el.Value.(*Message)
}

func (c *fifoContainer) len() int { return c.l.Len() }

func (c *fifoContainer) remove(id string) bool {
	for el := c.l.Front(); el != nil; el = el.Next() {
		if el.Value.(*Message).ID == id {
			c.l.Remove(el)
			return true
		}
	}
	return false
}

func (c *fifoContainer) drain() []*Message {
	out := make([]*Message, 0, c.l.Len())
	for el := c.l.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*Message))
	}
	c.l.Init()
	return out
}

// lifoContainer pops the most recently pushed message first.
type lifoContainer struct {
	l *list.List
}

func (c *lifoContainer) push(m *Message) { c.l.PushBack(m) }

func (c *lifoContainer) pop(time.Time) *Message {
	el := c.l.Back()
	if el == nil {
		return nil
	}
	c.l.Remove(el)
	return el.Value.(*Message)
}

func (c *lifoContainer) len() int { return c.l.Len() }

func (c *lifoContainer) remove(id string) bool {
	for el := c.l.Front(); el != nil; el = el.Next() {
		if el.Value.(*Message).ID == id {
			c.l.Remove(el)
			return true
		}
	}
	return false
}

func (c *lifoContainer) drain() []*Message {
	out := make([]*Message, 0, c.l.Len())
	for el := c.l.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*Message))
	}
	c.l.Init()
	return out
}

// priorityHeap orders URGENT > HIGH > NORMAL > LOW, tie-broken on creation
// time ascending, per container/heap's usual sort.Interface-shaped API.
type priorityHeap []*Message

func (h priorityHeap) Len() int { return len(h) }

func (h priorityHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority > h[j].Priority
	}
	return h[i].CreatedAt.Before(h[j].CreatedAt)
}

func (h priorityHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *priorityHeap) Push(x any) { *h = append(*h, x.(*Message)) }

func (h *priorityHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

type priorityContainer struct {
	h *priorityHeap
}

func (c *priorityContainer) push(m *Message) { heap.Push(c.h, m) }

func (c *priorityContainer) pop(time.Time) *Message {
	if c.h.Len() == 0 {
		return nil
	}
	return heap.Pop(c.h).(*Message)
}

func (c *priorityContainer) len() int { return c.h.Len() }

func (c *priorityContainer) remove(id string) bool {
	for i, m := range *c.h {
		if m.ID == id {
			heap.Remove(c.h, i)
			return true
		}
	}
	return false
}

func (c *priorityContainer) drain() []*Message {
	out := make([]*Message, 0, c.h.Len())
	for c.h.Len() > 0 {
		out = append(out, heap.Pop(c.h).(*Message))
	}
	return out
}

// delayHeap orders by DelayUntil ascending, tie-broken on creation time
// ascending (spec.md §9's resolution of the source's undefined secondary
// heap order).
type delayHeap []*Message

func (h delayHeap) Len() int { return len(h) }

func (h delayHeap) Less(i, j int) bool {
	di, dj := h[i].DelayUntil, h[j].DelayUntil
	switch {
	case di == nil && dj == nil:
		return h[i].CreatedAt.Before(h[j].CreatedAt)
	case di == nil:
		return true
	case dj == nil:
		return false
	case !di.Equal(*dj):
		return di.Before(*dj)
	default:
		return h[i].CreatedAt.Before(h[j].CreatedAt)
	}
}

func (h delayHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *delayHeap) Push(x any) { *h = append(*h, x.(*Message)) }

func (h *delayHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// delayContainer releases the earliest-due message only once its
// DelayUntil has elapsed; otherwise pop reports nothing, same as an empty
// container, so the consumer driver's poll loop naturally backs off.
type delayContainer struct {
	h *delayHeap
}

func (c *delayContainer) push(m *Message) { heap.Push(c.h, m) }

func (c *delayContainer) pop(now time.Time) *Message {
	if c.h.Len() == 0 {
		return nil
	}
	if !(*c.h)[0].ready(now) {
		return nil
	}
	return heap.Pop(c.h).(*Message)
}

func (c *delayContainer) len() int { return c.h.Len() }

func (c *delayContainer) remove(id string) bool {
	for i, m := range *c.h {
		if m.ID == id {
			heap.Remove(c.h, i)
			return true
		}
	}
	return false
}

func (c *delayContainer) drain() []*Message {
	out := make([]*Message, 0, c.h.Len())
	for c.h.Len() > 0 {
		out = append(out, heap.Pop(c.h).(*Message))
	}
	return out
}
