package queue

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueue_FIFOOrdering(t *testing.T) {
	q, err := New(Options{QueueType: TypeFIFO})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ids := make([]string, 3)
	for i, payload := range [][]byte{[]byte("a"), []byte("b"), []byte("c")} {
		id, err := q.Publish(payload, PublishOptions{})
		if err != nil {
			t.Fatalf("Publish() error: %v", err)
		}
		ids[i] = id
	}

	batch := q.Consume("c1", 3)
	if len(batch) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(batch))
	}
	for i, m := range batch {
		if m.ID != ids[i] {
			t.Errorf("FIFO order violated at %d: got %s want %s", i, m.ID, ids[i])
		}
	}
}

func TestQueue_LIFOOrdering(t *testing.T) {
	q, err := New(Options{QueueType: TypeLIFO})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	idA, _ := q.Publish([]byte("a"), PublishOptions{})
	idB, _ := q.Publish([]byte("b"), PublishOptions{})

	batch := q.Consume("c1", 2)
	if len(batch) != 2 || batch[0].ID != idB || batch[1].ID != idA {
		t.Fatalf("expected LIFO order [b,a], got %v", batch)
	}
}

func TestQueue_PriorityScenario(t *testing.T) {
	q, err := New(Options{QueueType: TypePriority})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	_, _ = q.Publish([]byte("lo"), PublishOptions{Priority: PriorityLow})
	_, _ = q.Publish([]byte("hi"), PublishOptions{Priority: PriorityHigh})
	_, _ = q.Publish([]byte("ur"), PublishOptions{Priority: PriorityUrgent})

	batch := q.Consume("c1", 3)
	if len(batch) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(batch))
	}
	want := []string{"ur", "hi", "lo"}
	for i, m := range batch {
		if string(m.Payload) != want[i] {
			t.Errorf("priority order violated at %d: got %s want %s", i, m.Payload, want[i])
		}
	}
}

func TestQueue_DelayVariant(t *testing.T) {
	q, err := New(Options{QueueType: TypeDelay})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	_, _ = q.Publish([]byte("later"), PublishOptions{Delay: 100 * time.Millisecond})

	if batch := q.Consume("c1", 1); len(batch) != 0 {
		t.Fatalf("expected no ready messages yet, got %v", batch)
	}

	time.Sleep(150 * time.Millisecond)

	batch := q.Consume("c1", 1)
	if len(batch) != 1 || string(batch[0].Payload) != "later" {
		t.Fatalf("expected delayed message to become ready, got %v", batch)
	}
}

func TestQueue_RetryDLQScenario(t *testing.T) {
	q, err := New(Options{QueueType: TypeFIFO, EnableDeadLetter: true})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	id, _ := q.Publish([]byte("work"), PublishOptions{MaxRetries: 1})

	batch := q.Consume("c1", 1)
	if len(batch) != 1 {
		t.Fatalf("expected 1 message consumed, got %d", len(batch))
	}
	if !q.Nack(id, true) {
		t.Fatal("expected first Nack to succeed")
	}

	batch = q.Consume("c1", 1)
	if len(batch) != 1 {
		t.Fatalf("expected requeued message to be consumable again, got %d", len(batch))
	}
	if !q.Nack(id, true) {
		t.Fatal("expected second Nack to succeed")
	}

	dl := q.DeadLetters()
	if len(dl) != 1 || dl[0].ID != id {
		t.Fatalf("expected message in dead letter buffer, got %v", dl)
	}
	if dl[0].Status != StatusDeadLetter {
		t.Errorf("expected status DEAD_LETTER, got %s", dl[0].Status)
	}
}

func TestQueue_AckRemovesFromInFlight(t *testing.T) {
	q, err := New(Options{QueueType: TypeFIFO})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	id, _ := q.Publish([]byte("x"), PublishOptions{})
	q.Consume("c1", 1)

	if !q.Ack(id) {
		t.Fatal("expected Ack to succeed")
	}
	if q.Ack(id) {
		t.Error("expected second Ack of same id to return false")
	}
	if q.Metrics().InFlightCount != 0 {
		t.Error("expected in-flight count to be 0 after Ack")
	}
}

func TestQueue_AckUnknownReturnsFalse(t *testing.T) {
	q, err := New(Options{QueueType: TypeFIFO})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if q.Ack("does-not-exist") {
		t.Error("expected Ack of unknown id to return false")
	}
}

func TestQueue_QueueFull(t *testing.T) {
	q, err := New(Options{QueueType: TypeFIFO, MaxSize: 1})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if _, err := q.Publish([]byte("a"), PublishOptions{}); err != nil {
		t.Fatalf("first Publish() error: %v", err)
	}
	if _, err := q.Publish([]byte("b"), PublishOptions{}); err == nil {
		t.Fatal("expected second Publish to fail with ErrQueueFull")
	}
}

func TestQueue_PersistenceRoundTrip(t *testing.T) {
	dir := t.TempDir()

	q, err := New(Options{QueueType: TypeFIFO, EnablePersistence: true, StoragePath: dir})
	require.NoError(t, err)

	id, _ := q.Publish([]byte("survive"), PublishOptions{})
	q.Consume("c1", 1) // leave it PROCESSING / in-flight to test re-delivery

	restarted, err := New(Options{QueueType: TypeFIFO, EnablePersistence: true, StoragePath: dir})
	require.NoError(t, err)

	batch := restarted.Consume("c2", 1)
	require.Len(t, batch, 1)
	require.Equal(t, id, batch[0].ID, "expected rehydrated message to be consumable")
	require.Equal(t, 1, batch[0].RetryCount, "expected retry_count incremented on re-delivery")

	_ = os.RemoveAll(dir)
}

type recordingHandler struct {
	mu     sync.Mutex
	got    []string
	failID string
}

func (h *recordingHandler) Handle(m *Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.got = append(h.got, m.ID)
	if m.ID == h.failID {
		return errTestHandlerFailure
	}
	return nil
}

var errTestHandlerFailure = &handlerTestError{}

type handlerTestError struct{}

func (e *handlerTestError) Error() string { return "simulated handler failure" }

func TestQueue_StartConsumer_AutoAck(t *testing.T) {
	q, err := New(Options{QueueType: TypeFIFO})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	id, _ := q.Publish([]byte("work"), PublishOptions{})
	handler := &recordingHandler{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.StartConsumer(ctx, ConsumerConfig{ConsumerID: "c1", BatchSize: 1, AutoAck: true, PollInterval: time.Millisecond, MaxPollInterval: 5 * time.Millisecond, PollTimeout: time.Second}, handler)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if q.Metrics().Consumed >= 1 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	handler.mu.Lock()
	got := append([]string(nil), handler.got...)
	handler.mu.Unlock()

	if len(got) == 0 || got[0] != id {
		t.Fatalf("expected handler to receive published message, got %v", got)
	}

	q.Shutdown()
}
