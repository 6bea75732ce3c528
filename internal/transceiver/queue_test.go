// internal/transceiver/queue_test.go
package transceiver

import (
	"errors"
	"testing"
)

func TestQueue_PushNeverBlocks(t *testing.T) {
	q := NewQueue(2)

	if err := q.Push([]byte{1}); err != nil {
		t.Fatalf("push 1: %v", err)
	}
	if err := q.Push([]byte{2}); err != nil {
		t.Fatalf("push 2: %v", err)
	}
	if err := q.Push([]byte{3}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if q.Dropped() != 1 {
		t.Fatalf("dropped=%d want 1", q.Dropped())
	}
}

func TestQueue_PushCopies(t *testing.T) {
	q := NewQueue(1)
	src := []byte{1, 2}
	_ = q.Push(src)
	src[0] = 9

	got := <-q.Chunks()
	if got[0] != 1 {
		t.Fatalf("queue aliased caller buffer")
	}
}

func TestQueue_Drain(t *testing.T) {
	q := NewQueue(4)
	_ = q.Push([]byte{1, 2})
	_ = q.Push([]byte{3})

	if n := q.Drain(); n != 3 {
		t.Fatalf("drained %d bytes want 3", n)
	}
	if n := q.Drain(); n != 0 {
		t.Fatalf("second drain %d", n)
	}
}

func TestQueue_Shutdown(t *testing.T) {
	q := NewQueue(1)
	q.Shutdown()
	q.Shutdown()

	select {
	case <-q.Done():
	default:
		t.Fatalf("done not closed")
	}
	if err := q.Push([]byte{1}); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed, got %v", err)
	}
}
