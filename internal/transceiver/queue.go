// internal/transceiver/queue.go
package transceiver

import (
	"sync"
	"sync/atomic"
)

// DefaultQueueDepth is the number of chunks a Queue holds when no depth is given.
const DefaultQueueDepth = 64

// Queue is the bounded FIFO between a transport callback (producer) and
// the receive loop (consumer).
//
// Push never blocks. When the queue is full the chunk is dropped and
// counted. Shutdown marks the terminal state; it wakes any waiting
// receive, which then fails with ErrNotConnected.
type Queue struct {
	chunks  chan []byte
	done    chan struct{}
	once    sync.Once
	dropped atomic.Uint64
}

// NewQueue returns a Queue holding at most depth chunks.
func NewQueue(depth int) *Queue {
	if depth <= 0 {
		depth = DefaultQueueDepth
	}
	return &Queue{
		chunks: make(chan []byte, depth),
		done:   make(chan struct{}),
	}
}

// Push copies p into the queue.
// Safe to call from driver callbacks.
func (q *Queue) Push(p []byte) error {
	select {
	case <-q.done:
		return ErrQueueClosed
	default:
	}

	if len(p) == 0 {
		return nil
	}

	chunk := append([]byte(nil), p...)

	select {
	case q.chunks <- chunk:
		return nil
	default:
		q.dropped.Add(1)
		return ErrQueueFull
	}
}

// Drain discards every pending chunk and returns how many bytes were dropped.
func (q *Queue) Drain() int {
	n := 0
	for {
		select {
		case c := <-q.chunks:
			n += len(c)
		default:
			return n
		}
	}
}

// Shutdown marks the queue terminal. It is idempotent.
func (q *Queue) Shutdown() {
	q.once.Do(func() { close(q.done) })
}

// Done is closed after Shutdown.
func (q *Queue) Done() <-chan struct{} { return q.done }

// Chunks is the consumer side of the queue.
func (q *Queue) Chunks() <-chan []byte { return q.chunks }

// Dropped reports how many chunks Push rejected because the queue was full.
func (q *Queue) Dropped() uint64 { return q.dropped.Load() }
