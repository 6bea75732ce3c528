// internal/transceiver/errors.go
package transceiver

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned when the link is not open, or drops while
	// a receive is waiting.
	ErrNotConnected = errors.New("transceiver: not connected")

	// ErrBufferOverflow is returned when more bytes than the receive bound
	// arrive without the detector reporting a boundary.
	ErrBufferOverflow = errors.New("transceiver: receive buffer overflow")

	// ErrCancelled is returned when the caller's context ends before a
	// boundary is found. The context error is wrapped alongside it.
	ErrCancelled = errors.New("transceiver: cancelled")

	// ErrInvalidBoundary is returned for unusable detector arguments or a
	// detector result that falls outside the buffer.
	ErrInvalidBoundary = errors.New("transceiver: invalid boundary")

	// ErrQueueFull is returned by Queue.Push when the bounded queue has no room.
	ErrQueueFull = errors.New("transceiver: inbound queue full")

	// ErrQueueClosed is returned by Queue.Push after Shutdown.
	ErrQueueClosed = errors.New("transceiver: inbound queue closed")
)

// TransportError wraps a failure reported by the underlying link.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transceiver: %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// cancelled builds the Cancelled error for ctx, keeping the context cause
// reachable through errors.Is.
func cancelled(ctx context.Context) error {
	cause := context.Cause(ctx)
	if cause == nil {
		cause = context.Canceled
	}
	return fmt.Errorf("%w: %w", ErrCancelled, cause)
}
