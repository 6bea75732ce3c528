// internal/transceiver/link.go
package transceiver

import "context"

// Link is the transport boundary consumed by the Transceiver.
// It knows nothing about framing.
//
// IsOpen must reflect disconnects reported by the transport itself.
type Link interface {
	Open(ctx context.Context) error
	Close(ctx context.Context) error
	IsOpen() bool
	Send(ctx context.Context, p []byte) error
}

// PullLink is a Link whose inbound bytes are polled.
//
// Read returns the bytes that became available within the transport's own
// read timeout. (0, nil) means nothing arrived yet.
type PullLink interface {
	Link
	Read(p []byte) (int, error)
}

// PushLink is a Link whose inbound bytes are delivered by a callback into
// a bounded Queue.
//
// Inbound may return nil while the link is closed.
type PushLink interface {
	Link
	Inbound() *Queue
}
