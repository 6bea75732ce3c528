// internal/transceiver/transceiver.go
package transceiver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Transceiver turns a raw byte link into discrete request/response messages.
//
// One request is in flight at a time. A Transceiver is not safe for
// concurrent use; callers sharing a link serialize externally.
type Transceiver struct {
	link Link
	cfg  config
	log  *slog.Logger

	buf     []byte
	scratch []byte

	// armed is set by Send after the push queue was drained, so the
	// receive that follows keeps the reply to that request.
	armed bool
}

// New wraps link. The link is not opened.
func New(link Link, opts ...Option) *Transceiver {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Transceiver{
		link: link,
		cfg:  cfg,
		log:  cfg.logger,
	}
}

// MaxBuffer returns the receive bound.
func (t *Transceiver) MaxBuffer() int { return t.cfg.maxBuffer }

// IsOpen reports the link state.
func (t *Transceiver) IsOpen() bool { return t.link.IsOpen() }

// Open opens the link and allocates the receive buffer.
func (t *Transceiver) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return cancelled(ctx)
	}
	if err := t.link.Open(ctx); err != nil {
		return &TransportError{Op: "open", Err: err}
	}
	t.buf = make([]byte, 0, t.cfg.maxBuffer)
	t.scratch = make([]byte, t.cfg.maxBuffer)
	t.armed = false
	t.log.Debug("link opened", "max_buffer", t.cfg.maxBuffer)
	return nil
}

// Close closes the link and discards any buffered bytes.
func (t *Transceiver) Close(ctx context.Context) error {
	t.buf = nil
	t.armed = false
	if err := t.link.Close(ctx); err != nil {
		return &TransportError{Op: "close", Err: err}
	}
	t.log.Debug("link closed")
	return nil
}

// Send writes p to the link.
func (t *Transceiver) Send(ctx context.Context, p []byte) error {
	if err := ctx.Err(); err != nil {
		return cancelled(ctx)
	}
	if !t.link.IsOpen() {
		return ErrNotConnected
	}

	if pl, ok := t.link.(PushLink); ok {
		if q := pl.Inbound(); q != nil {
			if n := q.Drain(); n > 0 {
				t.log.Debug("discarded stale bytes", "count", n)
			}
		}
	}

	t.log.Debug("send", "bytes", fmt.Sprintf("% x", p))

	if err := t.link.Send(ctx, p); err != nil {
		t.armed = false
		if ctx.Err() != nil {
			return cancelled(ctx)
		}
		if errors.Is(err, ErrNotConnected) {
			return err
		}
		return &TransportError{Op: "send", Err: err}
	}

	t.armed = true
	return nil
}

// ReceiveMessage accumulates inbound bytes until d reports a boundary and
// returns a copy of the designated bytes.
//
// On a push-style link, bytes queued before this call are discarded unless
// the call directly follows Send.
func (t *Transceiver) ReceiveMessage(ctx context.Context, d Detector) ([]byte, error) {
	armed := t.armed
	t.armed = false

	if d == nil {
		return nil, fmt.Errorf("%w: nil detector", ErrInvalidBoundary)
	}
	if err := ctx.Err(); err != nil {
		return nil, cancelled(ctx)
	}
	if !t.link.IsOpen() {
		return nil, ErrNotConnected
	}
	if t.buf == nil {
		t.buf = make([]byte, 0, t.cfg.maxBuffer)
		t.scratch = make([]byte, t.cfg.maxBuffer)
	}
	t.buf = t.buf[:0]

	switch l := t.link.(type) {
	case PushLink:
		q := l.Inbound()
		if q == nil {
			return nil, ErrNotConnected
		}
		if !armed {
			if n := q.Drain(); n > 0 {
				t.log.Debug("discarded stale bytes", "count", n)
			}
		}
		return t.receivePush(ctx, q, d)
	case PullLink:
		return t.receivePull(ctx, l, d)
	default:
		return nil, fmt.Errorf("transceiver: link %T has no inbound source", t.link)
	}
}

func (t *Transceiver) receivePush(ctx context.Context, q *Queue, d Detector) ([]byte, error) {
	for {
		select {
		case <-ctx.Done():
			t.buf = t.buf[:0]
			return nil, cancelled(ctx)

		case <-q.Done():
			t.buf = t.buf[:0]
			return nil, ErrNotConnected

		case chunk := <-q.Chunks():
			msg, ok, err := t.accept(chunk, d)
			if err != nil || ok {
				return msg, err
			}
		}
	}
}

func (t *Transceiver) receivePull(ctx context.Context, l PullLink, d Detector) ([]byte, error) {
	for {
		if ctx.Err() != nil {
			t.buf = t.buf[:0]
			return nil, cancelled(ctx)
		}
		if !l.IsOpen() {
			t.buf = t.buf[:0]
			return nil, ErrNotConnected
		}

		n, err := l.Read(t.scratch)
		if err != nil {
			t.buf = t.buf[:0]
			if errors.Is(err, ErrNotConnected) {
				return nil, err
			}
			return nil, &TransportError{Op: "read", Err: err}
		}

		if n == 0 {
			timer := time.NewTimer(t.cfg.idleWait)
			select {
			case <-ctx.Done():
				timer.Stop()
				t.buf = t.buf[:0]
				return nil, cancelled(ctx)
			case <-timer.C:
			}
			continue
		}

		msg, ok, err := t.accept(t.scratch[:n], d)
		if err != nil || ok {
			return msg, err
		}
	}
}

// accept appends as much of chunk as the bound allows and runs the detector.
// Bytes past a reported boundary are discarded with the rest of the chunk.
func (t *Transceiver) accept(chunk []byte, d Detector) ([]byte, bool, error) {
	room := t.cfg.maxBuffer - len(t.buf)
	n := len(chunk)
	if n > room {
		n = room
	}
	t.buf = append(t.buf, chunk[:n]...)

	off, length := d(t.buf)
	if length > 0 {
		if off < 0 || off+length > len(t.buf) {
			buffered := len(t.buf)
			t.buf = t.buf[:0]
			return nil, false, fmt.Errorf("%w: offset=%d length=%d buffered=%d",
				ErrInvalidBoundary, off, length, buffered)
		}
		msg := append([]byte(nil), t.buf[off:off+length]...)
		t.log.Debug("receive", "bytes", fmt.Sprintf("% x", msg), "offset", off, "buffered", len(t.buf))
		t.buf = t.buf[:0]
		return msg, true, nil
	}

	if n < len(chunk) {
		t.buf = t.buf[:0]
		return nil, false, fmt.Errorf("%w: %d bytes without a boundary", ErrBufferOverflow, t.cfg.maxBuffer)
	}

	return nil, false, nil
}
