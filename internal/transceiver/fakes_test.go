// internal/transceiver/fakes_test.go
package transceiver

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ---- push-style fake ----

type fakePushLink struct {
	open atomic.Bool

	mu      sync.Mutex
	q       *Queue
	sent    [][]byte
	sendErr error

	// reply is invoked from Send, like a device answering on the notify path.
	reply func(q *Queue, p []byte)
}

func (l *fakePushLink) Open(ctx context.Context) error {
	l.mu.Lock()
	l.q = NewQueue(16)
	l.mu.Unlock()
	l.open.Store(true)
	return nil
}

func (l *fakePushLink) Close(ctx context.Context) error {
	l.disconnect()
	return nil
}

func (l *fakePushLink) IsOpen() bool { return l.open.Load() }

func (l *fakePushLink) Send(ctx context.Context, p []byte) error {
	if l.sendErr != nil {
		return l.sendErr
	}
	l.mu.Lock()
	l.sent = append(l.sent, append([]byte(nil), p...))
	q := l.q
	l.mu.Unlock()
	if l.reply != nil {
		l.reply(q, p)
	}
	return nil
}

func (l *fakePushLink) Inbound() *Queue {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.q
}

func (l *fakePushLink) disconnect() {
	l.open.Store(false)
	if q := l.Inbound(); q != nil {
		q.Shutdown()
	}
}

// ---- pull-style fake ----

type fakePullLink struct {
	open    bool
	pending [][]byte
	sent    [][]byte
	readErr error

	// reply queues inbound chunks in response to a send.
	reply func(p []byte) [][]byte
}

func (l *fakePullLink) Open(ctx context.Context) error  { l.open = true; return nil }
func (l *fakePullLink) Close(ctx context.Context) error { l.open = false; return nil }
func (l *fakePullLink) IsOpen() bool                    { return l.open }

func (l *fakePullLink) Send(ctx context.Context, p []byte) error {
	l.sent = append(l.sent, append([]byte(nil), p...))
	if l.reply != nil {
		l.pending = append(l.pending, l.reply(p)...)
	}
	return nil
}

func (l *fakePullLink) Read(p []byte) (int, error) {
	if l.readErr != nil {
		return 0, l.readErr
	}
	if len(l.pending) == 0 {
		return 0, nil
	}
	c := l.pending[0]
	n := copy(p, c)
	if n < len(c) {
		l.pending[0] = c[n:]
	} else {
		l.pending = l.pending[1:]
	}
	return n, nil
}

var errLinkBroken = errors.New("link broken")

func openPull(chunks ...string) (*Transceiver, *fakePullLink) {
	l := &fakePullLink{}
	for _, c := range chunks {
		l.pending = append(l.pending, []byte(c))
	}
	tr := New(l)
	_ = tr.Open(context.Background())
	return tr, l
}
