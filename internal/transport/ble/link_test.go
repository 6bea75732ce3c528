// internal/transport/ble/link_test.go
package ble

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tamzrod/callresponse/internal/transceiver"
)

// fakePeripheral echoes every complete write back through onData.
type fakePeripheral struct {
	mu           sync.Mutex
	writes       [][]byte
	onData       func([]byte)
	onDisconnect func()
	disconnected bool
	answer       func(p []byte) [][]byte
}

func (p *fakePeripheral) Write(b []byte) error {
	p.mu.Lock()
	p.writes = append(p.writes, append([]byte(nil), b...))
	p.mu.Unlock()
	if p.answer != nil {
		for _, chunk := range p.answer(b) {
			p.onData(chunk)
		}
	}
	return nil
}

func (p *fakePeripheral) Disconnect() error {
	p.disconnected = true
	return nil
}

func newTestLink(cfg Config, p *fakePeripheral) *Link {
	l := New(cfg)
	l.dial = func(ctx context.Context, cfg Config, onData func([]byte), onDisconnect func()) (session, error) {
		p.onData = onData
		p.onDisconnect = onDisconnect
		return p, nil
	}
	return l
}

func TestLink_Defaults(t *testing.T) {
	l := New(Config{})
	if l.cfg.ServiceUUID != NordicUARTService || l.cfg.NotifyUUID != NordicUARTNotify || l.cfg.WriteUUID != NordicUARTWrite {
		t.Fatalf("uuids not defaulted: %+v", l.cfg)
	}
	if l.cfg.MaxWrite != 20 {
		t.Fatalf("MaxWrite=%d", l.cfg.MaxWrite)
	}
}

func TestLink_ExchangeThroughTransceiver(t *testing.T) {
	p := &fakePeripheral{
		answer: func(b []byte) [][]byte {
			// reply in two notifications
			return [][]byte{{0x79, 0x01}, {0x04, 0x10, 0x79}}
		},
	}
	tr := transceiver.New(newTestLink(Config{}, p))
	if err := tr.Open(context.Background()); err != nil {
		t.Fatalf("Open err=%v", err)
	}

	got, err := tr.SendReceiveExactly(context.Background(), []byte{0x02, 0xFD}, 5)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !bytes.Equal(got, []byte{0x79, 0x01, 0x04, 0x10, 0x79}) {
		t.Fatalf("got % x", got)
	}
}

func TestLink_SendSplitsWrites(t *testing.T) {
	p := &fakePeripheral{}
	l := newTestLink(Config{MaxWrite: 4, SettleDelay: time.Millisecond}, p)
	_ = l.Open(context.Background())

	if err := l.Send(context.Background(), []byte("0123456789")); err != nil {
		t.Fatalf("Send err=%v", err)
	}
	if len(p.writes) != 3 || string(p.writes[2]) != "89" {
		t.Fatalf("writes %q", p.writes)
	}
}

func TestLink_DisconnectCallback(t *testing.T) {
	p := &fakePeripheral{}
	l := newTestLink(Config{}, p)
	tr := transceiver.New(l)
	_ = tr.Open(context.Background())

	go func() {
		time.Sleep(10 * time.Millisecond)
		p.onDisconnect()
	}()

	_, err := tr.ReceiveExactly(context.Background(), 1)
	if !errors.Is(err, transceiver.ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
	if l.IsOpen() {
		t.Fatalf("link still open")
	}
	if err := l.Send(context.Background(), []byte{1}); !errors.Is(err, transceiver.ErrNotConnected) {
		t.Fatalf("send after disconnect: %v", err)
	}
}

func TestLink_QueueOverflowDropsWithoutBlocking(t *testing.T) {
	p := &fakePeripheral{}
	l := newTestLink(Config{QueueDepth: 2}, p)
	_ = l.Open(context.Background())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			p.onData([]byte{byte(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("notification callback blocked")
	}
	if l.Inbound().Dropped() != 8 {
		t.Fatalf("dropped=%d want 8", l.Inbound().Dropped())
	}
}

func TestLink_Close(t *testing.T) {
	p := &fakePeripheral{}
	l := newTestLink(Config{}, p)
	_ = l.Open(context.Background())
	q := l.Inbound()

	if err := l.Close(context.Background()); err != nil {
		t.Fatalf("Close err=%v", err)
	}
	if !p.disconnected || l.IsOpen() {
		t.Fatalf("not disconnected")
	}
	select {
	case <-q.Done():
	default:
		t.Fatalf("queue not shut down")
	}
}
