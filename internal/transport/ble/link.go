// internal/transport/ble/link.go
package ble

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tamzrod/callresponse/internal/transceiver"
)

// Nordic UART Service identifiers.
const (
	NordicUARTService = "6e400001-b5a3-f393-e0a9-e50e24dcca9e"
	NordicUARTWrite   = "6e400002-b5a3-f393-e0a9-e50e24dcca9e"
	NordicUARTNotify  = "6e400003-b5a3-f393-e0a9-e50e24dcca9e"
)

// Config selects and drives a BLE UART peripheral.
type Config struct {
	ServiceUUID string
	WriteUUID   string
	NotifyUUID  string

	// Name and Address narrow the scan; empty matches any advertiser of
	// the service.
	Name    string
	Address string

	// QueueDepth bounds the notification queue (chunks).
	QueueDepth int

	// MaxWrite is the largest write-without-response payload.
	MaxWrite int

	// SettleDelay is waited after each write; some peripherals drop
	// back-to-back writes without it.
	SettleDelay time.Duration

	Logger *slog.Logger
}

// session is a connected peripheral reduced to what the link uses.
type session interface {
	Write(p []byte) error
	Disconnect() error
}

// dialFunc connects to the peripheral. onData runs on the driver's
// callback path; onDisconnect runs when the peripheral drops.
type dialFunc func(ctx context.Context, cfg Config, onData func([]byte), onDisconnect func()) (session, error)

// Link is a push-style link: notifications land in a bounded queue.
type Link struct {
	cfg  Config
	log  *slog.Logger
	dial dialFunc

	open atomic.Bool

	mu    sync.Mutex
	sess  session
	queue *transceiver.Queue
}

var _ transceiver.PushLink = (*Link)(nil)

func New(cfg Config) *Link {
	if cfg.ServiceUUID == "" {
		cfg.ServiceUUID = NordicUARTService
	}
	if cfg.WriteUUID == "" {
		cfg.WriteUUID = NordicUARTWrite
	}
	if cfg.NotifyUUID == "" {
		cfg.NotifyUUID = NordicUARTNotify
	}
	if cfg.MaxWrite <= 0 {
		cfg.MaxWrite = 20
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Link{cfg: cfg, log: log, dial: dialGATT}
}

func (l *Link) Open(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.sess != nil && l.open.Load() {
		return nil
	}

	q := transceiver.NewQueue(l.cfg.QueueDepth)

	onData := func(b []byte) {
		if err := q.Push(b); err != nil && !errors.Is(err, transceiver.ErrQueueClosed) {
			l.log.Warn("ble notification dropped", "bytes", len(b), "err", err)
		}
	}
	onDisconnect := func() {
		l.open.Store(false)
		q.Shutdown()
		l.log.Info("ble peripheral disconnected")
	}

	sess, err := l.dial(ctx, l.cfg, onData, onDisconnect)
	if err != nil {
		q.Shutdown()
		return fmt.Errorf("ble: connect: %w", err)
	}

	l.sess = sess
	l.queue = q
	l.open.Store(true)
	return nil
}

func (l *Link) Close(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.open.Store(false)
	if l.queue != nil {
		l.queue.Shutdown()
	}
	if l.sess == nil {
		return nil
	}
	err := l.sess.Disconnect()
	l.sess = nil
	return err
}

func (l *Link) IsOpen() bool { return l.open.Load() }

func (l *Link) Inbound() *transceiver.Queue {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.queue
}

// Send writes p in MaxWrite-sized pieces, pausing SettleDelay after each.
func (l *Link) Send(ctx context.Context, p []byte) error {
	l.mu.Lock()
	sess := l.sess
	l.mu.Unlock()

	if sess == nil || !l.open.Load() {
		return transceiver.ErrNotConnected
	}

	for len(p) > 0 {
		n := len(p)
		if n > l.cfg.MaxWrite {
			n = l.cfg.MaxWrite
		}
		if err := sess.Write(p[:n]); err != nil {
			return err
		}
		p = p[n:]

		if l.cfg.SettleDelay > 0 {
			timer := time.NewTimer(l.cfg.SettleDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	return nil
}
