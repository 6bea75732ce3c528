// internal/transport/serial/link.go
package serial

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goburrow/serial"

	"github.com/tamzrod/callresponse/internal/transceiver"
)

// Config is the UART configuration.
type Config struct {
	Address  string
	BaudRate int
	DataBits int
	StopBits int
	Parity   string // N, E or O

	// ReadTimeout bounds a single Read. Keep it short: the receive loop
	// checks cancellation between reads.
	ReadTimeout time.Duration
}

// Link is a pull-style UART link.
type Link struct {
	cfg  Config
	open atomic.Bool

	mu   sync.Mutex
	port serial.Port

	// opener is replaced in tests.
	opener func(*serial.Config) (serial.Port, error)
}

var _ transceiver.PullLink = (*Link)(nil)

func New(cfg Config) *Link {
	return &Link{cfg: cfg, opener: serial.Open}
}

func (l *Link) Open(ctx context.Context) error {
	if l.cfg.Address == "" {
		return errors.New("serial: address required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.port != nil {
		if l.open.Load() {
			return nil
		}
		// failed earlier: reopen
		_ = l.port.Close()
		l.port = nil
	}

	p, err := l.opener(&serial.Config{
		Address:  l.cfg.Address,
		BaudRate: l.cfg.BaudRate,
		DataBits: l.cfg.DataBits,
		StopBits: l.cfg.StopBits,
		Parity:   l.cfg.Parity,
		Timeout:  l.cfg.ReadTimeout,
	})
	if err != nil {
		return fmt.Errorf("serial: open %s: %w", l.cfg.Address, err)
	}

	l.port = p
	l.open.Store(true)
	return nil
}

func (l *Link) Close(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.open.Store(false)
	if l.port == nil {
		return nil
	}
	err := l.port.Close()
	l.port = nil
	return err
}

func (l *Link) IsOpen() bool { return l.open.Load() }

func (l *Link) Send(ctx context.Context, p []byte) error {
	port := l.current()
	if port == nil {
		return transceiver.ErrNotConnected
	}
	if _, err := port.Write(p); err != nil {
		l.fail()
		return err
	}
	return nil
}

// Read returns (0, nil) when the port read timeout elapses with no data.
func (l *Link) Read(p []byte) (int, error) {
	port := l.current()
	if port == nil {
		return 0, transceiver.ErrNotConnected
	}
	n, err := port.Read(p)
	if errors.Is(err, serial.ErrTimeout) {
		return n, nil
	}
	if err != nil {
		l.fail()
		return n, err
	}
	return n, nil
}

func (l *Link) current() serial.Port {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.port
}

// fail marks the link closed after an I/O error; the port stays allocated
// until Close.
func (l *Link) fail() { l.open.Store(false) }
