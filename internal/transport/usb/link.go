// internal/transport/usb/link.go
package usb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	"github.com/tamzrod/callresponse/internal/transceiver"
)

// Config selects a USB-UART bridge by vendor/product id.
type Config struct {
	VID    string // hex, e.g. "10C4"
	PID    string // hex, e.g. "EA60"
	Serial string // optional USB serial number

	BaudRate int
	DataBits int    // 0 means 8
	StopBits int    // 1 or 2; 0 means 1
	Parity   string // N, E or O; empty means N

	ReadTimeout time.Duration
}

// ErrPortNotFound is returned by Open when no attached port matches.
var ErrPortNotFound = errors.New("usb: no matching port")

// Link is a pull-style link over a USB-UART bridge.
type Link struct {
	cfg  Config
	open atomic.Bool

	mu   sync.Mutex
	port serial.Port
	name string

	// replaced in tests
	list   func() ([]*enumerator.PortDetails, error)
	opener func(name string, mode *serial.Mode) (serial.Port, error)
}

var _ transceiver.PullLink = (*Link)(nil)

func New(cfg Config) *Link {
	return &Link{
		cfg:    cfg,
		list:   enumerator.GetDetailedPortsList,
		opener: serial.Open,
	}
}

// Find returns the name of the first USB port matching cfg.
func (l *Link) Find() (string, error) {
	ports, err := l.list()
	if err != nil {
		return "", fmt.Errorf("usb: enumerate ports: %w", err)
	}
	for _, p := range ports {
		if !p.IsUSB {
			continue
		}
		if !strings.EqualFold(p.VID, l.cfg.VID) || !strings.EqualFold(p.PID, l.cfg.PID) {
			continue
		}
		if l.cfg.Serial != "" && p.SerialNumber != l.cfg.Serial {
			continue
		}
		return p.Name, nil
	}
	return "", fmt.Errorf("%w: vid=%s pid=%s", ErrPortNotFound, l.cfg.VID, l.cfg.PID)
}

func (l *Link) Open(ctx context.Context) error {
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

	mode, err := modeFor(l.cfg)
	if err != nil {
		return err
	}

	name, err := l.Find()
	if err != nil {
		return err
	}

	p, err := l.opener(name, mode)
	if err != nil {
		return fmt.Errorf("usb: open %s: %w", name, err)
	}
	if err := p.SetReadTimeout(l.cfg.ReadTimeout); err != nil {
		_ = p.Close()
		return fmt.Errorf("usb: set read timeout: %w", err)
	}
	// bytes left in the bridge from before this session
	if err := p.ResetInputBuffer(); err != nil {
		_ = p.Close()
		return fmt.Errorf("usb: reset input: %w", err)
	}

	l.port = p
	l.name = name
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

// PortName is the OS name of the opened port.
func (l *Link) PortName() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.name
}

func (l *Link) Send(ctx context.Context, p []byte) error {
	port := l.current()
	if port == nil {
		return transceiver.ErrNotConnected
	}
	if _, err := port.Write(p); err != nil {
		l.open.Store(false)
		return err
	}
	return nil
}

// Read returns (0, nil) when the read timeout elapses with no data.
func (l *Link) Read(p []byte) (int, error) {
	port := l.current()
	if port == nil {
		return 0, transceiver.ErrNotConnected
	}
	n, err := port.Read(p)
	if err != nil {
		l.open.Store(false)
		return n, err
	}
	return n, nil
}

func (l *Link) current() serial.Port {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.port
}

// modeFor maps the character format onto go.bug.st/serial values.
func modeFor(cfg Config) (*serial.Mode, error) {
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	if mode.DataBits == 0 {
		mode.DataBits = 8
	}

	switch strings.ToUpper(cfg.Parity) {
	case "", "N":
	case "E":
		mode.Parity = serial.EvenParity
	case "O":
		mode.Parity = serial.OddParity
	default:
		return nil, fmt.Errorf("usb: unsupported parity %q", cfg.Parity)
	}

	switch cfg.StopBits {
	case 0, 1:
	case 2:
		mode.StopBits = serial.TwoStopBits
	default:
		return nil, fmt.Errorf("usb: unsupported stop bits %d", cfg.StopBits)
	}

	return mode, nil
}
