// internal/transceiver/options.go
package transceiver

import (
	"io"
	"log/slog"
	"time"
)

// DefaultMaxBuffer is the receive bound used when WithMaxBuffer is not given.
const DefaultMaxBuffer = 1024

// DefaultIdleWait is how long a pull-style receive sleeps after a read
// that returned no bytes.
const DefaultIdleWait = 2 * time.Millisecond

// Option configures a Transceiver.
type Option func(*config)

type config struct {
	maxBuffer int
	idleWait  time.Duration
	logger    *slog.Logger
}

func defaultConfig() config {
	return config{
		maxBuffer: DefaultMaxBuffer,
		idleWait:  DefaultIdleWait,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithMaxBuffer sets the receive buffer bound. Values <= 0 are ignored.
func WithMaxBuffer(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxBuffer = n
		}
	}
}

// WithIdleWait sets the pause between empty reads on a pull-style link.
func WithIdleWait(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.idleWait = d
		}
	}
}

// WithLogger sets the logger used for debug traces of traffic.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
