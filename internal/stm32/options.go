// internal/stm32/options.go
package stm32

import (
	"io"
	"log/slog"
	"time"
)

// DefaultIDOffset is the position of the identification byte in the
// acknowledged Get-ID response (Ack, N, PID high, PID low, Ack).
const DefaultIDOffset = 3

// Progress reports a chunked transfer.
type Progress struct {
	Op      string
	Address uint32
	Done    int
	Total   int
}

// ProgressCallback is called after each chunk.
type ProgressCallback func(Progress)

// Config holds the client configuration.
type Config struct {
	Logger   *slog.Logger
	Progress ProgressCallback

	// IDOffset selects the byte GetID returns. Bootloader revisions
	// disagree on it; validate against the target hardware.
	IDOffset int

	// ChunkTimeout bounds each chunk transaction of ReadMemory and
	// WriteMemory on top of the caller's context. Zero leaves only the
	// caller's deadline.
	ChunkTimeout time.Duration
}

func defaultConfig() Config {
	return Config{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		IDOffset: DefaultIDOffset,
	}
}

// Option configures a Client.
type Option func(*Config)

func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	}
}

func WithProgress(cb ProgressCallback) Option {
	return func(c *Config) {
		c.Progress = cb
	}
}

// WithIDOffset sets the position of the identification byte within the
// Get-ID response. Offsets outside the response fail at call time.
func WithIDOffset(offset int) Option {
	return func(c *Config) {
		c.IDOffset = offset
	}
}

// WithChunkTimeout gives every chunk of a memory transfer its own deadline,
// so long transfers are bounded per chunk instead of as a whole.
func WithChunkTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.ChunkTimeout = d
		}
	}
}
