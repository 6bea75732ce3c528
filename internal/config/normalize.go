// internal/config/normalize.go
package config

import "strings"

// Defaults applied by Normalize.
const (
	DefaultBaudRate         = 115200
	DefaultDataBits         = 8
	DefaultStopBits         = 1
	DefaultParity           = "N"
	DefaultReadTimeoutMs    = 20
	DefaultMaxBuffer        = 1024
	DefaultQueueDepth       = 64
	DefaultMaxWrite         = 20
	DefaultRequestTimeoutMs = 250
	DefaultPollIntervalMs   = 1000
	DefaultTargetTimeoutMs  = 1000
	DefaultEraseTimeoutMs   = 30000
	DefaultChunkTimeoutMs   = 1000
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	normalizeLink(&cfg.Link)

	if cfg.Bootloader.EraseTimeoutMs == 0 {
		cfg.Bootloader.EraseTimeoutMs = DefaultEraseTimeoutMs
	}
	if cfg.Bootloader.ChunkTimeoutMs == 0 {
		cfg.Bootloader.ChunkTimeoutMs = DefaultChunkTimeoutMs
	}

	for ui := range cfg.Units {
		u := &cfg.Units[ui]

		if u.Poll.IntervalMs == 0 {
			u.Poll.IntervalMs = DefaultPollIntervalMs
		}

		for ti := range u.Targets {
			if u.Targets[ti].TimeoutMs == 0 {
				u.Targets[ti].TimeoutMs = DefaultTargetTimeoutMs
			}
		}

		// ------------------------------------------------------------
		// DEVICE STATUS BLOCK NORMALIZATION (OPT-IN)
		// ------------------------------------------------------------

		// Skip units that did not opt in
		if u.Source.StatusSlot == nil {
			continue
		}

		// Normalize device_name:
		// - ASCII already validated
		// - Truncate to max 16 characters
		if len(u.Source.DeviceName) > 16 {
			u.Source.DeviceName = u.Source.DeviceName[:16]
		}
	}
}

func normalizeLink(l *LinkConfig) {
	if l.MaxBuffer == 0 {
		l.MaxBuffer = DefaultMaxBuffer
	}
	if l.RequestTimeoutMs == 0 {
		l.RequestTimeoutMs = DefaultRequestTimeoutMs
	}

	s := &l.Serial
	if s.BaudRate == 0 {
		s.BaudRate = DefaultBaudRate
	}
	if s.DataBits == 0 {
		s.DataBits = DefaultDataBits
	}
	if s.StopBits == 0 {
		s.StopBits = DefaultStopBits
	}
	if s.Parity == "" {
		s.Parity = DefaultParity
	}
	s.Parity = strings.ToUpper(s.Parity)
	if s.ReadTimeoutMs == 0 {
		s.ReadTimeoutMs = DefaultReadTimeoutMs
	}

	u := &l.USB
	if u.BaudRate == 0 {
		u.BaudRate = DefaultBaudRate
	}
	if u.DataBits == 0 {
		u.DataBits = DefaultDataBits
	}
	if u.StopBits == 0 {
		u.StopBits = DefaultStopBits
	}
	if u.Parity == "" {
		u.Parity = DefaultParity
	}
	u.Parity = strings.ToUpper(u.Parity)
	if u.ReadTimeoutMs == 0 {
		u.ReadTimeoutMs = DefaultReadTimeoutMs
	}

	if l.BLE.QueueDepth == 0 {
		l.BLE.QueueDepth = DefaultQueueDepth
	}
	if l.BLE.MaxWrite == 0 {
		l.BLE.MaxWrite = DefaultMaxWrite
	}
}
