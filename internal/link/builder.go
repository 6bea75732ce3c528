// internal/link/builder.go
package link

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	cfg "github.com/tamzrod/callresponse/internal/config"
	"github.com/tamzrod/callresponse/internal/transceiver"
	"github.com/tamzrod/callresponse/internal/transport/ble"
	"github.com/tamzrod/callresponse/internal/transport/serial"
	"github.com/tamzrod/callresponse/internal/transport/usb"
)

// NewLink constructs the transport named by the configuration.
// The link is not opened.
func NewLink(c cfg.LinkConfig, logger *slog.Logger) (transceiver.Link, error) {
	switch c.Kind {
	case cfg.LinkSerial:
		return serial.New(serial.Config{
			Address:     c.Serial.Address,
			BaudRate:    c.Serial.BaudRate,
			DataBits:    c.Serial.DataBits,
			StopBits:    c.Serial.StopBits,
			Parity:      c.Serial.Parity,
			ReadTimeout: ms(c.Serial.ReadTimeoutMs),
		}), nil

	case cfg.LinkUSB:
		return usb.New(usb.Config{
			VID:         c.USB.VID,
			PID:         c.USB.PID,
			Serial:      c.USB.Serial,
			BaudRate:    c.USB.BaudRate,
			DataBits:    c.USB.DataBits,
			StopBits:    c.USB.StopBits,
			Parity:      c.USB.Parity,
			ReadTimeout: ms(c.USB.ReadTimeoutMs),
		}), nil

	case cfg.LinkBLE:
		return ble.New(ble.Config{
			ServiceUUID: c.BLE.ServiceUUID,
			WriteUUID:   c.BLE.WriteUUID,
			NotifyUUID:  c.BLE.NotifyUUID,
			Name:        c.BLE.Name,
			Address:     c.BLE.Address,
			QueueDepth:  c.BLE.QueueDepth,
			MaxWrite:    c.BLE.MaxWrite,
			SettleDelay: ms(c.BLE.SettleMs),
			Logger:      logger,
		}), nil
	}
	return nil, fmt.Errorf("link: unknown kind %q", c.Kind)
}

// Build constructs a Transceiver over the configured transport.
func Build(c cfg.LinkConfig, logger *slog.Logger) (*transceiver.Transceiver, error) {
	l, err := NewLink(c, logger)
	if err != nil {
		return nil, err
	}
	return transceiver.New(l,
		transceiver.WithMaxBuffer(c.MaxBuffer),
		transceiver.WithLogger(logger),
	), nil
}

// Logger returns the slog logger for the link configuration.
func Logger(c cfg.LinkConfig, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if c.Debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// RequestTimeout is the per-exchange deadline.
func RequestTimeout(c cfg.LinkConfig) time.Duration {
	return ms(c.RequestTimeoutMs)
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }
