// internal/rtu/client.go
package rtu

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"

	"github.com/goburrow/modbus"

	"github.com/tamzrod/callresponse/internal/transceiver"
)

const (
	exceptionBit = 0x80

	// unit, function, exception code, crc
	exceptionFrameLen = 5

	// MaxReadQuantity and MaxWriteQuantity are the register limits of a
	// single read (0x03) and write (0x10) request.
	MaxReadQuantity  = 125
	MaxWriteQuantity = 123
)

// Exchanger is the part of the framing engine the client needs.
// *transceiver.Transceiver satisfies it.
type Exchanger interface {
	Open(ctx context.Context) error
	Close(ctx context.Context) error
	SendReceive(ctx context.Context, p []byte, d transceiver.Detector) ([]byte, error)
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// Client reads and writes holding registers over a CRC-protected RTU frame.
//
// Register data handed to and returned from the client is in host order:
// the two bytes of every 16-bit word are swapped relative to the wire.
type Client struct {
	tr  Exchanger
	log *slog.Logger
}

// New returns a client on top of tr. The client holds no other state.
func New(tr Exchanger, opts ...Option) *Client {
	c := &Client{
		tr:  tr,
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Open(ctx context.Context) error {
	if err := c.tr.Open(ctx); err != nil {
		return &TransportError{Op: "open", Err: err}
	}
	return nil
}

func (c *Client) Close(ctx context.Context) error {
	if err := c.tr.Close(ctx); err != nil {
		return &TransportError{Op: "close", Err: err}
	}
	return nil
}

// ReadHoldingRegisters reads count registers starting at addr and returns
// their bytes, each word byte-swapped into host order.
func (c *Client) ReadHoldingRegisters(ctx context.Context, unit byte, addr, count uint16) ([]byte, error) {
	if count == 0 || count > MaxReadQuantity {
		return nil, fmt.Errorf("%w: quantity %d out of range 1..%d", ErrInvalidRequest, count, MaxReadQuantity)
	}

	req := make([]byte, 6, 8)
	req[0] = unit
	req[1] = modbus.FuncCodeReadHoldingRegisters
	binary.BigEndian.PutUint16(req[2:4], addr)
	binary.BigEndian.PutUint16(req[4:6], count)
	req = appendCRC(req)

	byteCount := int(count) * 2
	resp, err := c.exchange(ctx, "read holding registers", req, 5+byteCount)
	if err != nil {
		return nil, err
	}

	if int(resp[2]) != byteCount {
		return nil, fmt.Errorf("%w: byte count got=%d want=%d", ErrFramingMismatch, resp[2], byteCount)
	}

	c.log.Debug("read holding registers", "unit", unit, "addr", addr, "count", count)

	return swapWords(resp[3 : 3+byteCount]), nil
}

// ReadHoldingRegisterValues is ReadHoldingRegisters decoded to register values.
func (c *Client) ReadHoldingRegisterValues(ctx context.Context, unit byte, addr, count uint16) ([]uint16, error) {
	data, err := c.ReadHoldingRegisters(ctx, unit, addr, count)
	if err != nil {
		return nil, err
	}
	regs := make([]uint16, len(data)/2)
	for i := range regs {
		regs[i] = binary.LittleEndian.Uint16(data[2*i:])
	}
	return regs, nil
}

// WriteRegisters writes data (host order, two bytes per register) starting
// at addr using function 0x10.
func (c *Client) WriteRegisters(ctx context.Context, unit byte, addr uint16, data []byte) error {
	if len(data) == 0 || len(data)%2 != 0 {
		return fmt.Errorf("%w: data length %d must be even and non-zero", ErrInvalidRequest, len(data))
	}
	qty := len(data) / 2
	if qty > MaxWriteQuantity {
		return fmt.Errorf("%w: quantity %d exceeds %d", ErrInvalidRequest, qty, MaxWriteQuantity)
	}

	req := make([]byte, 7, 9+len(data))
	req[0] = unit
	req[1] = modbus.FuncCodeWriteMultipleRegisters
	binary.BigEndian.PutUint16(req[2:4], addr)
	binary.BigEndian.PutUint16(req[4:6], uint16(qty))
	req[6] = byte(len(data))
	req = append(req, swapWords(data)...)
	req = appendCRC(req)

	// unit, function, address, quantity, crc
	resp, err := c.exchange(ctx, "write registers", req, 8)
	if err != nil {
		return err
	}

	if gotAddr := binary.BigEndian.Uint16(resp[2:4]); gotAddr != addr {
		return fmt.Errorf("%w: echoed address got=%d want=%d", ErrFramingMismatch, gotAddr, addr)
	}
	if gotQty := binary.BigEndian.Uint16(resp[4:6]); int(gotQty) != qty {
		return fmt.Errorf("%w: echoed quantity got=%d want=%d", ErrFramingMismatch, gotQty, qty)
	}

	c.log.Debug("write registers", "unit", unit, "addr", addr, "count", qty)
	return nil
}

// WriteRegisterValues writes register values starting at addr.
func (c *Client) WriteRegisterValues(ctx context.Context, unit byte, addr uint16, regs []uint16) error {
	data := make([]byte, 2*len(regs))
	for i, r := range regs {
		binary.LittleEndian.PutUint16(data[2*i:], r)
	}
	return c.WriteRegisters(ctx, unit, addr, data)
}

// exchange sends req and returns a validated response of want bytes, or
// returns the device exception.
func (c *Client) exchange(ctx context.Context, op string, req []byte, want int) ([]byte, error) {
	resp, err := c.tr.SendReceive(ctx, req, responseDetector(want))
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	if err := validate(req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// responseDetector frames a response of want bytes. An exception response
// is shorter and is reported as soon as its five bytes are in.
func responseDetector(want int) transceiver.Detector {
	return func(buf []byte) (int, int) {
		if len(buf) >= exceptionFrameLen && buf[1]&exceptionBit != 0 {
			return 0, exceptionFrameLen
		}
		if len(buf) >= want {
			return 0, want
		}
		return 0, 0
	}
}

func validate(req, resp []byte) error {
	if !checkCRC(resp) {
		return fmt.Errorf("%w: frame % x", ErrCRC, resp)
	}
	if resp[0] != req[0] {
		return fmt.Errorf("%w: unit id got=%d want=%d", ErrFramingMismatch, resp[0], req[0])
	}
	if fc := resp[1] &^ exceptionBit; fc != req[1] {
		return fmt.Errorf("%w: function got=%d want=%d", ErrFramingMismatch, fc, req[1])
	}
	if resp[1]&exceptionBit != 0 {
		return &ExceptionError{Function: req[1], ExceptionCode: resp[2]}
	}
	return nil
}
