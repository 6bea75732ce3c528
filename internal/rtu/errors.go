// internal/rtu/errors.go
package rtu

import (
	"errors"
	"fmt"

	"github.com/goburrow/modbus"
)

var (
	// ErrFramingMismatch is returned when a response does not belong to the
	// request: wrong unit id, function code, byte count or echo.
	ErrFramingMismatch = errors.New("rtu: framing mismatch")

	// ErrCRC is returned when a response fails its CRC check.
	ErrCRC = errors.New("rtu: crc mismatch")

	// ErrDeviceException matches any *ExceptionError.
	ErrDeviceException = errors.New("rtu: device exception")

	// ErrInvalidRequest is returned before any I/O for out-of-range arguments.
	ErrInvalidRequest = errors.New("rtu: invalid request")
)

// ExceptionError is a device-reported exception (function code with bit 7 set).
type ExceptionError struct {
	Function      byte
	ExceptionCode byte
}

func (e *ExceptionError) Error() string {
	return "rtu: " + e.modbusError().Error()
}

// Code exposes the exception code for status reporting.
func (e *ExceptionError) Code() uint16 { return uint16(e.ExceptionCode) }

func (e *ExceptionError) Is(target error) bool { return target == ErrDeviceException }

// Unwrap exposes the equivalent *modbus.ModbusError.
func (e *ExceptionError) Unwrap() error { return e.modbusError() }

func (e *ExceptionError) modbusError() *modbus.ModbusError {
	return &modbus.ModbusError{FunctionCode: e.Function, ExceptionCode: e.ExceptionCode}
}

// TransportError wraps a failure of the link or the framing engine, as
// opposed to a response the device sent.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("rtu: %s: transport: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
