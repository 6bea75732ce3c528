// internal/status/errorcode.go
package status

import (
	"errors"

	"github.com/tamzrod/callresponse/internal/rtu"
	"github.com/tamzrod/callresponse/internal/transceiver"
)

// ErrorCode maps a poll error to the value stored in SlotLastErrorCode.
// Device exceptions pass through verbatim; link failures map into 0x01xx.
func ErrorCode(err error) uint16 {
	if err == nil {
		return 0
	}

	var exc *rtu.ExceptionError
	if errors.As(err, &exc) {
		return exc.Code()
	}

	switch {
	case errors.Is(err, transceiver.ErrCancelled):
		return CodeCancelled
	case errors.Is(err, transceiver.ErrNotConnected):
		return CodeNotConnected
	case errors.Is(err, transceiver.ErrBufferOverflow):
		return CodeOverflow
	case errors.Is(err, rtu.ErrFramingMismatch):
		return CodeFraming
	case errors.Is(err, rtu.ErrCRC):
		return CodeCRC
	}

	var te *rtu.TransportError
	if errors.As(err, &te) {
		return CodeTransport
	}

	// Anything else exposing a code (foreign clients).
	type coder interface{ Code() uint16 }
	var c coder
	if errors.As(err, &c) {
		return c.Code()
	}

	return CodeGeneric
}
