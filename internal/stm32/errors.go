// internal/stm32/errors.go
package stm32

import (
	"errors"
	"fmt"
)

// ErrUnexpectedResponse matches every *ResponseError.
var ErrUnexpectedResponse = errors.New("stm32: unexpected response")

// ErrInvalidArgument is returned before any I/O for unusable arguments.
var ErrInvalidArgument = errors.New("stm32: invalid argument")

// ResponseError is a Nack or any other byte where the protocol expected
// something else. It aborts the command.
type ResponseError struct {
	Op   string
	Step string
	Got  []byte
}

func (e *ResponseError) Error() string {
	if e.Nack() {
		return fmt.Sprintf("stm32: %s: %s: nack", e.Op, e.Step)
	}
	return fmt.Sprintf("stm32: %s: %s: unexpected response % x", e.Op, e.Step, e.Got)
}

// Nack reports whether the device answered with a Nack.
func (e *ResponseError) Nack() bool {
	return len(e.Got) > 0 && e.Got[0] == Nack
}

func (e *ResponseError) Is(target error) bool { return target == ErrUnexpectedResponse }

// TransportError wraps a failure of the link or framing engine.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("stm32: %s: transport: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
