// internal/transceiver/receive.go
package transceiver

import (
	"context"
	"fmt"
)

// ---- receive helpers ----

// ReceiveExactly returns exactly n bytes.
func (t *Transceiver) ReceiveExactly(ctx context.Context, n int) ([]byte, error) {
	if err := t.checkCount(n); err != nil {
		return nil, err
	}
	return t.ReceiveMessage(ctx, Exactly(n))
}

// ReceiveUntilTerminator returns the bytes before term.
func (t *Transceiver) ReceiveUntilTerminator(ctx context.Context, term byte) ([]byte, error) {
	return t.ReceiveMessage(ctx, Terminator(term))
}

// ReceiveUntilPattern returns the bytes before pattern.
func (t *Transceiver) ReceiveUntilPattern(ctx context.Context, pattern []byte) ([]byte, error) {
	if err := checkNonEmpty("pattern", pattern); err != nil {
		return nil, err
	}
	return t.ReceiveMessage(ctx, Pattern(pattern))
}

// ReceiveUntilHeaderFooter returns the bytes between header and footer.
func (t *Transceiver) ReceiveUntilHeaderFooter(ctx context.Context, header, footer []byte) ([]byte, error) {
	if err := checkNonEmpty("header", header); err != nil {
		return nil, err
	}
	if err := checkNonEmpty("footer", footer); err != nil {
		return nil, err
	}
	return t.ReceiveMessage(ctx, HeaderFooter(header, footer))
}

// ReceiveUntilMatch returns match once it appears in the inbound stream.
func (t *Transceiver) ReceiveUntilMatch(ctx context.Context, match []byte) ([]byte, error) {
	if err := checkNonEmpty("match", match); err != nil {
		return nil, err
	}
	return t.ReceiveMessage(ctx, Match(match))
}

// ---- send + receive ----

// SendReceive sends p, then receives one message framed by d.
func (t *Transceiver) SendReceive(ctx context.Context, p []byte, d Detector) ([]byte, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: nil detector", ErrInvalidBoundary)
	}
	if err := t.Send(ctx, p); err != nil {
		return nil, err
	}
	return t.ReceiveMessage(ctx, d)
}

func (t *Transceiver) SendReceiveExactly(ctx context.Context, p []byte, n int) ([]byte, error) {
	if err := t.checkCount(n); err != nil {
		return nil, err
	}
	return t.SendReceive(ctx, p, Exactly(n))
}

func (t *Transceiver) SendReceiveTerminator(ctx context.Context, p []byte, term byte) ([]byte, error) {
	return t.SendReceive(ctx, p, Terminator(term))
}

func (t *Transceiver) SendReceivePattern(ctx context.Context, p, pattern []byte) ([]byte, error) {
	if err := checkNonEmpty("pattern", pattern); err != nil {
		return nil, err
	}
	return t.SendReceive(ctx, p, Pattern(pattern))
}

func (t *Transceiver) SendReceiveHeaderFooter(ctx context.Context, p, header, footer []byte) ([]byte, error) {
	if err := checkNonEmpty("header", header); err != nil {
		return nil, err
	}
	if err := checkNonEmpty("footer", footer); err != nil {
		return nil, err
	}
	return t.SendReceive(ctx, p, HeaderFooter(header, footer))
}

func (t *Transceiver) SendReceiveMatch(ctx context.Context, p, match []byte) ([]byte, error) {
	if err := checkNonEmpty("match", match); err != nil {
		return nil, err
	}
	return t.SendReceive(ctx, p, Match(match))
}

// SendReceiveString sends s and returns the text reply up to term.
func (t *Transceiver) SendReceiveString(ctx context.Context, s string, term byte) (string, error) {
	b, err := t.SendReceiveTerminator(ctx, []byte(s), term)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// SendReceiveLine sends s and returns the text reply up to the multi-byte
// terminator (for example "\r\n").
func (t *Transceiver) SendReceiveLine(ctx context.Context, s, terminator string) (string, error) {
	b, err := t.SendReceivePattern(ctx, []byte(s), []byte(terminator))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (t *Transceiver) checkCount(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: count %d must be > 0", ErrInvalidBoundary, n)
	}
	if n > t.cfg.maxBuffer {
		return fmt.Errorf("%w: count %d exceeds receive bound %d", ErrInvalidBoundary, n, t.cfg.maxBuffer)
	}
	return nil
}

func checkNonEmpty(what string, p []byte) error {
	if len(p) == 0 {
		return fmt.Errorf("%w: empty %s", ErrInvalidBoundary, what)
	}
	return nil
}
