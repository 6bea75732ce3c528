// internal/transceiver/transceiver_test.go
package transceiver

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

// ---- pull-style ----

func TestReceiveExactly_AcrossChunks(t *testing.T) {
	tr, _ := openPull("AB", "CDE", "F")

	got, err := tr.ReceiveExactly(context.Background(), 4)
	if err != nil {
		t.Fatalf("ReceiveExactly err=%v", err)
	}
	if string(got) != "ABCD" {
		t.Fatalf("got %q want %q", got, "ABCD")
	}
}

func TestReceiveExactly_ReturnsOnNthByte(t *testing.T) {
	tr, l := openPull("A", "B", "C")

	got, err := tr.ReceiveExactly(context.Background(), 2)
	if err != nil {
		t.Fatalf("ReceiveExactly err=%v", err)
	}
	if string(got) != "AB" {
		t.Fatalf("got %q", got)
	}
	if len(l.pending) != 1 {
		t.Fatalf("read past the boundary: %d chunks left", len(l.pending))
	}
}

func TestReceiveUntilTerminator(t *testing.T) {
	tr, _ := openPull("A", "B\n")

	got, err := tr.ReceiveUntilTerminator(context.Background(), '\n')
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if string(got) != "AB" {
		t.Fatalf("got %q want AB", got)
	}
}

func TestReceiveUntilTerminator_KeepsWaitingOnTruncatedInput(t *testing.T) {
	tr, _ := openPull("AB")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	got, err := tr.ReceiveUntilTerminator(ctx, '\n')
	if got != nil {
		t.Fatalf("expected no payload, got %q", got)
	}
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline cause, got %v", err)
	}
}

func TestReceiveUntilHeaderFooter_IgnoresEarlyFooter(t *testing.T) {
	tr, _ := openPull("]junk", "[", "payload", "]tail")

	got, err := tr.ReceiveUntilHeaderFooter(context.Background(), []byte("["), []byte("]"))
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if string(got) != "payload" {
		t.Fatalf("got %q want payload", got)
	}
}

func TestReceiveUntilMatch_IncludesMatch(t *testing.T) {
	tr, _ := openPull("\x00\x11", "\x79")

	got, err := tr.ReceiveUntilMatch(context.Background(), []byte{0x79})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !bytes.Equal(got, []byte{0x79}) {
		t.Fatalf("got % x", got)
	}
}

func TestReceive_BufferOverflow(t *testing.T) {
	l := &fakePullLink{pending: [][]byte{[]byte("0123456789")}}
	tr := New(l, WithMaxBuffer(8))
	_ = tr.Open(context.Background())

	got, err := tr.ReceiveUntilTerminator(context.Background(), '\n')
	if !errors.Is(err, ErrBufferOverflow) {
		t.Fatalf("expected ErrBufferOverflow, got %v", err)
	}
	if got != nil {
		t.Fatalf("partial payload returned: %q", got)
	}
}

func TestReceive_BoundaryAtExactBound(t *testing.T) {
	l := &fakePullLink{pending: [][]byte{[]byte("0123456\n")}}
	tr := New(l, WithMaxBuffer(8))
	_ = tr.Open(context.Background())

	got, err := tr.ReceiveUntilTerminator(context.Background(), '\n')
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if string(got) != "0123456" {
		t.Fatalf("got %q", got)
	}
}

func TestReceive_CancelBeforeAnyBytes(t *testing.T) {
	tr, _ := openPull()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := tr.ReceiveExactly(ctx, 1)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if errors.Is(err, ErrBufferOverflow) || got != nil {
		t.Fatalf("unexpected result %q err=%v", got, err)
	}
}

func TestReceive_NotConnected(t *testing.T) {
	l := &fakePullLink{}
	tr := New(l)

	if _, err := tr.ReceiveExactly(context.Background(), 1); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("receive: expected ErrNotConnected, got %v", err)
	}
	if err := tr.Send(context.Background(), []byte{1}); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("send: expected ErrNotConnected, got %v", err)
	}
}

func TestReceive_ReadFailureIsTransportError(t *testing.T) {
	tr, l := openPull()
	l.readErr = errLinkBroken

	_, err := tr.ReceiveExactly(context.Background(), 1)

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if te.Op != "read" || !errors.Is(err, errLinkBroken) {
		t.Fatalf("unexpected transport error: %v", err)
	}
}

func TestReceive_InvalidBoundaryFromDetector(t *testing.T) {
	tr, _ := openPull("abc")

	bad := func(buf []byte) (int, int) { return 2, 5 }

	if _, err := tr.ReceiveMessage(context.Background(), bad); !errors.Is(err, ErrInvalidBoundary) {
		t.Fatalf("expected ErrInvalidBoundary, got %v", err)
	}
}

func TestReceive_InvalidArguments(t *testing.T) {
	tr, l := openPull("abc")

	if _, err := tr.ReceiveExactly(context.Background(), 0); !errors.Is(err, ErrInvalidBoundary) {
		t.Fatalf("count 0: got %v", err)
	}
	if _, err := tr.ReceiveExactly(context.Background(), DefaultMaxBuffer+1); !errors.Is(err, ErrInvalidBoundary) {
		t.Fatalf("count over bound: got %v", err)
	}
	if _, err := tr.SendReceivePattern(context.Background(), []byte("x"), nil); !errors.Is(err, ErrInvalidBoundary) {
		t.Fatalf("empty pattern: got %v", err)
	}
	if len(l.sent) != 0 {
		t.Fatalf("invalid call reached the link: %d sends", len(l.sent))
	}
}

func TestSendReceiveString(t *testing.T) {
	l := &fakePullLink{
		reply: func(p []byte) [][]byte {
			if string(p) == "VER?\n" {
				return [][]byte{[]byte("v1."), []byte("2\n")}
			}
			return nil
		},
	}
	tr := New(l)
	_ = tr.Open(context.Background())

	got, err := tr.SendReceiveString(context.Background(), "VER?\n", '\n')
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if got != "v1.2" {
		t.Fatalf("got %q", got)
	}
}

func TestSendReceiveLine(t *testing.T) {
	l := &fakePullLink{
		reply: func(p []byte) [][]byte { return [][]byte{[]byte("OK\r"), []byte("\n")} },
	}
	tr := New(l)
	_ = tr.Open(context.Background())

	got, err := tr.SendReceiveLine(context.Background(), "AT\r\n", "\r\n")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if got != "OK" {
		t.Fatalf("got %q", got)
	}
}

// ---- push-style ----

func TestPush_SendReceiveKeepsReply(t *testing.T) {
	l := &fakePushLink{
		reply: func(q *Queue, p []byte) {
			_ = q.Push([]byte{0x79})
		},
	}
	tr := New(l)
	if err := tr.Open(context.Background()); err != nil {
		t.Fatalf("Open err=%v", err)
	}

	// stale bytes from an abandoned exchange
	_ = l.Inbound().Push([]byte{0x1F, 0x1F})

	got, err := tr.SendReceiveExactly(context.Background(), []byte{0x7F}, 1)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if got[0] != 0x79 {
		t.Fatalf("stale byte leaked into reply: % x", got)
	}
}

func TestPush_ReceiveDrainsStaleBytes(t *testing.T) {
	l := &fakePushLink{}
	tr := New(l)
	_ = tr.Open(context.Background())

	_ = l.Inbound().Push([]byte("old\n"))

	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = l.Inbound().Push([]byte("new\n"))
	}()

	got, err := tr.ReceiveUntilTerminator(context.Background(), '\n')
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if string(got) != "new" {
		t.Fatalf("got %q want new", got)
	}
}

func TestPush_DisconnectMidWait(t *testing.T) {
	l := &fakePushLink{}
	tr := New(l)
	_ = tr.Open(context.Background())

	go func() {
		time.Sleep(10 * time.Millisecond)
		l.disconnect()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := tr.ReceiveExactly(ctx, 4)
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestPush_CancelWhileWaiting(t *testing.T) {
	l := &fakePushLink{}
	tr := New(l)
	_ = tr.Open(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := tr.ReceiveExactly(ctx, 4)
	if !errors.Is(err, ErrCancelled) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected ErrCancelled wrapping context.Canceled, got %v", err)
	}
}

func TestPush_Overflow(t *testing.T) {
	l := &fakePushLink{
		reply: func(q *Queue, p []byte) {
			_ = q.Push([]byte("aaaa"))
			_ = q.Push([]byte("bbbb"))
		},
	}
	tr := New(l, WithMaxBuffer(6))
	_ = tr.Open(context.Background())

	_, err := tr.SendReceiveTerminator(context.Background(), []byte("?"), '\n')
	if !errors.Is(err, ErrBufferOverflow) {
		t.Fatalf("expected ErrBufferOverflow, got %v", err)
	}
}

func TestPush_SendFailure(t *testing.T) {
	l := &fakePushLink{sendErr: errLinkBroken}
	tr := New(l)
	_ = tr.Open(context.Background())

	err := tr.Send(context.Background(), []byte{1})

	var te *TransportError
	if !errors.As(err, &te) || te.Op != "send" {
		t.Fatalf("expected send TransportError, got %v", err)
	}
}

func TestClose_ThenReceive(t *testing.T) {
	l := &fakePushLink{}
	tr := New(l)
	_ = tr.Open(context.Background())
	_ = tr.Close(context.Background())

	if _, err := tr.ReceiveExactly(context.Background(), 1); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}
