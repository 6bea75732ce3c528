// internal/stm32/client.go
package stm32

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/tamzrod/callresponse/internal/transceiver"
)

// Exchanger is the part of the framing engine the client needs.
// *transceiver.Transceiver satisfies it.
type Exchanger interface {
	Open(ctx context.Context) error
	Close(ctx context.Context) error
	SendReceive(ctx context.Context, p []byte, d transceiver.Detector) ([]byte, error)
}

// Client drives the serial bootloader command/Ack protocol.
//
// Every command is a sequence of blocks, each answered by Ack. A Nack or
// any other byte aborts the command with a *ResponseError. There are no
// retries at this level.
type Client struct {
	tr     Exchanger
	config Config
	log    *slog.Logger
}

// New returns a client on top of tr.
func New(tr Exchanger, opts ...Option) *Client {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Client{tr: tr, config: cfg, log: cfg.Logger}
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

// Ping sends the synchronization byte. It returns true on Ack and false
// on Nack.
func (c *Client) Ping(ctx context.Context) (bool, error) {
	resp, err := c.tr.SendReceive(ctx, []byte{Sync}, ackByte)
	if err != nil {
		return false, &TransportError{Op: "ping", Err: err}
	}
	switch resp[0] {
	case Ack:
		return true, nil
	case Nack:
		return false, nil
	}
	return false, &ResponseError{Op: "ping", Step: "sync", Got: resp}
}

// GetCommands returns the bootloader protocol version and the commands it
// supports. A command byte this client does not know fails the call.
func (c *Client) GetCommands(ctx context.Context) (byte, []Command, error) {
	const op = "get"

	resp, err := c.framedCommand(ctx, op, CmdGet)
	if err != nil {
		return 0, nil, err
	}

	// Ack, N, version, N command bytes, Ack
	version := resp[2]
	codes := resp[3 : len(resp)-1]

	cmds := make([]Command, 0, len(codes))
	for _, b := range codes {
		cmd := Command(b)
		if !cmd.Known() {
			return 0, nil, &ResponseError{Op: op, Step: "command list", Got: resp}
		}
		cmds = append(cmds, cmd)
	}

	c.log.Debug("bootloader commands", "version", fmt.Sprintf("0x%02X", version), "count", len(cmds))
	return version, cmds, nil
}

// Version is the Get-Version reply.
type Version struct {
	Protocol byte
	Option1  byte
	Option2  byte
}

// GetVersion returns the protocol version and the two option bytes.
func (c *Client) GetVersion(ctx context.Context) (Version, error) {
	const op = "get version"

	// Ack, version, option 1, option 2, Ack
	resp, err := c.exchange(ctx, op, "command", commandFrame(CmdGetVersion), ackThen(4))
	if err != nil {
		return Version{}, err
	}
	if resp[4] != Ack {
		return Version{}, &ResponseError{Op: op, Step: "final ack", Got: resp}
	}
	return Version{Protocol: resp[1], Option1: resp[2], Option2: resp[3]}, nil
}

// GetID returns the identification byte at the configured offset of the
// acknowledged Get-ID response.
func (c *Client) GetID(ctx context.Context) (byte, error) {
	resp, err := c.framedCommand(ctx, "get id", CmdGetID)
	if err != nil {
		return 0, err
	}
	off := c.config.IDOffset
	if off < 0 || off >= len(resp) {
		return 0, &ResponseError{Op: "get id", Step: fmt.Sprintf("id offset %d", off), Got: resp}
	}
	return resp[off], nil
}

// ProductID returns the full product id carried by the Get-ID response.
func (c *Client) ProductID(ctx context.Context) (uint16, error) {
	resp, err := c.framedCommand(ctx, "get id", CmdGetID)
	if err != nil {
		return 0, err
	}
	if len(resp) < 5 {
		return 0, &ResponseError{Op: "get id", Step: "product id", Got: resp}
	}
	return binary.BigEndian.Uint16(resp[2:4]), nil
}

// ReadMemory reads n bytes starting at addr, MaxChunk bytes per transaction.
func (c *Client) ReadMemory(ctx context.Context, addr uint32, n int) ([]byte, error) {
	if err := checkRange(addr, n); err != nil {
		return nil, err
	}

	out := make([]byte, 0, n)
	for done := 0; done < n; {
		size := n - done
		if size > MaxChunk {
			size = MaxChunk
		}
		at := addr + uint32(done)

		chunk, err := c.readChunk(ctx, at, size)
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
		done += size

		c.log.Debug("read chunk", "addr", fmt.Sprintf("0x%08X", at), "size", size)
		c.report("read", addr, done, n)
	}
	return out, nil
}

func (c *Client) readChunk(ctx context.Context, addr uint32, n int) ([]byte, error) {
	const op = "read memory"

	ctx, cancel := c.chunkContext(ctx)
	defer cancel()

	if err := c.expectAck(ctx, op, "command", commandFrame(CmdReadMemory)); err != nil {
		return nil, err
	}
	if err := c.expectAck(ctx, op, "address", addressBlock(addr)); err != nil {
		return nil, err
	}

	// the data follows the Ack of the length block
	resp, err := c.exchange(ctx, op, "length", readLengthBlock(n), ackThen(n))
	if err != nil {
		return nil, err
	}
	return resp[1:], nil
}

// WriteMemory writes data starting at addr, MaxChunk bytes per transaction.
func (c *Client) WriteMemory(ctx context.Context, addr uint32, data []byte) error {
	if err := checkRange(addr, len(data)); err != nil {
		return err
	}

	for done := 0; done < len(data); {
		size := len(data) - done
		if size > MaxChunk {
			size = MaxChunk
		}
		at := addr + uint32(done)

		if err := c.writeChunk(ctx, at, data[done:done+size]); err != nil {
			return err
		}
		done += size

		c.log.Debug("write chunk", "addr", fmt.Sprintf("0x%08X", at), "size", size)
		c.report("write", addr, done, len(data))
	}
	return nil
}

func (c *Client) writeChunk(ctx context.Context, addr uint32, chunk []byte) error {
	const op = "write memory"

	ctx, cancel := c.chunkContext(ctx)
	defer cancel()

	if err := c.expectAck(ctx, op, "command", commandFrame(CmdWriteMemory)); err != nil {
		return err
	}
	if err := c.expectAck(ctx, op, "address", addressBlock(addr)); err != nil {
		return err
	}
	return c.expectAck(ctx, op, "data", writeDataBlock(chunk))
}

// ErasePages erases the given flash pages with the extended erase command.
// Erasing can take a long time; ctx should allow for it.
func (c *Client) ErasePages(ctx context.Context, pages []uint16) error {
	const op = "erase"

	if len(pages) == 0 || len(pages) > 0xFFF0 {
		return fmt.Errorf("%w: page count %d out of range 1..%d", ErrInvalidArgument, len(pages), 0xFFF0)
	}

	if err := c.expectAck(ctx, op, "command", commandFrame(CmdExtendedErase)); err != nil {
		return err
	}
	if err := c.expectAck(ctx, op, "pages", eraseBlock(pages)); err != nil {
		return err
	}

	c.log.Debug("erased pages", "count", len(pages))
	return nil
}

// Go starts execution at addr. The device usually stops answering
// afterwards; that silence is not an error.
func (c *Client) Go(ctx context.Context, addr uint32) error {
	const op = "go"

	if err := c.expectAck(ctx, op, "command", commandFrame(CmdGo)); err != nil {
		return err
	}
	if err := c.expectAck(ctx, op, "address", addressBlock(addr)); err != nil {
		return err
	}

	c.log.Debug("jumped", "addr", fmt.Sprintf("0x%08X", addr))
	return nil
}

// ---- exchange helpers ----

// framedCommand sends cmd and returns the whole ack-framed response
// (Ack, N, N+1 bytes, Ack) after checking both acks.
func (c *Client) framedCommand(ctx context.Context, op string, cmd Command) ([]byte, error) {
	resp, err := c.exchange(ctx, op, "command", commandFrame(cmd), ackFramed)
	if err != nil {
		return nil, err
	}
	if resp[len(resp)-1] != Ack {
		return nil, &ResponseError{Op: op, Step: "final ack", Got: resp}
	}
	return resp, nil
}

func (c *Client) expectAck(ctx context.Context, op, step string, block []byte) error {
	_, err := c.exchange(ctx, op, step, block, ackByte)
	return err
}

// exchange sends block and checks that the response opens with Ack.
func (c *Client) exchange(ctx context.Context, op, step string, block []byte, d transceiver.Detector) ([]byte, error) {
	resp, err := c.tr.SendReceive(ctx, block, d)
	if err != nil {
		return nil, &TransportError{Op: op + ": " + step, Err: err}
	}
	if resp[0] != Ack {
		return nil, &ResponseError{Op: op, Step: step, Got: resp}
	}
	return resp, nil
}

func (c *Client) chunkContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.config.ChunkTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.config.ChunkTimeout)
}

func (c *Client) report(op string, addr uint32, done, total int) {
	if c.config.Progress != nil {
		c.config.Progress(Progress{Op: op, Address: addr, Done: done, Total: total})
	}
}

func checkRange(addr uint32, n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: length %d must be > 0", ErrInvalidArgument, n)
	}
	if uint64(addr)+uint64(n) > 1<<32 {
		return fmt.Errorf("%w: 0x%08X+%d wraps the address space", ErrInvalidArgument, addr, n)
	}
	return nil
}

// ---- detectors ----

// ackByte frames a single handshake byte.
func ackByte(buf []byte) (int, int) {
	if len(buf) < 1 {
		return 0, 0
	}
	return 0, 1
}

// ackFramed frames Ack, N, N+1 bytes, Ack. Anything but a leading Ack is
// reported immediately as a one-byte message.
func ackFramed(buf []byte) (int, int) {
	if len(buf) < 1 {
		return 0, 0
	}
	if buf[0] != Ack {
		return 0, 1
	}
	if len(buf) < 2 {
		return 0, 0
	}
	total := int(buf[1]) + 4
	if len(buf) < total {
		return 0, 0
	}
	return 0, total
}

// ackThen frames Ack followed by n bytes, reading both in one receive so
// the data cannot be dropped between the Ack and the payload.
func ackThen(n int) transceiver.Detector {
	return func(buf []byte) (int, int) {
		if len(buf) < 1 {
			return 0, 0
		}
		if buf[0] != Ack {
			return 0, 1
		}
		if len(buf) < 1+n {
			return 0, 0
		}
		return 0, 1 + n
	}
}
