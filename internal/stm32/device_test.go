// internal/stm32/device_test.go
package stm32

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/tamzrod/callresponse/internal/transceiver"
)

// fakeBootloader is a scripted bootloader answering on a pull-style link.
type fakeBootloader struct {
	open    bool
	pending []byte

	mem      map[uint32]byte
	commands []byte
	state    string
	addr     uint32

	reads  []chunkCall
	writes []chunkCall
	erased []uint16
	jumped []uint32
	sent   [][]byte

	// nackStep forces a Nack in the named state.
	nackStep string
}

type chunkCall struct {
	addr uint32
	n    int
}

func newFakeBootloader() *fakeBootloader {
	return &fakeBootloader{
		mem:      make(map[uint32]byte),
		commands: []byte{0x00, 0x01, 0x02, 0x11, 0x21, 0x31, 0x44, 0x63, 0x73, 0x82, 0x92},
		state:    "idle",
	}
}

func (d *fakeBootloader) Open(ctx context.Context) error  { d.open = true; return nil }
func (d *fakeBootloader) Close(ctx context.Context) error { d.open = false; return nil }
func (d *fakeBootloader) IsOpen() bool                    { return d.open }

func (d *fakeBootloader) Read(p []byte) (int, error) {
	n := copy(p, d.pending)
	d.pending = d.pending[n:]
	return n, nil
}

func (d *fakeBootloader) reply(b ...byte) { d.pending = append(d.pending, b...) }

func (d *fakeBootloader) Send(ctx context.Context, p []byte) error {
	d.sent = append(d.sent, append([]byte(nil), p...))

	if d.nackStep != "" && d.nackStep == d.state {
		d.state = "idle"
		d.reply(Nack)
		return nil
	}

	switch d.state {
	case "idle":
		d.command(p)

	case "read addr", "write addr", "go addr":
		if len(p) != 5 || xorFold(p[:4]) != p[4] {
			d.state = "idle"
			d.reply(Nack)
			return nil
		}
		d.addr = binary.BigEndian.Uint32(p)
		d.reply(Ack)
		switch d.state {
		case "read addr":
			d.state = "read len"
		case "write addr":
			d.state = "write data"
		default:
			d.jumped = append(d.jumped, d.addr)
			d.state = "gone"
		}

	case "read len":
		d.state = "idle"
		if len(p) != 2 || p[1] != ^p[0] {
			d.reply(Nack)
			return nil
		}
		n := int(p[0]) + 1
		d.reads = append(d.reads, chunkCall{d.addr, n})
		d.reply(Ack)
		for i := 0; i < n; i++ {
			d.reply(d.mem[d.addr+uint32(i)])
		}

	case "write data":
		d.state = "idle"
		n := int(p[0]) + 1
		if len(p) != n+2 || p[n+1] != writeChecksum(p[0], p[1:n+1]) {
			d.reply(Nack)
			return nil
		}
		for i, b := range p[1 : n+1] {
			d.mem[d.addr+uint32(i)] = b
		}
		d.writes = append(d.writes, chunkCall{d.addr, n})
		d.reply(Ack)

	case "erase":
		d.state = "idle"
		if xorFold(p[:len(p)-1]) != p[len(p)-1] {
			d.reply(Nack)
			return nil
		}
		count := int(binary.BigEndian.Uint16(p)) + 1
		for i := 0; i < count; i++ {
			d.erased = append(d.erased, binary.BigEndian.Uint16(p[2+2*i:]))
		}
		d.reply(Ack)

	case "gone":
		// running application code; no answer
	}
	return nil
}

func (d *fakeBootloader) command(p []byte) {
	if len(p) == 1 && p[0] == Sync {
		d.reply(Ack)
		return
	}
	if len(p) != 2 || p[1] != p[0]^0xFF {
		d.reply(Nack)
		return
	}
	switch Command(p[0]) {
	case CmdGet:
		d.reply(Ack, byte(len(d.commands)), 0x31)
		d.reply(d.commands...)
		d.reply(Ack)
	case CmdGetVersion:
		d.reply(Ack, 0x31, 0x00, 0x00, Ack)
	case CmdGetID:
		d.reply(Ack, 0x01, 0x04, 0x10, Ack)
	case CmdReadMemory:
		d.state = "read addr"
		d.reply(Ack)
	case CmdWriteMemory:
		d.state = "write addr"
		d.reply(Ack)
	case CmdExtendedErase:
		d.state = "erase"
		d.reply(Ack)
	case CmdGo:
		d.state = "go addr"
		d.reply(Ack)
	default:
		d.reply(Nack)
	}
}

func newTestClient(t *testing.T, d *fakeBootloader, opts ...Option) *Client {
	t.Helper()
	c := New(transceiver.New(d), opts...)
	if err := c.Open(context.Background()); err != nil {
		t.Fatalf("Open err=%v", err)
	}
	return c
}
