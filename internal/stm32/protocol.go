// internal/stm32/protocol.go
package stm32

import (
	"encoding/binary"
	"fmt"
)

// Handshake bytes.
const (
	Ack  byte = 0x79
	Nack byte = 0x1F
	Sync byte = 0x7F
)

// MaxChunk is the largest memory read or write in one transaction.
const MaxChunk = 256

// Command is a bootloader command code.
type Command byte

const (
	CmdGet              Command = 0x00
	CmdGetVersion       Command = 0x01
	CmdGetID            Command = 0x02
	CmdReadMemory       Command = 0x11
	CmdGo               Command = 0x21
	CmdWriteMemory      Command = 0x31
	CmdErase            Command = 0x43
	CmdExtendedErase    Command = 0x44
	CmdSpecial          Command = 0x50
	CmdExtendedSpecial  Command = 0x51
	CmdWriteProtect     Command = 0x63
	CmdWriteUnprotect   Command = 0x73
	CmdReadoutProtect   Command = 0x82
	CmdReadoutUnprotect Command = 0x92
	CmdGetChecksum      Command = 0xA1
)

var commandNames = map[Command]string{
	CmdGet:              "Get",
	CmdGetVersion:       "GetVersion",
	CmdGetID:            "GetID",
	CmdReadMemory:       "ReadMemory",
	CmdGo:               "Go",
	CmdWriteMemory:      "WriteMemory",
	CmdErase:            "Erase",
	CmdExtendedErase:    "ExtendedErase",
	CmdSpecial:          "Special",
	CmdExtendedSpecial:  "ExtendedSpecial",
	CmdWriteProtect:     "WriteProtect",
	CmdWriteUnprotect:   "WriteUnprotect",
	CmdReadoutProtect:   "ReadoutProtect",
	CmdReadoutUnprotect: "ReadoutUnprotect",
	CmdGetChecksum:      "GetChecksum",
}

// Known reports whether c is a command this client recognizes.
func (c Command) Known() bool {
	_, ok := commandNames[c]
	return ok
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Command(0x%02X)", byte(c))
}

// ---- frame builders ----

// commandFrame is the command byte followed by its complement.
func commandFrame(c Command) []byte {
	return []byte{byte(c), byte(c) ^ 0xFF}
}

// xorFold XORs every byte of p together.
func xorFold(p []byte) byte {
	var x byte
	for _, b := range p {
		x ^= b
	}
	return x
}

// addressBlock is the 4-byte big-endian address followed by its XOR checksum.
func addressBlock(addr uint32) []byte {
	b := make([]byte, 5)
	binary.BigEndian.PutUint32(b, addr)
	b[4] = xorFold(b[:4])
	return b
}

// readLengthBlock is (n-1) followed by its complement.
func readLengthBlock(n int) []byte {
	l := byte(n - 1)
	return []byte{l, ^l}
}

// writeChecksum is NOT(XOR of the data XOR the length byte).
func writeChecksum(lengthByte byte, data []byte) byte {
	return ^(xorFold(data) ^ lengthByte)
}

// writeDataBlock is (n-1), the data, then writeChecksum.
func writeDataBlock(data []byte) []byte {
	l := byte(len(data) - 1)
	b := make([]byte, 0, len(data)+2)
	b = append(b, l)
	b = append(b, data...)
	return append(b, writeChecksum(l, data))
}

// eraseBlock is (count-1) and every page as big-endian 16-bit values,
// closed by the plain XOR of all preceding bytes.
// This follows the extended-erase convention devices accept: the count
// goes on the wire decremented and the checksum is not complemented.
func eraseBlock(pages []uint16) []byte {
	b := make([]byte, 2+2*len(pages), 3+2*len(pages))
	binary.BigEndian.PutUint16(b, uint16(len(pages)-1))
	for i, p := range pages {
		binary.BigEndian.PutUint16(b[2+2*i:], p)
	}
	return append(b, xorFold(b))
}
