// internal/rtu/crc_test.go
package rtu

import (
	"bytes"
	"testing"

	refcrc "github.com/sigurn/crc16"
)

func TestCRC16_MatchesReferenceTable(t *testing.T) {
	table := refcrc.MakeTable(refcrc.CRC16_MODBUS)

	inputs := [][]byte{
		{},
		{0x00},
		[]byte("123456789"),
		{0x01, 0x03, 0x00, 0x00, 0x00, 0x0A},
		bytes.Repeat([]byte{0xFF, 0x00, 0x5A}, 100),
	}

	for _, in := range inputs {
		if got, want := crc16(in), refcrc.Checksum(in, table); got != want {
			t.Fatalf("crc16(% x) = %04x want %04x", in, got, want)
		}
	}
}

func TestCRC16_KnownVector(t *testing.T) {
	if got := crc16([]byte("123456789")); got != 0x4B37 {
		t.Fatalf("check value %04x want 4b37", got)
	}

	frame := appendCRC([]byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x0A})
	want := []byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x0A, 0xC5, 0xCD}
	if !bytes.Equal(frame, want) {
		t.Fatalf("frame % x want % x", frame, want)
	}
}

func TestCRC16_SelfCheck(t *testing.T) {
	for n := 1; n < 64; n++ {
		p := make([]byte, n)
		for i := range p {
			p[i] = byte(i*31 + n)
		}
		frame := appendCRC(p)
		if !checkCRC(frame) {
			t.Fatalf("len %d: residue check failed for % x", n, frame)
		}
		frame[0] ^= 0x01
		if checkCRC(frame) {
			t.Fatalf("len %d: corrupted frame passed", n)
		}
	}
}

func TestCheckCRC_RegisterReadReply(t *testing.T) {
	// unit 4, function 3, one register 0x002A
	frame := []byte{0x04, 0x03, 0x02, 0x00, 0x2A, 0xF5, 0x9B}
	if !checkCRC(frame) {
		t.Fatalf("valid reply % x rejected", frame)
	}
	if got := appendCRC(frame[:5:5]); !bytes.Equal(got, frame) {
		t.Fatalf("appendCRC = % x want % x", got, frame)
	}
}

func TestSwapWords(t *testing.T) {
	got := swapWords([]byte{0x00, 0x2A, 0x12, 0x34, 0x99})
	want := []byte{0x2A, 0x00, 0x34, 0x12, 0x99}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % x want % x", got, want)
	}
}
