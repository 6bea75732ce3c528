// internal/rtu/crc.go
package rtu

// crc16 computes the Modbus CRC (reflected polynomial 0xA001, seed 0xFFFF)
// bit by bit.
func crc16(p []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range p {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&1 != 0 {
				crc = crc>>1 ^ 0xA001
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}

// appendCRC appends the CRC of p, low byte first.
func appendCRC(p []byte) []byte {
	crc := crc16(p)
	return append(p, byte(crc), byte(crc>>8))
}

// checkCRC reports whether the trailing two bytes of frame are its CRC.
// Running the CRC over a frame that includes its own CRC leaves a zero residue.
func checkCRC(frame []byte) bool {
	if len(frame) < 3 {
		return false
	}
	return crc16(frame) == 0
}

// swapWords returns a copy of p with the two bytes of every 16-bit word
// exchanged. Words keep their order. A trailing odd byte is copied as is.
func swapWords(p []byte) []byte {
	out := make([]byte, len(p))
	copy(out, p)
	for i := 0; i+1 < len(out); i += 2 {
		out[i], out[i+1] = out[i+1], out[i]
	}
	return out
}
