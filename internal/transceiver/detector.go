// internal/transceiver/detector.go
package transceiver

import "bytes"

// Detector inspects the bytes accumulated so far and reports where a
// complete message lies.
//
// length <= 0 means no boundary yet. Otherwise buf[offset:offset+length]
// is the message. Detectors must be pure: they are re-run against the
// whole buffer every time new bytes arrive.
type Detector func(buf []byte) (offset, length int)

// Exactly reports the first n bytes once n bytes are buffered.
func Exactly(n int) Detector {
	return func(buf []byte) (int, int) {
		if n <= 0 || len(buf) < n {
			return 0, 0
		}
		return 0, n
	}
}

// Terminator reports the bytes before the first occurrence of term.
// The terminator itself is not part of the message.
//
// Leading terminators carry no payload and are skipped.
func Terminator(term byte) Detector {
	return func(buf []byte) (int, int) {
		start := 0
		for start < len(buf) && buf[start] == term {
			start++
		}
		idx := bytes.IndexByte(buf[start:], term)
		if idx < 0 {
			return 0, 0
		}
		return start, idx
	}
}

// Pattern reports the bytes before the first occurrence of the multi-byte
// pattern. Leading occurrences of the pattern are skipped.
func Pattern(pattern []byte) Detector {
	return func(buf []byte) (int, int) {
		if len(pattern) == 0 {
			return 0, 0
		}
		start := 0
		for bytes.HasPrefix(buf[start:], pattern) {
			start += len(pattern)
		}
		idx := bytes.Index(buf[start:], pattern)
		if idx < 0 {
			return 0, 0
		}
		return start, idx
	}
}

// HeaderFooter reports the bytes strictly between header and the first
// footer that follows the end of header. A footer seen before any header
// never matches. An empty body is skipped and the search continues after
// its footer.
func HeaderFooter(header, footer []byte) Detector {
	return func(buf []byte) (int, int) {
		if len(header) == 0 || len(footer) == 0 {
			return 0, 0
		}
		from := 0
		for from < len(buf) {
			h := bytes.Index(buf[from:], header)
			if h < 0 {
				return 0, 0
			}
			start := from + h + len(header)
			f := bytes.Index(buf[start:], footer)
			if f < 0 {
				return 0, 0
			}
			if f > 0 {
				return start, f
			}
			from = start + len(footer)
		}
		return 0, 0
	}
}

// Match reports the first occurrence of match itself, anywhere in the buffer.
// The matched bytes are the message.
func Match(match []byte) Detector {
	return func(buf []byte) (int, int) {
		if len(match) == 0 {
			return 0, 0
		}
		idx := bytes.Index(buf, match)
		if idx < 0 {
			return 0, 0
		}
		return idx, len(match)
	}
}
