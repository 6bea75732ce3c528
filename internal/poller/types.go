// internal/poller/types.go
package poller

import "time"

// ReadBlock describes one holding register read.
// Geometry only: no semantics.
type ReadBlock struct {
	Address  uint16
	Quantity uint16
}

// WriteBlock is a register block written once by Init.
type WriteBlock struct {
	Address uint16
	Values  []uint16
}

// BlockResult is the raw result of a single read.
type BlockResult struct {
	Address   uint16
	Quantity  uint16
	Registers []uint16
}

// PollResult is a snapshot produced by one poll cycle.
type PollResult struct {
	UnitID string
	At     time.Time

	Blocks []BlockResult
	Err    error // non-nil means the poll cycle failed
}
