// internal/writer/types.go
package writer

import "github.com/tamzrod/callresponse/internal/poller"

// MemoryDest is one memory destination inside an endpoint.
type MemoryDest struct {
	MemoryID uint16
	Offset   uint16 // added to every source address
}

// TargetEndpoint is one target endpoint (TCP) with one or more memory destinations.
type TargetEndpoint struct {
	TargetID uint32
	Endpoint string
	UnitID   uint8
	Memories []MemoryDest
}

// StatusPlan places one device status block inside status memory.
type StatusPlan struct {
	Endpoint   string
	UnitID     uint8
	BaseSlot   uint16
	DeviceName string
}

// Plan is the fully-built write plan for one unit.
type Plan struct {
	UnitID  string
	Targets []TargetEndpoint

	// Status is empty when the unit has no status_slot.
	Status []StatusPlan
}

// Writer writes poll snapshots into targets.
type Writer interface {
	Write(res poller.PollResult) error
}
