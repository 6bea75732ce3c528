// internal/writer/status_writer.go
package writer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/callresponse/internal/status"
)

// StatusWriter is the delivery-only contract for device status.
// It receives a snapshot and writes it verbatim.
// No logic, no state, no interpretation.
type StatusWriter interface {
	WriteStatus(s status.Snapshot) error
}

// deviceStatusWriter delivers one status block.
type deviceStatusWriter struct {
	plan StatusPlan
	cli  EndpointClient

	needFull bool
	last     status.Snapshot
}

// statusFanout delivers the same snapshot to every status block of a unit.
type statusFanout []*deviceStatusWriter

// NewDeviceStatusWriter builds a status writer if status is enabled for the unit.
// If plan.Status is empty, status is disabled.
func NewDeviceStatusWriter(plan Plan, clients map[string]EndpointClient) (StatusWriter, bool) {
	if len(plan.Status) == 0 {
		return nil, false
	}

	out := make(statusFanout, 0, len(plan.Status))
	for _, sp := range plan.Status {
		out = append(out, &deviceStatusWriter{
			plan:     sp,
			cli:      clients[sp.Endpoint],
			needFull: true, // full re-assert on first successful write
			last:     status.Snapshot{Health: status.HealthUnknown},
		})
	}
	return out, true
}

func (f statusFanout) WriteStatus(s status.Snapshot) error {
	var errs []error
	for _, sw := range f {
		if err := sw.WriteStatus(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteStatus delivers a device status snapshot into status memory.
// On any write failure, the next successful call will re-assert the full block.
func (sw *deviceStatusWriter) WriteStatus(s status.Snapshot) error {
	if sw.cli == nil {
		return fmt.Errorf("status writer: missing client for endpoint %s", sw.plan.Endpoint)
	}

	baseAddr := sw.baseAddr()
	unitID := sw.plan.UnitID

	// ------------------------------------------------------------
	// Full block write (identity re-assert)
	// ------------------------------------------------------------
	if sw.needFull {
		regs := status.Encode(s, sw.plan.DeviceName)

		if err := sw.cli.WriteRegisters(unitID, baseAddr, regs); err != nil {
			return fmt.Errorf("status writer: unit=%d slot=%d full block write failed: %w",
				unitID, sw.plan.BaseSlot, err)
		}

		sw.needFull = false
		sw.last = s
		return nil
	}

	var errs []string

	write := func(slot uint16, cur *uint16, v uint16, name string) {
		if *cur == v {
			return
		}
		if err := sw.cli.WriteRegisters(unitID, baseAddr+slot, []uint16{v}); err != nil {
			errs = append(errs, fmt.Sprintf("slot%d %s write failed: %v", slot, name, err))
			return
		}
		*cur = v
	}

	write(status.SlotHealthCode, &sw.last.Health, s.Health, "health")
	write(status.SlotLastErrorCode, &sw.last.LastErrorCode, s.LastErrorCode, "last_error")
	write(status.SlotSecondsInError, &sw.last.SecondsInError, s.SecondsInError, "seconds")
	write(status.SlotConsecutiveFailures, &sw.last.ConsecutiveFailures, s.ConsecutiveFailures, "failures")

	if len(errs) > 0 {
		// Any partial failure introduces doubt: re-assert on next success.
		sw.needFull = true
		return errors.New("status writer: " + strings.Join(errs, " | "))
	}

	return nil
}

func (sw *deviceStatusWriter) baseAddr() uint16 {
	// Each device owns a fixed SlotsPerDevice block.
	return sw.plan.BaseSlot * status.SlotsPerDevice
}
