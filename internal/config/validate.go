// internal/config/validate.go
package config

import (
	"fmt"
	"strings"
)

// Register limits of one RTU request.
const (
	maxReadQuantity  = 125
	maxWriteQuantity = 123
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if err := validateLink(cfg.Link); err != nil {
		return err
	}

	if cfg.Bootloader.IDOffset != nil && *cfg.Bootloader.IDOffset < 0 {
		return fmt.Errorf("bootloader: id_offset must be >= 0")
	}
	if cfg.Bootloader.EraseTimeoutMs < 0 {
		return fmt.Errorf("bootloader: erase_timeout_ms must be >= 0")
	}
	if cfg.Bootloader.ChunkTimeoutMs < 0 {
		return fmt.Errorf("bootloader: chunk_timeout_ms must be >= 0")
	}

	// ------------------------------------------------------------
	// UNIT GEOMETRY VALIDATION
	// ------------------------------------------------------------

	seen := make(map[string]bool)

	for _, u := range cfg.Units {
		if u.ID == "" {
			return fmt.Errorf("unit: id is required")
		}
		if seen[u.ID] {
			return fmt.Errorf("unit %q: duplicate id", u.ID)
		}
		seen[u.ID] = true

		if u.Source.UnitID == 0 || u.Source.UnitID > 247 {
			return fmt.Errorf("unit %q: source unit_id %d out of range 1..247", u.ID, u.Source.UnitID)
		}
		if u.Poll.IntervalMs < 0 {
			return fmt.Errorf("unit %q: poll interval_ms must be >= 0", u.ID)
		}
		if len(u.Reads) == 0 {
			return fmt.Errorf("unit %q: at least one read block is required", u.ID)
		}

		for _, r := range u.Reads {
			if r.Quantity == 0 || r.Quantity > maxReadQuantity {
				return fmt.Errorf("unit %q: read at %d: quantity %d out of range 1..%d",
					u.ID, r.Address, r.Quantity, maxReadQuantity)
			}
			if int(r.Address)+int(r.Quantity) > 0x10000 {
				return fmt.Errorf("unit %q: read at %d: block exceeds register space", u.ID, r.Address)
			}
		}

		for _, w := range u.Writes {
			if len(w.Values) == 0 || len(w.Values) > maxWriteQuantity {
				return fmt.Errorf("unit %q: write at %d: %d values out of range 1..%d",
					u.ID, w.Address, len(w.Values), maxWriteQuantity)
			}
		}

		for _, t := range u.Targets {
			if t.Endpoint == "" {
				return fmt.Errorf("unit %q: target %d: endpoint is required", u.ID, t.ID)
			}
			if t.TimeoutMs < 0 {
				return fmt.Errorf("unit %q: target %s: timeout_ms must be >= 0", u.ID, t.Endpoint)
			}
		}
	}

	type span struct {
		start uint32
		end   uint32
		unit  string
	}

	// ------------------------------------------------------------
	// DEVICE STATUS BLOCK VALIDATION (PER-TARGET, OPT-IN)
	// ------------------------------------------------------------

	// key = endpoint | status_unit_id | status_slot
	statusOwner := make(map[string]string)

	for _, u := range cfg.Units {
		// device_name sanity (ASCII only)
		if u.Source.DeviceName != "" {
			for i := 0; i < len(u.Source.DeviceName); i++ {
				if u.Source.DeviceName[i] > 0x7F {
					return fmt.Errorf(
						"unit %q: device_name must contain ASCII characters only",
						u.ID,
					)
				}
			}
		}

		// status is opt-in
		if u.Source.StatusSlot == nil {
			continue
		}

		if cfg.StatusMemory.Endpoint == "" {
			return fmt.Errorf(
				"unit %q: status_slot is set but status_memory.endpoint is empty",
				u.ID,
			)
		}

		// status requires at least one target
		if len(u.Targets) == 0 {
			return fmt.Errorf(
				"unit %q: status_slot is set but no targets are defined",
				u.ID,
			)
		}

		slot := *u.Source.StatusSlot

		for _, t := range u.Targets {
			// each target must declare status_unit_id
			if t.StatusUnitID == nil {
				return fmt.Errorf(
					"unit %q: status_slot is set but target %q has no status_unit_id",
					u.ID,
					t.Endpoint,
				)
			}

			key := fmt.Sprintf(
				"%s|%d|%d",
				cfg.StatusMemory.Endpoint,
				*t.StatusUnitID,
				slot,
			)

			if prev, exists := statusOwner[key]; exists {
				return fmt.Errorf(
					"status_slot collision: endpoint=%s status_unit_id=%d slot=%d used by units %q and %q",
					cfg.StatusMemory.Endpoint,
					*t.StatusUnitID,
					slot,
					prev,
					u.ID,
				)
			}

			statusOwner[key] = u.ID
		}
	}

	// ------------------------------------------------------------
	// DESTINATION MEMORY GEOMETRY VALIDATION
	// ------------------------------------------------------------

	// key = endpoint | unit_id | memory_id
	spans := make(map[string][]span)

	for _, u := range cfg.Units {
		for _, t := range u.Targets {
			for _, m := range t.Memories {
				for _, r := range u.Reads {
					start := uint32(m.Offset) + uint32(r.Address)
					end := start + uint32(r.Quantity) - 1

					if end > 0xFFFF {
						return fmt.Errorf(
							"memory range: endpoint=%s memory_id=%d range=%d-%d exceeds register space (unit=%s)",
							t.Endpoint, m.MemoryID, start, end, u.ID,
						)
					}

					key := fmt.Sprintf("%s|%d|%d", t.Endpoint, t.UnitID, m.MemoryID)

					for _, s := range spans[key] {
						// overlap check (inclusive)
						if !(end < s.start || start > s.end) {
							return fmt.Errorf(
								"memory overlap: endpoint=%s memory_id=%d range=%d-%d overlaps with unit=%s range=%d-%d",
								t.Endpoint,
								m.MemoryID,
								start,
								end,
								s.unit,
								s.start,
								s.end,
							)
						}
					}

					spans[key] = append(spans[key], span{
						start: start,
						end:   end,
						unit:  u.ID,
					})
				}
			}
		}
	}

	return nil
}

func validateLink(l LinkConfig) error {
	if l.MaxBuffer != 0 && l.MaxBuffer < MinMaxBuffer {
		return fmt.Errorf("link: max_buffer %d must be >= %d", l.MaxBuffer, MinMaxBuffer)
	}
	if l.RequestTimeoutMs < 0 {
		return fmt.Errorf("link: request_timeout_ms must be >= 0")
	}

	switch l.Kind {
	case LinkSerial:
		if l.Serial.Address == "" {
			return fmt.Errorf("link: serial.address is required")
		}
		if err := validateCharFormat("serial", l.Serial.DataBits, l.Serial.StopBits, l.Serial.Parity); err != nil {
			return err
		}

	case LinkUSB:
		if l.USB.VID == "" || l.USB.PID == "" {
			return fmt.Errorf("link: usb.vid and usb.pid are required")
		}
		if err := validateCharFormat("usb", l.USB.DataBits, l.USB.StopBits, l.USB.Parity); err != nil {
			return err
		}

	case LinkBLE:
		if l.BLE.QueueDepth < 0 || l.BLE.MaxWrite < 0 || l.BLE.SettleMs < 0 {
			return fmt.Errorf("link: ble queue_depth, max_write and settle_ms must be >= 0")
		}

	case "":
		return fmt.Errorf("link: kind is required")

	default:
		return fmt.Errorf("link: unknown kind %q", l.Kind)
	}

	return nil
}

// MinMaxBuffer is the smallest receive bound that holds the largest reply
// of either protocol: Ack + 256 data bytes for a bootloader read
// (a 125-register RTU read reply is 255 bytes).
const MinMaxBuffer = 257

// validateCharFormat checks UART character framing; zero values mean default.
func validateCharFormat(kind string, dataBits, stopBits int, parity string) error {
	switch strings.ToUpper(parity) {
	case "", "N", "E", "O":
	default:
		return fmt.Errorf("link: %s.parity %q must be N, E or O", kind, parity)
	}
	if stopBits != 0 && stopBits != 1 && stopBits != 2 {
		return fmt.Errorf("link: %s.stop_bits must be 1 or 2", kind)
	}
	if dataBits != 0 && (dataBits < 5 || dataBits > 8) {
		return fmt.Errorf("link: %s.data_bits must be 5..8", kind)
	}
	return nil
}
