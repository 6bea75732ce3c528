// internal/status/constants.go
package status

// Status block layout. Consumers read these addresses directly, so the
// numbers are fixed and never come from configuration.
//
//	slot  0      health
//	slot  1      last error code
//	slot  2      seconds in error
//	slot  3      consecutive failed polls
//	slots 4..10  zero
//	slots 11..18 device name, two ASCII chars per register
//	slot  19     zero
const SlotsPerDevice = 20

const (
	SlotHealthCode          = 0
	SlotLastErrorCode       = 1
	SlotSecondsInError      = 2
	SlotConsecutiveFailures = 3
)

// Written as zero on every full block write.
const (
	SlotReservedStart = 4
	SlotReservedEnd   = 10
)

const (
	SlotDeviceNameStart = 11
	SlotDeviceNameSlots = 8
	SlotDeviceNameEnd   = SlotDeviceNameStart + SlotDeviceNameSlots - 1

	// Longer names are cut, never rejected at encode time.
	DeviceNameMaxChars = 2 * SlotDeviceNameSlots
)

// Health values for SlotHealthCode. Stale and Disabled are part of the
// layout for consumers; the tracker itself only moves between Unknown,
// OK and Error.
const (
	HealthUnknown  uint16 = 0
	HealthOK       uint16 = 1
	HealthError    uint16 = 2
	HealthStale    uint16 = 3
	HealthDisabled uint16 = 4
)

// Values for SlotLastErrorCode. Anything below 0x0100 is the exception
// code the device answered with; 0x01xx marks a failure on our side of
// the link.
const (
	CodeCancelled    uint16 = 0x0100
	CodeNotConnected uint16 = 0x0101
	CodeOverflow     uint16 = 0x0102
	CodeFraming      uint16 = 0x0103
	CodeCRC          uint16 = 0x0104
	CodeTransport    uint16 = 0x0105
	CodeGeneric      uint16 = 0x01FF
)
