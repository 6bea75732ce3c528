// internal/status/snapshot.go
package status

// Snapshot is one device's status as it appears in its status block.
// Encode and the status writer read it; only Tracker produces it.
type Snapshot struct {
	Health         uint16
	LastErrorCode  uint16
	SecondsInError uint16

	// Failed polls since the last good one, saturating at 65535.
	ConsecutiveFailures uint16
}
