// internal/status/tracker.go
package status

// Tracker owns the status state of one device.
// It turns poll outcomes and 1 Hz ticks into snapshots; delivery is the
// caller's job. Not safe for concurrent use.
type Tracker struct {
	snap Snapshot
}

// NewTracker starts in the boot state (HealthUnknown, no error).
func NewTracker() *Tracker {
	return &Tracker{snap: Snapshot{Health: HealthUnknown}}
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() Snapshot { return t.snap }

// Observe records one poll outcome. changed reports whether the snapshot
// differs from the previous one.
func (t *Tracker) Observe(err error) (s Snapshot, changed bool) {
	prev := t.snap

	if err == nil {
		t.snap = Snapshot{Health: HealthOK}
	} else {
		// seconds_in_error advances on Tick only.
		t.snap.Health = HealthError
		t.snap.LastErrorCode = ErrorCode(err)
		if t.snap.ConsecutiveFailures < 0xFFFF {
			t.snap.ConsecutiveFailures++
		}
	}

	return t.snap, t.snap != prev
}

// Tick advances seconds_in_error while the device is not OK.
// The counter saturates at 65535 and never wraps.
func (t *Tracker) Tick() (s Snapshot, changed bool) {
	if t.snap.Health == HealthOK || t.snap.SecondsInError == 0xFFFF {
		return t.snap, false
	}
	t.snap.SecondsInError++
	return t.snap, true
}
