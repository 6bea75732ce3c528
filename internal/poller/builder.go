// internal/poller/builder.go
package poller

import (
	"time"

	cfg "github.com/tamzrod/callresponse/internal/config"
)

// Build constructs a Poller for one unit on top of a shared client.
// The client lifecycle belongs to the caller.
func Build(u cfg.UnitConfig, client Client, timeout time.Duration) (*Poller, error) {
	reads := make([]ReadBlock, 0, len(u.Reads))
	for _, r := range u.Reads {
		reads = append(reads, ReadBlock{
			Address:  r.Address,
			Quantity: r.Quantity,
		})
	}

	writes := make([]WriteBlock, 0, len(u.Writes))
	for _, w := range u.Writes {
		writes = append(writes, WriteBlock{
			Address: w.Address,
			Values:  append([]uint16(nil), w.Values...),
		})
	}

	return New(
		Config{
			UnitID:   u.ID,
			Slave:    u.Source.UnitID,
			Interval: time.Duration(u.Poll.IntervalMs) * time.Millisecond,
			Timeout:  timeout,
			Reads:    reads,
			Writes:   writes,
		},
		client,
	)
}
