// internal/poller/shared.go
package poller

import (
	"context"
	"sync"
)

// Shared serializes every request of several pollers onto one client.
// The link underneath is half-duplex: one exchange at a time.
type Shared struct {
	mu     sync.Mutex
	client Client
}

func NewShared(c Client) *Shared {
	return &Shared{client: c}
}

func (s *Shared) ReadHoldingRegisterValues(ctx context.Context, unit byte, addr, count uint16) ([]uint16, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client.ReadHoldingRegisterValues(ctx, unit, addr, count)
}

func (s *Shared) WriteRegisterValues(ctx context.Context, unit byte, addr uint16, regs []uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client.WriteRegisterValues(ctx, unit, addr, regs)
}
