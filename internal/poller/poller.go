// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Client abstracts the register operations the poller needs.
// The poller depends on geometry only.
type Client interface {
	ReadHoldingRegisterValues(ctx context.Context, unit byte, addr, count uint16) ([]uint16, error)
	WriteRegisterValues(ctx context.Context, unit byte, addr uint16, regs []uint16) error
}

// Config is the minimal runtime config the poller needs.
type Config struct {
	UnitID   string
	Slave    byte
	Interval time.Duration

	// Timeout bounds each request/response exchange.
	Timeout time.Duration

	Reads  []ReadBlock
	Writes []WriteBlock
}

// Poller is a dumb, clock-driven reader.
type Poller struct {
	cfg    Config
	client Client
}

// New creates a poller with immutable config.
func New(cfg Config, client Client) (*Poller, error) {
	if cfg.UnitID == "" {
		return nil, errors.New("poller: unit id required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if cfg.Timeout <= 0 {
		return nil, errors.New("poller: timeout must be > 0")
	}
	if len(cfg.Reads) == 0 {
		return nil, errors.New("poller: at least one read block required")
	}
	if client == nil {
		return nil, errors.New("poller: client required")
	}
	return &Poller{cfg: cfg, client: client}, nil
}

// Init performs the configured one-shot writes in order.
// It stops at the first failure.
func (p *Poller) Init(ctx context.Context) error {
	for _, wb := range p.cfg.Writes {
		reqCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
		err := p.client.WriteRegisterValues(reqCtx, p.cfg.Slave, wb.Address, wb.Values)
		cancel()
		if err != nil {
			return fmt.Errorf("poller: unit %s: write at %d: %w", p.cfg.UnitID, wb.Address, err)
		}
	}
	return nil
}

// PollOnce performs exactly one poll cycle.
// All-or-nothing: any failure aborts the cycle.
func (p *Poller) PollOnce(ctx context.Context) PollResult {
	res := PollResult{
		UnitID: p.cfg.UnitID,
		At:     time.Now(),
	}

	blocks := make([]BlockResult, 0, len(p.cfg.Reads))

	for _, rb := range p.cfg.Reads {
		reqCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
		regs, err := p.client.ReadHoldingRegisterValues(reqCtx, p.cfg.Slave, rb.Address, rb.Quantity)
		cancel()
		if err != nil {
			res.Err = err
			return res
		}
		blocks = append(blocks, BlockResult{
			Address: rb.Address, Quantity: rb.Quantity, Registers: regs,
		})
	}

	// Commit only if all reads succeeded
	res.Blocks = blocks
	return res
}
