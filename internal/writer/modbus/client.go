// internal/writer/modbus/client.go
package modbus

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// maxRegistersPerWrite is the function 0x10 quantity limit.
const maxRegistersPerWrite = 123

// EndpointClient is a single TCP connection to one memory endpoint.
// It serializes requests because it mutates SlaveId per write.
type EndpointClient struct {
	mu      sync.Mutex
	handler *modbus.TCPClientHandler
	client  modbus.Client
}

type Config struct {
	Endpoint string
	Timeout  time.Duration
}

func NewEndpointClient(cfg Config) (*EndpointClient, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("writer modbus: endpoint required")
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout
	// Reconnects lazily on the next write after an idle close.
	h.IdleTimeout = time.Minute

	if err := h.Connect(); err != nil {
		return nil, fmt.Errorf("writer modbus: connect %s: %w", cfg.Endpoint, err)
	}

	return &EndpointClient{
		handler: h,
		client:  modbus.NewClient(h),
	}, nil
}

func (c *EndpointClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler.Close()
}

// WriteRegisters writes regs starting at addr, split into requests the
// protocol allows.
func (c *EndpointClient) WriteRegisters(unitID uint8, addr uint16, regs []uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.handler.SlaveId = unitID

	for _, ch := range chunkRegisters(addr, regs) {
		if _, err := c.client.WriteMultipleRegisters(ch.addr, uint16(len(ch.regs)), packRegisters(ch.regs)); err != nil {
			return err
		}
	}
	return nil
}

type chunk struct {
	addr uint16
	regs []uint16
}

func chunkRegisters(addr uint16, regs []uint16) []chunk {
	var out []chunk
	for len(regs) > 0 {
		n := len(regs)
		if n > maxRegistersPerWrite {
			n = maxRegistersPerWrite
		}
		out = append(out, chunk{addr: addr, regs: regs[:n]})
		addr += uint16(n)
		regs = regs[n:]
	}
	return out
}

func packRegisters(regs []uint16) []byte {
	out := make([]byte, len(regs)*2)
	for i, r := range regs {
		out[2*i] = byte(r >> 8)
		out[2*i+1] = byte(r)
	}
	return out
}
