// internal/writer/writer.go
package writer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/callresponse/internal/poller"
)

// EndpointClient is the exact contract the writer uses.
// Registers are host-order values; the client owns the wire encoding.
type EndpointClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}

type writerImpl struct {
	plan    Plan
	clients map[string]EndpointClient
}

func New(plan Plan, clients map[string]EndpointClient) Writer {
	return &writerImpl{
		plan:    plan,
		clients: clients,
	}
}

// Write mirrors every block of a successful poll into every memory of
// every target. A failed poll writes nothing; status carries the failure.
func (w *writerImpl) Write(res poller.PollResult) error {
	if res.Err != nil {
		return nil
	}

	var errs []string

	for _, tgt := range w.plan.Targets {
		cli := w.clients[tgt.Endpoint]
		if cli == nil {
			errs = append(errs, fmt.Sprintf(
				"writer: missing client for endpoint %s",
				tgt.Endpoint,
			))
			continue
		}

		for _, mem := range tgt.Memories {
			for _, b := range res.Blocks {
				dst := uint32(mem.Offset) + uint32(b.Address)
				if dst+uint32(len(b.Registers)) > 0x10000 {
					errs = append(errs, fmt.Sprintf(
						"writer: ep=%s unit=%d mem=%d addr=%d exceeds register space",
						tgt.Endpoint, tgt.UnitID, mem.MemoryID, dst,
					))
					continue
				}

				if err := cli.WriteRegisters(tgt.UnitID, uint16(dst), b.Registers); err != nil {
					errs = append(errs, fmt.Sprintf(
						"writer: ep=%s unit=%d mem=%d addr=%d err=%v",
						tgt.Endpoint, tgt.UnitID, mem.MemoryID, dst, err,
					))
				}
			}
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, " | "))
	}

	return nil
}
