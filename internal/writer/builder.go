// internal/writer/builder.go
package writer

import (
	"errors"
	"time"

	cfg "github.com/tamzrod/callresponse/internal/config"
	wmodbus "github.com/tamzrod/callresponse/internal/writer/modbus"
)

// BuildPlan converts one unit config into a Writer Plan.
// Assumes config has already passed conflict validation.
func BuildPlan(u cfg.UnitConfig, statusEndpoint string) (Plan, error) {
	if u.ID == "" {
		return Plan{}, errors.New("writer: unit.id required")
	}

	plan := Plan{UnitID: u.ID}

	for _, t := range u.Targets {
		ep := TargetEndpoint{
			TargetID: t.ID,
			Endpoint: t.Endpoint,
			UnitID:   t.UnitID,
		}

		for _, m := range t.Memories {
			ep.Memories = append(ep.Memories, MemoryDest{
				MemoryID: m.MemoryID,
				Offset:   m.Offset,
			})
		}

		plan.Targets = append(plan.Targets, ep)

		if u.Source.StatusSlot != nil && t.StatusUnitID != nil {
			plan.Status = append(plan.Status, StatusPlan{
				Endpoint:   statusEndpoint,
				UnitID:     *t.StatusUnitID,
				BaseSlot:   *u.Source.StatusSlot,
				DeviceName: u.Source.DeviceName,
			})
		}
	}

	return plan, nil
}

// dialer is replaced in tests.
var dialer = func(c wmodbus.Config) (EndpointClient, func() error, error) {
	cli, err := wmodbus.NewEndpointClient(c)
	if err != nil {
		return nil, nil, err
	}
	return cli, cli.Close, nil
}

// BuildEndpointClients creates one TCP client per unique endpoint,
// the status endpoint included when any target carries status.
// An endpoint shared by several targets uses the longest timeout.
func BuildEndpointClients(u cfg.UnitConfig, statusEndpoint string) (map[string]EndpointClient, func() error, error) {
	timeouts := map[string]int{}
	add := func(endpoint string, ms int) {
		if cur, ok := timeouts[endpoint]; !ok || ms > cur {
			timeouts[endpoint] = ms
		}
	}

	for _, t := range u.Targets {
		add(t.Endpoint, t.TimeoutMs)
		if u.Source.StatusSlot != nil && t.StatusUnitID != nil {
			add(statusEndpoint, t.TimeoutMs)
		}
	}

	clients := make(map[string]EndpointClient)
	var closers []func() error

	for endpoint, ms := range timeouts {
		c, closeFn, err := dialer(wmodbus.Config{
			Endpoint: endpoint,
			Timeout:  time.Duration(ms) * time.Millisecond,
		})
		if err != nil {
			for _, fn := range closers {
				_ = fn()
			}
			return nil, nil, err
		}
		clients[endpoint] = c
		closers = append(closers, closeFn)
	}

	closeAll := func() error {
		var last error
		for _, fn := range closers {
			if err := fn(); err != nil {
				last = err
			}
		}
		return last
	}

	return clients, closeAll, nil
}
