// cmd/regpoll/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tamzrod/callresponse/internal/config"
	"github.com/tamzrod/callresponse/internal/link"
	"github.com/tamzrod/callresponse/internal/poller"
	"github.com/tamzrod/callresponse/internal/rtu"
	"github.com/tamzrod/callresponse/internal/status"
	"github.com/tamzrod/callresponse/internal/writer"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: regpoll <config.yaml>")
	}

	cfgPath := os.Args[1]

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}
	config.Normalize(cfg)

	if len(cfg.Units) == 0 {
		log.Fatal("config has no units")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --------------------
	// Source link (one, half-duplex)
	// --------------------

	logger := link.Logger(cfg.Link, os.Stderr)

	tr, err := link.Build(cfg.Link, logger)
	if err != nil {
		log.Fatalf("link build failed: %v", err)
	}

	source := rtu.New(tr, rtu.WithLogger(logger))

	openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = source.Open(openCtx)
	cancel()
	if err != nil {
		log.Fatalf("link open failed: %v", err)
	}
	defer source.Close(context.Background())

	shared := poller.NewShared(source)
	timeout := link.RequestTimeout(cfg.Link)

	// --------------------
	// Build per-unit pipelines
	// --------------------

	for _, unit := range cfg.Units {

		// ---- poller ----
		p, err := poller.Build(unit, shared, timeout)
		if err != nil {
			log.Fatalf("poller build failed (unit=%s): %v", unit.ID, err)
		}

		if err := p.Init(ctx); err != nil {
			log.Fatalf("unit init writes failed (unit=%s): %v", unit.ID, err)
		}

		// ---- writer plan ----
		plan, err := writer.BuildPlan(unit, cfg.StatusMemory.Endpoint)
		if err != nil {
			log.Fatalf("writer plan failed (unit=%s): %v", unit.ID, err)
		}

		// ---- writer clients (DATA + STATUS) ----
		clients, closeWriters, err := writer.BuildEndpointClients(unit, cfg.StatusMemory.Endpoint)
		if err != nil {
			log.Fatalf("writer clients failed (unit=%s): %v", unit.ID, err)
		}
		defer closeWriters()

		dataWriter := writer.New(plan, clients)

		// Status writer (optional per unit)
		statusWriter, statusEnabled := writer.NewDeviceStatusWriter(plan, clients)

		// ---- channel between poller and writer ----
		out := make(chan poller.PollResult)

		go orchestrate(ctx, unit.ID, out, dataWriter, statusWriter, statusEnabled)

		// poller producer
		go p.Run(ctx, out)
	}

	<-ctx.Done()
	log.Printf("shutting down")
}

// orchestrate owns the status state of one unit: data delivery per poll
// result plus the 1 Hz seconds-in-error ticker.
func orchestrate(
	ctx context.Context,
	unitID string,
	out <-chan poller.PollResult,
	dataWriter writer.Writer,
	statusWriter writer.StatusWriter,
	statusEnabled bool,
) {
	tracker := status.NewTracker()

	secTicker := time.NewTicker(time.Second)
	defer secTicker.Stop()

	// Full block write on start (identity re-assert) if enabled.
	if statusEnabled {
		if err := statusWriter.WriteStatus(tracker.Snapshot()); err != nil {
			log.Printf("status write failed on start (unit=%s): %v", unitID, err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return

		case res := <-out:
			// --- data delivery ---
			if err := dataWriter.Write(res); err != nil {
				log.Printf("writer error (unit=%s): %v", unitID, err)
			}
			if res.Err != nil {
				log.Printf("poll failed (unit=%s): %v", unitID, res.Err)
			}

			// --- status update (device-level truth) ---
			if !statusEnabled {
				continue
			}
			if snap, changed := tracker.Observe(res.Err); changed {
				if err := statusWriter.WriteStatus(snap); err != nil {
					log.Printf("status write failed (unit=%s): %v", unitID, err)
				}
			}

		case <-secTicker.C:
			if !statusEnabled {
				continue
			}
			if snap, changed := tracker.Tick(); changed {
				if err := statusWriter.WriteStatus(snap); err != nil {
					log.Printf("status seconds tick write failed (unit=%s): %v", unitID, err)
				}
			}
		}
	}
}
