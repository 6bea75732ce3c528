// cmd/stm32boot/main.go
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/tamzrod/callresponse/internal/config"
	"github.com/tamzrod/callresponse/internal/link"
	"github.com/tamzrod/callresponse/internal/stm32"
)

const usage = `usage: stm32boot <config.yaml> <command> [args]

commands:
  ping
  id
  commands
  version
  read  <addr> <len> [out.bin]
  write <addr> <in.bin>
  erase <page> [page...]
  go    <addr>`

func main() {
	if len(os.Args) < 3 {
		log.Fatal(usage)
	}

	cfgPath, cmd, args := os.Args[1], os.Args[2], os.Args[3:]

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --------------------
	// Link + client
	// --------------------

	logger := link.Logger(cfg.Link, os.Stderr)

	tr, err := link.Build(cfg.Link, logger)
	if err != nil {
		log.Fatalf("link build failed: %v", err)
	}

	opts := []stm32.Option{
		stm32.WithLogger(logger),
		stm32.WithChunkTimeout(time.Duration(cfg.Bootloader.ChunkTimeoutMs) * time.Millisecond),
		stm32.WithProgress(func(p stm32.Progress) {
			fmt.Fprintf(os.Stderr, "\r%s 0x%08X %d/%d", p.Op, p.Address, p.Done, p.Total)
			if p.Done == p.Total {
				fmt.Fprintln(os.Stderr)
			}
		}),
	}
	if cfg.Bootloader.IDOffset != nil {
		opts = append(opts, stm32.WithIDOffset(*cfg.Bootloader.IDOffset))
	}
	client := stm32.New(tr, opts...)

	if err := client.Open(ctx); err != nil {
		log.Fatalf("link open failed: %v", err)
	}
	defer client.Close(context.Background())

	timeout := commandTimeout(cfg, cmd)

	if err := run(ctx, client, timeout, cmd, args); err != nil {
		log.Fatalf("%s failed: %v", cmd, err)
	}
}

// commandTimeout is the overall deadline of one command. Memory
// transfers have none: the client bounds each chunk instead, so the
// transfer size does not matter.
func commandTimeout(cfg *config.Config, cmd string) time.Duration {
	switch cmd {
	case "read", "write":
		return 0
	case "erase":
		return time.Duration(cfg.Bootloader.EraseTimeoutMs) * time.Millisecond
	}
	return link.RequestTimeout(cfg.Link)
}

func run(ctx context.Context, c *stm32.Client, timeout time.Duration, cmd string, args []string) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	switch cmd {
	case "ping":
		ok, err := c.Ping(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("ack=%v\n", ok)

	case "id":
		pid, err := c.ProductID(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("product id: 0x%04X\n", pid)

	case "commands":
		version, cmds, err := c.GetCommands(ctx)
		if err != nil {
			return err
		}
		names := make([]string, 0, len(cmds))
		for _, cm := range cmds {
			names = append(names, cm.String())
		}
		fmt.Printf("bootloader v%d.%d\n", version>>4, version&0x0F)
		fmt.Println(strings.Join(names, " "))

	case "version":
		v, err := c.GetVersion(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("bootloader v%d.%d options=0x%02X 0x%02X\n", v.Protocol>>4, v.Protocol&0x0F, v.Option1, v.Option2)

	case "read":
		if len(args) < 2 {
			return fmt.Errorf("read needs <addr> <len>")
		}
		addr, err := parseUint(args[0], 32)
		if err != nil {
			return err
		}
		n, err := parseUint(args[1], 31)
		if err != nil {
			return err
		}
		data, err := c.ReadMemory(ctx, uint32(addr), int(n))
		if err != nil {
			return err
		}
		if len(args) > 2 {
			return os.WriteFile(args[2], data, 0o644)
		}
		fmt.Print(hex.Dump(data))

	case "write":
		if len(args) < 2 {
			return fmt.Errorf("write needs <addr> <in.bin>")
		}
		addr, err := parseUint(args[0], 32)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		return c.WriteMemory(ctx, uint32(addr), data)

	case "erase":
		if len(args) == 0 {
			return fmt.Errorf("erase needs at least one page")
		}
		pages := make([]uint16, 0, len(args))
		for _, a := range args {
			p, err := parseUint(a, 16)
			if err != nil {
				return err
			}
			pages = append(pages, uint16(p))
		}
		return c.ErasePages(ctx, pages)

	case "go":
		if len(args) < 1 {
			return fmt.Errorf("go needs <addr>")
		}
		addr, err := parseUint(args[0], 32)
		if err != nil {
			return err
		}
		return c.Go(ctx, uint32(addr))

	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}

	return nil
}

// parseUint accepts decimal, 0x hex and 0o octal.
func parseUint(s string, bits int) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return v, nil
}
