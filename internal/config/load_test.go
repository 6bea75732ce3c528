// internal/config/load_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sample = `
link:
  kind: serial
  serial:
    address: /dev/ttyUSB0
    parity: e
status_memory:
  endpoint: 127.0.0.1:1502
units:
  - id: meter-1
    source:
      unit_id: 4
      status_slot: 0
      device_name: "A VERY LONG DEVICE NAME"
    reads:
      - address: 0
        quantity: 10
    writes:
      - address: 100
        values: [1, 2]
    targets:
      - id: 1
        endpoint: 127.0.0.1:1502
        unit_id: 1
        status_unit_id: 255
        memories:
          - memory_id: 0
            offset: 1000
bootloader:
  id_offset: 2
`

func TestLoad_ValidateNormalize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate err=%v", err)
	}
	Normalize(cfg)

	if cfg.Link.Serial.Parity != "E" || cfg.Link.Serial.BaudRate != DefaultBaudRate {
		t.Fatalf("serial not normalized: %+v", cfg.Link.Serial)
	}
	if cfg.Link.USB.Parity != DefaultParity || cfg.Link.USB.DataBits != 8 || cfg.Link.USB.StopBits != 1 {
		t.Fatalf("usb framing not normalized: %+v", cfg.Link.USB)
	}
	if cfg.Link.MaxBuffer != DefaultMaxBuffer || cfg.Link.RequestTimeoutMs != DefaultRequestTimeoutMs {
		t.Fatalf("link defaults missing: %+v", cfg.Link)
	}

	u := cfg.Units[0]
	if u.Source.UnitID != 4 || u.Targets[0].Memories[0].Offset != 1000 {
		t.Fatalf("unit decoded wrong: %+v", u)
	}
	if len(u.Source.DeviceName) != 16 {
		t.Fatalf("device_name not truncated: %q", u.Source.DeviceName)
	}
	if u.Poll.IntervalMs != DefaultPollIntervalMs {
		t.Fatalf("poll interval %d", u.Poll.IntervalMs)
	}
	if cfg.Bootloader.IDOffset == nil || *cfg.Bootloader.IDOffset != 2 {
		t.Fatalf("bootloader id_offset not decoded")
	}
	if cfg.Bootloader.ChunkTimeoutMs != DefaultChunkTimeoutMs {
		t.Fatalf("bootloader chunk_timeout_ms %d", cfg.Bootloader.ChunkTimeoutMs)
	}
}

func TestParse_UnknownField(t *testing.T) {
	if _, err := Parse([]byte("link:\n  kind: serial\n  bogus: 1\n")); err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil || cfg == nil {
		t.Fatalf("cfg=%v err=%v", cfg, err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error")
	}
}
