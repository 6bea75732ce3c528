// internal/config/config.go
package config

type Config struct {
	Link         LinkConfig         `yaml:"link"`
	StatusMemory StatusMemoryConfig `yaml:"status_memory"`
	Units        []UnitConfig       `yaml:"units"`
	Bootloader   BootloaderConfig   `yaml:"bootloader"`
}

// ---- LINK ----

const (
	LinkSerial = "serial"
	LinkUSB    = "usb"
	LinkBLE    = "ble"
)

type LinkConfig struct {
	Kind string `yaml:"kind"` // serial | usb | ble

	Serial SerialConfig `yaml:"serial"`
	USB    USBConfig    `yaml:"usb"`
	BLE    BLEConfig    `yaml:"ble"`

	// Receive buffer bound of the framing engine.
	MaxBuffer int `yaml:"max_buffer"`

	// Deadline applied to every request/response exchange.
	RequestTimeoutMs int `yaml:"request_timeout_ms"`

	// Debug enables traffic traces.
	Debug bool `yaml:"debug"`
}

type SerialConfig struct {
	Address       string `yaml:"address"`
	BaudRate      int    `yaml:"baud_rate"`
	DataBits      int    `yaml:"data_bits"`
	StopBits      int    `yaml:"stop_bits"`
	Parity        string `yaml:"parity"` // N | E | O
	ReadTimeoutMs int    `yaml:"read_timeout_ms"`
}

type USBConfig struct {
	VID           string `yaml:"vid"`
	PID           string `yaml:"pid"`
	Serial        string `yaml:"serial"`
	BaudRate      int    `yaml:"baud_rate"`
	DataBits      int    `yaml:"data_bits"`
	StopBits      int    `yaml:"stop_bits"`
	Parity        string `yaml:"parity"` // N | E | O; the STM32 bootloader needs E
	ReadTimeoutMs int    `yaml:"read_timeout_ms"`
}

type BLEConfig struct {
	Name        string `yaml:"name"`
	Address     string `yaml:"address"`
	ServiceUUID string `yaml:"service_uuid"`
	WriteUUID   string `yaml:"write_uuid"`
	NotifyUUID  string `yaml:"notify_uuid"`
	QueueDepth  int    `yaml:"queue_depth"`
	MaxWrite    int    `yaml:"max_write"`
	SettleMs    int    `yaml:"settle_ms"`
}

// ---- STATUS MEMORY ----

type StatusMemoryConfig struct {
	Endpoint string `yaml:"endpoint"`
}

// ---- UNIT ----

type UnitConfig struct {
	ID      string         `yaml:"id"`
	Source  SourceConfig   `yaml:"source"`
	Reads   []ReadConfig   `yaml:"reads"`
	Writes  []WriteConfig  `yaml:"writes"`
	Targets []TargetConfig `yaml:"targets"`
	Poll    PollConfig     `yaml:"poll"`
}

// ---- SOURCE ----

type SourceConfig struct {
	UnitID uint8 `yaml:"unit_id"`

	// Device status block (optional, opt-in)
	StatusSlot *uint16 `yaml:"status_slot"`
	DeviceName string  `yaml:"device_name"`
}

// ---- READ / WRITE GEOMETRY ----

// ReadConfig is one holding register block.
type ReadConfig struct {
	Address  uint16 `yaml:"address"`
	Quantity uint16 `yaml:"quantity"`
}

// WriteConfig is a register block written once when the unit starts.
type WriteConfig struct {
	Address uint16   `yaml:"address"`
	Values  []uint16 `yaml:"values"`
}

// ---- TARGET ----

type TargetConfig struct {
	ID           uint32         `yaml:"id"`
	Endpoint     string         `yaml:"endpoint"`
	UnitID       uint8          `yaml:"unit_id"`        // data memory
	StatusUnitID *uint8         `yaml:"status_unit_id"` // per-target status memory (optional)
	TimeoutMs    int            `yaml:"timeout_ms"`
	Memories     []MemoryConfig `yaml:"memories"`
}

type MemoryConfig struct {
	MemoryID uint16 `yaml:"memory_id"`
	Offset   uint16 `yaml:"offset"` // added to every read address
}

// ---- POLL ----

type PollConfig struct {
	IntervalMs int `yaml:"interval_ms"`
}

// ---- BOOTLOADER ----

type BootloaderConfig struct {
	IDOffset       *int `yaml:"id_offset"`
	EraseTimeoutMs int  `yaml:"erase_timeout_ms"`

	// Deadline of one 256-byte read or write transaction.
	ChunkTimeoutMs int `yaml:"chunk_timeout_ms"`
}
