package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

const (
	AppName = "hwqa"

	// FRU serial placeholder the factory writes before serialization.
	SerialPlaceholder = "Required"

	PowerStateOn    = "on"
	PowerStateOff   = "off"
	PowerStateReset = "reset"
)

// Count is an integer reported by a collector that may be unavailable, such
// as a core count dmidecode could not read. It unmarshals from a JSON number
// or from a string like "Unknown".
type Count struct {
	Value int
	Known bool
}

func KnownCount(v int) Count {
	return Count{Value: v, Known: true}
}

func UnknownCount() Count {
	return Count{}
}

func (c Count) String() string {
	if !c.Known {
		return "Unknown"
	}

	return strconv.Itoa(c.Value)
}

func (c Count) MarshalJSON() ([]byte, error) {
	if !c.Known {
		return json.Marshal("Unknown")
	}

	return json.Marshal(c.Value)
}

func (c *Count) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*c = KnownCount(n)
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	if n, err := strconv.Atoi(strings.TrimSpace(str)); err == nil {
		*c = KnownCount(n)
		return nil
	}

	*c = UnknownCount()

	return nil
}

// Processor is one CPU socket as reported by dmidecode type 4.
type Processor struct {
	Socket   string `json:"socket"`
	Model    string `json:"model"`
	Cores    Count  `json:"cores"`
	Threads  Count  `json:"threads"`
	SpeedMHz string `json:"speed_mhz,omitempty"`
}

// MemoryModule is one DIMM slot as reported by dmidecode type 17. Size is
// the raw string, "No Module Installed" for empty slots.
type MemoryModule struct {
	Slot         string `json:"slot"`
	Size         string `json:"size"`
	Populated    bool   `json:"populated"`
	Manufacturer string `json:"manufacturer,omitempty"`
	PartNumber   string `json:"part_number,omitempty"`
	Speed        string `json:"speed,omitempty"`
}

// PCIDevice is one function on the PCI bus. Class carries the lspci class
// string, possibly with a trailing numeric code ("Ethernet controller
// [0200]") that must be cleaned before comparison.
type PCIDevice struct {
	BDF         string `json:"bdf"`
	Description string `json:"description"`
	Class       string `json:"class"`
	Width       string `json:"width"`
	Speed       string `json:"speed"`
}

// USBDevice is one lsusb entry. VIDPID identifies the device model, not the
// physical unit.
type USBDevice struct {
	Bus         string `json:"bus"`
	Device      string `json:"device"`
	VIDPID      string `json:"vid_pid"`
	Description string `json:"description"`
}

// StorageDevice is one disk from lsblk. Serial is the stable identity when
// the collector could read it; transport is the lsblk TRAN column.
type StorageDevice struct {
	Name      string `json:"name"`
	Model     string `json:"model"`
	Size      string `json:"size"`
	Transport string `json:"transport,omitempty"`
	Serial    string `json:"serial,omitempty"`
}

// PCIeSlot is one slot on a riser card.
type PCIeSlot struct {
	SlotID string `json:"slot_id"`
	Speed  string `json:"speed"`
	Width  string `json:"width"`
	Status string `json:"status"`
}

// RiserCard is one riser slot with its FRU identity.
type RiserCard struct {
	Slot            string     `json:"slot"`
	Populated       bool       `json:"populated"`
	FRUProductName  string     `json:"fru_product_name"`
	FRUManufacturer string     `json:"fru_manufacturer"`
	FRUPartNumber   string     `json:"fru_part_number"`
	FRUSerialNumber string     `json:"fru_serial_number"`
	PCIeSlots       []PCIeSlot `json:"pcie_slots"`
}

// HardwareSnapshot is the full inventory of a unit at one point in time.
// Two exist per run: the golden baseline and the freshly collected current
// configuration. Both are immutable once built.
type HardwareSnapshot struct {
	ScanDate       string          `json:"scan_date,omitempty"`
	Processors     []Processor     `json:"processors"`
	MemoryModules  []MemoryModule  `json:"memory_modules"`
	PCIDevices     []PCIDevice     `json:"pci_devices"`
	USBDevices     []USBDevice     `json:"usb_devices"`
	StorageDevices []StorageDevice `json:"storage_devices"`
	RiserCards     []RiserCard     `json:"riser_cards"`
}

func (s *HardwareSnapshot) AsLogFields() []any {
	return []any{
		"processors", len(s.Processors),
		"memory_modules", len(s.MemoryModules),
		"pci_devices", len(s.PCIDevices),
		"usb_devices", len(s.USBDevices),
		"storage_devices", len(s.StorageDevices),
		"riser_cards", len(s.RiserCards),
	}
}

// SensorReading is one row of ipmitool sensor list. Value and status are
// the raw strings the BMC reported.
type SensorReading struct {
	Value  string `json:"value"`
	Unit   string `json:"unit"`
	Status string `json:"status"`
}

// SensorReadings maps sensor name to its reading.
type SensorReadings map[string]SensorReading

// Args are the command line flags shared by the subcommands. They override
// whatever the configuration file and environment provide.
type Args struct {
	LogLevel        string
	ConfigFile      string
	EnableProfiling bool
	DryRun          bool
	BaselineFile    string
	LimitsFile      string
	ReportDir       string
}
