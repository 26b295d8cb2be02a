package model

import (
	"github.com/pkg/errors"
)

// Baseline is the golden-reference document a unit under test is judged
// against. Captured once from a known-good board and loaded read-only for
// the lifetime of a run. ExpectedCounts and ValidationRules are free-form
// metadata written by the capture tool; the comparison engine does not
// interpret them.
type Baseline struct {
	BoardModel      string `json:"board_model"`
	BaselineDate    string `json:"baseline_date"`
	BaselineVersion string `json:"baseline_version"`
	Description     string `json:"description"`

	HardwareSnapshot

	ExpectedCounts  map[string]any `json:"expected_counts,omitempty"`
	ValidationRules map[string]any `json:"validation_rules,omitempty"`
}

// Validate fails fast on a structurally broken document. A baseline with a
// whole entity array absent must be rejected, not treated as an empty
// system.
func (b *Baseline) Validate() error {
	for _, check := range []struct {
		name    string
		present bool
	}{
		{"processors", b.Processors != nil},
		{"memory_modules", b.MemoryModules != nil},
		{"pci_devices", b.PCIDevices != nil},
		{"usb_devices", b.USBDevices != nil},
		{"storage_devices", b.StorageDevices != nil},
		{"riser_cards", b.RiserCards != nil},
	} {
		if !check.present {
			return errors.Wrap(ErrMalformedBaseline, "missing "+check.name+" array")
		}
	}

	return nil
}
