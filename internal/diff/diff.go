// Package diff compares a collected hardware snapshot against the golden
// baseline and produces a judged report. Comparators are pure functions:
// all I/O belongs to the collectors.
package diff

import (
	"time"

	"github.com/mitchellh/copystructure"

	"github.com/metal-toolbox/hwqa/internal/model"
)

// Difference is one judged finding from a comparator. Severity drives the
// component status: a component's status is always the escalation of PASS
// and every difference's severity.
type Difference struct {
	Kind     string       `json:"kind"`
	Message  string       `json:"message"`
	Severity model.Status `json:"severity"`
}

// ComponentResult is the outcome of comparing one hardware component
// category. Summary and Details hold the component-specific report
// sections.
type ComponentResult struct {
	Component   string       `json:"component"`
	Status      model.Status `json:"status"`
	Differences []Difference `json:"differences"`
	Summary     any          `json:"summary,omitempty"`
	Details     any          `json:"details,omitempty"`
}

func newComponentResult(component string) *ComponentResult {
	return &ComponentResult{
		Component:   component,
		Status:      model.StatusPass,
		Differences: []Difference{},
	}
}

// add records a difference and escalates the component status with its
// severity.
func (r *ComponentResult) add(kind, message string, severity model.Status) {
	r.Differences = append(r.Differences, Difference{Kind: kind, Message: message, Severity: severity})
	r.Status = model.Escalate(r.Status, severity)
}

// ScanInfo dates the two snapshots and the comparison itself.
type ScanInfo struct {
	BaselineDate    string `json:"baseline_date"`
	CurrentScanDate string `json:"current_scan_date"`
	ComparisonDate  string `json:"comparison_date"`
}

// ComponentResults groups the six comparator outcomes under their report
// keys.
type ComponentResults struct {
	Processors     *ComponentResult `json:"processors"`
	Memory         *ComponentResult `json:"memory"`
	PCIDevices     *ComponentResult `json:"pci_devices"`
	USBDevices     *ComponentResult `json:"usb_devices"`
	StorageDevices *ComponentResult `json:"storage_devices"`
	RiserCards     *ComponentResult `json:"riser_cards"`
}

func (c *ComponentResults) all() []*ComponentResult {
	return []*ComponentResult{
		c.Processors, c.Memory, c.PCIDevices,
		c.USBDevices, c.StorageDevices, c.RiserCards,
	}
}

// Summary counts component outcomes across the whole comparison.
type Summary struct {
	TotalComponentsChecked int `json:"total_components_checked"`
	ComponentsPassed       int `json:"components_passed"`
	ComponentsWarning      int `json:"components_warning"`
	ComponentsFailed       int `json:"components_failed"`
	TotalDifferences       int `json:"total_differences"`
}

// Report is the full hardware diff document.
type Report struct {
	ScanInfo         ScanInfo                `json:"scan_info"`
	OverallStatus    model.Status            `json:"overall_status"`
	ComponentResults ComponentResults        `json:"component_results"`
	Summary          Summary                 `json:"summary"`
	CurrentConfig    *model.HardwareSnapshot `json:"current_config,omitempty"`
}

// Compare runs all six component comparators and folds their statuses into
// one verdict. baselineDate is the capture date recorded in the baseline
// document.
func Compare(baseline, current *model.HardwareSnapshot, baselineDate string) *Report {
	report := &Report{
		ScanInfo: ScanInfo{
			BaselineDate:    baselineDate,
			CurrentScanDate: current.ScanDate,
			ComparisonDate:  time.Now().Format("2006-01-02 15:04:05"),
		},
		ComponentResults: ComponentResults{
			Processors:     CompareProcessors(baseline.Processors, current.Processors),
			Memory:         CompareMemory(baseline.MemoryModules, current.MemoryModules),
			PCIDevices:     ComparePCIDevices(baseline.PCIDevices, current.PCIDevices),
			USBDevices:     CompareUSBDevices(baseline.USBDevices, current.USBDevices),
			StorageDevices: CompareStorageDevices(baseline.StorageDevices, current.StorageDevices),
			RiserCards:     CompareRiserCards(baseline.RiserCards, current.RiserCards),
		},
		CurrentConfig: snapshotCopy(current),
	}

	for _, result := range report.ComponentResults.all() {
		report.OverallStatus = model.Escalate(report.OverallStatus, result.Status)

		if result.Status != model.StatusUnknown {
			report.Summary.TotalComponentsChecked++
		}

		switch result.Status {
		case model.StatusPass:
			report.Summary.ComponentsPassed++
		case model.StatusWarning:
			report.Summary.ComponentsWarning++
		case model.StatusFail:
			report.Summary.ComponentsFailed++
		default:
		}

		report.Summary.TotalDifferences += len(result.Differences)
	}

	return report
}

// snapshotCopy detaches the report from the caller's snapshot so a written
// report cannot change under a later mutation.
func snapshotCopy(snapshot *model.HardwareSnapshot) *model.HardwareSnapshot {
	copied, err := copystructure.Copy(snapshot)
	if err != nil {
		return snapshot
	}

	return copied.(*model.HardwareSnapshot)
}
