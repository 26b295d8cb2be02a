package diff

import (
	"fmt"
	"strings"

	"github.com/metal-toolbox/hwqa/internal/model"
	"github.com/metal-toolbox/hwqa/internal/parse"
)

// Classes a server cannot lose without losing a board function. Matched by
// substring against the cleaned class string.
var criticalPCIClasses = []string{
	"Host bridge",
	"PCI bridge",
	"ISA bridge",
	"Ethernet controller",
	"USB controller",
	"SATA controller",
	"System peripheral",
}

// IsCriticalPCIDevice reports whether a device belongs to one of the
// critical board classes.
func IsCriticalPCIDevice(dev model.PCIDevice) bool {
	cleaned := parse.DeviceClass(dev.Class)
	for _, class := range criticalPCIClasses {
		if strings.Contains(cleaned, class) {
			return true
		}
	}

	return false
}

// isNICOrUSBController gates the description-change check: a renamed NIC or
// USB controller usually means a part substitution.
func isNICOrUSBController(dev model.PCIDevice) bool {
	cleaned := parse.DeviceClass(dev.Class)

	return strings.Contains(cleaned, "Ethernet controller") ||
		strings.Contains(cleaned, "USB controller")
}

type classCheck struct {
	Class         string `json:"class"`
	BaselineCount int    `json:"baseline_count"`
	CurrentCount  int    `json:"current_count"`
	State         string `json:"state"`
	Issue         string `json:"issue,omitempty"`
}

type pciDeviceComparison struct {
	BDF         string `json:"bdf"`
	State       string `json:"state"`
	Description string `json:"description,omitempty"`
	Issue       string `json:"issue,omitempty"`
}

type pciDetails struct {
	CurrentCount         int                   `json:"current_count"`
	BaselineCount        int                   `json:"baseline_count"`
	CriticalDevicesCheck []classCheck          `json:"critical_devices_check"`
	DeviceComparison     []pciDeviceComparison `json:"device_comparison"`
}

type pciSummary struct {
	TotalDifferences        int    `json:"total_differences"`
	PCIDevicesCurrent       int    `json:"pci_devices_current"`
	PCIDevicesBaseline      int    `json:"pci_devices_baseline"`
	CriticalDevicesCurrent  int    `json:"critical_devices_current"`
	CriticalDevicesBaseline int    `json:"critical_devices_baseline"`
	StatusDescription       string `json:"status_description"`
}

// ComparePCIDevices runs the two-tier PCI comparison: per-class counts of
// critical devices first, then a BDF-level reconciliation among critical
// devices only. Non-critical devices are counted but never individually
// diffed; enumeration noise on expansion cards is not a bring-up signal.
func ComparePCIDevices(baseline, current []model.PCIDevice) *ComponentResult {
	result := newComponentResult("pci_devices")
	details := &pciDetails{
		CurrentCount:         len(current),
		BaselineCount:        len(baseline),
		CriticalDevicesCheck: []classCheck{},
		DeviceComparison:     []pciDeviceComparison{},
	}

	baselineByBDF := keyBy(baseline, pciBDF)
	currentByBDF := keyBy(current, pciBDF)

	baselineCritical := filterCritical(baselineByBDF)
	currentCritical := filterCritical(currentByBDF)

	// Tier 1: counts per critical class.
	baselineByClass := groupByClass(baselineCritical)
	currentByClass := groupByClass(currentCritical)

	for _, class := range sortedKeys(baselineByClass) {
		baselineCount := baselineByClass[class]
		currentCount := currentByClass[class]

		check := classCheck{
			Class:         class,
			BaselineCount: baselineCount,
			CurrentCount:  currentCount,
			State:         "MATCH",
		}

		if baselineCount != currentCount {
			check.State = "MISMATCH"
			check.Issue = fmt.Sprintf("%s: expected %d, found %d", class, baselineCount, currentCount)
			result.add("class_count_mismatch", check.Issue, model.StatusFail)
		}

		details.CriticalDevicesCheck = append(details.CriticalDevicesCheck, check)
	}

	for _, class := range sortedKeys(currentByClass) {
		if _, known := baselineByClass[class]; known {
			continue
		}

		check := classCheck{
			Class:        class,
			CurrentCount: currentByClass[class],
			State:        "NEW",
			Issue:        "New device class detected: " + class,
		}
		result.add("new_device_class", check.Issue, model.StatusWarning)
		details.CriticalDevicesCheck = append(details.CriticalDevicesCheck, check)
	}

	// Tier 2: individual BDF addresses, critical devices only.
	union := make(map[string]struct{}, len(baselineCritical)+len(currentCritical))
	for bdf := range baselineCritical {
		union[bdf] = struct{}{}
	}
	for bdf := range currentCritical {
		union[bdf] = struct{}{}
	}

	for _, bdf := range sortedKeys(union) {
		currDev, inCurrent := currentByBDF[bdf]
		baseDev, inBaseline := baselineByBDF[bdf]

		switch {
		case !inCurrent:
			issue := fmt.Sprintf("Critical device %s missing", bdf)
			result.add("bdf_missing", issue, model.StatusFail)
			details.DeviceComparison = append(details.DeviceComparison,
				pciDeviceComparison{BDF: bdf, State: "MISSING", Issue: issue})
		case !inBaseline:
			// Extra devices are informational only.
			details.DeviceComparison = append(details.DeviceComparison,
				pciDeviceComparison{BDF: bdf, State: "EXTRA", Description: currDev.Description})
		default:
			comparison := pciDeviceComparison{BDF: bdf, State: "PRESENT"}

			if currDev.Description != baseDev.Description && isNICOrUSBController(baseDev) {
				comparison.Issue = fmt.Sprintf("Critical device %s description changed: %s vs %s",
					bdf, currDev.Description, baseDev.Description)
				result.add("description_changed", comparison.Issue, model.StatusWarning)
			}

			details.DeviceComparison = append(details.DeviceComparison, comparison)
		}
	}

	description := "PCIe devices match the baseline"
	if result.Status != model.StatusPass {
		description = "PCIe device differences detected"
	}

	result.Summary = pciSummary{
		TotalDifferences:        len(result.Differences),
		PCIDevicesCurrent:       len(current),
		PCIDevicesBaseline:      len(baseline),
		CriticalDevicesCurrent:  len(currentCritical),
		CriticalDevicesBaseline: len(baselineCritical),
		StatusDescription:       description,
	}
	result.Details = details

	return result
}

func pciBDF(dev model.PCIDevice) string { return dev.BDF }

func filterCritical(devices map[string]model.PCIDevice) map[string]model.PCIDevice {
	critical := map[string]model.PCIDevice{}
	for bdf, dev := range devices {
		if IsCriticalPCIDevice(dev) {
			critical[bdf] = dev
		}
	}

	return critical
}

func groupByClass(devices map[string]model.PCIDevice) map[string]int {
	counts := map[string]int{}
	for _, dev := range devices {
		counts[parse.DeviceClass(dev.Class)]++
	}

	return counts
}
