package diff

import (
	"fmt"
	"strings"

	"github.com/metal-toolbox/hwqa/internal/model"
)

// KVM and virtual-media devices the BMC synthesizes on demand. They come
// and go with remote console sessions, so they never affect the verdict,
// but they stay visible in the report.
var ignorableUSBDevices = map[string]struct{}{
	"0557:8021": {}, // ATEN KVM hub
	"046b:ff01": {}, // AMI virtual hub
	"046b:ff20": {}, // AMI virtual CDROM
	"046b:ff31": {}, // AMI virtual HDisk
	"046b:ff10": {}, // AMI virtual keyboard/mouse
	"046b:ffb0": {}, // AMI virtual ethernet
	"0557:223a": {}, // ATEN CS1316 KVM switch
}

var (
	criticalUSBKeywords = []string{
		"hub", "root hub", "host controller",
		"xhci", "ehci", "ohci", "uhci",
		"keyboard", "mouse", "management", "controller",
	}
	criticalUSBVendors = []string{"intel", "amd", "via", "nvidia"}
)

// IsIgnorableUSBDevice reports whether a device is on the KVM/virtual-media
// ignore list.
func IsIgnorableUSBDevice(dev model.USBDevice) bool {
	_, ignorable := ignorableUSBDevices[strings.ToLower(dev.VIDPID)]
	return ignorable
}

// IsCriticalUSBDevice classifies hubs, host controllers, and system input
// devices as critical by keyword match on the lsusb description.
func IsCriticalUSBDevice(dev model.USBDevice) bool {
	description := strings.ToLower(dev.Description)

	for _, keyword := range criticalUSBKeywords {
		if strings.Contains(description, keyword) {
			return true
		}
	}

	for _, vendor := range criticalUSBVendors {
		if strings.Contains(description, vendor) {
			return true
		}
	}

	return false
}

type usbCountCheck struct {
	VIDPID        string `json:"vid_pid"`
	BaselineCount int    `json:"baseline_count"`
	CurrentCount  int    `json:"current_count"`
	State         string `json:"state"`
	Issue         string `json:"issue,omitempty"`
}

type usbDetails struct {
	CurrentCount   int               `json:"current_count"`
	BaselineCount  int               `json:"baseline_count"`
	HubComparison  []usbCountCheck   `json:"hub_comparison"`
	IgnoredDevices []model.USBDevice `json:"ignored_devices,omitempty"`
	IgnoredCount   int               `json:"ignored_count,omitempty"`
}

type usbSummary struct {
	TotalDifferences    int    `json:"total_differences"`
	USBDevicesCurrent   int    `json:"usb_devices_current"`
	USBDevicesBaseline  int    `json:"usb_devices_baseline"`
	CriticalUSBCurrent  int    `json:"critical_usb_current"`
	CriticalUSBBaseline int    `json:"critical_usb_baseline"`
	IgnoredDevicesCount int    `json:"ignored_devices_count"`
	StatusDescription   string `json:"status_description"`
}

// CompareUSBDevices compares critical USB devices by VID:PID count rather
// than bus position; bus/device numbers are re-enumerated on every boot. A
// shortfall against the baseline fails, a surplus only warns.
func CompareUSBDevices(baseline, current []model.USBDevice) *ComponentResult {
	result := newComponentResult("usb_devices")

	var ignored []model.USBDevice
	for _, dev := range current {
		if IsIgnorableUSBDevice(dev) {
			ignored = append(ignored, dev)
		}
	}

	baselineCritical := criticalUSBByVIDPID(baseline)
	currentCritical := criticalUSBByVIDPID(current)

	details := &usbDetails{
		CurrentCount:   len(current),
		BaselineCount:  len(baseline),
		HubComparison:  []usbCountCheck{},
		IgnoredDevices: ignored,
		IgnoredCount:   len(ignored),
	}

	union := make(map[string]struct{}, len(baselineCritical)+len(currentCritical))
	for vidPID := range baselineCritical {
		union[vidPID] = struct{}{}
	}
	for vidPID := range currentCritical {
		union[vidPID] = struct{}{}
	}

	baselineCriticalCount := 0
	currentCriticalCount := 0

	for _, vidPID := range sortedKeys(union) {
		baselineDevs := baselineCritical[vidPID]
		currentDevs := currentCritical[vidPID]
		baselineCriticalCount += len(baselineDevs)
		currentCriticalCount += len(currentDevs)

		check := usbCountCheck{
			VIDPID:        vidPID,
			BaselineCount: len(baselineDevs),
			CurrentCount:  len(currentDevs),
			State:         "MATCH",
		}

		if len(baselineDevs) != len(currentDevs) {
			check.State = "MISMATCH"

			description := "Unknown"
			if len(baselineDevs) > 0 {
				description = baselineDevs[0].Description
			}

			check.Issue = fmt.Sprintf("USB device %s (%s): expected %d, found %d",
				vidPID, description, len(baselineDevs), len(currentDevs))

			severity := model.StatusWarning
			if len(baselineDevs) > len(currentDevs) {
				severity = model.StatusFail
			}

			result.add("usb_count_mismatch", check.Issue, severity)
		}

		details.HubComparison = append(details.HubComparison, check)
	}

	description := "USB devices match the baseline"
	if result.Status != model.StatusPass {
		description = "USB device differences detected"
	}

	result.Summary = usbSummary{
		TotalDifferences:    len(result.Differences),
		USBDevicesCurrent:   len(current),
		USBDevicesBaseline:  len(baseline),
		CriticalUSBCurrent:  currentCriticalCount,
		CriticalUSBBaseline: baselineCriticalCount,
		IgnoredDevicesCount: len(ignored),
		StatusDescription:   description,
	}
	result.Details = details

	return result
}

// criticalUSBByVIDPID buckets critical, non-ignorable devices by model
// identity.
func criticalUSBByVIDPID(devices []model.USBDevice) map[string][]model.USBDevice {
	byVIDPID := map[string][]model.USBDevice{}

	for _, dev := range devices {
		if IsIgnorableUSBDevice(dev) || !IsCriticalUSBDevice(dev) {
			continue
		}

		byVIDPID[dev.VIDPID] = append(byVIDPID[dev.VIDPID], dev)
	}

	return byVIDPID
}
