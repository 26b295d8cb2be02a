package diff

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/metal-toolbox/hwqa/internal/model"
)

// Storage type buckets, in report order.
var storageBuckets = []string{"nvme", "sata", "sas", "mmc", "usb", "raid", "other"}

// IsVirtualMediaDevice reports whether a disk is BMC-synthesized virtual
// media rather than real hardware.
func IsVirtualMediaDevice(dev model.StorageDevice) bool {
	m := strings.ToLower(dev.Model)
	return strings.Contains(m, "virtual hdisk") || strings.Contains(m, "ami virtual")
}

// StorageBucket classifies a disk into one of the type buckets using the
// kernel device name, model string, and transport. Residual sd* disks with
// no other signal are split on size: a large spinner is assumed SAS, the
// rest SATA.
func StorageBucket(dev model.StorageDevice) string {
	name := strings.ToLower(dev.Name)
	m := strings.ToLower(dev.Model)
	transport := strings.ToLower(dev.Transport)

	switch {
	case strings.HasPrefix(name, "nvme") || strings.Contains(m, "nvme"):
		return "nvme"
	case strings.Contains(m, "sas") || strings.Contains(transport, "sas"):
		return "sas"
	case containsAny(m, "raid", "logical", "megaraid", "adaptec") || strings.Contains(m, "virtual"):
		return "raid"
	case strings.HasPrefix(name, "sd") && containsAny(m, "sata", "ata", "ssd") || strings.Contains(transport, "sata"):
		return "sata"
	case strings.HasPrefix(name, "mmcblk") || strings.Contains(m, "mmc"):
		return "mmc"
	case strings.Contains(transport, "usb") || strings.Contains(m, "usb"):
		return "usb"
	case strings.HasPrefix(name, "sd"):
		if sizeGB(dev.Size) > 100 && !strings.Contains(m, "ssd") {
			return "sas"
		}

		return "sata"
	default:
		return "other"
	}
}

func containsAny(s string, keywords ...string) bool {
	for _, keyword := range keywords {
		if strings.Contains(s, keyword) {
			return true
		}
	}

	return false
}

// sizeGB parses "480GB" / "480 GB" style sizes; anything else is 0.
func sizeGB(size string) float64 {
	upper := strings.ToUpper(strings.TrimSpace(size))
	if !strings.Contains(upper, "GB") {
		return 0
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(upper, "GB", "")), 64)
	if err != nil {
		return 0
	}

	return v
}

type storageDetails struct {
	CurrentCount           int            `json:"current_count"`
	BaselineCount          int            `json:"baseline_count"`
	CurrentByType          map[string]int `json:"current_by_type"`
	BaselineByType         map[string]int `json:"baseline_by_type"`
	VirtualDevicesCurrent  int            `json:"virtual_devices_filtered_current"`
	VirtualDevicesBaseline int            `json:"virtual_devices_filtered_baseline"`
}

type storageSummary struct {
	TotalDifferences  int    `json:"total_differences"`
	StatusDescription string `json:"status_description"`
}

// CompareStorageDevices filters out BMC virtual media, buckets the
// remaining disks by type, and compares each bucket. Any storage
// difference is a failure; there is no warning tier for disks.
//
// Within a bucket, disks reconcile by serial number when every device on
// both sides reported one. Otherwise comparison falls back to sorted
// position, which can misfire when the collector enumerates disks in a
// different order.
func CompareStorageDevices(baseline, current []model.StorageDevice) *ComponentResult {
	result := newComponentResult("storage_devices")

	baselineReal := filterVirtualMedia(baseline)
	currentReal := filterVirtualMedia(current)

	baselineByType := bucketStorage(baselineReal)
	currentByType := bucketStorage(currentReal)

	for _, bucket := range storageBuckets {
		baseDevs := baselineByType[bucket]
		currDevs := currentByType[bucket]

		if len(baseDevs) == 0 && len(currDevs) == 0 {
			continue
		}

		if len(currDevs) != len(baseDevs) {
			result.add("count_mismatch",
				fmt.Sprintf("%s count mismatch: current=%d, baseline=%d",
					strings.ToUpper(bucket), len(currDevs), len(baseDevs)),
				model.StatusFail)
		}

		if allHaveSerials(baseDevs) && allHaveSerials(currDevs) {
			compareBySerial(result, bucket, baseDevs, currDevs)
		} else {
			compareByPosition(result, bucket, baseDevs, currDevs)
		}
	}

	description := "Storage devices match the baseline"
	if result.Status != model.StatusPass {
		description = "Storage device differences detected"
	}

	result.Summary = storageSummary{
		TotalDifferences:  len(result.Differences),
		StatusDescription: description,
	}
	result.Details = &storageDetails{
		CurrentCount:           len(currentReal),
		BaselineCount:          len(baselineReal),
		CurrentByType:          bucketCounts(currentByType),
		BaselineByType:         bucketCounts(baselineByType),
		VirtualDevicesCurrent:  len(current) - len(currentReal),
		VirtualDevicesBaseline: len(baseline) - len(baselineReal),
	}

	return result
}

func compareBySerial(result *ComponentResult, bucket string, baseDevs, currDevs []model.StorageDevice) {
	deviceSerial := func(d model.StorageDevice) string { return d.Serial }

	reconcile(baseDevs, currDevs, deviceSerial, reconcileFuncs[model.StorageDevice]{
		onMissing: func(serial string, base model.StorageDevice) {
			result.add("device_missing",
				fmt.Sprintf("%s %s: missing in current (baseline has '%s')",
					strings.ToUpper(bucket), serial, base.Model),
				model.StatusFail)
		},
		onExtra: func(serial string, curr model.StorageDevice) {
			result.add("device_extra",
				fmt.Sprintf("%s %s: extra in current ('%s')",
					strings.ToUpper(bucket), serial, curr.Model),
				model.StatusFail)
		},
		onMatch: func(serial string, base, curr model.StorageDevice) {
			if curr.Model != base.Model {
				result.add("model_mismatch",
					fmt.Sprintf("%s %s model mismatch: current='%s', baseline='%s'",
						strings.ToUpper(bucket), serial, curr.Model, base.Model),
					model.StatusFail)
			}
		},
	})
}

func compareByPosition(result *ComponentResult, bucket string, baseDevs, currDevs []model.StorageDevice) {
	baseSorted := sortForPositional(baseDevs)
	currSorted := sortForPositional(currDevs)

	for i := 0; i < max(len(baseSorted), len(currSorted)); i++ {
		switch {
		case i >= len(currSorted):
			result.add("device_missing",
				fmt.Sprintf("%s %d: missing in current (baseline has '%s')",
					strings.ToUpper(bucket), i+1, baseSorted[i].Model),
				model.StatusFail)
		case i >= len(baseSorted):
			result.add("device_extra",
				fmt.Sprintf("%s %d: extra in current ('%s')",
					strings.ToUpper(bucket), i+1, currSorted[i].Model),
				model.StatusFail)
		case currSorted[i].Model != baseSorted[i].Model:
			result.add("model_mismatch",
				fmt.Sprintf("%s %d model mismatch: current='%s', baseline='%s'",
					strings.ToUpper(bucket), i+1, currSorted[i].Model, baseSorted[i].Model),
				model.StatusFail)
		}
	}
}

func filterVirtualMedia(devices []model.StorageDevice) []model.StorageDevice {
	real := make([]model.StorageDevice, 0, len(devices))
	for _, dev := range devices {
		if !IsVirtualMediaDevice(dev) {
			real = append(real, dev)
		}
	}

	return real
}

func bucketStorage(devices []model.StorageDevice) map[string][]model.StorageDevice {
	buckets := map[string][]model.StorageDevice{}
	for _, dev := range devices {
		bucket := StorageBucket(dev)
		buckets[bucket] = append(buckets[bucket], dev)
	}

	return buckets
}

func bucketCounts(buckets map[string][]model.StorageDevice) map[string]int {
	counts := make(map[string]int, len(storageBuckets))
	for _, bucket := range storageBuckets {
		counts[bucket] = len(buckets[bucket])
	}

	return counts
}

func allHaveSerials(devices []model.StorageDevice) bool {
	for _, dev := range devices {
		if dev.Serial == "" {
			return false
		}
	}

	return true
}

func sortForPositional(devices []model.StorageDevice) []model.StorageDevice {
	sorted := make([]model.StorageDevice, len(devices))
	copy(sorted, devices)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Model != sorted[j].Model {
			return sorted[i].Model < sorted[j].Model
		}

		return sorted[i].Name < sorted[j].Name
	})

	return sorted
}
