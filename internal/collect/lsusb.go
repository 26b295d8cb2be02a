package collect

import (
	"strings"

	"github.com/metal-toolbox/hwqa/internal/model"
)

// parseUSBDevices reads lsusb lines of the form
//
//	Bus 001 Device 002: ID 0557:8021 ATEN International Co., Ltd Hub
func parseUSBDevices(output []byte) []model.USBDevice {
	devices := []model.USBDevice{}

	for _, line := range strings.Split(string(output), "\n") {
		if !strings.HasPrefix(line, "Bus ") || !strings.Contains(line, "Device ") {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) < 6 {
			continue
		}

		description := "Unknown"
		if len(parts) > 6 {
			description = strings.Join(parts[6:], " ")
		}

		devices = append(devices, model.USBDevice{
			Bus:         parts[1],
			Device:      strings.TrimSuffix(parts[3], ":"),
			VIDPID:      parts[5],
			Description: description,
		})
	}

	return devices
}
