package collect

import (
	"encoding/json"
	"strings"

	"github.com/metal-toolbox/hwqa/internal/model"
)

type lsblkListing struct {
	BlockDevices []lsblkDevice `json:"blockdevices"`
}

type lsblkDevice struct {
	Name   string `json:"name"`
	Model  string `json:"model"`
	Size   string `json:"size"`
	Type   string `json:"type"`
	Tran   string `json:"tran"`
	Serial string `json:"serial"`
}

// parseStorageDevices reads lsblk -J output, keeping whole disks and
// dropping partitions, loop devices and the like.
func parseStorageDevices(output []byte) ([]model.StorageDevice, error) {
	listing := lsblkListing{}
	if err := json.Unmarshal(output, &listing); err != nil {
		return nil, err
	}

	devices := []model.StorageDevice{}

	for _, dev := range listing.BlockDevices {
		if dev.Type != "disk" {
			continue
		}

		devices = append(devices, model.StorageDevice{
			Name:      dev.Name,
			Model:     strings.TrimSpace(dev.Model),
			Size:      dev.Size,
			Transport: dev.Tran,
			Serial:    strings.TrimSpace(dev.Serial),
		})
	}

	return devices, nil
}
