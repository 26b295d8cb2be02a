package collect

import (
	"fmt"
	"strings"

	"github.com/metal-toolbox/hwqa/internal/model"
)

// Riser FRUs live in the peripheral FRU ID range on this platform.
const (
	fruIDFirst = 1
	fruIDLast  = 9
)

// parseSensorList reads ipmitool sensor list output, one pipe-separated
// row per sensor:
//
//	P_12V | 12.048 | Volts | ok | ...
func parseSensorList(output []byte) model.SensorReadings {
	readings := model.SensorReadings{}

	for _, line := range strings.Split(string(output), "\n") {
		if !strings.Contains(line, "|") {
			continue
		}

		parts := strings.Split(line, "|")
		if len(parts) < 4 {
			continue
		}

		name := strings.TrimSpace(parts[0])
		if name == "" {
			continue
		}

		readings[name] = model.SensorReading{
			Value:  strings.TrimSpace(parts[1]),
			Unit:   strings.TrimSpace(parts[2]),
			Status: strings.TrimSpace(parts[3]),
		}
	}

	return readings
}

// parseRiserFRU reads one ipmitool fru print record. It reports ok=false
// when the record is not a riser card, since the FRU ID range also covers
// PSUs and other peripherals.
func parseRiserFRU(output []byte, fruID int) (model.RiserCard, bool) {
	riser := model.RiserCard{PCIeSlots: []model.PCIeSlot{}}

	if !strings.Contains(string(output), "Product Name") {
		return riser, false
	}

	for _, line := range strings.Split(string(output), "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}

		value = strings.TrimSpace(value)

		switch {
		case strings.Contains(key, "Product Name"):
			riser.FRUProductName = value
		case strings.Contains(key, "Product Manufacturer"):
			riser.FRUManufacturer = value
		case strings.Contains(key, "Product Part Number"):
			riser.FRUPartNumber = value
		case strings.Contains(key, "Product Serial"):
			riser.FRUSerialNumber = value
		}
	}

	name := strings.ToUpper(riser.FRUProductName)
	if !strings.Contains(name, "RISER") {
		return riser, false
	}

	riser.Slot = riserSlot(name, fruID)
	riser.Populated = true

	return riser, true
}

// riserSlot maps the FRU product name to the physical riser slot, falling
// back to the FRU ID when the name does not encode the position.
func riserSlot(productName string, fruID int) string {
	for _, n := range []string{"1", "2", "3"} {
		if strings.Contains(productName, "RISER-"+n) {
			return "RISER_SLOT_" + n
		}
	}

	return fmt.Sprintf("RISER_SLOT_%d", fruID)
}
