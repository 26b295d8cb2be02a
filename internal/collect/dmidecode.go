package collect

import (
	"strconv"
	"strings"

	"github.com/metal-toolbox/hwqa/internal/model"
)

// parseProcessors reads dmidecode -t processor output. Each record starts
// at its Socket Designation line; counts the firmware reports as
// non-numeric ("Unknown") stay unknown rather than zero.
func parseProcessors(output []byte) []model.Processor {
	processors := []model.Processor{}

	var current *model.Processor

	for _, line := range strings.Split(string(output), "\n") {
		key, value, found := strings.Cut(strings.TrimSpace(line), ":")
		if !found {
			continue
		}

		value = strings.TrimSpace(value)

		switch strings.TrimSpace(key) {
		case "Socket Designation":
			if current != nil {
				processors = append(processors, *current)
			}

			current = &model.Processor{Socket: value}
		case "Version":
			if current != nil {
				current.Model = value
			}
		case "Core Count":
			if current != nil {
				current.Cores = parseCount(value)
			}
		case "Thread Count":
			if current != nil {
				current.Threads = parseCount(value)
			}
		case "Current Speed":
			if current != nil {
				current.SpeedMHz = value
			}
		}
	}

	if current != nil {
		processors = append(processors, *current)
	}

	return processors
}

func parseCount(s string) model.Count {
	v, err := strconv.Atoi(s)
	if err != nil {
		return model.UnknownCount()
	}

	return model.KnownCount(v)
}

// parseMemoryModules reads dmidecode -t memory output. Only Memory Device
// records carry a Locator line; the Bank Locator line must not start a new
// record.
func parseMemoryModules(output []byte) []model.MemoryModule {
	modules := []model.MemoryModule{}

	var current *model.MemoryModule

	for _, line := range strings.Split(string(output), "\n") {
		key, value, found := strings.Cut(strings.TrimSpace(line), ":")
		if !found {
			continue
		}

		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch {
		case key == "Locator":
			if current != nil {
				modules = append(modules, *current)
			}

			current = &model.MemoryModule{Slot: value}
		case key == "Size":
			if current != nil {
				current.Size = value
				current.Populated = strings.Contains(value, "GB")
			}
		case key == "Manufacturer":
			if current != nil {
				current.Manufacturer = value
			}
		case key == "Part Number":
			if current != nil {
				current.PartNumber = value
			}
		case key == "Speed" && strings.Contains(value, "MT/s"):
			if current != nil {
				current.Speed = value
			}
		}
	}

	if current != nil {
		modules = append(modules, *current)
	}

	return modules
}
