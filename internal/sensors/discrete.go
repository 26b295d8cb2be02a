package sensors

import (
	"fmt"
	"slices"

	"github.com/metal-toolbox/hwqa/internal/model"
)

// ValidateDiscrete checks each configured discrete sensor's raw status
// string against its whitelist. Sensors on the critical-if-different list
// fail on any unexpected status; the rest only warn.
func ValidateDiscrete(readings model.SensorReadings, limits *Limits) *CategoryResult {
	result := newCategoryResult()

	for _, name := range sortedNames(limits.Discrete.AcceptableStatuses) {
		expected := limits.Discrete.AcceptableStatuses[name]

		reading, present := readings[name]
		if !present {
			result.MissingSensors++
			result.addViolation(Violation{
				Sensor:  name,
				Type:    ViolationMissing,
				Message: fmt.Sprintf("Discrete sensor %s not present", name),
			})

			continue
		}

		result.ActuallyChecked++

		if slices.Contains(expected, reading.Status) {
			result.PassedSensors++
			continue
		}

		if limits.Discrete.IsCritical(name) {
			result.FailedSensors++
			result.addViolation(Violation{
				Sensor:   name,
				Type:     ViolationCriticalStatus,
				Status:   reading.Status,
				Expected: expected,
				Message:  fmt.Sprintf("%s: critical status %s, expected one of %v", name, reading.Status, expected),
			})
		} else {
			result.WarningSensors++
			result.addViolation(Violation{
				Sensor:   name,
				Type:     ViolationWarningStatus,
				Status:   reading.Status,
				Expected: expected,
				Message:  fmt.Sprintf("%s: unexpected status %s, expected one of %v", name, reading.Status, expected),
			})
		}
	}

	result.deriveStatus()

	return result
}
