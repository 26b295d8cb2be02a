package sensors

import (
	"fmt"

	"github.com/metal-toolbox/hwqa/internal/model"
	"github.com/metal-toolbox/hwqa/internal/parse"
)

// ValidateVoltages checks every rail in the voltage limit table against the
// live readings. Hard min/max bounds are judged before the soft warn
// bounds, so a value breaking both is always reported as the hard breach.
func ValidateVoltages(readings model.SensorReadings, limits *Limits) *CategoryResult {
	result := newCategoryResult()

	for _, name := range sortedNames(limits.Voltage) {
		limit := limits.Voltage[name]

		reading, present := readings[name]
		if !present {
			result.MissingSensors++
			result.addViolation(Violation{
				Sensor:  name,
				Type:    ViolationMissing,
				Message: fmt.Sprintf("Sensor %s not present in the system", name),
			})

			continue
		}

		result.ActuallyChecked++

		if reading.Value == "na" {
			result.addViolation(Violation{
				Sensor:  name,
				Type:    ViolationUnavailable,
				Status:  reading.Status,
				Message: fmt.Sprintf("Sensor %s unavailable: value=na", name),
			})

			continue
		}

		if !statusAcceptable(reading.Status) {
			if statusWarning(reading.Status) {
				result.WarningSensors++
				result.addViolation(Violation{
					Sensor:  name,
					Type:    ViolationStatusWarning,
					Status:  reading.Status,
					Message: fmt.Sprintf("Sensor %s reports warning status: %s", name, reading.Status),
				})
			} else {
				result.addViolation(Violation{
					Sensor:  name,
					Type:    ViolationStatusError,
					Status:  reading.Status,
					Message: fmt.Sprintf("Sensor %s reports unexpected status: %s", name, reading.Status),
				})
			}

			continue
		}

		voltage, ok := parse.Numeric(reading.Value)
		if !ok {
			result.addViolation(Violation{
				Sensor:  name,
				Type:    ViolationParseError,
				Message: fmt.Sprintf("Cannot parse %s value: %s", name, reading.Value),
			})

			continue
		}

		checkVoltageThresholds(result, name, voltage, limit)
	}

	result.deriveStatus()

	return result
}

func checkVoltageThresholds(result *CategoryResult, name string, voltage float64, limit VoltageLimit) {
	switch {
	case limit.Min != nil && voltage < *limit.Min:
		result.FailedSensors++
		result.addViolation(Violation{
			Sensor:  name,
			Type:    ViolationUndervoltage,
			Value:   ptr(voltage),
			Limit:   limit.Min,
			Message: fmt.Sprintf("%s: %gV < %gV (FAIL)", name, voltage, *limit.Min),
		})
	case limit.Max != nil && voltage > *limit.Max:
		result.FailedSensors++
		result.addViolation(Violation{
			Sensor:  name,
			Type:    ViolationOvervoltage,
			Value:   ptr(voltage),
			Limit:   limit.Max,
			Message: fmt.Sprintf("%s: %gV > %gV (FAIL)", name, voltage, *limit.Max),
		})
	case limit.WarnMin != nil && voltage < *limit.WarnMin:
		result.WarningSensors++
		result.addViolation(Violation{
			Sensor:  name,
			Type:    ViolationVoltageWarningLow,
			Value:   ptr(voltage),
			Limit:   limit.WarnMin,
			Message: fmt.Sprintf("%s: %gV < %gV (warning)", name, voltage, *limit.WarnMin),
		})
	case limit.WarnMax != nil && voltage > *limit.WarnMax:
		result.WarningSensors++
		result.addViolation(Violation{
			Sensor:  name,
			Type:    ViolationVoltageWarningHigh,
			Value:   ptr(voltage),
			Limit:   limit.WarnMax,
			Message: fmt.Sprintf("%s: %gV > %gV (warning)", name, voltage, *limit.WarnMax),
		})
	default:
		result.PassedSensors++
	}
}
