package sensors

import (
	"fmt"
	"strings"

	"github.com/metal-toolbox/hwqa/internal/model"
	"github.com/metal-toolbox/hwqa/internal/parse"
)

// ValidateTemperatures checks every sensor in the temperature limit table.
// Absent sensors are judged by the validation rules: critical absence is a
// finding, optional absence is silently skipped. A populated sensor that
// claims status ok while reading na is flagged as inconsistent.
func ValidateTemperatures(readings model.SensorReadings, limits *Limits) *CategoryResult {
	result := newCategoryResult()

	for _, name := range sortedNames(limits.Temperature) {
		limit := limits.Temperature[name]

		reading, present := readings[name]
		if !present {
			validateMissingTemperature(result, name, limits)
			continue
		}

		result.ActuallyChecked++

		if reading.Value == "na" {
			validateUnavailableTemperature(result, name, reading, limits)
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

		temperature, ok := parse.Numeric(reading.Value)
		if !ok {
			result.addViolation(Violation{
				Sensor:  name,
				Type:    ViolationParseError,
				Message: fmt.Sprintf("Cannot parse %s value: %s", name, reading.Value),
			})

			continue
		}

		checkTemperatureThresholds(result, name, temperature, limit)
	}

	result.deriveStatus()

	return result
}

func validateMissingTemperature(result *CategoryResult, name string, limits *Limits) {
	switch {
	case limits.Rules.IsCritical(name):
		result.MissingSensors++
		result.addViolation(Violation{
			Sensor:  name,
			Type:    ViolationMissingCritical,
			Message: fmt.Sprintf("Critical sensor %s not present", name),
		})
	case limits.Rules.IsOptional(name):
		result.SkippedSensors++
	default:
		result.MissingSensors++
		result.addViolation(Violation{
			Sensor:  name,
			Type:    ViolationMissing,
			Message: fmt.Sprintf("Sensor %s not present in the system", name),
		})
	}
}

// validateUnavailableTemperature handles value=na. Status nc/nr is the
// legitimate empty-slot signal; status ok with no value means the sensor
// itself may be faulty.
func validateUnavailableTemperature(result *CategoryResult, name string, reading model.SensorReading, limits *Limits) {
	switch strings.ToLower(reading.Status) {
	case "nc", "nr":
		result.SkippedSensors++
	case "ok":
		result.WarningSensors++
		result.addViolation(Violation{
			Sensor:  name,
			Type:    ViolationDataInconsistent,
			Status:  reading.Status,
			Message: fmt.Sprintf("Sensor %s: status ok but no value reported (possible sensor fault)", name),
		})
	default:
		if limits.Rules.IsOptional(name) {
			result.SkippedSensors++
			return
		}

		result.addViolation(Violation{
			Sensor:  name,
			Type:    ViolationUnavailable,
			Status:  reading.Status,
			Message: fmt.Sprintf("Sensor %s unavailable: value=na, status=%s", name, reading.Status),
		})
	}
}

func checkTemperatureThresholds(result *CategoryResult, name string, temperature float64, limit TemperatureLimit) {
	switch {
	case limit.Min != nil && temperature < *limit.Min:
		result.FailedSensors++
		result.addViolation(Violation{
			Sensor:  name,
			Type:    ViolationUndertemperature,
			Value:   ptr(temperature),
			Limit:   limit.Min,
			Message: fmt.Sprintf("%s: %g°C < %g°C (possible sensor fault)", name, temperature, *limit.Min),
		})
	case limit.Max != nil && temperature > *limit.Max:
		result.FailedSensors++
		result.addViolation(Violation{
			Sensor:  name,
			Type:    ViolationOvertemperature,
			Value:   ptr(temperature),
			Limit:   limit.Max,
			Message: fmt.Sprintf("%s: %g°C > %g°C (critical overheat)", name, temperature, *limit.Max),
		})
	case limit.Warn != nil && temperature > *limit.Warn:
		result.WarningSensors++
		result.addViolation(Violation{
			Sensor:  name,
			Type:    ViolationWarningTemperature,
			Value:   ptr(temperature),
			Limit:   limit.Warn,
			Message: fmt.Sprintf("%s: %g°C > %g°C (warning)", name, temperature, *limit.Warn),
		})
	default:
		result.PassedSensors++
	}
}
