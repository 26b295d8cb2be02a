package sensors

import (
	"fmt"
	"strings"

	"github.com/metal-toolbox/hwqa/internal/model"
	"github.com/metal-toolbox/hwqa/internal/parse"
)

// Fans and PSU power draw are judged against fixed sane ranges rather than
// per-sensor configuration: any reading the BMC tags with the right unit is
// picked up automatically.
const (
	minFanRPM  = 100.0
	maxFanRPM  = 20000.0
	minPowerW  = 0.0
	maxPowerW  = 2000.0
	unitRPM    = "rpm"
	unitWatts  = "watts"
	labelFan   = "Fan speed"
	labelPower = "Power draw"
)

// ValidateFans checks every reading with unit rpm against the sane fan
// range.
func ValidateFans(readings model.SensorReadings) *CategoryResult {
	return validateUnitRange(readings, unitRPM, minFanRPM, maxFanRPM, labelFan)
}

// ValidatePower checks every reading with unit watts against the sane
// power-draw range.
func ValidatePower(readings model.SensorReadings) *CategoryResult {
	return validateUnitRange(readings, unitWatts, minPowerW, maxPowerW, labelPower)
}

func validateUnitRange(readings model.SensorReadings, unit string, minValue, maxValue float64, label string) *CategoryResult {
	result := newCategoryResult()

	for _, name := range sortedNames(readings) {
		reading := readings[name]
		if !strings.EqualFold(reading.Unit, unit) {
			continue
		}

		result.ActuallyChecked++

		value, ok := parse.Numeric(reading.Value)
		if !ok {
			result.SkippedSensors++
			continue
		}

		if !statusAcceptable(reading.Status) {
			if statusWarning(reading.Status) {
				result.WarningSensors++
			} else {
				result.FailedSensors++
				result.addViolation(Violation{
					Sensor:  name,
					Type:    ViolationStatusError,
					Value:   ptr(value),
					Status:  reading.Status,
					Message: fmt.Sprintf("Sensor %s reports unexpected status: %s", name, reading.Status),
				})

				continue
			}
		}

		if value < minValue || value > maxValue {
			result.FailedSensors++
			result.addViolation(Violation{
				Sensor:  name,
				Type:    ViolationOutOfRange,
				Value:   ptr(value),
				Message: fmt.Sprintf("%s out of sane range: %g %s (%s)", label, value, reading.Unit, name),
			})
		} else {
			result.PassedSensors++
		}
	}

	result.deriveStatus()

	return result
}
