package sensors

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metal-toolbox/hwqa/internal/model"
)

func testLimits() *Limits {
	return &Limits{
		BoardModel: "RSMB-MS93-FS0",
		Voltage: VoltageLimits{
			"P_12V":     {Min: ptr(11.4), Max: ptr(12.6), WarnMin: ptr(11.6), WarnMax: ptr(12.4)},
			"P_3V3_AUX": {Min: ptr(3.1), Max: ptr(3.5)},
		},
		Temperature: TemperatureLimits{
			"CPU0_TEMP": {Min: ptr(5.0), Max: ptr(95.0), Warn: ptr(85.0)},
			"DIMM_TEMP": {Max: ptr(85.0), Warn: ptr(75.0)},
		},
		Discrete: DiscreteSensors{
			AcceptableStatuses: AcceptableStatuses{
				"PSU1_Status":     {"0x0180", "0x0100"},
				"Chassis_Intru":   {"0x0080"},
				"Watchdog_Status": {"0x0080"},
			},
			CriticalIfDifferent: []string{"PSU1_Status"},
		},
		Rules: ValidationRules{
			CriticalSensors: []string{"CPU0_TEMP"},
			OptionalSensors: []string{"DIMM_TEMP"},
		},
	}
}

func reading(value, unit, status string) model.SensorReading {
	return model.SensorReading{Value: value, Unit: unit, Status: status}
}

func TestValidateVoltagesAllWithinLimits(t *testing.T) {
	readings := model.SensorReadings{
		"P_12V":     reading("12.08", "Volts", "ok"),
		"P_3V3_AUX": reading("3.33", "Volts", "ok"),
	}

	result := ValidateVoltages(readings, testLimits())

	assert.Equal(t, model.StatusPass, result.Status)
	assert.Equal(t, 2, result.ActuallyChecked)
	assert.Equal(t, 2, result.PassedSensors)
	assert.Empty(t, result.Violations)
}

// A value breaking both the hard max and the soft warn-max must be reported
// as the hard breach.
func TestValidateVoltagesHardBoundBeatsSoft(t *testing.T) {
	readings := model.SensorReadings{
		"P_12V":     reading("13.1", "Volts", "ok"),
		"P_3V3_AUX": reading("3.33", "Volts", "ok"),
	}

	result := ValidateVoltages(readings, testLimits())

	assert.Equal(t, model.StatusFail, result.Status)
	require.Len(t, result.Violations, 1)
	assert.Equal(t, ViolationOvervoltage, result.Violations[0].Type)
	assert.Equal(t, 1, result.FailedSensors)
	assert.Equal(t, 0, result.WarningSensors)
}

func TestValidateVoltagesSoftBoundWarns(t *testing.T) {
	readings := model.SensorReadings{
		"P_12V":     reading("12.5", "Volts", "ok"),
		"P_3V3_AUX": reading("3.33", "Volts", "ok"),
	}

	result := ValidateVoltages(readings, testLimits())

	assert.Equal(t, model.StatusWarning, result.Status)
	require.Len(t, result.Violations, 1)
	assert.Equal(t, ViolationVoltageWarningHigh, result.Violations[0].Type)
}

func TestValidateVoltagesDecimalComma(t *testing.T) {
	readings := model.SensorReadings{
		"P_12V":     reading("12,08", "Volts", "ok"),
		"P_3V3_AUX": reading("3,33", "Volts", "ok"),
	}

	result := ValidateVoltages(readings, testLimits())

	assert.Equal(t, model.StatusPass, result.Status)
	assert.Equal(t, 2, result.PassedSensors)
}

func TestValidateVoltagesMissingSensor(t *testing.T) {
	readings := model.SensorReadings{
		"P_12V": reading("12.08", "Volts", "ok"),
	}

	result := ValidateVoltages(readings, testLimits())

	assert.Equal(t, model.StatusWarning, result.Status)
	assert.Equal(t, 1, result.MissingSensors)
	assert.Equal(t, 1, result.ActuallyChecked)
	require.Len(t, result.Violations, 1)
	assert.Equal(t, ViolationMissing, result.Violations[0].Type)
}

func TestValidateVoltagesUnparseableValue(t *testing.T) {
	readings := model.SensorReadings{
		"P_12V":     reading("garbage", "Volts", "ok"),
		"P_3V3_AUX": reading("3.33", "Volts", "ok"),
	}

	result := ValidateVoltages(readings, testLimits())

	require.Len(t, result.Violations, 1)
	assert.Equal(t, ViolationParseError, result.Violations[0].Type)
}

func TestValidateTemperaturesEmptySlotSkipped(t *testing.T) {
	readings := model.SensorReadings{
		"CPU0_TEMP": reading("52", "degrees C", "ok"),
		"DIMM_TEMP": reading("na", "degrees C", "nc"),
	}

	result := ValidateTemperatures(readings, testLimits())

	assert.Equal(t, model.StatusPass, result.Status)
	assert.Equal(t, 1, result.SkippedSensors)
	assert.Equal(t, 1, result.PassedSensors)
}

func TestValidateTemperaturesInconsistentSensor(t *testing.T) {
	readings := model.SensorReadings{
		"CPU0_TEMP": reading("na", "degrees C", "ok"),
		"DIMM_TEMP": reading("62", "degrees C", "ok"),
	}

	result := ValidateTemperatures(readings, testLimits())

	assert.Equal(t, model.StatusWarning, result.Status)
	require.Len(t, result.Violations, 1)
	assert.Equal(t, ViolationDataInconsistent, result.Violations[0].Type)
}

func TestValidateTemperaturesMissingCriticalVsOptional(t *testing.T) {
	result := ValidateTemperatures(model.SensorReadings{"unrelated": reading("1", "x", "ok")}, testLimits())

	// CPU0_TEMP is critical and missing, DIMM_TEMP is optional and missing.
	assert.Equal(t, model.StatusWarning, result.Status)
	assert.Equal(t, 1, result.MissingSensors)
	assert.Equal(t, 1, result.SkippedSensors)
	require.Len(t, result.Violations, 1)
	assert.Equal(t, ViolationMissingCritical, result.Violations[0].Type)
}

func TestValidateTemperaturesUndertemperatureFlagsSensorFault(t *testing.T) {
	readings := model.SensorReadings{
		"CPU0_TEMP": reading("2", "degrees C", "ok"),
		"DIMM_TEMP": reading("62", "degrees C", "ok"),
	}

	result := ValidateTemperatures(readings, testLimits())

	assert.Equal(t, model.StatusFail, result.Status)
	require.Len(t, result.Violations, 1)
	assert.Equal(t, ViolationUndertemperature, result.Violations[0].Type)
	assert.Contains(t, result.Violations[0].Message, "possible sensor fault")
}

func TestValidateTemperaturesOverheat(t *testing.T) {
	readings := model.SensorReadings{
		"CPU0_TEMP": reading("97", "degrees C", "ok"),
		"DIMM_TEMP": reading("80", "degrees C", "ok"),
	}

	result := ValidateTemperatures(readings, testLimits())

	assert.Equal(t, model.StatusFail, result.Status)
	assert.Equal(t, 1, result.FailedSensors)
	assert.Equal(t, 1, result.WarningSensors) // DIMM over warn threshold

	types := violationTypes(result)
	assert.Contains(t, types, ViolationOvertemperature)
	assert.Contains(t, types, ViolationWarningTemperature)
}

func TestValidateFansPicksUpRPMUnit(t *testing.T) {
	readings := model.SensorReadings{
		"FAN1":      reading("8400", "RPM", "ok"),
		"FAN2":      reading("8280", "RPM", "ok"),
		"CPU0_TEMP": reading("52", "degrees C", "ok"),
	}

	result := ValidateFans(readings)

	assert.Equal(t, model.StatusPass, result.Status)
	assert.Equal(t, 2, result.ActuallyChecked)
	assert.Equal(t, 2, result.PassedSensors)
}

func TestValidateFansOutOfRange(t *testing.T) {
	readings := model.SensorReadings{
		"FAN1": reading("42", "RPM", "ok"),
		"FAN2": reading("8280", "RPM", "ok"),
	}

	result := ValidateFans(readings)

	assert.Equal(t, model.StatusFail, result.Status)
	require.Len(t, result.Violations, 1)
	assert.Equal(t, ViolationOutOfRange, result.Violations[0].Type)
	assert.Equal(t, "FAN1", result.Violations[0].Sensor)
}

func TestValidateFansUnparseableSkipped(t *testing.T) {
	readings := model.SensorReadings{
		"FAN1": reading("na", "RPM", "nr"),
		"FAN2": reading("8280", "RPM", "ok"),
	}

	result := ValidateFans(readings)

	assert.Equal(t, model.StatusPass, result.Status)
	assert.Equal(t, 1, result.SkippedSensors)
}

func TestValidatePowerRange(t *testing.T) {
	readings := model.SensorReadings{
		"PSU1_PIN": reading("284", "Watts", "ok"),
		"PSU2_PIN": reading("2150", "Watts", "ok"),
	}

	result := ValidatePower(readings)

	assert.Equal(t, model.StatusFail, result.Status)
	require.Len(t, result.Violations, 1)
	assert.Equal(t, "PSU2_PIN", result.Violations[0].Sensor)
}

func TestValidateDiscreteCriticalVsWarning(t *testing.T) {
	readings := model.SensorReadings{
		"PSU1_Status":     reading("0x0000", "discrete", "0x0280"),
		"Chassis_Intru":   reading("0x0000", "discrete", "0x0180"),
		"Watchdog_Status": reading("0x0000", "discrete", "0x0080"),
	}

	result := ValidateDiscrete(readings, testLimits())

	assert.Equal(t, model.StatusFail, result.Status)
	assert.Equal(t, 1, result.FailedSensors)  // PSU1 critical-if-different
	assert.Equal(t, 1, result.WarningSensors) // chassis intrusion only warns
	assert.Equal(t, 1, result.PassedSensors)

	types := violationTypes(result)
	assert.Contains(t, types, ViolationCriticalStatus)
	assert.Contains(t, types, ViolationWarningStatus)
}

func TestValidateHealthySystem(t *testing.T) {
	readings := model.SensorReadings{
		"P_12V":           reading("12.08", "Volts", "ok"),
		"P_3V3_AUX":       reading("3.33", "Volts", "ok"),
		"CPU0_TEMP":       reading("52", "degrees C", "ok"),
		"DIMM_TEMP":       reading("43", "degrees C", "ok"),
		"FAN1":            reading("8400", "RPM", "ok"),
		"PSU1_PIN":        reading("284", "Watts", "ok"),
		"PSU1_Status":     reading("0x0000", "discrete", "0x0180"),
		"Chassis_Intru":   reading("0x0000", "discrete", "0x0080"),
		"Watchdog_Status": reading("0x0000", "discrete", "0x0080"),
	}

	report := Validate(readings, testLimits(), "sensor_limits.json")

	assert.Equal(t, model.StatusPass, report.OverallStatus)
	assert.Equal(t, 5, report.Summary.CategoriesChecked)
	assert.Equal(t, 0, report.Summary.TotalViolations)
	assert.Equal(t, len(readings), report.ValidationInfo.TotalSensorsAvailable)
	assert.Equal(t, "RSMB-MS93-FS0", report.ValidationInfo.BoardModel)
}

func TestValidateOverallStatusEscalates(t *testing.T) {
	readings := model.SensorReadings{
		"P_12V":           reading("13.1", "Volts", "ok"), // hard overvoltage
		"P_3V3_AUX":       reading("3.33", "Volts", "ok"),
		"CPU0_TEMP":       reading("52", "degrees C", "ok"),
		"DIMM_TEMP":       reading("43", "degrees C", "ok"),
		"PSU1_Status":     reading("0x0000", "discrete", "0x0180"),
		"Chassis_Intru":   reading("0x0000", "discrete", "0x0080"),
		"Watchdog_Status": reading("0x0000", "discrete", "0x0080"),
	}

	report := Validate(readings, testLimits(), "sensor_limits.json")

	assert.Equal(t, model.StatusFail, report.OverallStatus)
	assert.Equal(t, model.StatusFail, report.CategoryResults.Voltages.Status)
	assert.Equal(t, model.StatusPass, report.CategoryResults.Temperatures.Status)
}

func TestValidateNoReadingsIsCollectionFailure(t *testing.T) {
	report := Validate(model.SensorReadings{}, testLimits(), "sensor_limits.json")

	assert.Equal(t, model.StatusError, report.OverallStatus)
	require.NotNil(t, report.ErrorDetails)
	assert.Equal(t, "SENSOR_COLLECTION_FAILED", report.ErrorDetails.ErrorType)
	assert.Nil(t, report.CategoryResults)
}

func TestCollectionFailedReport(t *testing.T) {
	report := CollectionFailed("sensor_limits.json", "RSMB-MS93-FS0", assert.AnError)

	assert.Equal(t, model.StatusError, report.OverallStatus)
	require.NotNil(t, report.ErrorDetails)
	assert.Equal(t, "collect_sensor_data", report.ErrorDetails.Stage)
	assert.Equal(t, assert.AnError.Error(), report.ErrorDetails.ErrorMessage)
}

func TestRunCategoryRecoversPanic(t *testing.T) {
	result := runCategory("voltages", func() *CategoryResult {
		panic("boom")
	})

	require.NotNil(t, result)
	assert.Equal(t, model.StatusError, result.Status)
	assert.Equal(t, "boom", result.Error)
	assert.Zero(t, result.ActuallyChecked)
	assert.Empty(t, result.Violations)
}

func TestLimitsUnmarshalSkipsCommentKeys(t *testing.T) {
	raw := `{
		"board_model": "RSMB-MS93-FS0",
		"voltage_limits": {
			"comment": "12V rail limits per the board spec",
			"P_12V": {"min": 11.4, "max": 12.6, "warn_min": 11.6, "warn_max": 12.4}
		},
		"temperature_limits": {
			"comment": "ambient assumed 25C",
			"CPU0_TEMP": {"min": 5, "max": 95, "warn": 85}
		},
		"discrete_sensors": {
			"acceptable_statuses": {
				"comment": "raw event bytes",
				"PSU1_Status": ["0x0180"]
			},
			"critical_if_different": ["PSU1_Status"]
		},
		"validation_rules": {
			"critical_sensors": ["CPU0_TEMP"],
			"optional_sensors": []
		}
	}`

	var limits Limits
	require.NoError(t, json.Unmarshal([]byte(raw), &limits))
	require.NoError(t, limits.Validate())

	assert.Len(t, limits.Voltage, 1)
	assert.Len(t, limits.Temperature, 1)
	assert.Len(t, limits.Discrete.AcceptableStatuses, 1)
	require.NotNil(t, limits.Voltage["P_12V"].Min)
	assert.InDelta(t, 11.4, *limits.Voltage["P_12V"].Min, 0.0001)
}

func TestLimitsValidateNamesMissingTable(t *testing.T) {
	var limits Limits
	require.NoError(t, json.Unmarshal([]byte(`{"voltage_limits": {}}`), &limits))

	err := limits.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrMalformedLimits)
	assert.Contains(t, err.Error(), "temperature_limits")
}

func violationTypes(result *CategoryResult) []string {
	types := make([]string, 0, len(result.Violations))
	for _, v := range result.Violations {
		types = append(types, v.Type)
	}

	return types
}
