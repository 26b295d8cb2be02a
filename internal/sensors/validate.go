package sensors

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/metal-toolbox/hwqa/internal/model"
)

// ValidationInfo dates the validation and names its inputs.
type ValidationInfo struct {
	LimitsFile            string `json:"limits_file"`
	ValidationDate        string `json:"validation_date"`
	BoardModel            string `json:"board_model"`
	TotalSensorsAvailable int    `json:"total_sensors_available"`
}

// CategoryResults groups the five validators under their report keys.
type CategoryResults struct {
	Voltages     *CategoryResult `json:"voltages"`
	Temperatures *CategoryResult `json:"temperatures"`
	Fans         *CategoryResult `json:"fans"`
	Power        *CategoryResult `json:"power"`
	Discrete     *CategoryResult `json:"discrete"`
}

func (c *CategoryResults) all() []*CategoryResult {
	return []*CategoryResult{c.Voltages, c.Temperatures, c.Fans, c.Power, c.Discrete}
}

// Summary counts sensors across all categories. TotalChecked counts only
// sensors that were actually present and evaluated.
type Summary struct {
	TotalChecked      int `json:"total_checked"`
	TotalPassed       int `json:"total_passed"`
	TotalViolations   int `json:"total_violations"`
	CategoriesChecked int `json:"categories_checked"`
}

// ErrorDetails distinguishes "could not judge" from "judged and failed".
type ErrorDetails struct {
	ErrorType    string `json:"error_type"`
	ErrorMessage string `json:"error_message"`
	Stage        string `json:"stage"`
}

const errorTypeCollectionFailed = "SENSOR_COLLECTION_FAILED"

// Report is the full sensor validation document.
type Report struct {
	ValidationInfo  ValidationInfo       `json:"validation_info"`
	OverallStatus   model.Status         `json:"overall_status"`
	CategoryResults *CategoryResults     `json:"category_results,omitempty"`
	Summary         Summary              `json:"summary"`
	RawSensorData   model.SensorReadings `json:"raw_sensor_data,omitempty"`
	ErrorDetails    *ErrorDetails        `json:"error_details,omitempty"`
}

// Validate runs all five category validators over the readings and folds
// their statuses into one verdict. A panicking category is replaced by an
// ERROR stub and the remaining categories still run; nothing escapes this
// boundary.
func Validate(readings model.SensorReadings, limits *Limits, limitsFile string) *Report {
	report := &Report{
		ValidationInfo: ValidationInfo{
			LimitsFile:            limitsFile,
			ValidationDate:        time.Now().Format("2006-01-02 15:04:05"),
			BoardModel:            limits.BoardModel,
			TotalSensorsAvailable: len(readings),
		},
		RawSensorData: readings,
	}

	if len(readings) == 0 {
		report.OverallStatus = model.StatusError
		report.ErrorDetails = &ErrorDetails{
			ErrorType:    errorTypeCollectionFailed,
			ErrorMessage: "no sensor readings collected",
			Stage:        "collect_sensor_data",
		}

		return report
	}

	report.CategoryResults = &CategoryResults{
		Voltages:     runCategory("voltages", func() *CategoryResult { return ValidateVoltages(readings, limits) }),
		Temperatures: runCategory("temperatures", func() *CategoryResult { return ValidateTemperatures(readings, limits) }),
		Fans:         runCategory("fans", func() *CategoryResult { return ValidateFans(readings) }),
		Power:        runCategory("power", func() *CategoryResult { return ValidatePower(readings) }),
		Discrete:     runCategory("discrete", func() *CategoryResult { return ValidateDiscrete(readings, limits) }),
	}

	for _, category := range report.CategoryResults.all() {
		report.OverallStatus = model.Escalate(report.OverallStatus, category.Status)

		if category.Status != model.StatusError {
			report.Summary.CategoriesChecked++
		}

		report.Summary.TotalChecked += category.ActuallyChecked
		report.Summary.TotalPassed += category.PassedSensors
		report.Summary.TotalViolations += len(category.Violations)
	}

	return report
}

// CollectionFailed builds the report for a run whose sensor collection
// failed outright: an ERROR verdict, never conflated with FAIL.
func CollectionFailed(limitsFile, boardModel string, err error) *Report {
	return &Report{
		ValidationInfo: ValidationInfo{
			LimitsFile:     limitsFile,
			ValidationDate: time.Now().Format("2006-01-02 15:04:05"),
			BoardModel:     boardModel,
		},
		OverallStatus: model.StatusError,
		ErrorDetails: &ErrorDetails{
			ErrorType:    errorTypeCollectionFailed,
			ErrorMessage: err.Error(),
			Stage:        "collect_sensor_data",
		},
	}
}

// runCategory is the panic boundary around one category validator.
func runCategory(name string, validate func() *CategoryResult) (result *CategoryResult) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("sensor category validation panicked",
				"category", name, "recover", rec, "stack", string(debug.Stack()))

			result = errorStub(fmt.Sprint(rec))
		}
	}()

	return validate()
}
