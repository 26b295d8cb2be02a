package sensors

import (
	"maps"
	"slices"
	"strings"

	"github.com/metal-toolbox/hwqa/internal/model"
)

// Violation kinds. Thresholds report the hard kinds before the warning
// kinds: a value that breaks both bounds is reported as the hard breach.
const (
	ViolationMissing            = "MISSING"
	ViolationMissingCritical    = "MISSING_CRITICAL"
	ViolationUnavailable        = "UNAVAILABLE"
	ViolationParseError         = "PARSE_ERROR"
	ViolationStatusWarning      = "STATUS_WARNING"
	ViolationStatusError        = "STATUS_ERROR"
	ViolationDataInconsistent   = "SENSOR_DATA_INCONSISTENT"
	ViolationUndervoltage       = "UNDERVOLTAGE"
	ViolationOvervoltage        = "OVERVOLTAGE"
	ViolationVoltageWarningLow  = "VOLTAGE_WARNING_LOW"
	ViolationVoltageWarningHigh = "VOLTAGE_WARNING_HIGH"
	ViolationUndertemperature   = "UNDERTEMPERATURE"
	ViolationOvertemperature    = "OVERTEMPERATURE"
	ViolationWarningTemperature = "WARNING_TEMPERATURE"
	ViolationOutOfRange         = "OUT_OF_RANGE"
	ViolationCriticalStatus     = "CRITICAL_STATUS"
	ViolationWarningStatus      = "WARNING_STATUS"
)

// Violation is one judged finding against a single sensor.
type Violation struct {
	Sensor   string   `json:"sensor"`
	Type     string   `json:"type"`
	Value    *float64 `json:"value,omitempty"`
	Limit    *float64 `json:"limit,omitempty"`
	Status   string   `json:"status,omitempty"`
	Expected []string `json:"expected,omitempty"`
	Message  string   `json:"message"`
}

// CategoryResult is the outcome of one sensor category. ActuallyChecked
// counts only sensors that were present; missing and skipped sensors are
// tracked separately.
type CategoryResult struct {
	ActuallyChecked int          `json:"actually_checked"`
	PassedSensors   int          `json:"passed_sensors"`
	WarningSensors  int          `json:"warning_sensors"`
	FailedSensors   int          `json:"failed_sensors"`
	MissingSensors  int          `json:"missing_sensors"`
	SkippedSensors  int          `json:"skipped_sensors"`
	Violations      []Violation  `json:"violations"`
	Status          model.Status `json:"status"`
	Error           string       `json:"error,omitempty"`
}

func newCategoryResult() *CategoryResult {
	return &CategoryResult{Violations: []Violation{}}
}

func (r *CategoryResult) addViolation(v Violation) {
	r.Violations = append(r.Violations, v)
}

// deriveStatus settles the category verdict from the counters.
func (r *CategoryResult) deriveStatus() {
	switch {
	case r.FailedSensors > 0:
		r.Status = model.StatusFail
	case r.MissingSensors > 0 || r.WarningSensors > 0:
		r.Status = model.StatusWarning
	default:
		r.Status = model.StatusPass
	}
}

// errorStub replaces a category whose evaluation blew up: zero counters, an
// ERROR status, and the message for the report.
func errorStub(message string) *CategoryResult {
	return &CategoryResult{
		Violations: []Violation{},
		Status:     model.StatusError,
		Error:      message,
	}
}

func ptr(v float64) *float64 { return &v }

// Sensor status strings the BMC may report. ok and nc (no contact, normal
// for empty slots) pass outright; nr (no reading) and ns (not specified)
// are degraded but tolerated.
var (
	acceptableStatuses = map[string]struct{}{"ok": {}, "nc": {}}
	warningStatuses    = map[string]struct{}{"nr": {}, "ns": {}}
)

func statusAcceptable(status string) bool {
	_, ok := acceptableStatuses[strings.ToLower(status)]
	return ok
}

func statusWarning(status string) bool {
	_, ok := warningStatuses[strings.ToLower(status)]
	return ok
}

// sortedNames fixes iteration order over a limit table or reading map so
// repeated runs emit identical violation ordering.
func sortedNames[T any](m map[string]T) []string {
	return slices.Sorted(maps.Keys(m))
}
