package harness

import (
	"context"
	"fmt"
	"log/slog"

	rctypes "github.com/metal-toolbox/rivets/condition"
	"github.com/pkg/errors"

	"github.com/metal-toolbox/hwqa/internal/bmc"
	"github.com/metal-toolbox/hwqa/internal/collect"
	"github.com/metal-toolbox/hwqa/internal/diff"
	"github.com/metal-toolbox/hwqa/internal/metrics"
	"github.com/metal-toolbox/hwqa/internal/model"
	"github.com/metal-toolbox/hwqa/internal/report"
	"github.com/metal-toolbox/hwqa/internal/sensors"
	"github.com/metal-toolbox/hwqa/internal/store"
)

// Environment is everything a step may touch: the BMC session, the
// collectors, the reference documents and the report writer for this run.
type Environment struct {
	BMC        bmc.BMC
	Collector  collect.Collector
	Repository store.Repository
	Writer     *report.Writer
	Run        *report.Run
	LimitsFile string
	BoardModel string
}

// StepStatus has status about a step, to be reported as part of the overall task.
type StepStatus struct {
	Step    string `json:"step"`
	Status  string `json:"status"`
	Details string `json:"details,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewStepStatus will create a new step status struct
func NewStepStatus(stepName string, state rctypes.State, details string, err error) *StepStatus {
	status := &StepStatus{
		Step:    stepName,
		Status:  string(state),
		Details: details,
	}

	if err != nil {
		status.Error = err.Error()
	}

	return status
}

func (s *StepStatus) AsLogFields() []any {
	return []any{
		"step", s.Step,
		"status", s.Status,
		"details", s.Details,
		"error", s.Error,
	}
}

// Step is a unit of work. Multiple steps accomplish a task.
type Step interface {
	// Name of this step
	Name() string
	// Run will execute the code to accomplish this step
	Run(ctx context.Context, env *Environment, data sharedData) (string, error)
}

type bmcPrecheckStep struct {
	name string
}

// BMCPrecheckStep verifies the BMC answers and the host OS is up before
// any collected inventory is trusted.
func BMCPrecheckStep() Step {
	return &bmcPrecheckStep{
		name: "BMCPrecheck",
	}
}

func (t *bmcPrecheckStep) Name() string {
	return t.name
}

func (t *bmcPrecheckStep) Run(ctx context.Context, env *Environment, data sharedData) (string, error) {
	state, err := env.BMC.GetPowerState(ctx)
	if err != nil {
		return "Failed to get current power state", err
	}

	data[currentPowerStateKey] = state

	if state != model.PowerStateOn {
		slog.Info("Powering on server", "powerState", state)

		if err := env.BMC.SetPowerState(ctx, model.PowerStateOn); err != nil {
			return "Failed to power on server", err
		}
	}

	booted, err := env.BMC.HostBooted(ctx)
	if err != nil {
		return "Failed to check host boot state", err
	}

	if !booted {
		return "Host OS not booted", errors.New("host has not booted")
	}

	return "BMC session healthy, host booted, power state: " + state, nil
}

type collectInventoryStep struct {
	name string
}

// CollectInventoryStep gathers the current hardware snapshot.
func CollectInventoryStep() Step {
	return &collectInventoryStep{
		name: "CollectInventory",
	}
}

func (t *collectInventoryStep) Name() string {
	return t.name
}

func (t *collectInventoryStep) Run(ctx context.Context, env *Environment, data sharedData) (string, error) {
	snapshot, err := env.Collector.Snapshot(ctx)
	if err != nil {
		return "Failed to collect hardware snapshot", err
	}

	data[snapshotKey] = snapshot

	return fmt.Sprintf("Collected inventory: %d processors, %d DIMMs, %d PCI devices",
		len(snapshot.Processors), len(snapshot.MemoryModules), len(snapshot.PCIDevices)), nil
}

type hardwareDiffStep struct {
	name string
}

// HardwareDiffStep compares the collected snapshot against the golden
// baseline. A FAIL verdict is a result, not a step error: the step only
// errors when the comparison could not run at all.
func HardwareDiffStep() Step {
	return &hardwareDiffStep{
		name: "HardwareDiff",
	}
}

func (t *hardwareDiffStep) Name() string {
	return t.name
}

func (t *hardwareDiffStep) Run(ctx context.Context, env *Environment, data sharedData) (string, error) {
	baseline, err := env.Repository.Baseline(ctx)
	if err != nil {
		return "Failed to load baseline", err
	}

	snapshot, ok := data[snapshotKey].(*model.HardwareSnapshot)
	if !ok {
		return "No hardware snapshot collected", errors.New("missing hardware snapshot")
	}

	hwReport := diff.Compare(&baseline.HardwareSnapshot, snapshot, baseline.BaselineDate)
	data[hardwareReportKey] = hwReport

	return fmt.Sprintf("Hardware diff: %s, %d differences",
		hwReport.OverallStatus, hwReport.Summary.TotalDifferences), nil
}

type sensorValidationStep struct {
	name string
}

// SensorValidationStep validates the live BMC sensor readings against the
// published limits. A collection failure produces an ERROR report instead
// of failing the step, so the run still writes its artifacts.
func SensorValidationStep() Step {
	return &sensorValidationStep{
		name: "SensorValidation",
	}
}

func (t *sensorValidationStep) Name() string {
	return t.name
}

func (t *sensorValidationStep) Run(ctx context.Context, env *Environment, data sharedData) (string, error) {
	limits, err := env.Repository.Limits(ctx)
	if err != nil {
		return "Failed to load sensor limits", err
	}

	readings, err := env.Collector.SensorReadings(ctx)
	if err != nil {
		slog.Error("Sensor collection failed", "error", err)
		data[sensorReportKey] = sensors.CollectionFailed(env.LimitsFile, env.BoardModel, err)

		return "Sensor collection failed, recorded ERROR verdict", nil
	}

	sensorReport := sensors.Validate(readings, limits, env.LimitsFile)
	data[sensorReportKey] = sensorReport

	return fmt.Sprintf("Sensor validation: %s, %d sensors checked, %d violations",
		sensorReport.OverallStatus, sensorReport.Summary.TotalChecked, sensorReport.Summary.TotalViolations), nil
}

type writeReportsStep struct {
	name string
}

// WriteReportsStep writes the hardware and sensor reports, folds the two
// verdicts into the run verdict and stamps the run envelope.
func WriteReportsStep() Step {
	return &writeReportsStep{
		name: "WriteReports",
	}
}

func (t *writeReportsStep) Name() string {
	return t.name
}

func (t *writeReportsStep) Run(_ context.Context, env *Environment, data sharedData) (string, error) {
	hwReport, ok := data[hardwareReportKey].(*diff.Report)
	if !ok {
		return "No hardware report produced", errors.New("missing hardware report")
	}

	sensorReport, ok := data[sensorReportKey].(*sensors.Report)
	if !ok {
		return "No sensor report produced", errors.New("missing sensor report")
	}

	hwPath, err := env.Writer.WriteHardwareReport(hwReport)
	if err != nil {
		return "Failed to write hardware report", err
	}

	sensorPath, err := env.Writer.WriteSensorReport(sensorReport)
	if err != nil {
		return "Failed to write sensor report", err
	}

	env.Run.HardwareReport = hwPath
	env.Run.SensorReport = sensorPath

	metrics.CheckStatus.WithLabelValues("hardware", hwReport.OverallStatus.String()).Inc()
	metrics.CheckStatus.WithLabelValues("sensors", sensorReport.OverallStatus.String()).Inc()

	overall := model.Escalate(hwReport.OverallStatus, sensorReport.OverallStatus)
	env.Run.Complete(overall)

	return "Run verdict: " + overall.String(), nil
}
