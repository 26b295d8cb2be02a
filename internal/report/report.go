// Package report writes the run artifacts: the hardware diff report, the
// sensor validation report, and a run envelope tying them together. Each
// run gets its own directory so reruns on the same unit never clobber
// earlier evidence.
package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/metal-toolbox/hwqa/internal/diff"
	"github.com/metal-toolbox/hwqa/internal/model"
	"github.com/metal-toolbox/hwqa/internal/sensors"
)

var ErrReportWrite = errors.New("failed to write report")

const (
	hardwareReportFile = "hardware_diff.json"
	sensorReportFile   = "sensor_validation.json"
	runReportFile      = "run.json"
)

// StepOutcome records one harness step in the run envelope.
type StepOutcome struct {
	Step    string `json:"step"`
	Status  string `json:"status"`
	Details string `json:"details,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Run is the envelope for one harness run.
type Run struct {
	RunID           uuid.UUID     `json:"run_id"`
	BoardModel      string        `json:"board_model"`
	StartedAt       time.Time     `json:"started_at"`
	CompletedAt     time.Time     `json:"completed_at"`
	DurationSeconds float64       `json:"duration_seconds"`
	OverallStatus   model.Status  `json:"overall_status"`
	Steps           []StepOutcome `json:"steps"`

	HardwareReport string `json:"hardware_report,omitempty"`
	SensorReport   string `json:"sensor_report,omitempty"`
}

func NewRun(boardModel string) *Run {
	return &Run{
		RunID:      uuid.New(),
		BoardModel: boardModel,
		StartedAt:  time.Now(),
	}
}

// Complete stamps the end of the run and folds the final verdict.
func (r *Run) Complete(status model.Status) {
	r.CompletedAt = time.Now()
	r.DurationSeconds = r.CompletedAt.Sub(r.StartedAt).Seconds()
	r.OverallStatus = status
}

// Writer writes the artifacts of one run under its own directory.
type Writer struct {
	dir string
}

// NewWriter creates the per-run directory under reportDir.
func NewWriter(reportDir string, runID uuid.UUID) (*Writer, error) {
	dir := filepath.Join(reportDir, time.Now().Format("20060102_150405")+"_"+runID.String())

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, errors.Wrap(ErrReportWrite, err.Error())
	}

	return &Writer{dir: dir}, nil
}

func (w *Writer) Dir() string {
	return w.dir
}

// WriteHardwareReport writes the diff report and returns its path.
func (w *Writer) WriteHardwareReport(report *diff.Report) (string, error) {
	return w.writeJSON(hardwareReportFile, report)
}

// WriteSensorReport writes the sensor validation report and returns its path.
func (w *Writer) WriteSensorReport(report *sensors.Report) (string, error) {
	return w.writeJSON(sensorReportFile, report)
}

// WriteRun writes the run envelope and returns its path.
func (w *Writer) WriteRun(run *Run) (string, error) {
	return w.writeJSON(runReportFile, run)
}

func (w *Writer) writeJSON(name string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", errors.Wrap(ErrReportWrite, err.Error())
	}

	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return "", errors.Wrap(ErrReportWrite, err.Error())
	}

	return path, nil
}
