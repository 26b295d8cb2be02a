package harness

import (
	"context"
	"encoding/json"
	"testing"

	rctypes "github.com/metal-toolbox/rivets/condition"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metal-toolbox/hwqa/internal/bmc"
	"github.com/metal-toolbox/hwqa/internal/model"
	"github.com/metal-toolbox/hwqa/internal/report"
	"github.com/metal-toolbox/hwqa/internal/sensors"
)

type fakeStep struct {
	panics bool
}

func (s *fakeStep) Name() string {
	return "fake step"
}

func (s *fakeStep) Run(_ context.Context, _ *Environment, _ sharedData) (string, error) {
	if s.panics {
		panic("step blew up")
	}

	return "", nil
}

type fakeTask struct {
	steps []Step
}

func (t *fakeTask) Name() string {
	return "fake task"
}

func (t *fakeTask) Steps() []Step {
	return t.steps
}

type fakePublisher struct {
	states []rctypes.State
}

func (m *fakePublisher) Publish(_ context.Context, _ string, state rctypes.State, _ json.RawMessage) {
	m.states = append(m.states, state)
}

type fakeCollector struct {
	snapshot  *model.HardwareSnapshot
	readings  model.SensorReadings
	sensorErr error
}

func (c *fakeCollector) Snapshot(_ context.Context) (*model.HardwareSnapshot, error) {
	return c.snapshot, nil
}

func (c *fakeCollector) SensorReadings(_ context.Context) (model.SensorReadings, error) {
	if c.sensorErr != nil {
		return nil, c.sensorErr
	}

	return c.readings, nil
}

type fakeRepository struct {
	baseline *model.Baseline
	limits   *sensors.Limits
}

func (r *fakeRepository) Baseline(_ context.Context) (*model.Baseline, error) {
	return r.baseline, nil
}

func (r *fakeRepository) Limits(_ context.Context) (*sensors.Limits, error) {
	return r.limits, nil
}

func testSnapshot() *model.HardwareSnapshot {
	return &model.HardwareSnapshot{
		Processors: []model.Processor{
			{Socket: "CPU0", Model: "INTEL(R) XEON(R) GOLD 6530", Cores: model.KnownCount(32), Threads: model.KnownCount(64)},
		},
		MemoryModules: []model.MemoryModule{
			{Slot: "DIMM_A0", Size: "32 GB", Populated: true},
		},
		PCIDevices: []model.PCIDevice{
			{BDF: "00:00.0", Class: "Host bridge", Description: "Intel Corporation Device 09a2"},
		},
		USBDevices: []model.USBDevice{
			{Bus: "001", Device: "001", VIDPID: "1d6b:0002", Description: "Linux Foundation 2.0 root hub"},
		},
		StorageDevices: []model.StorageDevice{
			{Name: "nvme0n1", Model: "SAMSUNG MZQL21T9HCJR", Size: "1.8T", Transport: "nvme", Serial: "S1"},
		},
		RiserCards: []model.RiserCard{
			{Slot: "RISER_SLOT_1", Populated: true, FRUProductName: "RISER-1", FRUSerialNumber: "GJG123", PCIeSlots: []model.PCIeSlot{}},
		},
	}
}

func testLimits() *sensors.Limits {
	min, max := 11.4, 12.6
	tMin, tMax, tWarn := 5.0, 95.0, 85.0

	return &sensors.Limits{
		BoardModel: "SB-2024",
		Voltage: sensors.VoltageLimits{
			"P_12V": {Min: &min, Max: &max},
		},
		Temperature: sensors.TemperatureLimits{
			"CPU0_TEMP": {Min: &tMin, Max: &tMax, Warn: &tWarn},
		},
		Discrete: sensors.DiscreteSensors{
			AcceptableStatuses:  sensors.AcceptableStatuses{"PSU1_Status": {"0x0180"}},
			CriticalIfDifferent: []string{"PSU1_Status"},
		},
		Rules: sensors.ValidationRules{CriticalSensors: []string{"CPU0_TEMP"}},
	}
}

func testEnvironment(t *testing.T, collector *fakeCollector) *Environment {
	t.Helper()

	run := report.NewRun("SB-2024")

	writer, err := report.NewWriter(t.TempDir(), run.RunID)
	require.NoError(t, err)

	snapshot := testSnapshot()

	return &Environment{
		BMC:       bmc.NewDryRunClient("test-host"),
		Collector: collector,
		Repository: &fakeRepository{
			baseline: &model.Baseline{
				BoardModel:       "SB-2024",
				BaselineDate:     "2026-01-15",
				HardwareSnapshot: *snapshot,
			},
			limits: testLimits(),
		},
		Writer:     writer,
		Run:        run,
		LimitsFile: "sensor_limits.json",
		BoardModel: "SB-2024",
	}
}

func healthyReadings() model.SensorReadings {
	return model.SensorReadings{
		"P_12V":       {Value: "12.048", Unit: "Volts", Status: "ok"},
		"CPU0_TEMP":   {Value: "54.000", Unit: "degrees C", Status: "ok"},
		"PSU1_Status": {Value: "0x1", Unit: "discrete", Status: "0x0180"},
	}
}

func TestTaskRunnerHandlePanic(t *testing.T) {
	task := &fakeTask{steps: []Step{&fakeStep{panics: true}}}
	runner := NewTaskRunner(&fakePublisher{}, task)

	env := testEnvironment(t, &fakeCollector{snapshot: testSnapshot()})

	err := runner.Run(context.Background(), env)

	if assert.NotNil(t, err) {
		assert.Equal(t, "Task fatal error, check logs for details", err.Error())
	}
}

func TestTaskRunnerPublishesStates(t *testing.T) {
	task := &fakeTask{steps: []Step{&fakeStep{}}}
	publisher := &fakePublisher{}
	runner := NewTaskRunner(publisher, task)

	env := testEnvironment(t, &fakeCollector{snapshot: testSnapshot()})

	require.NoError(t, runner.Run(context.Background(), env))
	require.NotEmpty(t, publisher.states)
	assert.Equal(t, rctypes.Succeeded, publisher.states[len(publisher.states)-1])
}

func TestBringUpTaskHealthyUnit(t *testing.T) {
	env := testEnvironment(t, &fakeCollector{
		snapshot: testSnapshot(),
		readings: healthyReadings(),
	})

	runner := NewTaskRunner(NewLogPublisher(), NewBringUpTask())

	require.NoError(t, runner.Run(context.Background(), env))

	assert.Equal(t, model.StatusPass, env.Run.OverallStatus)
	assert.FileExists(t, env.Run.HardwareReport)
	assert.FileExists(t, env.Run.SensorReport)

	for _, step := range runner.StepOutcomes() {
		assert.Equal(t, string(rctypes.Succeeded), step.Status, step.Step)
	}
}

func TestBringUpTaskHardwareMismatch(t *testing.T) {
	current := testSnapshot()
	current.Processors = current.Processors[:0]

	env := testEnvironment(t, &fakeCollector{
		snapshot: current,
		readings: healthyReadings(),
	})

	runner := NewTaskRunner(NewLogPublisher(), NewBringUpTask())

	require.NoError(t, runner.Run(context.Background(), env))
	assert.Equal(t, model.StatusFail, env.Run.OverallStatus)
}

func TestBringUpTaskSensorCollectionFailure(t *testing.T) {
	env := testEnvironment(t, &fakeCollector{
		snapshot:  testSnapshot(),
		sensorErr: errors.New("ipmitool: connection timeout"),
	})

	runner := NewTaskRunner(NewLogPublisher(), NewBringUpTask())

	// Collection failure is not a step error, the run completes with an
	// ERROR verdict on record.
	require.NoError(t, runner.Run(context.Background(), env))
	assert.Equal(t, model.StatusError, env.Run.OverallStatus)
	assert.FileExists(t, env.Run.SensorReport)
}
