// Package harness orchestrates a bring-up run as a task of ordered steps:
// BMC precheck, inventory collection, hardware diff, sensor validation,
// report writing. Step state is tracked and published after every
// transition so an operator watching the line sees where a unit is.
package harness

import (
	"context"
	"encoding/json"
	"log/slog"
	"runtime/debug"
	"time"

	rctypes "github.com/metal-toolbox/rivets/condition"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/metal-toolbox/hwqa/internal/metrics"
)

// sharedData carries values between steps of a task.
type sharedData map[string]interface{}

const (
	currentPowerStateKey = "currentPowerState"
	snapshotKey          = "snapshot"
	hardwareReportKey    = "hardwareReport"
	sensorReportKey      = "sensorReport"
)

// StatusPublisher receives task status after every state transition. The
// default sink logs; a file or service sink can be swapped in.
type StatusPublisher interface {
	Publish(ctx context.Context, runID string, state rctypes.State, status json.RawMessage)
}

type logPublisher struct{}

// NewLogPublisher returns a publisher that writes task status to the log.
func NewLogPublisher() StatusPublisher {
	return &logPublisher{}
}

func (p *logPublisher) Publish(_ context.Context, runID string, state rctypes.State, status json.RawMessage) {
	slog.Debug("Task status", "runId", runID, "state", string(state), "status", string(status))
}

// TaskStatus has status about a task, and it's steps.
type TaskStatus struct {
	Task       string        `json:"task"`
	Status     string        `json:"status"`
	Details    string        `json:"details,omitempty"`
	Error      string        `json:"error,omitempty"`
	ActiveStep string        `json:"active_step,omitempty"`
	Steps      []*StepStatus `json:"steps"`
}

// NewTaskStatus will generate a new task status struct
func NewTaskStatus(taskName string, state rctypes.State) *TaskStatus {
	return &TaskStatus{
		Task:   taskName,
		Status: string(state),
	}
}

func (r *TaskStatus) AsLogFields() []any {
	return []any{
		"task", r.Task,
		"status", r.Status,
		"details", r.Details,
		"error", r.Error,
	}
}

// Task is a unit of work against one unit under test, accomplished by
// running its steps in order.
type Task interface {
	// Name of the task
	Name() string
	// Steps is the multiple units of work that will accomplish this task
	Steps() []Step
}

type bringUpTask struct {
	name  string
	steps []Step
}

// NewBringUpTask creates the full bring-up QA task: precheck the BMC,
// collect the inventory, diff it against the baseline, validate the
// sensors and write the reports.
func NewBringUpTask() Task {
	return &bringUpTask{
		name: "BringUpQA",
		steps: []Step{
			BMCPrecheckStep(),
			CollectInventoryStep(),
			HardwareDiffStep(),
			SensorValidationStep(),
			WriteReportsStep(),
		},
	}
}

func (j *bringUpTask) Name() string {
	return j.name
}

func (j *bringUpTask) Steps() []Step {
	return j.steps
}

// TaskRunner will run the task by executing the individual steps in the
// task, and reports task status using the publisher.
type TaskRunner struct {
	publisher  StatusPublisher
	task       Task
	taskStatus *TaskStatus
}

// NewTaskRunner creates a TaskRunner to run a specific Task
func NewTaskRunner(publisher StatusPublisher, task Task) *TaskRunner {
	return &TaskRunner{
		publisher:  publisher,
		task:       task,
		taskStatus: NewTaskStatus(task.Name(), rctypes.Pending),
	}
}

func (r *TaskRunner) Run(ctx context.Context, env *Environment) (err error) {
	slog.Info("Running task", "task", r.task.Name(), "runId", env.Run.RunID)

	data := sharedData{}
	r.initTaskLog()

	defer func() {
		if rec := recover(); rec != nil {
			err = r.handlePanic(ctx, env, rec)
		}
	}()

	r.publishTaskUpdate(ctx, env, rctypes.Active, "Opening BMC session", nil)

	if err = env.BMC.Open(ctx); err != nil {
		r.publishFailed(ctx, env, 0, "Failed to open BMC session", err)
		return errors.Wrap(err, "failed to open BMC session")
	}
	defer env.BMC.Close(ctx)

	tracer := otel.Tracer("internal/harness")

	for stepID, step := range r.task.Steps() {
		r.publishStepUpdate(ctx, env, stepID, "Running step")

		stepCtx, span := tracer.Start(ctx, step.Name(), trace.WithSpanKind(trace.SpanKindInternal))
		start := time.Now()

		details, err := step.Run(stepCtx, env, data)

		span.End()

		if err != nil {
			metrics.ObserveStepRunTime(step.Name(), string(rctypes.Failed), start)
			r.publishFailed(ctx, env, stepID, "Step failure", err)

			return err
		}

		metrics.ObserveStepRunTime(step.Name(), string(rctypes.Succeeded), start)
		r.publishStepSuccess(ctx, env, stepID, details)
	}

	r.publishTaskSuccess(ctx, env)

	return nil
}

func (r *TaskRunner) initTaskLog() {
	steps := r.task.Steps()
	r.taskStatus.Steps = make([]*StepStatus, len(steps))

	for i, step := range steps {
		r.taskStatus.Steps[i] = NewStepStatus(step.Name(), rctypes.Pending, "", nil)
	}
}

// StepOutcomes renders the step log for the run envelope.
func (r *TaskRunner) StepOutcomes() []*StepStatus {
	return r.taskStatus.Steps
}

func (r *TaskRunner) handlePanic(ctx context.Context, env *Environment, rec any) error {
	msg := "Panic occurred while running task"
	slog.Error("!!panic occurred", "rec", rec, "stack", string(debug.Stack()))
	slog.Error(msg)
	err := errors.New("Task fatal error, check logs for details")

	r.publishTaskUpdate(ctx, env, rctypes.Failed, msg, err)

	return err
}

func (r *TaskRunner) publishStepUpdate(ctx context.Context, env *Environment, stepID int, details string) {
	r.publish(ctx, env, stepID, rctypes.Active, rctypes.Active, details, nil)
}

func (r *TaskRunner) publishStepSuccess(ctx context.Context, env *Environment, stepID int, details string) {
	r.publish(ctx, env, stepID, rctypes.Succeeded, rctypes.Active, details, nil)
}

func (r *TaskRunner) publishFailed(ctx context.Context, env *Environment, stepID int, details string, err error) {
	slog.Error("Task failed", "task", r.task.Name(), "runId", env.Run.RunID)
	r.publish(ctx, env, stepID, rctypes.Failed, rctypes.Failed, details, err)
}

func (r *TaskRunner) publishTaskSuccess(ctx context.Context, env *Environment) {
	slog.Info("Task completed successfully", "task", r.task.Name(), "runId", env.Run.RunID)
	r.publishTaskUpdate(ctx, env, rctypes.Succeeded, "Task completed successfully", nil)
}

func (r *TaskRunner) publish(ctx context.Context, env *Environment, stepID int, stepState, taskState rctypes.State, details string, err error) {
	step := r.task.Steps()[stepID]
	stepStatus := NewStepStatus(step.Name(), stepState, details, err)

	slog.With(stepStatus.AsLogFields()...).Info(details, "step", step.Name())

	r.taskStatus.Steps[stepID] = stepStatus
	r.taskStatus.ActiveStep = step.Name()

	var taskDetails string
	if err != nil {
		taskDetails = "Task failed at step " + step.Name()
	}

	r.publishTaskUpdate(ctx, env, taskState, taskDetails, err)
}

func (r *TaskRunner) publishTaskUpdate(ctx context.Context, env *Environment, state rctypes.State, details string, err error) {
	r.taskStatus.Status = string(state)
	r.taskStatus.Details = details

	if err != nil {
		r.taskStatus.Error = err.Error()
	}

	respBytes, err := json.Marshal(r.taskStatus)
	if err != nil {
		slog.Error("Failed to marshal task update", "error", err)
		return
	}

	r.publisher.Publish(ctx, env.Run.RunID.String(), state, respBytes)
}
