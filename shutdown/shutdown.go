package shutdown

import (
	"errors"
	"time"

	lcerrors "github.com/vinayprograms/lifecycle/errors"
	"github.com/vinayprograms/lifecycle/logging"
	"github.com/vinayprograms/lifecycle/telemetry"
)

// Common errors.
var (
	// ErrAlreadyServing is returned by Serve when called more than once.
	ErrAlreadyServing error = lcerrors.New(lcerrors.ErrCodeAlreadyServing, "coordinator is already serving")

	// ErrShutdownRequested is the cause reported by a resolved Token.
	ErrShutdownRequested = errors.New("shutdown requested")

	// ErrTaskPanicked is the fatal error recorded for a task whose body panicked.
	ErrTaskPanicked = errors.New("task panicked")
)

// Reason records why a serve cycle began draining.
type Reason string

const (
	ReasonSignal            Reason = "signal"
	ReasonShutdownRequested Reason = "shutdown_requested"
	ReasonFatalError        Reason = "fatal_error"
	ReasonAllTasksCompleted Reason = "all_tasks_completed"
	ReasonContextCanceled   Reason = "context_canceled"
	ReasonSetupFailed       Reason = "setup_failed"
)

// TaskResult contains the outcome of a single task.
type TaskResult struct {
	// ID is the unique id assigned at Spawn.
	ID string

	// Name the task was spawned with.
	Name string

	// Status the task returned.
	Status ExitStatus

	// Duration how long the task ran.
	Duration time.Duration

	// JoinErr is set if the task did not complete normally.
	JoinErr error
}

// Report describes a finished serve cycle.
type Report struct {
	// Reason the coordinator started draining.
	Reason Reason

	// Signal is the name of the signal that triggered draining, if any.
	Signal string

	// TotalDuration of the serve cycle.
	TotalDuration time.Duration

	// Tasks lists every task reaped, in completion order, including the
	// built-in signal listeners.
	Tasks []TaskResult

	// TaskErr is the first fatal task error, if any.
	TaskErr error

	// Err is the supervisor's own failure (setup or join), if any.
	Err error
}

// Failed returns true if the cycle ended with any error.
func (r *Report) Failed() bool {
	return r.Err != nil || r.TaskErr != nil
}

// FailedTasks returns the names of tasks that exited fatally or did not
// complete normally.
func (r *Report) FailedTasks() []string {
	var failed []string
	for _, tr := range r.Tasks {
		if tr.Status.IsFatal() || tr.JoinErr != nil {
			failed = append(failed, tr.Name)
		}
	}
	return failed
}

// SoftErrors returns the tasks that exited with Failure.
func (r *Report) SoftErrors() []TaskResult {
	var soft []TaskResult
	for _, tr := range r.Tasks {
		if tr.Status.Kind() == StatusError {
			soft = append(soft, tr)
		}
	}
	return soft
}

// Config configures the coordinator.
type Config struct {
	// Logger receives lifecycle log lines.
	// Default: logging.New().WithComponent("lifecycle")
	Logger *logging.Logger

	// Tracer records a span per serve cycle and per task.
	// Default: telemetry.GetTracer()
	Tracer *telemetry.Tracer

	// Exporter receives lifecycle events.
	// Default: no-op
	Exporter telemetry.Exporter

	// Signals registers the SIGINT and SIGTERM listeners.
	// Default: OSSignals()
	Signals SignalSource

	// OnProgress is called on the serve goroutine after each task is reaped.
	// It must not block.
	OnProgress func(result TaskResult)
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Logger:   logging.New().WithComponent("lifecycle"),
		Tracer:   telemetry.GetTracer(),
		Exporter: telemetry.NewNoopExporter(),
		Signals:  OSSignals(),
	}
}
