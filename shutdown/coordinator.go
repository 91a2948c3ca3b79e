package shutdown

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"

	lcerrors "github.com/vinayprograms/lifecycle/errors"
	"github.com/vinayprograms/lifecycle/telemetry"
)

// Coordinator owns the event queue and runs the single event loop that
// decides when tasks are told to shut down.
type Coordinator struct {
	config Config
	queue  *eventQueue
	handle Handle

	serving atomic.Bool
	done    chan struct{}
	report  *Report
}

// NewCoordinator creates a new coordinator. Zero fields in config are filled
// from DefaultConfig. Tasks may be spawned before Serve is called; they start
// running once it is.
func NewCoordinator(config Config) *Coordinator {
	defaults := DefaultConfig()
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}
	if config.Tracer == nil {
		config.Tracer = defaults.Tracer
	}
	if config.Exporter == nil {
		config.Exporter = defaults.Exporter
	}
	if config.Signals == nil {
		config.Signals = defaults.Signals
	}

	queue := newEventQueue()
	return &Coordinator{
		config: config,
		queue:  queue,
		handle: Handle{queue: queue},
		done:   make(chan struct{}),
	}
}

// Handle returns a Handle bound to this coordinator.
func (c *Coordinator) Handle() Handle {
	return c.handle
}

// Spawn is shorthand for c.Handle().Spawn.
func (c *Coordinator) Spawn(name string, fn TaskFunc) Handle {
	return c.handle.Spawn(name, fn)
}

// Shutdown is shorthand for c.Handle().Shutdown.
func (c *Coordinator) Shutdown() {
	c.handle.Shutdown()
}

// Done returns a channel that is closed when Serve has returned.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// Report returns the result of the serve cycle.
// Only valid after Done() is closed.
func (c *Coordinator) Report() *Report {
	select {
	case <-c.done:
		return c.report
	default:
		return nil
	}
}

// liveTask is the coordinator's bookkeeping for a task that has not been
// reaped yet.
type liveTask struct {
	name    string
	trigger trigger
	span    trace.Span
}

// cycle holds the state of one Serve call. Only the serve goroutine touches it.
type cycle struct {
	ctx     context.Context
	group   *taskGroup
	live    map[string]*liveTask
	report  *Report
	taskErr error
	joinErr error
}

// Serve runs every spawned task and blocks until all of them have returned.
//
// It starts draining when SIGINT or SIGTERM arrives, when Shutdown is called,
// when ctx is cancelled, when a task returns Fatal, or when every caller task
// has returned. Draining resolves every outstanding Token and waits; tasks are
// never killed.
//
// err reports the coordinator's own failures: a signal listener that could not
// be registered (no task runs) or a task that did not complete normally. It
// takes precedence over taskErr, which is the first error a task returned with
// Fatal.
func (c *Coordinator) Serve(ctx context.Context) (taskErr error, err error) {
	if !c.serving.CompareAndSwap(false, true) {
		return nil, ErrAlreadyServing
	}

	start := time.Now()
	ctx, span := c.config.Tracer.StartServeSpan(ctx)
	cy := &cycle{
		ctx:    ctx,
		group:  newTaskGroup(),
		live:   make(map[string]*liveTask),
		report: &Report{},
	}

	listeners, err := c.watchSignals()
	if err != nil {
		c.queue.close()
		cy.report.Reason = ReasonSetupFailed
		cy.joinErr = err
	} else {
		// Listeners bypass the queue so they run even if draining starts
		// before their turn would come.
		for _, ev := range listeners {
			c.start(cy, ev)
		}
		c.run(cy)
		c.drain(cy)
	}

	return c.finish(cy, span, start)
}

// watchSignals registers a listener per watched signal and returns their
// tasks. On failure every listener registered so far is stopped.
func (c *Coordinator) watchSignals() ([]newTask, error) {
	var stops []func()
	var tasks []newTask

	for _, sig := range watchedSignals {
		c.config.Logger.Debug("signal_listener_create", map[string]interface{}{"signal": sig.String()})
		ch, stop, err := c.config.Signals.Notify(sig)
		if err != nil {
			for _, stop := range stops {
				stop()
			}
			c.config.Logger.Error("signal_listener_failed", map[string]interface{}{
				"signal": sig.String(),
				"error":  err.Error(),
			})
			return nil, lcerrors.SignalListener(sig.String(), err)
		}
		stops = append(stops, stop)
		tasks = append(tasks, c.handle.newTask(fmt.Sprintf("signal listener (%s)", sig),
			signalListener(c.handle, sig, ch, stop, c.signalReceived)))
	}
	return tasks, nil
}

func (c *Coordinator) signalReceived(sig Signal) {
	c.config.Logger.SignalReceived(sig.String())
}

// run consumes events until a terminating condition is met.
func (c *Coordinator) run(cy *cycle) {
	for {
		select {
		case <-cy.ctx.Done():
			cy.report.Reason = ReasonContextCanceled
			return

		case ev := <-c.queue.receive():
			switch ev := ev.(type) {
			case newTask:
				c.start(cy, ev)

			case shutdownRequested:
				c.config.Logger.Debug("shutdown_requested")
				cy.report.Reason = ReasonShutdownRequested
				return

			case signalObserved:
				cy.report.Reason = ReasonSignal
				cy.report.Signal = ev.signal.String()
				return

			case taskCompleted:
				// Reap exactly one unit per completion event so the group's
				// count tracks completions the loop has seen.
				res, ok := cy.group.Next()
				if !ok {
					cy.report.Reason = ReasonAllTasksCompleted
					return
				}
				c.reaped(cy, res)

				if ev.status.IsFatal() {
					if cy.taskErr == nil {
						cy.taskErr = ev.status.Err()
						if cy.taskErr == nil {
							cy.taskErr = lcerrors.TaskFailed(ev.id, ev.name, nil)
						}
					}
					c.config.Logger.Error("task_fatal", map[string]interface{}{
						"task":    ev.name,
						"task_id": ev.id,
					})
					cy.report.Reason = ReasonFatalError
					return
				}

				if cy.group.Len() <= len(watchedSignals) {
					cy.report.Reason = ReasonAllTasksCompleted
					return
				}
			}
		}
	}
}

// start submits a task to the group.
func (c *Coordinator) start(cy *cycle, ev newTask) {
	tracer := c.config.Tracer
	_, span := tracer.StartTaskSpan(cy.ctx, ev.id, ev.name)
	cy.live[ev.id] = &liveTask{name: ev.name, trigger: ev.trigger, span: span}

	cy.group.Go(ev.id, ev.name, func() (status ExitStatus) {
		status = Fatal(ErrTaskPanicked)
		defer func() {
			tracer.EndTaskSpan(span, status.String(), status.Err())
		}()
		return ev.unit()
	})

	c.config.Logger.TaskSpawned(ev.id, ev.name)
	c.config.Exporter.LogEvent("task_spawned", map[string]interface{}{
		"task":    ev.name,
		"task_id": ev.id,
	})
}

// drain resolves every outstanding Token and reaps every unit.
func (c *Coordinator) drain(cy *cycle) {
	// Nothing sent from here on is consumed.
	c.queue.close()

	reason := string(cy.report.Reason)
	c.config.Logger.DrainStart(reason, cy.group.Len())
	c.config.Exporter.LogEvent("drain_start", map[string]interface{}{
		"reason":    reason,
		"signal":    cy.report.Signal,
		"remaining": cy.group.Len(),
	})

	for id, t := range cy.live {
		c.config.Logger.TaskShutdown(id, t.name)
		c.config.Tracer.AddShutdownEvent(t.span, reason)
		t.trigger.release()
	}

	cy.group.Wait(func(res taskResult) {
		c.reaped(cy, res)
	})
}

// reaped records a finished unit.
func (c *Coordinator) reaped(cy *cycle, res taskResult) {
	if t, ok := cy.live[res.id]; ok {
		t.trigger.release()
		delete(cy.live, res.id)
	}

	if res.joinErr != nil {
		c.config.Logger.JoinFailure(res.id, res.name, res.joinErr)
		if cy.joinErr == nil {
			cy.joinErr = res.joinErr
		}
	}

	result := TaskResult{
		ID:       res.id,
		Name:     res.name,
		Status:   res.status,
		Duration: res.finished.Sub(res.started),
		JoinErr:  res.joinErr,
	}
	cy.report.Tasks = append(cy.report.Tasks, result)

	c.config.Logger.TaskCompleted(res.id, res.name, res.status.String(), result.Duration, res.status.Err())

	data := map[string]interface{}{
		"task":     res.name,
		"task_id":  res.id,
		"status":   res.status.String(),
		"duration": result.Duration.String(),
	}
	if err := res.status.Err(); err != nil {
		data["error"] = err.Error()
	}
	c.config.Exporter.LogEvent("task_completed", data)

	if c.config.OnProgress != nil {
		c.config.OnProgress(result)
	}
}

// finish builds the report and picks the return values.
func (c *Coordinator) finish(cy *cycle, span trace.Span, start time.Time) (error, error) {
	report := cy.report
	report.TotalDuration = time.Since(start)

	var taskErr, err error
	if cy.joinErr != nil {
		err = cy.joinErr
	} else {
		taskErr = cy.taskErr
	}
	report.TaskErr = cy.taskErr
	report.Err = err

	c.config.Logger.DrainComplete(report.TotalDuration, err)
	c.config.Tracer.EndServeSpan(span, serveSpanOptions(report), err)

	data := map[string]interface{}{
		"reason":   string(report.Reason),
		"duration": report.TotalDuration.String(),
		"tasks":    len(report.Tasks),
	}
	if err != nil {
		data["error"] = err.Error()
	}
	if cy.taskErr != nil {
		data["task_error"] = cy.taskErr.Error()
	}
	c.config.Exporter.LogEvent("serve_complete", data)
	if ferr := c.config.Exporter.Flush(); ferr != nil {
		c.config.Logger.Warn("exporter_flush_failed", map[string]interface{}{"error": ferr.Error()})
	}

	c.report = report
	close(c.done)
	return taskErr, err
}

func serveSpanOptions(r *Report) telemetry.ServeSpanOptions {
	return telemetry.ServeSpanOptions{
		Reason:    string(r.Reason),
		Signal:    r.Signal,
		Tasks:     len(r.Tasks),
		TaskError: r.TaskErr,
	}
}
