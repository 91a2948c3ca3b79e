// Package errors provides the structured error taxonomy used by the lifecycle
// supervisor. Errors carry a code, a category, an optional task attribution and
// an optional cause, so callers of Coordinator.Serve can tell a setup failure
// from a task that could not be driven to completion.
//
// # Error Categories
//
//   - Setup: failures before any task runs (signal listener registration, config)
//   - Task: failures attributed to a single task (join failures, fatal exits)
//   - Internal: unexpected conditions inside the supervisor itself
//
// # Error Codes
//
//   - SIGNAL_LISTENER: an OS signal listener could not be registered
//   - TASK_JOIN: a task's goroutine did not finish normally (it panicked)
//   - TASK_FAILED: a task reported a fatal exit status
//   - ALREADY_SERVING: Serve was called on a coordinator more than once
//   - And more...
//
// # Usage
//
//	err := errors.New(errors.ErrCodeTaskJoin, "task did not complete",
//	    errors.WithTask(id, name))
//
//	if errors.Is(err, errors.ErrCodeTaskJoin) {
//	    // the supervisor lost a task to a panic
//	}
//
// All errors support JSON serialization so they can be shipped through a
// telemetry exporter:
//
//	data, err := json.Marshal(lcErr)
package errors
