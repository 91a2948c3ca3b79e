package shutdown

import (
	"github.com/google/uuid"
)

// TaskFunc is the body of a task. It runs on its own goroutine, should return
// promptly once token resolves, and reports how it ended.
type TaskFunc func(token Token) ExitStatus

// Handle registers tasks with, and requests shutdown from, one Coordinator.
// Handles are plain values: copy them freely, including into running tasks.
// Obtain one from Coordinator.Handle; the zero Handle is not usable.
type Handle struct {
	queue *eventQueue
}

// Spawn registers a task under name and returns the Handle for chaining.
// Names are labels only; duplicates are allowed. Spawn never blocks. If the
// coordinator has already stopped accepting events, the task is dropped and
// fn never runs.
func (h Handle) Spawn(name string, fn TaskFunc) Handle {
	h.queue.send(h.newTask(name, fn))
	return h
}

// newTask wraps fn so that its exit is always reported to the coordinator,
// even if fn panics.
func (h Handle) newTask(name string, fn TaskFunc) newTask {
	token, trig := newToken()
	id := uuid.NewString()

	unit := func() (status ExitStatus) {
		// Overwritten by a normal return; survives only if fn panics.
		status = Fatal(ErrTaskPanicked)
		defer func() {
			h.queue.send(taskCompleted{id: id, name: name, status: status})
		}()
		return fn(token)
	}
	return newTask{id: id, name: name, trigger: trig, unit: unit}
}

// Shutdown asks the coordinator to shut every task down. It does not wait.
// Calling it more than once has no further effect.
func (h Handle) Shutdown() {
	h.queue.send(shutdownRequested{})
}

func (h Handle) onSignal(sig Signal) {
	h.queue.send(signalObserved{signal: sig})
}
