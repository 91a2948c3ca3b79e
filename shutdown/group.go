package shutdown

import (
	"time"

	lcerrors "github.com/vinayprograms/lifecycle/errors"
)

// taskResult is what the group reports for each finished unit.
type taskResult struct {
	id       string
	name     string
	status   ExitStatus
	joinErr  error
	started  time.Time
	finished time.Time
}

// taskGroup runs units on their own goroutines and hands their results back
// one at a time. It is owned by the coordinator goroutine; only the results
// channel is shared.
type taskGroup struct {
	results chan taskResult
	running int
}

func newTaskGroup() *taskGroup {
	return &taskGroup{results: make(chan taskResult)}
}

// Go starts unit. A panic inside unit is recovered and reported as a join
// failure with a Fatal(ErrTaskPanicked) status.
func (g *taskGroup) Go(id, name string, unit func() ExitStatus) {
	g.running++
	go func() {
		res := taskResult{id: id, name: name, started: time.Now()}
		defer func() {
			if r := recover(); r != nil {
				res.status = Fatal(ErrTaskPanicked)
				res.joinErr = lcerrors.TaskJoin(id, name, lcerrors.RecoverPanic(r))
			}
			res.finished = time.Now()
			g.results <- res
		}()
		res.status = unit()
	}()
}

// Next blocks until one unit finishes and returns its result. It returns
// false without blocking when no units are outstanding.
func (g *taskGroup) Next() (taskResult, bool) {
	if g.running == 0 {
		return taskResult{}, false
	}
	res := <-g.results
	g.running--
	return res, true
}

// Wait reaps every outstanding unit, handing each result to fn.
func (g *taskGroup) Wait(fn func(taskResult)) {
	for {
		res, ok := g.Next()
		if !ok {
			return
		}
		fn(res)
	}
}

// Len returns the number of units started and not yet returned by Next.
func (g *taskGroup) Len() int {
	return g.running
}
