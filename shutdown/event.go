package shutdown

// event is the closed set of messages the coordinator consumes.
type event interface {
	isEvent()
}

type newTask struct {
	id      string
	name    string
	trigger trigger
	unit    func() ExitStatus
}

type taskCompleted struct {
	id     string
	name   string
	status ExitStatus
}

type signalObserved struct {
	signal Signal
}

type shutdownRequested struct{}

func (newTask) isEvent()           {}
func (taskCompleted) isEvent()     {}
func (signalObserved) isEvent()    {}
func (shutdownRequested) isEvent() {}

// eventQueue is an unbounded multi-producer, single-consumer queue. A pump
// goroutine moves events from in to out through a slice buffer, so producers
// never wait on the consumer. After close, sends are dropped.
type eventQueue struct {
	in   chan event
	out  chan event
	done chan struct{}
}

func newEventQueue() *eventQueue {
	q := &eventQueue{
		in:   make(chan event),
		out:  make(chan event),
		done: make(chan struct{}),
	}
	go q.pump()
	return q
}

func (q *eventQueue) pump() {
	var pending []event
	for {
		var out chan event
		var next event
		if len(pending) > 0 {
			out = q.out
			next = pending[0]
		}

		select {
		case ev := <-q.in:
			pending = append(pending, ev)
		case out <- next:
			pending[0] = nil
			pending = pending[1:]
		case <-q.done:
			return
		}
	}
}

// send enqueues ev and reports whether the queue accepted it.
func (q *eventQueue) send(ev event) bool {
	select {
	case <-q.done:
		return false
	default:
	}
	select {
	case q.in <- ev:
		return true
	case <-q.done:
		return false
	}
}

// receive returns the consumer side. Only the coordinator reads from it.
func (q *eventQueue) receive() <-chan event {
	return q.out
}

// close stops the pump and drops anything still buffered. Called once, by
// the coordinator.
func (q *eventQueue) close() {
	close(q.done)
}
