package shutdown

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// Signal is an OS termination signal the coordinator watches.
type Signal int

const (
	// Interrupt is SIGINT (Ctrl+C).
	Interrupt Signal = iota
	// Terminate is SIGTERM, sent by process managers and container runtimes.
	Terminate
)

// watchedSignals get one built-in listener task each. The listeners count as
// live tasks, so the coordinator treats "no more than len(watchedSignals)
// tasks left" as "every caller task is done".
var watchedSignals = [...]Signal{Interrupt, Terminate}

// String returns the conventional signal name.
func (s Signal) String() string {
	switch s {
	case Interrupt:
		return "SIGINT"
	case Terminate:
		return "SIGTERM"
	default:
		return fmt.Sprintf("Signal(%d)", int(s))
	}
}

// OS returns the os.Signal value for s, or nil if s is unknown.
func (s Signal) OS() os.Signal {
	switch s {
	case Interrupt:
		return os.Interrupt
	case Terminate:
		return syscall.SIGTERM
	default:
		return nil
	}
}

// SignalSource registers listeners for OS signals.
type SignalSource interface {
	// Notify starts delivering sig on the returned channel. stop releases the
	// registration.
	Notify(sig Signal) (ch <-chan os.Signal, stop func(), err error)
}

// OSSignals returns the SignalSource backed by os/signal.
func OSSignals() SignalSource {
	return osSignals{}
}

type osSignals struct{}

func (osSignals) Notify(sig Signal) (<-chan os.Signal, func(), error) {
	s := sig.OS()
	if s == nil {
		return nil, nil, fmt.Errorf("unsupported signal %s", sig)
	}
	// Buffered so a signal is not lost while the listener is being scheduled.
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, s)
	return ch, func() { signal.Stop(ch) }, nil
}

// signalListener is the task body for one watched signal.
func signalListener(h Handle, sig Signal, ch <-chan os.Signal, stop func(), onSignal func(Signal)) TaskFunc {
	return func(token Token) ExitStatus {
		defer stop()
		select {
		case <-token.Done():
		case <-ch:
			onSignal(sig)
			h.onSignal(sig)
		}
		return Success()
	}
}
