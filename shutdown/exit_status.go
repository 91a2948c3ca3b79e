package shutdown

// StatusKind identifies which outcome an ExitStatus carries.
type StatusKind int

const (
	// StatusSuccess means the task ended cleanly.
	StatusSuccess StatusKind = iota
	// StatusError means the task ended with an error that does not warrant
	// shutting down the other tasks.
	StatusError
	// StatusFatal means the task ended with an error that shuts down every
	// other task.
	StatusFatal
)

// String returns the lowercase name of the kind.
func (k StatusKind) String() string {
	switch k {
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	case StatusFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// ExitStatus is the outcome a task reports when it returns. The zero value is
// Success. Values are built with Success, Failure and Fatal only.
type ExitStatus struct {
	kind StatusKind
	err  error
}

// Success reports a clean exit.
func Success() ExitStatus {
	return ExitStatus{kind: StatusSuccess}
}

// Failure reports a soft error. The coordinator logs it and keeps it in the
// Report but keeps the other tasks running.
func Failure(err error) ExitStatus {
	return ExitStatus{kind: StatusError, err: err}
}

// Fatal reports an unrecoverable error. The coordinator shuts down every other
// task and, if this is the first fatal error it sees, returns err from Serve.
func Fatal(err error) ExitStatus {
	return ExitStatus{kind: StatusFatal, err: err}
}

// Kind returns the outcome kind.
func (s ExitStatus) Kind() StatusKind {
	return s.kind
}

// Err returns the carried error; nil for Success.
func (s ExitStatus) Err() error {
	return s.err
}

// IsFatal reports whether the status triggers a process-wide shutdown.
func (s ExitStatus) IsFatal() bool {
	return s.kind == StatusFatal
}

// String returns the kind name.
func (s ExitStatus) String() string {
	return s.kind.String()
}
