package errors

// ErrorCategory classifies errors by where in the lifecycle they arose.
type ErrorCategory string

const (
	// CategorySetup indicates a failure before any task was started.
	CategorySetup ErrorCategory = "setup"

	// CategoryTask indicates a failure attributed to one task.
	CategoryTask ErrorCategory = "task"

	// CategoryInternal indicates unexpected errors inside the supervisor.
	CategoryInternal ErrorCategory = "internal"
)

// String returns the string representation of the category.
func (c ErrorCategory) String() string {
	return string(c)
}

// ErrorCode identifies specific error types within categories.
type ErrorCode string

const (
	// Setup errors
	ErrCodeSignalListener ErrorCode = "SIGNAL_LISTENER" // OS signal listener registration failed
	ErrCodeInvalidConfig  ErrorCode = "INVALID_CONFIG"  // Configuration rejected
	ErrCodeAlreadyServing ErrorCode = "ALREADY_SERVING" // Serve called twice

	// Task errors
	ErrCodeTaskJoin   ErrorCode = "TASK_JOIN"   // Task goroutine did not complete normally
	ErrCodeTaskFailed ErrorCode = "TASK_FAILED" // Task reported a fatal exit status

	// Internal errors
	ErrCodeCanceled ErrorCode = "CANCELED" // Operation was canceled
	ErrCodeInternal ErrorCode = "INTERNAL" // Unexpected internal error
	ErrCodePanic    ErrorCode = "PANIC"    // Recovered from panic
)

// String returns the string representation of the error code.
func (c ErrorCode) String() string {
	return string(c)
}

// DefaultCategory returns the default category for an error code.
func (c ErrorCode) DefaultCategory() ErrorCategory {
	switch c {
	case ErrCodeSignalListener, ErrCodeInvalidConfig, ErrCodeAlreadyServing:
		return CategorySetup
	case ErrCodeTaskJoin, ErrCodeTaskFailed, ErrCodePanic:
		return CategoryTask
	default:
		return CategoryInternal
	}
}

var codeDescriptions = map[ErrorCode]string{
	ErrCodeSignalListener: "failed to register signal listener",
	ErrCodeInvalidConfig:  "invalid configuration",
	ErrCodeAlreadyServing: "coordinator is already serving",
	ErrCodeTaskJoin:       "task did not complete normally",
	ErrCodeTaskFailed:     "task failed",
	ErrCodeCanceled:       "operation canceled",
	ErrCodeInternal:       "internal error",
	ErrCodePanic:          "recovered from panic",
}

// Description returns a human-readable description for the error code.
func (c ErrorCode) Description() string {
	if desc, ok := codeDescriptions[c]; ok {
		return desc
	}
	return "unknown error"
}
