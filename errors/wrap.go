package errors

import (
	"context"
	"errors"
	"fmt"
)

// Wrap wraps an error with additional context while preserving the error chain.
// If err is nil, Wrap returns nil.
// A LifecycleError keeps its code, category and task attribution; context
// errors map to CANCELED; anything else becomes INTERNAL.
func Wrap(err error, message string, opts ...Option) *Error {
	if err == nil {
		return nil
	}

	var lcErr *Error
	if errors.As(err, &lcErr) {
		wrapped := &Error{
			code:      lcErr.code,
			category:  lcErr.category,
			message:   message,
			cause:     err,
			metadata:  lcErr.Metadata(),
			timestamp: lcErr.timestamp,
			taskID:    lcErr.taskID,
			taskName:  lcErr.taskName,
		}
		for _, opt := range opts {
			opt(wrapped)
		}
		return wrapped
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return New(ErrCodeCanceled, message, append(opts, WithCause(err))...)
	}

	return New(ErrCodeInternal, message, append(opts, WithCause(err))...)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) *Error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WrapWithCode wraps an error with a specific error code.
func WrapWithCode(err error, code ErrorCode, message string, opts ...Option) *Error {
	if err == nil {
		return nil
	}
	opts = append(opts, WithCause(err))
	return New(code, message, opts...)
}

// AsLifecycleError extracts a LifecycleError from an error chain.
// Returns nil if none is found.
func AsLifecycleError(err error) LifecycleError {
	var lcErr *Error
	if errors.As(err, &lcErr) {
		return lcErr
	}
	return nil
}

// Is checks if any error in the chain has the given error code.
func Is(err error, code ErrorCode) bool {
	var lcErr *Error
	if errors.As(err, &lcErr) {
		return lcErr.code == code
	}
	return false
}

// IsCategory checks if the first LifecycleError in the chain has the given category.
func IsCategory(err error, category ErrorCategory) bool {
	var lcErr *Error
	if errors.As(err, &lcErr) {
		return lcErr.category == category
	}
	return false
}

// Code extracts the error code from an error.
// Returns empty string if err is not a LifecycleError.
func Code(err error) ErrorCode {
	var lcErr *Error
	if errors.As(err, &lcErr) {
		return lcErr.code
	}
	return ""
}

// Cause returns the root cause of the error chain.
func Cause(err error) error {
	for {
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return err
		}
		inner := unwrapper.Unwrap()
		if inner == nil {
			return err
		}
		err = inner
	}
}

// RecoverPanic converts a recovered panic value into an Error.
// An error value passed to panic is kept as the cause.
func RecoverPanic(recovered interface{}) *Error {
	if recovered == nil {
		return nil
	}
	opts := []Option{WithMetadata("panic_value", fmt.Sprintf("%T", recovered))}
	switch v := recovered.(type) {
	case error:
		return New(ErrCodePanic, "panic", append(opts, WithCause(v))...)
	case string:
		return New(ErrCodePanic, "panic: "+v, opts...)
	default:
		return New(ErrCodePanic, fmt.Sprintf("panic: %v", v), opts...)
	}
}
