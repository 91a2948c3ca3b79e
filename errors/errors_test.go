package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"
)

// ============================================================================
// 1. Error creation with different codes/categories
// ============================================================================

func TestNew(t *testing.T) {
	tests := []struct {
		name         string
		code         ErrorCode
		message      string
		wantCategory ErrorCategory
	}{
		{"signal_listener", ErrCodeSignalListener, "no listener", CategorySetup},
		{"already_serving", ErrCodeAlreadyServing, "serving", CategorySetup},
		{"task_join", ErrCodeTaskJoin, "join failed", CategoryTask},
		{"task_failed", ErrCodeTaskFailed, "task failed", CategoryTask},
		{"internal", ErrCodeInternal, "internal error", CategoryInternal},
		{"unknown", ErrorCode("SOMETHING_ELSE"), "odd", CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message)
			if err.Code() != tt.code {
				t.Errorf("Code() = %v, want %v", err.Code(), tt.code)
			}
			if err.Category() != tt.wantCategory {
				t.Errorf("Category() = %v, want %v", err.Category(), tt.wantCategory)
			}
			if err.Error() != tt.message {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.message)
			}
			if err.Timestamp().IsZero() {
				t.Error("Timestamp() should not be zero")
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(ErrCodeInvalidConfig, "unknown protocol %q", "udp")
	want := `unknown protocol "udp"`
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}
}

func TestFromCode(t *testing.T) {
	err := FromCode(ErrCodeAlreadyServing)
	if err.Error() != "coordinator is already serving" {
		t.Errorf("Error() = %v", err.Error())
	}
	if ErrorCode("NOPE").Description() != "unknown error" {
		t.Error("unknown code should have generic description")
	}
}

// ============================================================================
// 2. Constructors for lifecycle failures
// ============================================================================

func TestSignalListener(t *testing.T) {
	cause := fmt.Errorf("notify unsupported")
	err := SignalListener("SIGTERM", cause)

	if err.Code() != ErrCodeSignalListener {
		t.Errorf("Code() = %v", err.Code())
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be in chain")
	}
	if err.Metadata()["signal"] != "SIGTERM" {
		t.Errorf("expected signal metadata, got %v", err.Metadata())
	}
	if !IsCategory(err, CategorySetup) {
		t.Error("expected setup category")
	}
}

func TestTaskJoin(t *testing.T) {
	cause := RecoverPanic("boom")
	err := TaskJoin("id-1", "worker", cause)

	if err.TaskID() != "id-1" || err.TaskName() != "worker" {
		t.Errorf("task attribution = %q/%q", err.TaskID(), err.TaskName())
	}
	if !Is(err, ErrCodeTaskJoin) {
		t.Error("expected TASK_JOIN code")
	}
	want := `task "worker" did not complete normally: panic: boom`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestTaskFailed(t *testing.T) {
	cause := errors.New("disk full")
	err := TaskFailed("id-2", "writer", cause)
	if !errors.Is(err, cause) {
		t.Error("expected cause in chain")
	}
	if err.Category() != CategoryTask {
		t.Errorf("Category() = %v", err.Category())
	}
}

// ============================================================================
// 3. Wrapping
// ============================================================================

func TestWrap(t *testing.T) {
	if Wrap(nil, "nothing") != nil {
		t.Error("Wrap(nil) should return nil")
	}

	t.Run("lifecycle error keeps code", func(t *testing.T) {
		inner := TaskJoin("id", "n", errors.New("x"))
		wrapped := Wrap(inner, "draining")
		if wrapped.Code() != ErrCodeTaskJoin {
			t.Errorf("Code() = %v", wrapped.Code())
		}
		if wrapped.TaskName() != "n" {
			t.Errorf("TaskName() = %v", wrapped.TaskName())
		}
		if !errors.Is(wrapped, inner) {
			t.Error("expected inner error in chain")
		}
	})

	t.Run("context error maps to canceled", func(t *testing.T) {
		wrapped := Wrap(context.Canceled, "serve")
		if wrapped.Code() != ErrCodeCanceled {
			t.Errorf("Code() = %v", wrapped.Code())
		}
		wrapped = Wrap(context.DeadlineExceeded, "serve")
		if wrapped.Code() != ErrCodeCanceled {
			t.Errorf("Code() = %v", wrapped.Code())
		}
	})

	t.Run("plain error maps to internal", func(t *testing.T) {
		wrapped := Wrapf(errors.New("x"), "step %d", 3)
		if wrapped.Code() != ErrCodeInternal {
			t.Errorf("Code() = %v", wrapped.Code())
		}
		if wrapped.Error() != "step 3: x" {
			t.Errorf("Error() = %q", wrapped.Error())
		}
	})
}

func TestWrapWithCode(t *testing.T) {
	if WrapWithCode(nil, ErrCodeInternal, "x") != nil {
		t.Error("expected nil")
	}
	err := WrapWithCode(errors.New("bad toml"), ErrCodeInvalidConfig, "loading config")
	if err.Code() != ErrCodeInvalidConfig {
		t.Errorf("Code() = %v", err.Code())
	}
}

func TestAsLifecycleErrorAndCode(t *testing.T) {
	plain := errors.New("plain")
	if AsLifecycleError(plain) != nil {
		t.Error("expected nil for plain error")
	}
	if Code(plain) != "" {
		t.Error("expected empty code for plain error")
	}

	err := fmt.Errorf("outer: %w", FromCode(ErrCodeTaskFailed))
	lc := AsLifecycleError(err)
	if lc == nil || lc.Code() != ErrCodeTaskFailed {
		t.Fatalf("AsLifecycleError() = %v", lc)
	}
	if Code(err) != ErrCodeTaskFailed {
		t.Errorf("Code() = %v", Code(err))
	}
}

func TestCause(t *testing.T) {
	root := errors.New("root")
	err := Wrap(Wrap(root, "middle"), "top")
	if Cause(err) != root {
		t.Errorf("Cause() = %v, want root", Cause(err))
	}
}

func TestRecoverPanic(t *testing.T) {
	if RecoverPanic(nil) != nil {
		t.Error("expected nil for nil panic")
	}

	sentinel := errors.New("kaboom")
	tests := []struct {
		name string
		v    interface{}
		want string
	}{
		{"error", sentinel, "panic: kaboom"},
		{"string", "oops", "panic: oops"},
		{"int", 42, "panic: 42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RecoverPanic(tt.v)
			if err.Error() != tt.want {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.want)
			}
			if err.Code() != ErrCodePanic {
				t.Errorf("Code() = %v", err.Code())
			}
		})
	}
	if !errors.Is(RecoverPanic(sentinel), sentinel) {
		t.Error("error panic value should be kept as cause")
	}
}

// ============================================================================
// 4. JSON
// ============================================================================

func TestJSONRoundTripKeepsAttribution(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	orig := TaskJoin("id-9", "poller", errors.New("nil map"))
	WithTimestamp(ts)(orig)

	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var got Error
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got.Code() != ErrCodeTaskJoin || got.TaskName() != "poller" || got.TaskID() != "id-9" {
		t.Errorf("decoded = %+v", got)
	}
	if !got.Timestamp().Equal(ts) {
		t.Errorf("Timestamp() = %v, want %v", got.Timestamp(), ts)
	}
	if got.Error() != orig.Error() {
		t.Errorf("Error() = %q, want %q", got.Error(), orig.Error())
	}
}

func TestMetadataIsCopied(t *testing.T) {
	err := New(ErrCodeInternal, "x", WithMetadata("k", "v"))
	m := err.Metadata()
	m["k"] = "changed"
	if err.Metadata()["k"] != "v" {
		t.Error("Metadata() should return a copy")
	}
	if len(New(ErrCodeInternal, "y").Metadata()) != 0 {
		t.Error("expected empty metadata")
	}
}

func TestWithCategory(t *testing.T) {
	err := New(ErrCodeCanceled, "x", WithCategory(CategorySetup))
	if err.Category() != CategorySetup {
		t.Errorf("Category() = %v", err.Category())
	}
}
