package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)
	logger.SetLevel(LevelInfo)

	// Debug should be filtered
	logger.Debug("debug message")
	if buf.Len() > 0 {
		t.Error("debug message should be filtered at INFO level")
	}

	logger.Info("info message")
	if buf.Len() == 0 {
		t.Error("info message should be logged")
	}

	output := buf.String()
	if !strings.Contains(output, "INFO") {
		t.Error("log should contain INFO level")
	}
	if !strings.Contains(output, "info message") {
		t.Error("log should contain the message")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"", LevelInfo, false},
		{"debug", LevelDebug, false},
		{"Warn", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"ERROR", LevelError, false},
		{"verbose", "", true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLogger_WithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)

	logger.WithComponent("lifecycle").Info("test message")

	output := buf.String()
	if !strings.Contains(output, "[lifecycle]") {
		t.Errorf("expected component 'lifecycle' in log, got: %s", output)
	}
}

func TestLogger_WithTraceID(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)

	logger.WithTraceID("req-123").Info("test message")

	output := buf.String()
	if !strings.Contains(output, "trace_id=req-123") {
		t.Errorf("expected trace id in log, got: %s", output)
	}
}

func TestLogger_FieldsSorted(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)

	logger.Info("event", map[string]interface{}{
		"zeta":  1,
		"alpha": "a",
	})

	output := buf.String()
	if !strings.Contains(output, "event alpha=a zeta=1") {
		t.Errorf("expected sorted fields, got: %s", output)
	}
}

func TestLogger_TaskCompleted(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)
	logger.SetLevel(LevelDebug)

	logger.TaskCompleted("id-1", "server", "success", time.Second, nil)
	if !strings.Contains(buf.String(), "DEBUG") || !strings.Contains(buf.String(), "task_completed") {
		t.Errorf("expected debug task_completed, got: %s", buf.String())
	}

	buf.Reset()
	logger.TaskCompleted("id-2", "poller", "error", time.Second, errors.New("timeout"))
	if !strings.Contains(buf.String(), "WARN") || !strings.Contains(buf.String(), "error=timeout") {
		t.Errorf("expected warn task_error, got: %s", buf.String())
	}

	buf.Reset()
	logger.TaskCompleted("id-3", "db", "fatal", time.Second, errors.New("lost connection"))
	if !strings.Contains(buf.String(), "ERROR") || !strings.Contains(buf.String(), "task_failed") {
		t.Errorf("expected error task_failed, got: %s", buf.String())
	}
}

func TestLogger_LifecycleEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)
	logger.SetLevel(LevelDebug)

	logger.TaskSpawned("id-1", "server")
	logger.SignalReceived("SIGTERM")
	logger.DrainStart("signal", 3)
	logger.TaskShutdown("id-1", "server")
	logger.JoinFailure("id-1", "server", errors.New("panic: boom"))
	logger.DrainComplete(2*time.Second, nil)

	output := buf.String()
	for _, want := range []string{
		"task_spawned",
		"signal=SIGTERM",
		"reason=signal remaining=3",
		"task_shutdown",
		"task_join_failed",
		"drain_complete duration=2s",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestLogger_DrainCompleteWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)

	logger.DrainComplete(time.Millisecond, errors.New("join failed"))
	if !strings.Contains(buf.String(), "ERROR") || !strings.Contains(buf.String(), "error=join failed") {
		t.Errorf("expected error drain_complete, got: %s", buf.String())
	}
}
