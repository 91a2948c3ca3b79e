package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNoopExporter(t *testing.T) {
	exp := NewNoopExporter()

	// Should not panic
	exp.LogEvent("test", map[string]interface{}{"key": "value"})

	if err := exp.Flush(); err != nil {
		t.Errorf("Flush() error = %v", err)
	}
	if err := exp.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestFileExporter(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "lifecycle.jsonl")

	exp, err := NewFileExporter(path)
	if err != nil {
		t.Fatalf("NewFileExporter() error = %v", err)
	}

	exp.LogEvent("task_spawned", map[string]interface{}{"task": "server"})
	exp.LogEvent("task_completed", map[string]interface{}{"task": "server", "status": "success"})
	if err := exp.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	var ev Event
	if err := json.Unmarshal([]byte(lines[1]), &ev); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if ev.Name != "task_completed" || ev.Data["status"] != "success" {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestHTTPExporter(t *testing.T) {
	batches := make(chan []Event, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var batch []Event
		if err := json.Unmarshal(body, &batch); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		batches <- batch
	}))
	defer srv.Close()

	exp := NewHTTPExporter(srv.URL)
	exp.LogEvent("drain_start", map[string]interface{}{"reason": "signal"})
	if err := exp.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	received := <-batches
	if len(received) != 1 || received[0].Name != "drain_start" {
		t.Fatalf("expected one drain_start event, got %+v", received)
	}
}

func TestHTTPExporterErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	exp := NewHTTPExporter(srv.URL)
	exp.LogEvent("x", nil)
	if err := exp.Flush(); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestNewExporter(t *testing.T) {
	tests := []struct {
		protocol string
		wantErr  bool
	}{
		{"noop", false},
		{"", false},
		{"http", false},
		{"unknown", true},
	}

	for _, tt := range tests {
		t.Run(tt.protocol, func(t *testing.T) {
			exp, err := NewExporter(tt.protocol, "")
			if (err != nil) != tt.wantErr {
				t.Errorf("NewExporter() error = %v, wantErr %v", err, tt.wantErr)
			}
			if exp != nil {
				exp.Close()
			}
		})
	}
}

func newRecordingTracer() (*Tracer, *tracetest.SpanRecorder) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	return NewTracerFromProvider(tp, "test"), rec
}

func TestTaskSpan(t *testing.T) {
	tracer, rec := newRecordingTracer()

	ctx, serve := tracer.StartServeSpan(context.Background())
	_, span := tracer.StartTaskSpan(ctx, "id-1", "poller")
	tracer.AddShutdownEvent(span, "signal")
	tracer.EndTaskSpan(span, "fatal", errors.New("lost connection"))
	tracer.EndServeSpan(serve, ServeSpanOptions{Reason: "fatal_error", Tasks: 1}, nil)

	spans := rec.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}

	task := spans[0]
	if task.Name() != "task.poller" {
		t.Errorf("Name() = %q", task.Name())
	}
	if task.Status().Code != codes.Error {
		t.Errorf("Status() = %v, want Error", task.Status())
	}
	if task.Parent().SpanID() != spans[1].SpanContext().SpanID() {
		t.Error("task span should be a child of the serve span")
	}
	if len(task.Events()) == 0 {
		t.Error("expected shutdown and error events on task span")
	}

	found := false
	for _, kv := range task.Attributes() {
		if string(kv.Key) == "task.status" && kv.Value.AsString() == "fatal" {
			found = true
		}
	}
	if !found {
		t.Error("expected task.status=fatal attribute")
	}
}

func TestServeSpanKeepsOkWithTaskError(t *testing.T) {
	tracer, rec := newRecordingTracer()

	_, serve := tracer.StartServeSpan(context.Background())
	tracer.EndServeSpan(serve, ServeSpanOptions{
		Reason:    "fatal_error",
		TaskError: errors.New("boom"),
	}, nil)

	s := rec.Ended()[0]
	if s.Status().Code != codes.Ok {
		t.Errorf("Status() = %v, want Ok", s.Status())
	}
	if len(s.Events()) != 1 || s.Events()[0].Name != "task.fatal" {
		t.Errorf("expected task.fatal event, got %v", s.Events())
	}
}

func TestGetTracerDefaultsToNoop(t *testing.T) {
	SetGlobalTracer(nil)
	tracer := GetTracer()
	_, span := tracer.StartTaskSpan(context.Background(), "id", "name")
	tracer.EndTaskSpan(span, "success", nil)
	if span.SpanContext().IsValid() {
		t.Error("expected no-op span")
	}
}

func TestInitProviderStdout(t *testing.T) {
	var buf bytes.Buffer
	p, err := InitProvider(context.Background(), ProviderConfig{
		ServiceName: "lifecycle-test",
		Protocol:    "stdout",
		Writer:      &buf,
	})
	if err != nil {
		t.Fatalf("InitProvider() error = %v", err)
	}
	defer SetGlobalTracer(nil)

	_, span := p.Tracer().StartTaskSpan(context.Background(), "id-1", "server")
	p.Tracer().EndTaskSpan(span, "success", nil)

	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if !strings.Contains(buf.String(), "task.server") {
		t.Errorf("expected span in stdout output, got: %s", buf.String())
	}
}

func TestInitProviderErrors(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	if _, err := InitProvider(context.Background(), ProviderConfig{Protocol: "grpc"}); err == nil {
		t.Error("expected error without endpoint")
	}
	if _, err := InitProvider(context.Background(), ProviderConfig{Protocol: "carrier-pigeon", Endpoint: "x:1"}); err == nil {
		t.Error("expected error for unknown protocol")
	}
}
