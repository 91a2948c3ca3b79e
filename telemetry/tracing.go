// OpenTelemetry tracing for supervised tasks.
package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Tracer wraps OpenTelemetry tracing with lifecycle-specific helpers.
type Tracer struct {
	tracer trace.Tracer
}

var (
	globalTracer *Tracer
	tracerMu     sync.RWMutex
)

// SetGlobalTracer sets the global tracer instance.
func SetGlobalTracer(t *Tracer) {
	tracerMu.Lock()
	defer tracerMu.Unlock()
	globalTracer = t
}

// GetTracer returns the global tracer, or a no-op tracer if not set.
func GetTracer() *Tracer {
	tracerMu.RLock()
	defer tracerMu.RUnlock()
	if globalTracer == nil {
		return &Tracer{tracer: noop.NewTracerProvider().Tracer("")}
	}
	return globalTracer
}

// NewTracer creates a tracer from the global otel provider.
func NewTracer(name string) *Tracer {
	return &Tracer{tracer: otel.Tracer(name)}
}

// NewTracerFromProvider creates a tracer from an explicit provider.
func NewTracerFromProvider(tp trace.TracerProvider, name string) *Tracer {
	return &Tracer{tracer: tp.Tracer(name)}
}

// StartSpan starts a new span with the given name.
func (t *Tracer) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// --- Serve Spans ---

// StartServeSpan starts the span covering one Coordinator.Serve call.
func (t *Tracer) StartServeSpan(ctx context.Context) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "lifecycle.serve", trace.WithSpanKind(trace.SpanKindInternal))
}

// ServeSpanOptions describes how a serve cycle ended.
type ServeSpanOptions struct {
	Reason    string
	Signal    string
	Tasks     int
	TaskError error
}

// EndServeSpan ends a serve span. err is the supervisor's own failure; a task
// error alone is recorded as an event and does not mark the span failed.
func (t *Tracer) EndServeSpan(span trace.Span, opts ServeSpanOptions, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("lifecycle.reason", opts.Reason),
		attribute.Int("lifecycle.tasks", opts.Tasks),
	}
	if opts.Signal != "" {
		attrs = append(attrs, attribute.String("lifecycle.signal", opts.Signal))
	}
	span.SetAttributes(attrs...)

	if opts.TaskError != nil {
		span.AddEvent("task.fatal", trace.WithAttributes(
			attribute.String("error", truncate(opts.TaskError.Error(), 1000)),
		))
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End()
}

// --- Task Spans ---

// StartTaskSpan starts a span for a task's lifetime.
func (t *Tracer) StartTaskSpan(ctx context.Context, id, name string) (context.Context, trace.Span) {
	ctx, span := t.tracer.Start(ctx, "task."+name, trace.WithSpanKind(trace.SpanKindInternal))
	span.SetAttributes(
		attribute.String("task.id", id),
		attribute.String("task.name", name),
	)
	return ctx, span
}

// EndTaskSpan ends a task span with its exit status.
func (t *Tracer) EndTaskSpan(span trace.Span, status string, err error) {
	span.SetAttributes(attribute.String("task.status", status))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, truncate(err.Error(), 1000))
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End()
}

// AddShutdownEvent marks the moment a task was asked to wind down.
func (t *Tracer) AddShutdownEvent(span trace.Span, reason string) {
	span.AddEvent("task.shutdown", trace.WithAttributes(attribute.String("reason", reason)))
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
