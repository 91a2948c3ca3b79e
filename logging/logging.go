// Package logging provides real-time log output for the lifecycle supervisor.
// Each task transition the coordinator observes is written as one line, so a
// shutdown can be followed from the console.
package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents log severity.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// levelPriority maps levels to numeric priority for filtering.
var levelPriority = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// ParseLevel converts a case-insensitive level name to a Level.
// An empty string yields LevelInfo.
func ParseLevel(s string) (Level, error) {
	if s == "" {
		return LevelInfo, nil
	}
	level := Level(strings.ToUpper(s))
	if level == "WARNING" {
		level = LevelWarn
	}
	if _, ok := levelPriority[level]; !ok {
		return "", fmt.Errorf("unknown log level: %s", s)
	}
	return level, nil
}

// Logger provides leveled logging to stdout.
type Logger struct {
	mu        *sync.Mutex
	output    io.Writer
	minLevel  Level
	component string
	traceID   string
}

// New creates a new Logger.
func New() *Logger {
	return &Logger{
		mu:       &sync.Mutex{},
		output:   os.Stdout,
		minLevel: LevelInfo,
	}
}

// WithComponent returns a new logger with the given component name.
// The derived logger shares the parent's output lock.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		mu:        l.mu,
		output:    l.output,
		minLevel:  l.minLevel,
		component: component,
		traceID:   l.traceID,
	}
}

// WithTraceID returns a new logger with the given trace ID.
func (l *Logger) WithTraceID(traceID string) *Logger {
	return &Logger{
		mu:        l.mu,
		output:    l.output,
		minLevel:  l.minLevel,
		component: l.component,
		traceID:   traceID,
	}
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.minLevel = level
}

// SetOutput sets the output writer (default: stdout).
func (l *Logger) SetOutput(w io.Writer) {
	l.output = w
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	l.log(LevelDebug, msg, fields...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	l.log(LevelInfo, msg, fields...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	l.log(LevelWarn, msg, fields...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	l.log(LevelError, msg, fields...)
}

// formatFields formats a map of fields as key=value pairs sorted by key.
func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return " " + strings.Join(parts, " ")
}

// log writes a log entry: LEVEL TIMESTAMP [component] message key=value ...
func (l *Logger) log(level Level, msg string, fields ...map[string]interface{}) {
	if levelPriority[level] < levelPriority[l.minLevel] {
		return
	}

	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")

	merged := make(map[string]interface{})
	if l.traceID != "" {
		merged["trace_id"] = l.traceID
	}
	for _, f := range fields {
		for k, v := range f {
			merged[k] = v
		}
	}
	fieldStr := formatFields(merged)

	var line string
	if l.component != "" {
		line = fmt.Sprintf("%-5s %s [%s] %s%s\n", level, timestamp, l.component, msg, fieldStr)
	} else {
		line = fmt.Sprintf("%-5s %s %s%s\n", level, timestamp, msg, fieldStr)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.output.Write([]byte(line))
}

// --- Lifecycle logging methods ---
// Called by the coordinator as it processes events.

// TaskSpawned logs that a task was handed to the task group.
func (l *Logger) TaskSpawned(id, name string) {
	l.Debug("task_spawned", map[string]interface{}{
		"task":    name,
		"task_id": id,
	})
}

// TaskCompleted logs a task's exit. A non-nil err is logged at WARN for soft
// failures and at ERROR for fatal ones.
func (l *Logger) TaskCompleted(id, name, status string, duration time.Duration, err error) {
	fields := map[string]interface{}{
		"task":     name,
		"task_id":  id,
		"status":   status,
		"duration": duration.String(),
	}
	switch {
	case err == nil:
		l.Debug("task_completed", fields)
	case status == "fatal":
		fields["error"] = err.Error()
		l.Error("task_failed", fields)
	default:
		fields["error"] = err.Error()
		l.Warn("task_error", fields)
	}
}

// TaskShutdown logs that a task's shutdown token was resolved.
func (l *Logger) TaskShutdown(id, name string) {
	l.Info("task_shutdown", map[string]interface{}{
		"task":    name,
		"task_id": id,
	})
}

// SignalReceived logs the arrival of an OS signal.
func (l *Logger) SignalReceived(signal string) {
	l.Info("signal_received", map[string]interface{}{
		"signal": signal,
	})
}

// DrainStart logs the transition to draining.
func (l *Logger) DrainStart(reason string, remaining int) {
	l.Info("drain_start", map[string]interface{}{
		"reason":    reason,
		"remaining": remaining,
	})
}

// DrainComplete logs the end of a serve cycle.
func (l *Logger) DrainComplete(duration time.Duration, err error) {
	fields := map[string]interface{}{
		"duration": duration.String(),
	}
	if err != nil {
		fields["error"] = err.Error()
		l.Error("drain_complete", fields)
		return
	}
	l.Info("drain_complete", fields)
}

// JoinFailure logs a task that could not be driven to completion.
func (l *Logger) JoinFailure(id, name string, err error) {
	l.Error("task_join_failed", map[string]interface{}{
		"task":    name,
		"task_id": id,
		"error":   err.Error(),
	})
}
