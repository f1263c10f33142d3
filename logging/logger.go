// Package logging provides a tiny abstraction over structured logging so the
// dialogue core can depend on a minimal interface (Logger) while letting the
// host application plug in slog, zap or anything else. It also offers a
// contextual DialogLogger with session helpers and domain specific logging
// for model calls, tool runs and whole turns.
package logging

import (
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger defines the minimal logging interface used across the module.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// Debug logs a debug message.
func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }

// Info logs an informational message.
func (s *SlogAdapter) Info(msg string, args ...any) { s.Logger.Info(msg, args...) }

// Warn logs a warning message.
func (s *SlogAdapter) Warn(msg string, args ...any) { s.Logger.Warn(msg, args...) }

// Error logs an error message.
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// NewDefaultSlogLogger creates a Logger using slog.Default().
func NewDefaultSlogLogger() Logger {
	return NewSlogAdapter(slog.Default())
}

// NewJSONLogger builds a JSON slog Logger writing to w at the given level.
func NewJSONLogger(w io.Writer, level slog.Level) Logger {
	if w == nil {
		w = os.Stdout
	}
	return NewSlogAdapter(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})))
}

// NoOpLogger discards all log messages. Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}

// DialogLogger decorates a Logger with session context and domain helper
// methods. Cheap to copy via WithSession.
type DialogLogger struct {
	logger    Logger
	sessionID string
	turnID    string
}

// NewDialogLogger wraps a base Logger (NoOpLogger when nil).
func NewDialogLogger(base Logger) *DialogLogger {
	if base == nil {
		base = NoOpLogger{}
	}
	return &DialogLogger{logger: base}
}

// WithSession attaches session and turn identifiers to every entry.
func (l *DialogLogger) WithSession(sessionID, turnID string) *DialogLogger {
	nl := *l
	nl.sessionID = sessionID
	nl.turnID = turnID
	return &nl
}

func (l *DialogLogger) attrs(args ...any) []any {
	out := make([]any, 0, len(args)+4)
	if l.sessionID != "" {
		out = append(out, "session_id", l.sessionID)
	}
	if l.turnID != "" {
		out = append(out, "turn_id", l.turnID)
	}
	return append(out, args...)
}

// Debug logs at debug level with session context attached.
func (l *DialogLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, l.attrs(args...)...) }

// Info logs at info level with session context attached.
func (l *DialogLogger) Info(msg string, args ...any) { l.logger.Info(msg, l.attrs(args...)...) }

// Warn logs at warn level with session context attached.
func (l *DialogLogger) Warn(msg string, args ...any) { l.logger.Warn(msg, l.attrs(args...)...) }

// Error logs at error level with session context attached.
func (l *DialogLogger) Error(msg string, args ...any) { l.logger.Error(msg, l.attrs(args...)...) }

// LogModelCall records model call latency and outcome.
func (l *DialogLogger) LogModelCall(model string, dur time.Duration, err error) {
	args := l.attrs("model", model, "duration", dur)
	if err != nil {
		l.logger.Error("model call failed", append(args, "error", err.Error())...)
		return
	}
	l.logger.Info("model call completed", args...)
}

// LogToolCall records execution details for a tool invocation.
func (l *DialogLogger) LogToolCall(tool string, dur time.Duration, err error) {
	args := l.attrs("tool", tool, "duration", dur)
	if err != nil {
		l.logger.Error("tool execution failed", append(args, "error", err.Error())...)
		return
	}
	l.logger.Info("tool execution completed", args...)
}

// LogTurn records the outcome of a whole turn.
func (l *DialogLogger) LogTurn(intent string, action string, rule string, dur time.Duration) {
	l.logger.Info("turn completed", l.attrs("intent", intent, "action", action, "rule", rule, "duration", dur)...)
}

// StartTimer returns a closure that logs the elapsed duration when invoked.
func (l *DialogLogger) StartTimer(op string) func() {
	start := time.Now()
	return func() { l.Info("operation completed", "operation", op, "duration", time.Since(start)) }
}
