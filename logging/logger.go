package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// LogLevel is a thin enum for user friendly level configuration decoupled from slog.
type LogLevel int

const (
	// LogLevelDebug is the debug logging level.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is the informational logging level.
	LogLevelInfo
	// LogLevelWarn is the warning logging level.
	LogLevelWarn
	// LogLevelError is the error logging level.
	LogLevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config string (debug, info, warn, error) to a LogLevel.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogLevelDebug, nil
	case "", "info":
		return LogLevelInfo, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "error":
		return LogLevelError, nil
	default:
		return LogLevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Logger defines the minimal logging interface used across pathway.
// Arguments after msg are alternating key/value pairs.
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

// Config configures construction of a slog backed Logger.
type Config struct {
	Level     LogLevel
	Format    string // json or text
	Output    io.Writer
	AddSource bool
}

// New builds a slog backed Logger from cfg. A nil Output writes to stderr.
func New(cfg Config) Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: slogLevel(cfg.Level), AddSource: cfg.AddSource}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	return NewSlogAdapter(slog.New(handler))
}

func slogLevel(l LogLevel) slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// StructuredLogger decorates a Logger with fixed attributes (component,
// request id) and domain helpers. With* methods return copies.
type StructuredLogger struct {
	base  Logger
	attrs []any
}

// NewStructured wraps base. A nil base discards everything.
func NewStructured(base Logger) *StructuredLogger {
	if base == nil {
		base = NoOpLogger{}
	}
	if sl, ok := base.(*StructuredLogger); ok {
		return sl
	}
	return &StructuredLogger{base: base}
}

// With returns a copy carrying the additional key/value pairs.
func (l *StructuredLogger) With(kv ...any) *StructuredLogger {
	attrs := make([]any, 0, len(l.attrs)+len(kv))
	attrs = append(attrs, l.attrs...)
	attrs = append(attrs, kv...)
	return &StructuredLogger{base: l.base, attrs: attrs}
}

// WithComponent sets the logical component (router, store, api, ...).
func (l *StructuredLogger) WithComponent(c string) *StructuredLogger {
	return l.With("component", c)
}

// WithRequest attaches the request identifier.
func (l *StructuredLogger) WithRequest(id string) *StructuredLogger {
	return l.With("request_id", id)
}

func (l *StructuredLogger) merge(args []any) []any {
	if len(l.attrs) == 0 {
		return args
	}
	out := make([]any, 0, len(l.attrs)+len(args))
	out = append(out, l.attrs...)
	return append(out, args...)
}

// Debug logs at debug level.
func (l *StructuredLogger) Debug(msg string, args ...any) { l.base.Debug(msg, l.merge(args)...) }

// Info logs at info level.
func (l *StructuredLogger) Info(msg string, args ...any) { l.base.Info(msg, l.merge(args)...) }

// Warn logs at warn level.
func (l *StructuredLogger) Warn(msg string, args ...any) { l.base.Warn(msg, l.merge(args)...) }

// Error logs at error level.
func (l *StructuredLogger) Error(msg string, args ...any) { l.base.Error(msg, l.merge(args)...) }

// LogAgentRun records the outcome of one agent invocation.
func (l *StructuredLogger) LogAgentRun(agent, status string, dur time.Duration, err error) {
	args := []any{"agent", agent, "status", status, "duration", dur}
	if err != nil {
		l.Warn("Agent run failed", append(args, "error", err.Error())...)
		return
	}
	l.Debug("Agent run completed", args...)
}

// LogRoute records which agents a query was routed to.
func (l *StructuredLogger) LogRoute(query string, agents []string, fallback bool) {
	l.Info("Query routed", "query", query, "agents", strings.Join(agents, ","), "fallback", fallback)
}

// LogStoreCall records a persistence operation.
func (l *StructuredLogger) LogStoreCall(op, table string, dur time.Duration, err error) {
	args := []any{"op", op, "table", table, "duration", dur}
	if err != nil {
		l.Error("Store call failed", append(args, "error", err.Error())...)
		return
	}
	l.Debug("Store call completed", args...)
}

// StartTimer returns a closure that logs the elapsed duration when invoked.
func (l *StructuredLogger) StartTimer(op string) func() {
	start := time.Now()
	return func() { l.Debug("Operation completed", "operation", op, "duration", time.Since(start)) }
}
