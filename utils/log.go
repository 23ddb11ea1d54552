// Package utils provides the structured logger and the secret scrubber
// shared by every piiguard component.
package utils

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// LoggerOptions configures the logger.
type LoggerOptions struct {
	// Level is the minimum log level (debug, info, warn, error)
	Level string
	// Output is the writer for log output (default: os.Stderr).
	// Stdout is reserved for the MCP stdio channel.
	Output io.Writer
	// Prefix is the component name prefix
	Prefix string
	// JSON switches to one JSON object per line
	JSON bool
	// ReportTimestamp adds timestamps to log entries
	ReportTimestamp bool
}

// DefaultLoggerOptions returns the options used when nothing is configured.
func DefaultLoggerOptions() LoggerOptions {
	return LoggerOptions{
		Level:           "info",
		Output:          os.Stderr,
		ReportTimestamp: true,
	}
}

// ParseLevel converts a string level to log.Level.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// Logger is a charmbracelet logger that scrubs secret-looking values from
// every key-value pair before writing.
type Logger struct {
	base *log.Logger
}

// NewLogger creates a scrubbing logger with the given options.
func NewLogger(opts LoggerOptions) *Logger {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}

	lopts := log.Options{
		Level:           ParseLevel(opts.Level),
		Prefix:          opts.Prefix,
		TimeFormat:      time.RFC3339,
		ReportTimestamp: opts.ReportTimestamp,
	}
	if opts.JSON {
		lopts.Formatter = log.JSONFormatter
	}

	return &Logger{base: log.NewWithOptions(opts.Output, lopts)}
}

// NewDefaultLogger creates a logger with default options, respecting PIIGUARD_LOG_LEVEL.
func NewDefaultLogger() *Logger {
	opts := DefaultLoggerOptions()
	if level := os.Getenv("PIIGUARD_LOG_LEVEL"); level != "" {
		opts.Level = level
	}
	return NewLogger(opts)
}

// Discard returns a logger that drops everything, for tests.
func Discard() *Logger {
	return NewLogger(LoggerOptions{Output: io.Discard, Level: "error"})
}

// WithPrefix returns a logger for a named component.
func (l *Logger) WithPrefix(prefix string) *Logger {
	return &Logger{base: l.base.WithPrefix(prefix)}
}

// With returns a logger with additional default key-value pairs.
func (l *Logger) With(keyvals ...interface{}) *Logger {
	return &Logger{base: l.base.With(Scrub(keyvals...)...)}
}

// Debug logs a debug message with key-value pairs.
func (l *Logger) Debug(msg string, keyvals ...interface{}) {
	l.base.Debug(msg, Scrub(keyvals...)...)
}

// Info logs an info message with key-value pairs.
func (l *Logger) Info(msg string, keyvals ...interface{}) {
	l.base.Info(msg, Scrub(keyvals...)...)
}

// Warn logs a warning message with key-value pairs.
func (l *Logger) Warn(msg string, keyvals ...interface{}) {
	l.base.Warn(msg, Scrub(keyvals...)...)
}

// Error logs an error message with key-value pairs.
func (l *Logger) Error(msg string, keyvals ...interface{}) {
	l.base.Error(msg, Scrub(keyvals...)...)
}
