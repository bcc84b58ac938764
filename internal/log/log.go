// Package log provides structured logging for the validator core. It wraps
// Go's log/slog with conveniences such as per-module child loggers.
package log

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// RotatingFileConfig configures size/age-based rotation for a log file
// sink, used by long-running validator processes that do not want an
// unbounded stderr stream.
type RotatingFileConfig struct {
	// Path is the log file to write to.
	Path string
	// MaxSizeMB is the size in megabytes a log file reaches before it
	// is rotated.
	MaxSizeMB int
	// MaxBackups is the number of rotated files to retain.
	MaxBackups int
	// MaxAgeDays is the maximum age in days to retain a rotated file.
	MaxAgeDays int
	// Compress controls whether rotated files are gzip-compressed.
	Compress bool
	// Format selects the on-disk line format. Zero value is FormatJSON.
	Format Format
}

// rotatingWriter builds the lumberjack io.Writer handed to the handler that
// Format selects, defaulting unset size/retention fields to sensible values.
func (c RotatingFileConfig) rotatingWriter() io.Writer {
	return &lumberjack.Logger{
		Filename:   c.Path,
		MaxSize:    orDefault(c.MaxSizeMB, 100),
		MaxBackups: orDefault(c.MaxBackups, 5),
		MaxAge:     orDefault(c.MaxAgeDays, 28),
		Compress:   c.Compress,
	}
}

func orDefault(v, d int) int {
	if v <= 0 {
		return d
	}
	return v
}

// Logger wraps slog.Logger with per-module context.
type Logger struct {
	inner *slog.Logger
}

// defaultLogger is the process-wide logger used by the package-level
// convenience functions.
var defaultLogger *Logger

func init() {
	defaultLogger = New(slog.LevelInfo)
}

// New creates a Logger that writes JSON to stderr at the given level.
func New(level slog.Level) *Logger {
	return NewWithFormat(level, FormatJSON)
}

// NewWithFormat creates a Logger that writes to stderr at the given level,
// rendered through the LogFormatter backing format (FormatJSON, FormatText,
// or FormatColor). FormatText and FormatColor route through formatterHandler
// (handler.go); FormatJSON uses slog's own JSON handler directly, matching
// the package default before formatters existed.
func NewWithFormat(level slog.Level, format Format) *Logger {
	h := handlerForFormat(format, os.Stderr, level)
	return &Logger{inner: slog.New(h)}
}

// NewWithHandler creates a Logger backed by the supplied slog.Handler. This
// is useful for testing or for writing to a custom destination.
func NewWithHandler(h slog.Handler) *Logger {
	return &Logger{inner: slog.New(h)}
}

// NewRotatingFile creates a Logger that writes to a size/age-rotated file
// instead of stderr, for long-running validator deployments. The line
// format is controlled by rc.Format.
func NewRotatingFile(level slog.Level, rc RotatingFileConfig) *Logger {
	h := handlerForFormat(rc.Format, rc.rotatingWriter(), level)
	return &Logger{inner: slog.New(h)}
}

// SetDefault replaces the package-level default logger.
func SetDefault(l *Logger) {
	if l != nil {
		defaultLogger = l
	}
}

// Default returns the current package-level default logger.
func Default() *Logger {
	return defaultLogger
}

// Module returns a child logger with an additional "module" attribute. This
// is the primary way subsystems (leaderschedule, vote, ...) obtain their own
// contextual logger.
func (l *Logger) Module(name string) *Logger {
	return &Logger{inner: l.inner.With("module", name)}
}

// With returns a child logger with additional key-value context.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{inner: l.inner.With(args...)}
}

// Debug logs at LevelDebug.
func (l *Logger) Debug(msg string, args ...any) { l.inner.Debug(msg, args...) }

// Info logs at LevelInfo.
func (l *Logger) Info(msg string, args ...any) { l.inner.Info(msg, args...) }

// Warn logs at LevelWarn.
func (l *Logger) Warn(msg string, args ...any) { l.inner.Warn(msg, args...) }

// Error logs at LevelError.
func (l *Logger) Error(msg string, args ...any) { l.inner.Error(msg, args...) }

// ---------------------------------------------------------------------------
// Package-level convenience functions -- delegate to defaultLogger.
// ---------------------------------------------------------------------------

// Debug logs at LevelDebug using the default logger.
func Debug(msg string, args ...any) { defaultLogger.Debug(msg, args...) }

// Info logs at LevelInfo using the default logger.
func Info(msg string, args ...any) { defaultLogger.Info(msg, args...) }

// Warn logs at LevelWarn using the default logger.
func Warn(msg string, args ...any) { defaultLogger.Warn(msg, args...) }

// Error logs at LevelError using the default logger.
func Error(msg string, args ...any) { defaultLogger.Error(msg, args...) }
