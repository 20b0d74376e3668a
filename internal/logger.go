package internal

import (
	"log/slog"
)

// Logger wraps a *slog.Logger with short leveled helpers so components read
// like logger.info("msg", attrs...) instead of repeating LogAttrs everywhere.
// The zero value is a valid, silent logger.
type Logger struct {
	log *slog.Logger
}

// NewLogger wraps l. A nil l produces a silent Logger.
func NewLogger(l *slog.Logger) Logger {
	return Logger{log: l}
}

func (l Logger) trace(msg string, attrs ...slog.Attr) { LogAttrs(l.log, LevelTrace, msg, attrs...) }
func (l Logger) debug(msg string, attrs ...slog.Attr) { LogAttrs(l.log, slog.LevelDebug, msg, attrs...) }
func (l Logger) info(msg string, attrs ...slog.Attr)  { LogAttrs(l.log, slog.LevelInfo, msg, attrs...) }
func (l Logger) warn(msg string, attrs ...slog.Attr)  { LogAttrs(l.log, slog.LevelWarn, msg, attrs...) }
func (l Logger) error(msg string, attrs ...slog.Attr) { LogAttrs(l.log, slog.LevelError, msg, attrs...) }

// Trace logs at LevelTrace.
func (l Logger) Trace(msg string, attrs ...slog.Attr) { l.trace(msg, attrs...) }

// Debug logs at slog.LevelDebug.
func (l Logger) Debug(msg string, attrs ...slog.Attr) { l.debug(msg, attrs...) }

// Info logs at slog.LevelInfo.
func (l Logger) Info(msg string, attrs ...slog.Attr) { l.info(msg, attrs...) }

// Warn logs at slog.LevelWarn.
func (l Logger) Warn(msg string, attrs ...slog.Attr) { l.warn(msg, attrs...) }

// Error logs at slog.LevelError.
func (l Logger) Error(msg string, attrs ...slog.Attr) { l.error(msg, attrs...) }

// Enabled reports whether lvl would be emitted.
func (l Logger) Enabled(lvl slog.Level) bool { return LogEnabled(l.log, lvl) }
