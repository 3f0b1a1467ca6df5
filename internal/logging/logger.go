// Package logging wraps log/slog behind the small level-based surface the
// rest of the module calls against (Info/Debug/Error), matching the
// teacher's internal/logging package's shape and its stderr-always rule
// (stdout must stay clean for any stdio-transport tool server), but
// backed by structured slog handlers instead of a bare *log.Logger so
// that the Progress Bus and other components can share one logger type.
package logging

import (
	"fmt"
	"log/slog"
	"os"
)

// Logger is a thin, leveled wrapper around *slog.Logger.
type Logger struct {
	debugEnabled bool
	slog         *slog.Logger
}

// New constructs a Logger writing to stderr. debugMode gates Debug output.
func New(debugMode bool) *Logger {
	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return &Logger{debugEnabled: debugMode, slog: slog.New(handler)}
}

// Slog exposes the underlying structured logger for packages (like
// progress.Bus) that want structured fields rather than Printf-style calls.
func (l *Logger) Slog() *slog.Logger { return l.slog }

func (l *Logger) Info(format string, args ...any)  { l.slog.Info(sprintf(format, args...)) }
func (l *Logger) Debug(format string, args ...any) { l.slog.Debug(sprintf(format, args...)) }
func (l *Logger) Error(format string, args ...any) { l.slog.Error(sprintf(format, args...)) }

func (l *Logger) IsDebugEnabled() bool { return l.debugEnabled }

func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

// globalLogger preserves the teacher's package-level Initialize/Info/Debug/Error
// convenience surface for call sites that don't carry a *Logger explicitly.
var globalLogger *Logger

// Initialize sets up the package-level global logger.
func Initialize(debugMode bool) {
	globalLogger = New(debugMode)
}

func Info(format string, args ...any) {
	if globalLogger != nil {
		globalLogger.Info(format, args...)
	}
}

func Debug(format string, args ...any) {
	if globalLogger != nil {
		globalLogger.Debug(format, args...)
	}
}

func Error(format string, args ...any) {
	if globalLogger != nil {
		globalLogger.Error(format, args...)
	}
}

func IsDebugEnabled() bool {
	return globalLogger != nil && globalLogger.IsDebugEnabled()
}
