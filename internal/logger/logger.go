// Package logger provides the structured diagnostic logger.
//
// User-facing status lines go through package ui; this logger carries the
// detail (container ids, pull progress, readiness outcomes) and is quiet
// below warn level unless debug output is requested.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var (
	// Log is the global logger instance
	Log = zerolog.New(io.Discard)
)

// Init initializes the global logger writing to stderr.
func Init(debug bool) {
	InitWithWriter(os.Stderr, debug)
}

// InitWithWriter initializes the global logger writing human-readable
// console output to w.
func InitWithWriter(w io.Writer, debug bool) {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
	}

	level := zerolog.WarnLevel
	if debug {
		level = zerolog.DebugLevel
	}

	Log = zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// Debug logs a debug message
func Debug() *zerolog.Event {
	return Log.Debug()
}

// Info logs an info message
func Info() *zerolog.Event {
	return Log.Info()
}

// Warn logs a warning message
func Warn() *zerolog.Event {
	return Log.Warn()
}

// Error logs an error message
func Error() *zerolog.Event {
	return Log.Error()
}

// WithService returns a logger tagged with a service name.
func WithService(name string) zerolog.Logger {
	return Log.With().Str("service", name).Logger()
}
