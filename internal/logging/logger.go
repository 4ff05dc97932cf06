// Package logging wraps zerolog with key/value call sites and request
// scoped fields.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a zerolog.Logger taking alternating key/value fields:
//
//	log.Info("Search form saved", "form_id", id, "title", title)
//
// A non-string key drops its pair.
type Logger struct {
	zl     zerolog.Logger
	closer io.Closer // rotating log file, if any
}

var global = NewDevelopment()

// NewProduction logs JSON at info level to stdout.
func NewProduction() *Logger {
	return NewWithWriter(os.Stdout, zerolog.InfoLevel)
}

// NewDevelopment logs human-readable lines at debug level to stdout.
func NewDevelopment() *Logger {
	return NewWithWriter(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}, zerolog.DebugLevel)
}

func NewWithWriter(w io.Writer, level zerolog.Level) *Logger {
	return &Logger{zl: zerolog.New(w).Level(level).With().Timestamp().Logger()}
}

func NewNop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// SetGlobal replaces the process-wide logger used by the package functions.
func SetGlobal(logger *Logger) {
	global = logger
}

func Global() *Logger {
	return global
}

func emit(e *zerolog.Event, msg string, kv []interface{}) {
	if e == nil {
		return
	}
	if len(kv) > 0 {
		e = e.Fields(kv)
	}
	e.Msg(msg)
}

func (l *Logger) Debug(msg string, kv ...interface{}) { emit(l.zl.Debug(), msg, kv) }
func (l *Logger) Info(msg string, kv ...interface{})  { emit(l.zl.Info(), msg, kv) }
func (l *Logger) Warn(msg string, kv ...interface{})  { emit(l.zl.Warn(), msg, kv) }
func (l *Logger) Error(msg string, kv ...interface{}) { emit(l.zl.Error(), msg, kv) }

// Fatal logs and exits the process.
func (l *Logger) Fatal(msg string, kv ...interface{}) { emit(l.zl.Fatal(), msg, kv) }

// With returns a child logger that adds kv to every entry.
func (l *Logger) With(kv ...interface{}) *Logger {
	if len(kv) == 0 {
		return l
	}
	return &Logger{zl: l.zl.With().Fields(kv).Logger(), closer: l.closer}
}

// Sync closes the rotating log file, if any.
func (l *Logger) Sync() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// Warn logs through the global logger. Used where no logger is injected.
func Warn(msg string, kv ...interface{}) {
	global.Warn(msg, kv...)
}
