// Package logger provides a small leveled logger for the southbound drivers.
//
// A nil *Logger is valid and silent, so drivers can carry an optional logger
// without guarding every call site. The level can be changed concurrently.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync/atomic"
	"testing"
)

// Level controls which messages a Logger emits.
type Level int32

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

// Logger wraps the standard library logger with level filtering.
type Logger struct {
	l     *log.Logger
	level int32
}

// New creates a logger writing to w at the given level.
func New(w io.Writer, level Level) *Logger {
	if w == io.Discard {
		return nil
	}
	lg := &Logger{
		l: log.New(w, "", log.Ltime|log.Lshortfile),
	}
	lg.SetLevel(level)
	return lg
}

// NewStderr creates a logger writing to stderr at the given level.
func NewStderr(level Level) *Logger {
	return New(os.Stderr, level)
}

// NewTest creates a debug-level logger routing output through t.Logf,
// so parallel tests keep their log lines attached to the right test.
func NewTest(t testing.TB) *Logger {
	lg := &Logger{
		l: log.New(testWriter{t}, "", log.Lshortfile),
	}
	lg.SetLevel(LevelDebug)
	return lg
}

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Logf("%s", p)
	return len(p), nil
}

// SetLevel changes the level. Safe to call concurrently with logging.
func (lg *Logger) SetLevel(level Level) {
	if lg == nil {
		return
	}
	atomic.StoreInt32(&lg.level, int32(level))
}

// Enabled reports whether messages at level would be emitted.
func (lg *Logger) Enabled(level Level) bool {
	if lg == nil {
		return false
	}
	return atomic.LoadInt32(&lg.level) >= int32(level)
}

func (lg *Logger) output(level Level, prefix, format string, args ...interface{}) {
	if !lg.Enabled(level) {
		return
	}
	_ = lg.l.Output(3, prefix+fmt.Sprintf(format, args...))
}

// Errorf logs an error-level message.
func (lg *Logger) Errorf(format string, args ...interface{}) {
	lg.output(LevelError, "error: ", format, args...)
}

// Warnf logs a warning-level message.
func (lg *Logger) Warnf(format string, args ...interface{}) {
	lg.output(LevelWarn, "warn: ", format, args...)
}

// Infof logs an info-level message.
func (lg *Logger) Infof(format string, args ...interface{}) {
	lg.output(LevelInfo, "", format, args...)
}

// Debugf logs a debug-level message.
func (lg *Logger) Debugf(format string, args ...interface{}) {
	lg.output(LevelDebug, "debug: ", format, args...)
}
