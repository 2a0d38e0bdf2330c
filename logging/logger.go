// Package logging is the thin structured-logging facade the execution,
// storage and sandbox packages call into. The sink/formatter system behind
// it is an out-of-scope external collaborator; only the
// interface the core dispatches through is built here, a
// logger.TraceMsg(...)/logger.With(...) style wrapper over
// github.com/go-kit/kit/log.
package logging

import (
	"time"

	kitlog "github.com/go-kit/kit/log"
)

// Logger wraps a go-kit logger with the level/scope helpers call sites in
// this module use.
type Logger struct {
	kit kitlog.Logger
}

// NewLogger builds a Logger over the go-kit logger w (which decides the
// output format), adding a "ts" timestamp key so every line carries a time
// from the root sink.
func NewLogger(w kitlog.Logger) *Logger {
	return &Logger{kit: kitlog.With(w, "ts", kitlog.TimestampFormat(time.Now, time.RFC3339Nano))}
}

// NewNopLogger discards everything -- used by tests and by callers that
// don't want logging wired up.
func NewNopLogger() *Logger {
	return &Logger{kit: kitlog.NewNopLogger()}
}

// With returns a Logger that always includes the given key-value pairs,
// for scoping a child logger to a call site or component name.
func (l *Logger) With(keyvals ...interface{}) *Logger {
	return &Logger{kit: kitlog.With(l.kit, keyvals...)}
}

func (l *Logger) log(level string, keyvals ...interface{}) {
	_ = l.kit.Log(append([]interface{}{"level", level}, keyvals...)...)
}

func (l *Logger) Trace(keyvals ...interface{}) { l.log("trace", keyvals...) }
func (l *Logger) Info(keyvals ...interface{})  { l.log("info", keyvals...) }
func (l *Logger) Warn(keyvals ...interface{})  { l.log("warn", keyvals...) }
func (l *Logger) Error(keyvals ...interface{}) { l.log("error", keyvals...) }

// TraceMsg and the *Msg variants below take a leading human-readable
// message followed by structured key-value pairs.
func (l *Logger) TraceMsg(msg string, keyvals ...interface{}) {
	l.log("trace", append([]interface{}{"msg", msg}, keyvals...)...)
}

func (l *Logger) InfoMsg(msg string, keyvals ...interface{}) {
	l.log("info", append([]interface{}{"msg", msg}, keyvals...)...)
}

func (l *Logger) WarnMsg(msg string, keyvals ...interface{}) {
	l.log("warn", append([]interface{}{"msg", msg}, keyvals...)...)
}
