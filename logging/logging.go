// Package logging contains the loggers used by the depth engine and its tools.
package logging

import (
	"testing"

	"github.com/edaniels/golog"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// Logger is the logging interface every package in this module accepts.
type Logger interface {
	Debug(args ...interface{})
	Debugw(msg string, keysAndValues ...interface{})
	Info(args ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warn(args ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Error(args ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
	Fatal(args ...interface{})

	// Sublogger returns a logger whose name is this logger's name with subname appended.
	Sublogger(subname string) Logger
	// AsZap returns the underlying zap logger.
	AsZap() *zap.SugaredLogger
	Sync() error
}

type impl struct {
	*zap.SugaredLogger
}

func (imp impl) Sublogger(subname string) Logger {
	return impl{imp.Named(subname)}
}

func (imp impl) AsZap() *zap.SugaredLogger {
	return imp.SugaredLogger
}

// FromZapCompatible wraps an existing zap logger.
func FromZapCompatible(logger *zap.SugaredLogger) Logger {
	return impl{logger}
}

// Global returns the process wide logger.
func Global() Logger {
	return impl{golog.Global()}
}

// NewLogger returns a new logger that outputs Info+ logs.
func NewLogger(name string) Logger {
	return impl{golog.NewLogger(name)}
}

// NewDevelopmentLogger returns a new logger with colored, human readable Info+ output.
func NewDevelopmentLogger(name string) Logger {
	return impl{golog.NewDevelopmentLogger(name)}
}

// NewDebugLogger returns a new logger that outputs Debug+ logs.
func NewDebugLogger(name string) Logger {
	return impl{golog.NewDebugLogger(name)}
}

// NewTestLogger returns a new logger that writes Debug+ logs to the test output.
func NewTestLogger(tb testing.TB) Logger {
	logger, _ := NewObservedTestLogger(tb)
	return logger
}

// NewObservedTestLogger is like NewTestLogger but also saves logs to an in memory observer.
func NewObservedTestLogger(tb testing.TB) (Logger, *observer.ObservedLogs) {
	logger, logs := golog.NewObservedTestLogger(tb)
	return impl{logger}, logs
}
