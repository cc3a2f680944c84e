// Package cmn provides the small set of ambient helpers (logging, error
// taxonomy, marshalling) shared by every other package in this module.
package cmn

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the narrow logging surface every package depends on, so that
// only this file imports logrus directly.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	WithFields(fields Fields) Logger
}

// Fields attaches structured context to a log line, typically
// instance_id/step/job_id.
type Fields map[string]interface{}

type logrusLogger struct {
	entry *logrus.Entry
}

// NewLogger builds the process-wide logger. debug raises the level so
// --debug surfaces step-internal detail (retry attempts, waiter polls).
func NewLogger(debug bool) Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if debug {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}
	return &logrusLogger{entry: logrus.NewEntry(l)}
}

func (l *logrusLogger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *logrusLogger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *logrusLogger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *logrusLogger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

func (l *logrusLogger) WithFields(fields Fields) Logger {
	return &logrusLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

// NopLogger discards everything; used by unit tests that don't care about
// log output.
func NopLogger() Logger {
	l := logrus.New()
	l.SetOutput(nopWriter{})
	return &logrusLogger{entry: logrus.NewEntry(l)}
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
