// Package logger provides the shared structured logger.
package logger

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	defaultLogger *logrus.Logger
	mu            sync.RWMutex
)

func init() {
	defaultLogger = newLogger(Options{})
}

// Options configures the logger.
type Options struct {
	Debug  bool      // Enable debug level logging
	Quiet  bool      // Only show errors
	JSON   bool      // Output as JSON
	Output io.Writer // Output destination (default: stderr)
}

// Init replaces the package logger.
func Init(opts Options) {
	l := newLogger(opts)

	mu.Lock()
	defer mu.Unlock()
	defaultLogger = l
}

func newLogger(opts Options) *logrus.Logger {
	l := logrus.New()

	level := logrus.InfoLevel
	if opts.Debug {
		level = logrus.DebugLevel
	}
	if opts.Quiet {
		level = logrus.ErrorLevel
	}
	l.SetLevel(level)

	output := opts.Output
	if output == nil {
		output = os.Stderr
	}
	l.SetOutput(output)

	if opts.JSON {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l
}

// Get returns the current logger.
func Get() *logrus.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

// WithFields returns an entry carrying the given fields.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return Get().WithFields(fields)
}

// WithField returns an entry carrying one field.
func WithField(key string, value any) *logrus.Entry {
	return Get().WithField(key, value)
}

// WithError returns an entry carrying err.
func WithError(err error) *logrus.Entry {
	return Get().WithError(err)
}

func Debug(args ...any)                 { Get().Debug(args...) }
func Debugf(format string, args ...any) { Get().Debugf(format, args...) }
func Info(args ...any)                  { Get().Info(args...) }
func Infof(format string, args ...any)  { Get().Infof(format, args...) }
func Warnf(format string, args ...any)  { Get().Warnf(format, args...) }
func Errorf(format string, args ...any) { Get().Errorf(format, args...) }
