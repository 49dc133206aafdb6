package logging

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger wraps logrus with a scope prefix so library output is easy to
// attribute when it is interleaved with a test suite's own logging.
type Logger struct {
	*logrus.Logger
	scope string
}

// New creates a logger at the given level. Unknown levels fall back to warn,
// which keeps the library quiet by default.
func New(level string) *Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	logger.SetOutput(os.Stderr)
	logger.SetLevel(parseLevel(level))

	return &Logger{Logger: logger}
}

func parseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.WarnLevel
	}
}

// SetLevel changes the level of an existing logger.
func (l *Logger) SetLevel(level string) {
	l.Logger.SetLevel(parseLevel(level))
}

// WithScope creates a logger sharing the same backend with a scope prefix.
func (l *Logger) WithScope(scope string) *Logger {
	return &Logger{
		Logger: l.Logger,
		scope:  scope,
	}
}

func (l *Logger) formatMessage(msg string) string {
	if l.scope != "" {
		return fmt.Sprintf("[%s] %s", l.scope, msg)
	}
	return msg
}

// Debugf logs a formatted debug message.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.Logger.Debug(l.formatMessage(fmt.Sprintf(format, args...)))
}

// Warnf logs a formatted warning message.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.Logger.Warn(l.formatMessage(fmt.Sprintf(format, args...)))
}

// Errorf logs a formatted error message.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Logger.Error(l.formatMessage(fmt.Sprintf(format, args...)))
}
