package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

const (
	DEBUG int = iota
	INFO
	WARNING
	ERROR
	SILENCE
)

type Logger interface {
	Debugf(msg string, a ...any)
	Infof(msg string, a ...any)
	Warnf(msg string, a ...any)
	Errorf(msg string, a ...any)
}

type defaultLogger struct {
	entry *logrus.Entry
}

func NewLogger(level int) *defaultLogger {
	return NewLoggerWithOutput(level, os.Stdout)
}

func NewLoggerWithOutput(level int, out io.Writer) *defaultLogger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})

	switch level {
	case DEBUG:
		l.SetLevel(logrus.DebugLevel)
	case INFO:
		l.SetLevel(logrus.InfoLevel)
	case WARNING:
		l.SetLevel(logrus.WarnLevel)
	case ERROR:
		l.SetLevel(logrus.ErrorLevel)
	default:
		l.SetOutput(io.Discard)
	}

	return &defaultLogger{entry: logrus.NewEntry(l).WithField("service", "matchpoll")}
}

// ParseLevel converts the textual level used in configuration files.
func ParseLevel(s string) int {
	switch s {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARNING
	case "error":
		return ERROR
	case "silence":
		return SILENCE
	default:
		return INFO
	}
}

func (l *defaultLogger) Debugf(msg string, a ...any) {
	l.entry.Debugf(msg, a...)
}

func (l *defaultLogger) Infof(msg string, a ...any) {
	l.entry.Infof(msg, a...)
}

func (l *defaultLogger) Warnf(msg string, a ...any) {
	l.entry.Warnf(msg, a...)
}

func (l *defaultLogger) Errorf(msg string, a ...any) {
	l.entry.Errorf(msg, a...)
}
