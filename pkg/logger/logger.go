package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

func init() {
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if os.Getenv("ENVIRONMENT") == "development" {
		log.SetLevel(logrus.DebugLevel)
	}
}

// Fields is an alias so callers don't need to import logrus.
type Fields = logrus.Fields

func Info(format string, v ...interface{}) {
	log.Infof(format, v...)
}

func Error(format string, v ...interface{}) {
	log.Errorf(format, v...)
}

func Debug(format string, v ...interface{}) {
	log.Debugf(format, v...)
}

func Warn(format string, v ...interface{}) {
	log.Warnf(format, v...)
}

// WithFields returns an entry that attaches structured fields to every line.
func WithFields(fields Fields) *logrus.Entry {
	return log.WithFields(fields)
}

// SetJSON switches output to JSON, used outside development.
func SetJSON() {
	log.SetFormatter(&logrus.JSONFormatter{})
}

// Logger exposes the underlying logger for wiring into other libraries.
func Logger() *logrus.Logger {
	return log
}
