package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Options controls logger construction
type Options struct {
	Level      string
	JSON       bool
	Output     io.Writer
	Deployment string
}

// New creates the application logger.
// JSON output is used in production and inside Lambda so CloudWatch can index the fields.
func New(opts Options) *logrus.Logger {
	logger := logrus.New()

	if opts.JSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	logger.SetLevel(ParseLevel(opts.Level))

	if opts.Output != nil {
		logger.SetOutput(opts.Output)
	} else {
		logger.SetOutput(os.Stdout)
	}

	if opts.Deployment != "" {
		logger.AddHook(&fieldHook{fields: logrus.Fields{"deployment": opts.Deployment}})
	}

	return logger
}

// ParseLevel maps a level name to a logrus level, defaulting to info
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Discard returns a logger that drops everything, for tests
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// fieldHook stamps constant fields on every entry
type fieldHook struct {
	fields logrus.Fields
}

func (h *fieldHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *fieldHook) Fire(entry *logrus.Entry) error {
	for k, v := range h.fields {
		if _, ok := entry.Data[k]; !ok {
			entry.Data[k] = v
		}
	}
	return nil
}
