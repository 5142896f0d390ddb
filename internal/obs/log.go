package obs

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the shared logger. format is "json" (default) or "text".
func NewLogger(level, format string) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	switch strings.ToLower(format) {
	case "", "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}
	log.SetLevel(lvl)
	return log, nil
}

// Discard returns a logger that drops everything. Used where no logger is configured.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// LogError logs err with the module and operation it came from.
func LogError(log logrus.FieldLogger, module, op string, err error, fields logrus.Fields) {
	entry := log.WithFields(logrus.Fields{
		"module": module,
		"op":     op,
	})
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(err.Error())
}
