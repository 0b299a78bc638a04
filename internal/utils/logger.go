package utils

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// NewLogger creates a logger with the given level and format. Unknown values
// fall back to info-level text logging.
func NewLogger(level, format string) *logrus.Logger {
	logger := logrus.New()

	switch strings.ToUpper(level) {
	case "DEBUG":
		logger.SetLevel(logrus.DebugLevel)
	case "WARN", "WARNING":
		logger.SetLevel(logrus.WarnLevel)
	case "ERROR":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	if strings.EqualFold(format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return logger
}
