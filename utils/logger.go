package utils

import (
	"os"

	"github.com/sirupsen/logrus"
)

var (
	InfoLogger  *logrus.Logger
	ErrorLogger *logrus.Logger
)

// InitLogger builds the two process loggers: info to stdout, errors to
// stderr. Release deployments log JSON so the lines are ingestable;
// everything else gets human-readable text.
func InitLogger() {
	InfoLogger = logrus.New()
	ErrorLogger = logrus.New()

	var formatter logrus.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	if os.Getenv("GIN_MODE") == "release" {
		formatter = &logrus.JSONFormatter{}
	}

	InfoLogger.SetOutput(os.Stdout)
	InfoLogger.SetFormatter(formatter)
	InfoLogger.SetLevel(logrus.InfoLevel)

	ErrorLogger.SetOutput(os.Stderr)
	ErrorLogger.SetFormatter(formatter)
	ErrorLogger.SetLevel(logrus.ErrorLevel)

	if level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		InfoLogger.SetLevel(level)
	}
}
