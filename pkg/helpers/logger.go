package helpers

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger creates a configured Logrus logger
func NewLogger(appName, env string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if env == "development" {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	logger.WithFields(logrus.Fields{"app": appName, "env": env}).Info("logger initialized")
	return logger
}

// NewDiscardLogger returns a logger that writes nowhere; handy in tests.
func NewDiscardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
