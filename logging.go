package main

import (
	"github.com/sirupsen/logrus"
)

var logger = logrus.New()

func init() {
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

// helpers so call sites stay short; most log lines are built with string concatenation.
func logInfo(message string) {
	logger.Info(message)
}

func logSuccess(message string) {
	logger.WithField("success", true).Info(message)
}

func logWarning(message string) {
	logger.Warn(message)
}

func logError(message string) {
	logger.Error(message)
}
