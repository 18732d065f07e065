package logger

import (
	"os"
	"screening-service/internal/app/config"

	"github.com/sirupsen/logrus"
)

func NewRequestLogger(internalConfig *config.InternalConfig) *logrus.Logger {
	requestLogger := logrus.New()
	switch internalConfig.App.Env {
	case "production":
		requestLogger.SetFormatter(&logrus.JSONFormatter{})
		file, err := os.OpenFile("requests.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err == nil {
			requestLogger.SetOutput(file)
		} else {
			requestLogger.Info("Failed to log to file, using default stderr")
		}
	default:
		requestLogger.SetFormatter(&logrus.TextFormatter{})
	}
	return requestLogger
}
