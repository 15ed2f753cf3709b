package helpers

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// NewLogger creates the process logger: text with full timestamps in development, JSON elsewhere.
// A parseable level overrides the env default.
func NewLogger(appName, env, level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if env == "development" {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	}
	if lvl, err := logrus.ParseLevel(level); level != "" && err == nil {
		logger.SetLevel(lvl)
	}
	logger.AddHook(serviceHook{app: appName, env: env})
	logger.WithField("log_level", logger.GetLevel().String()).Info("logger initialized")
	return logger
}

// serviceHook stamps every entry with the service name and env.
type serviceHook struct {
	app, env string
}

func (serviceHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h serviceHook) Fire(e *logrus.Entry) error {
	e.Data["app"] = h.app
	e.Data["env"] = h.env
	return nil
}

// LogError logs msg at error level with err attached as a structured field.
func LogError(logger *logrus.Logger, msg string, err error, fields logrus.Fields) {
	entry := logger.WithFields(fields)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Error(msg)
}

func LogInfo(logger *logrus.Logger, msg string, fields logrus.Fields) {
	logger.WithFields(fields).Info(msg)
}
