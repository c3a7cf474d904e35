// Package logging builds the shared structured logger.
package logging

import (
	"os"

	"github.com/avito-insight/internal/config"
	"github.com/sirupsen/logrus"
)

// New creates a logger configured from the logging section. Unknown levels
// fall back to info; the JSON formatter is the default so log lines stay
// machine-parseable in production.
func New(cfg *config.LoggingConfig) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if cfg.Format == "text" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	return log
}
