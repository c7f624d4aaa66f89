// internal/infra/logger/logger.go
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"product_registration_bot/internal/infra/config"

	"github.com/sirupsen/logrus"
)

// Log is the global logger instance
var Log = logrus.New()

// Init points the global logger at stdout with the configured level and format.
func Init(cfg *config.AppConfig) {
	if err := configure(Log, cfg.LogLevel, cfg.Environment, os.Stdout); err != nil {
		Log.WithError(err).Warn("Falling back to info level")
	}
	Log.WithFields(logrus.Fields{
		"level":       Log.GetLevel().String(),
		"environment": cfg.Environment,
	}).Debug("Logger initialized")
}

// configure applies level and format to l. Production and staging log JSON
// for the log collector; everything else gets readable text. An unknown level
// leaves l at info and is returned.
func configure(l *logrus.Logger, level, environment string, out io.Writer) error {
	l.SetOutput(out)

	switch environment {
	case "production", "staging":
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
			FieldMap:        logrus.FieldMap{logrus.FieldKeyMsg: "message"},
		})
	default:
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	parsed, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		l.SetLevel(logrus.InfoLevel)
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	l.SetLevel(parsed)
	return nil
}

// Component returns an entry tagged with the component name.
func Component(name string) *logrus.Entry {
	return Log.WithField("component", name)
}

// Discard returns an entry that drops everything. Tests use it.
func Discard() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}
