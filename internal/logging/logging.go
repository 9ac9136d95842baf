// If you are AI: This file builds per-component structured loggers shared across the process.

package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// root is the process-wide logrus instance. All component loggers derive
// their fields from this entry, matching linkerd2's package-level logger
// convention.
var root = newRoot()

// newRoot constructs the base logger with a text formatter and an
// info-or-above level that can be lowered via NONCHALANT_LOG_LEVEL.
func newRoot() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetLevel(logrus.InfoLevel)

	if lvl := os.Getenv("NONCHALANT_LOG_LEVEL"); lvl != "" {
		if parsed, err := logrus.ParseLevel(lvl); err == nil {
			log.SetLevel(parsed)
		}
	}
	return log
}

// For returns a component-scoped logger carrying a "component" field, the
// way linkerd2's service-mirror builds a *logrus.Entry per probe worker.
func For(component string) *logrus.Entry {
	return root.WithField("component", component)
}

// WithFields returns a component-scoped logger with additional fields
// merged in (connection id, bot id, stream key, and similar call-site
// context).
func WithFields(component string, fields logrus.Fields) *logrus.Entry {
	merged := logrus.Fields{"component": component}
	for k, v := range fields {
		merged[k] = v
	}
	return root.WithFields(merged)
}

// SetLevel overrides the process-wide log level. Used by cmd/videobot to
// apply a --log-level flag after the root logger has already been built.
func SetLevel(level string) error {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	root.SetLevel(parsed)
	return nil
}
