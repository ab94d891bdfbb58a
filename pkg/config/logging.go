package config

import (
	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/sirupsen/logrus"
)

// Bridge returns a logr.Logger writing to logger, for the library
// packages. Entries are logged at info level; V(1) entries only pass when
// logger is at debug level or above.
func Bridge(logger logrus.FieldLogger) logr.Logger {
	v := 0
	if l, ok := logger.(*logrus.Logger); ok && l.GetLevel() >= logrus.DebugLevel {
		v = 1
	}
	return funcr.New(func(prefix, args string) {
		entry := logger.WithField("component", "lib")
		if prefix != "" {
			entry = entry.WithField("logger", prefix)
		}
		entry.Info(args)
	}, funcr.Options{Verbosity: v})
}
