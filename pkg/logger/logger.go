package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

var Log = logrus.New()

// InitLogger switches the shared logger to JSON on stdout at the given level.
func InitLogger(level string) {
	Log.Out = os.Stdout
	Log.SetFormatter(&logrus.JSONFormatter{})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
		Log.WithField("level", level).Warn("Unknown log level, falling back to info")
	}
	Log.SetLevel(lvl)

	// package-level logrus calls in the repositories follow the same setup
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(lvl)
}
