package logger

import (
	"go.uber.org/zap"
)

// New builds a zap logger appropriate for the given environment.
// "local" and "development" get the human-readable development config,
// everything else runs the JSON production config.
func New(env string) *zap.Logger {
	var log *zap.Logger
	var err error

	switch env {
	case "local", "development":
		log, err = zap.NewDevelopment()
	default:
		log, err = zap.NewProduction()
	}

	if err != nil {
		// Logging is not optional; fall back to a no-op logger rather than panic.
		return zap.NewNop()
	}

	return log
}
