package logger

import (
	"log/slog"
	"os"
)

// FatalWithLogger logs an unrecoverable error and exits.
func FatalWithLogger(logger *slog.Logger, msg string, args ...any) {
	logger.Error(msg, args...)
	os.Exit(1)
}
