package logger

import (
	"log/slog"
	"os"
)

// New returns the structured logger used across the service. JSON output so
// log processors get machine-readable attributes.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
