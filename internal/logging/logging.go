package logging

import (
	"io"
	"log/slog"
	"os"
)

// SetupJSON installs a JSON slog handler at the given level as the default logger.
func SetupJSON(level slog.Level) *slog.Logger {
	return setup(os.Stdout, level)
}

func setup(w io.Writer, level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}
