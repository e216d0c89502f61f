package logger

import (
	"io"
	"log/slog"
	"os"
)

// New returns a JSON logger writing to stdout. The dev environment logs at debug level.
func New(env string) *slog.Logger {
	return NewTo(os.Stdout, env)
}

// NewTo is New with an explicit destination, for programs that own the terminal.
func NewTo(w io.Writer, env string) *slog.Logger {
	level := slog.LevelInfo
	if env == "dev" {
		level = slog.LevelDebug
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})

	return slog.New(h)
}
