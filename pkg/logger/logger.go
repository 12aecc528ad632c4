package logger

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// New returns a JSON slog.Logger configured for the given service name.
func New(service string, level slog.Level) *slog.Logger {
	return newWith(os.Stdout, service, level)
}

// NewWithFile returns a logger that also appends to a size-rotated log file.
// An empty path behaves like New.
func NewWithFile(service string, level slog.Level, path string) *slog.Logger {
	if path == "" {
		return New(service, level)
	}
	rotated := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    50, // megabytes
		MaxBackups: 5,
		MaxAge:     14, // days
	}
	return newWith(io.MultiWriter(os.Stdout, rotated), service, level)
}

func newWith(w io.Writer, service string, level slog.Level) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h).With("service", service)
}
