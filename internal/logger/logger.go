package logger

import (
	"io"
	"log/slog"
	"os"
)

// Config holds the logger configuration.
type Config struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// NewLogger builds a slog logger writing to output in the configured format.
// Unknown levels fall back to info and unknown formats to text.
func NewLogger(cfg Config, output io.Writer) *slog.Logger {
	if output == nil {
		output = os.Stdout
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}
	return slog.New(handler)
}

// OpenOutput resolves the configured output name to a writer. The returned
// cleanup closes the log file when one was opened.
func OpenOutput(cfg Config) (io.Writer, func()) {
	switch cfg.Output {
	case "stderr":
		return os.Stderr, func() {}
	case "file":
		f, err := os.OpenFile("dollar-ci.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			slog.Warn("failed to open log file, logging to stdout", "error", err)
			return os.Stdout, func() {}
		}
		return f, func() { _ = f.Close() }
	default:
		return os.Stdout, func() {}
	}
}
