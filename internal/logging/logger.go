package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// New builds the process logger: colored text in dev, JSON in prod.
func New(env string, level slog.Level, version string) *slog.Logger {
	return newLogger(os.Stdout, env, level, version)
}

func newLogger(w io.Writer, env string, level slog.Level, version string) *slog.Logger {
	if env == "dev" {
		h := tint.NewHandler(w, &tint.Options{
			Level:      level,
			AddSource:  true,
			TimeFormat: time.Kitchen,
		})
		return slog.New(h).With("app", AppName)
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(h).With(
		"app", AppName,
		"version", version,
		"env", env,
	)
}

// AppName tags every record.
const AppName = "ezetrol-bridge"
