package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config controls the log level and output format.
type Config struct {
	Level  string `env:"LOG_LEVEL"  envDefault:"info"`
	Pretty bool   `env:"LOG_PRETTY" envDefault:"false"`
}

// New creates a zerolog logger writing to stdout.
func New(cfg Config) *zerolog.Logger {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter creates a zerolog logger writing to w. Unknown levels fall back to info.
func NewWithWriter(cfg Config, w io.Writer) *zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if cfg.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	logger := zerolog.New(w).Level(level).With().Timestamp().Logger()

	return &logger
}
