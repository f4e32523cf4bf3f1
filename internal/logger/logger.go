package logger

import (
	"fmt"
	"github.com/rs/zerolog"
	"io"
	"strings"
	"time"
)

// New builds the process logger. format is "json" or "console".
func New(w io.Writer, level, format string) (zerolog.Logger, error) {
	zerolog.TimeFieldFormat = time.RFC3339

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	switch format {
	case "console":
		return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
			Level(lvl).
			With().
			Timestamp().
			Str("service", "geoblog").
			Logger(), nil
	case "", "json":
		return zerolog.New(w).
			Level(lvl).
			With().
			Timestamp().
			Str("service", "geoblog").
			Logger(), nil
	default:
		return zerolog.Nop(), fmt.Errorf("log format %q: want json or console", format)
	}
}
