package logging

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger. JSON to stdout by default; "console" format
// is for local development.
func New(level, format string) zerolog.Logger {
	lvl := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level))); err == nil {
		lvl = parsed
	}

	var out = os.Stdout
	zerolog.TimeFieldFormat = time.RFC3339Nano
	logger := zerolog.New(out)
	if strings.ToLower(strings.TrimSpace(format)) == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	}
	return logger.Level(lvl).With().Timestamp().Str("app", "campustrade").Logger()
}
