package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init initializes the global logger. The service emits one JSON record
// per line so downstream collectors can parse milestones by their event tag.
func Init(level string) {
	zerolog.TimeFieldFormat = time.RFC3339

	lvl := zerolog.InfoLevel
	switch strings.ToLower(level) {
	case "debug":
		lvl = zerolog.DebugLevel
	case "warn", "warning":
		lvl = zerolog.WarnLevel
	case "error":
		lvl = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(lvl)

	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// NewLogger creates a new logger with optional writers
func NewLogger(writers ...io.Writer) zerolog.Logger {
	if len(writers) == 0 {
		return log.Logger
	}

	if len(writers) == 1 {
		return zerolog.New(writers[0]).With().Timestamp().Logger()
	}

	multi := zerolog.MultiLevelWriter(writers...)
	return zerolog.New(multi).With().Timestamp().Logger()
}

// WithComponent creates a logger with a component field
func WithComponent(component string) zerolog.Logger {
	return log.Logger.With().Str("component", component).Logger()
}

// Event returns an info-level record tagged with a milestone event name.
// Pass an empty path to omit the field.
func Event(logger zerolog.Logger, event, path string) *zerolog.Event {
	e := logger.Info().Str("event", event)
	if path != "" {
		e = e.Str("path", path)
	}
	return e
}

// FailureEvent is Event at error level.
func FailureEvent(logger zerolog.Logger, event, path string) *zerolog.Event {
	e := logger.Error().Str("event", event)
	if path != "" {
		e = e.Str("path", path)
	}
	return e
}
