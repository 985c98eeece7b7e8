// Package logging builds the zerolog logger shared by the CLI components.
package logging

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// FormatConsole writes human readable lines
	FormatConsole = "console"

	// FormatJSON writes one JSON object per line
	FormatJSON = "json"
)

// New creates a logger writing to w at the given level.
// Unknown levels fall back to info, unknown formats to console.
func New(level, format string, w io.Writer) zerolog.Logger {
	if strings.EqualFold(format, FormatJSON) {
		return zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Logger()
	}

	console := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	return zerolog.New(console).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// ParseLevel maps a level name to a zerolog level
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "off", "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
