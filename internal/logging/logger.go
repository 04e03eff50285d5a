// Package logging builds the charmbracelet/log logger shared by the CLI and
// the transcription engines.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// New returns a logger writing to w at the given level.
// DEBUG=1 in the environment forces debug output with caller and timestamps.
func New(w io.Writer, level string) *log.Logger {
	if os.Getenv("DEBUG") == "1" || strings.EqualFold(level, "debug") {
		logger := log.NewWithOptions(w, log.Options{
			ReportCaller:    true,
			ReportTimestamp: true,
			Prefix:          "voicetext",
		})
		logger.SetLevel(log.DebugLevel)
		return logger
	}

	logger := log.New(w)
	logger.SetLevel(ParseLevel(level))
	return logger
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// ParseLevel maps a config log level to a log.Level. Unknown values map to info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
