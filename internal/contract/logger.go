package contract

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Log formats accepted by NewLogger.
const (
	ConsoleLogFormat = "console"
	JSONLogFormat    = "json"
)

// NewLogger creates the structured logger shared by stores and the report pipeline.
// Diagnostics go to w so that report output on stdout stays machine-readable.
func NewLogger(level, format string, w io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.WarnLevel
	}

	switch strings.ToLower(format) {
	case ConsoleLogFormat, "":
		output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
		return zerolog.New(output).Level(lvl).With().Timestamp().Logger(), nil
	case JSONLogFormat:
		// Timestamps follow zerolog's default TimeFieldFormat (RFC3339)
		return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log format %q. must be console, json", format)
	}
}
