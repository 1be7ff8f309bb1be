// Package logging wraps zerolog into the per-component logger pattern
// the pack's AVM package uses: one process-wide configured output, a
// named zerolog.Logger handed to every component that calls
// GetForComponent. Context fields are attached at each log site with
// .With() rather than formatted into the message string.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

var base = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Configure sets the process-wide log level and output writer; call once
// at startup before any GetForComponent caller logs. Defaults to
// zerolog.InfoLevel and os.Stdout if never called.
func Configure(level zerolog.Level, out io.Writer) {
	if out == nil {
		out = os.Stdout
	}
	base = zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// GetForComponent returns a zerolog.Logger tagged with name, the unit
// every log line from that component carries.
func GetForComponent(name string) zerolog.Logger {
	return base.With().Str("component", name).Logger()
}
