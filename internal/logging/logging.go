// Package logging provides the diagnostic logger. Operator-facing output
// goes through the ui package instead; this log is silent unless --verbose.
package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// New builds the diagnostic logger. Warn level by default so routine runs
// stay quiet; verbose switches to debug. The run id ties log lines to the
// run record written after a launch.
func New(verbose bool, runID string) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	w := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}

	return zerolog.New(w).Level(level).With().
		Timestamp().
		Str("run", runID).
		Logger()
}
