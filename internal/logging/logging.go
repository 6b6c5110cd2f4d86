// Package logging configures the process-wide zerolog logger. Verbose mode
// echoes every git command executed and its exit status; quiet mode
// suppresses everything below errors.
package logging

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup initializes the global logger. Diagnostics go to stderr so stdout
// stays clean for report output.
func Setup(verbose, quiet bool) {
	level := zerolog.InfoLevel
	switch {
	case quiet:
		level = zerolog.ErrorLevel
	case verbose:
		level = zerolog.DebugLevel
	}

	output := zerolog.ConsoleWriter{Out: os.Stderr}
	log.Logger = zerolog.New(output).Level(level).With().Timestamp().Logger()
}
