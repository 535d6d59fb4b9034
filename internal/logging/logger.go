// Package logging configures the zerolog-based diagnostic logger driven
// by the tool's verbosity level (spec §7: diagnostics at verbosity >= 0,
// progress lines at verbosity >= 1), plus a logrus bridge used by a
// single diagnostic category (internal/app's out-of-memory report).
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"github.com/sirupsen/logrus"
)

// Configure sets up the global zerolog and logrus loggers from the
// resolved verbosity level (spec §6: -1..4). verbosity -1 disables all
// diagnostics; 0 shows errors and warnings; 1, 2 and 3 each unlock one
// more level of detail (info, debug, trace); 4 is the same as 3.
func Configure(verbosity int) {
	// Adds support for NO_COLOR. More info https://no-color.org/
	_, noColor := os.LookupEnv("NO_COLOR")

	var w io.Writer = zerolog.ConsoleWriter{
		Out:        os.Stderr,
		NoColor:    noColor,
		TimeFormat: time.RFC1123,
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	log.Logger = zerolog.New(w).With().Timestamp().Logger()

	level := levelFor(verbosity)
	zerolog.SetGlobalLevel(level)
	logrus.SetLevel(logrusLevelFor(verbosity))
	logrus.SetFormatter(new(LogrusFormatter))
}

func levelFor(verbosity int) zerolog.Level {
	switch {
	case verbosity < 0:
		return zerolog.Disabled
	case verbosity == 0:
		return zerolog.WarnLevel
	case verbosity == 1:
		return zerolog.InfoLevel
	case verbosity == 2:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

func logrusLevelFor(verbosity int) logrus.Level {
	switch {
	case verbosity < 0:
		return logrus.PanicLevel
	case verbosity == 0:
		return logrus.WarnLevel
	case verbosity == 1:
		return logrus.InfoLevel
	case verbosity == 2:
		return logrus.DebugLevel
	default:
		return logrus.TraceLevel
	}
}
