package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// init sets up the zerolog globals used by every Logger. The global logger starts disabled; the CLI enables it once
// flags have been parsed.
func init() {
	GlobalLogger = NewLogger(zerolog.Disabled, false)

	// Stack traces are marshalled from pkg/errors and timestamps are emitted as UNIX seconds
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
}
