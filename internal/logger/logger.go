package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Setup builds the root zerolog logger. The level string accepts any value
// zerolog.ParseLevel understands (trace through panic); unknown values fall
// back to info. Format "pretty" wraps stdout in a console writer for local
// development, anything else emits JSON lines.
func Setup(level, format string) zerolog.Logger {
	var out io.Writer = os.Stdout
	if format == "pretty" {
		out = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	return zerolog.New(out).
		With().
		Timestamp().
		Caller().
		Logger()
}
