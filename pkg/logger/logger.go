// backend-go/pkg/logger/logger.go
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

var (
	// Log is the global logger instance
	Log zerolog.Logger
)

func init() {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339Nano

	Log = newLogger(consoleWriter(os.Stdout), zerolog.InfoLevel)
}

func consoleWriter(out io.Writer) io.Writer {
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "2006-01-02 15:04:05",
	}
}

func newLogger(out io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Caller().
		Logger()
}

// Setup configures the global logger from LOG_LEVEL / LOG_FORMAT values.
// Format "json" writes one JSON object per line; anything else is console.
// The zerolog/log package logger is pointed at the same output.
func Setup(levelStr, format string) {
	SetupWriter(os.Stdout, levelStr, format)
}

// SetupWriter is Setup with an explicit destination.
func SetupWriter(out io.Writer, levelStr, format string) {
	var w io.Writer = out
	if !strings.EqualFold(strings.TrimSpace(format), "json") {
		w = consoleWriter(out)
	}

	Log = newLogger(w, zerolog.InfoLevel)
	SetLevel(levelStr)
	log.Logger = Log
}

// SetLevel sets the log level
func SetLevel(levelStr string) {
	level, err := zerolog.ParseLevel(levelStr)
	if err != nil || levelStr == "" {
		Log.Warn().Str("level", levelStr).Msg("invalid log level, defaulting to info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	Log = Log.Level(level)
}
