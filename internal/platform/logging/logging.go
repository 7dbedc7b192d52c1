package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global logger. Output goes to w in console format;
// unknown levels fall back to info.
func Setup(w io.Writer, level string) {
	if w == nil {
		w = os.Stderr
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(parseLevel(level))
}

// Discard silences the global logger. The TUI calls it so log lines do not
// tear the alternate screen.
func Discard() {
	log.Logger = zerolog.Nop()
}

// Module returns a child of the global logger tagged with the module name.
func Module(name string) zerolog.Logger {
	return log.With().Str("module", name).Logger()
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
