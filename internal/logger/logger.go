package logger

import (
	"io"
	stdlog "log"
	"os"

	"feedsync/internal/config"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type logWrapper struct {
	zerolog.Logger
}

func (l logWrapper) Write(p []byte) (n int, err error) {
	n = len(p)
	if n > 0 && p[n-1] == '\n' {
		p = p[:n-1]
	}
	l.Info().Msg(string(p))
	return
}

// InitializeLogger installs the global zerolog logger. Terminals get the console
// writer, everything else gets JSON lines.
func InitializeLogger() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if config.IsDevMode() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	install(os.Stdout, isatty.IsTerminal(os.Stdout.Fd()))
}

// InitializeTestLogger routes logs to stderr at warn level so test output stays readable.
func InitializeTestLogger() {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	install(os.Stderr, true)
}

func install(out io.Writer, console bool) {
	var zl zerolog.Logger
	if console {
		zl = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: zerolog.TimeFormatUnix})
	} else {
		zl = zerolog.New(out)
	}

	zl = zl.With().Timestamp().Caller().Logger()

	log.Logger = zl

	stdlog.SetFlags(0)
	stdlog.SetOutput(logWrapper{zl})
}
