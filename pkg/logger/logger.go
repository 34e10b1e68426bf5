package logx

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/it-worker-club/study-agent/internal/core"
)

const serviceName = "study-agent"

var DefaultLoggerOpts = &LoggerOpts{
	Environment: core.Development,
}

type LoggerOpts struct {
	Environment core.Environment
	// Level overrides the environment default when it parses as a zerolog level.
	Level string
}

func safe(otps ...LoggerOpts) *LoggerOpts {
	if len(otps) == 0 {
		return DefaultLoggerOpts
	}
	return &otps[0]
}

// Init replaces the global logger. Deployed environments log JSON at info,
// tests discard everything and local runs get a debug console writer.
func Init(otps ...LoggerOpts) {
	opts := safe(otps...)

	var l zerolog.Logger
	switch {
	case opts.Environment == core.Testing:
		l = zerolog.Nop()
	case opts.Environment.Deployed():
		l = zerolog.New(os.Stderr).With().
			Timestamp().
			Str("service", serviceName).
			Str("env", opts.Environment.String()).
			Logger().Level(zerolog.InfoLevel)
	default:
		l = zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Caller().Logger().Level(zerolog.DebugLevel)
	}

	if opts.Level != "" {
		if lvl, err := zerolog.ParseLevel(opts.Level); err == nil {
			l = l.Level(lvl)
		}
	}
	log.Logger = l
}

func Debug() *zerolog.Event {
	return log.Debug()
}

func Info() *zerolog.Event {
	return log.Info()
}

func Warn() *zerolog.Event {
	return log.Warn()
}

func Error() *zerolog.Event {
	return log.Error()
}
