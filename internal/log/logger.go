package log

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the console logger shared by both binaries. level is parsed
// with zerolog.ParseLevel; anything outside production logs at debug.
func New(environment, level, service string) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
		NoColor:    environment == "production",
	}

	logger := zerolog.New(output).With().
		Timestamp().
		Str("env", environment).
		Str("service", service).
		Logger()

	parsed, err := zerolog.ParseLevel(level)
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}
	if environment != "production" {
		parsed = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(parsed)

	return logger
}
