// Package logging configures the global zerolog logger.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"getaround-insights/config"
)

// Setup applies the log section of the configuration. An unknown level
// falls back to info and is reported once the logger is ready.
func Setup(cfg config.LogConfig, service string) {
	Configure(cfg, service, os.Stderr)
}

// Configure is Setup with an explicit destination.
func Configure(cfg config.LogConfig, service string, out io.Writer) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.Console {
		out = zerolog.ConsoleWriter{Out: out}
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(out).With().Timestamp().Str("service", service).Logger()

	if err != nil {
		log.Warn().Str("level", cfg.Level).Msg("unknown log level, using info")
	}
}
