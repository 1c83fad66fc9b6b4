package observability

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// InitLogger configures the global logger for the API server. Development
// gets a console writer; every other environment logs JSON lines to stdout.
// An unknown level falls back to info.
func InitLogger(serviceName, env, level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(parseLevel(level, zerolog.InfoLevel))

	if env == "development" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Str("service", serviceName).
			Logger()
		return
	}

	log.Logger = zerolog.New(os.Stdout).
		With().
		Timestamp().
		Caller().
		Str("service", serviceName).
		Logger()
}

// InitCLILogger sends log output to w so it never mixes with command results.
// Only warnings show unless verbose is set.
func InitCLILogger(w io.Writer, verbose bool) {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		With().
		Timestamp().
		Logger()
}

func parseLevel(level string, fallback zerolog.Level) zerolog.Level {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return fallback
	}
	return parsed
}

// LoggerFromContext returns the global logger tagged with the active span, if any.
func LoggerFromContext(ctx context.Context) *zerolog.Logger {
	logger := log.Logger

	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		logger = logger.With().
			Str("trace_id", sc.TraceID().String()).
			Str("span_id", sc.SpanID().String()).
			Logger()
	}

	return &logger
}

// GetLogger returns the global logger
func GetLogger() *zerolog.Logger {
	return &log.Logger
}
