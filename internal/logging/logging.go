// Package logging provides structured logging functionality.
package logging

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"optpricer/internal/models"
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string
	Console    bool
	File       bool
	FilePath   string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
}

// NewLoggerWithConfig creates a new logger with the specified configuration.
// Console output goes to stderr so that command results on stdout stay
// machine readable.
func NewLoggerWithConfig(cfg LogConfig) zerolog.Logger {
	var writers []io.Writer

	if cfg.Console {
		consoleWriter := zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
			FormatLevel: func(i interface{}) string {
				if ll, ok := i.(string); ok {
					switch ll {
					case "debug":
						return "\033[36mDBG\033[0m"
					case "info":
						return "\033[32mINF\033[0m"
					case "warn":
						return "\033[33mWRN\033[0m"
					case "error":
						return "\033[31mERR\033[0m"
					default:
						return ll
					}
				}
				return "???"
			},
		}
		writers = append(writers, consoleWriter)
	}

	// Rotated file output
	if cfg.File && cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err == nil {
			writers = append(writers, &lumberjack.Logger{
				Filename:   cfg.FilePath,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   true,
			})
		}
	}

	var writer io.Writer
	switch len(writers) {
	case 0:
		writer = io.Discard
	case 1:
		writer = writers[0]
	default:
		writer = zerolog.MultiLevelWriter(writers...)
	}

	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))

	return zerolog.New(writer).
		With().
		Timestamp().
		Logger()
}

// ParseLevel maps a level name to a zerolog level. Unknown names give info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// SetDebugLevel sets the global log level to debug.
func SetDebugLevel() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}

type contextKey struct{}

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext retrieves the logger from context, or a no-op logger.
func FromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(contextKey{}).(zerolog.Logger); ok {
		return logger
	}
	return zerolog.Nop()
}

// WithMethod adds the pricing method to the logger context.
func WithMethod(logger zerolog.Logger, method models.PricingMethod) zerolog.Logger {
	return logger.With().Str("method", string(method)).Logger()
}

// WithOperation adds an operation name to the logger context.
func WithOperation(logger zerolog.Logger, operation string) zerolog.Logger {
	return logger.With().Str("operation", operation).Logger()
}

// LogQuote logs a computed quote.
func LogQuote(logger zerolog.Logger, q models.Quote) {
	logger = WithMethod(logger, q.Method)
	event := logger.Info().
		Str("event", "quote").
		Str("kind", string(q.Kind)).
		Float64("spot", q.Spot).
		Float64("strike", q.Strike).
		Float64("rate", q.Rate).
		Float64("expiry", q.Expiry).
		Float64("volatility", q.Volatility).
		Float64("value", q.Value).
		Dur("elapsed", q.Elapsed)

	switch q.Method {
	case models.MethodBinomial:
		event = event.Int("steps", q.Steps)
	case models.MethodSimulation:
		event = event.Int("paths", q.Paths).Int("workers", q.Workers).Uint64("seed", q.Seed)
	case models.MethodBarrier:
		event = event.Str("barrier_kind", string(q.BarrierKind)).Float64("barrier", q.Barrier)
	}

	event.Msg("Quote computed")
}

// LogSweep logs a completed sweep.
func LogSweep(logger zerolog.Logger, name string, points int, duration time.Duration, err error) {
	event := logger.Debug().
		Str("event", "sweep").
		Str("sweep", name).
		Int("points", points).
		Dur("duration", duration)

	if err != nil {
		event.Err(err).Msg("Sweep failed")
	} else {
		event.Msg("Sweep completed")
	}
}
