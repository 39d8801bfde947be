// Package logging provides structured logging functionality.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
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

// DefaultLogConfig returns the default logging configuration.
func DefaultLogConfig() LogConfig {
	home, _ := os.UserHomeDir()
	return LogConfig{
		Level:      "info",
		Console:    true,
		File:       true,
		FilePath:   filepath.Join(home, ".config", "wealthwise", "logs", "wealthwise.log"),
		MaxSize:    50,
		MaxBackups: 5,
		MaxAge:     30,
	}
}

// NewLogger creates a new logger with default configuration.
func NewLogger() zerolog.Logger {
	return NewLoggerWithConfig(DefaultLogConfig())
}

// NewLoggerWithConfig creates a new logger with the specified configuration.
func NewLoggerWithConfig(cfg LogConfig) zerolog.Logger {
	var writers []io.Writer

	if cfg.Console {
		consoleWriter := zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}
		writers = append(writers, consoleWriter)
	}

	if cfg.File {
		logDir := filepath.Dir(cfg.FilePath)
		if err := os.MkdirAll(logDir, 0755); err == nil {
			fileWriter := &lumberjack.Logger{
				Filename:   cfg.FilePath,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   true,
			}
			writers = append(writers, fileWriter)
		}
	}

	var writer io.Writer
	if len(writers) == 0 {
		writer = os.Stderr
	} else if len(writers) == 1 {
		writer = writers[0]
	} else {
		writer = zerolog.MultiLevelWriter(writers...)
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	return zerolog.New(writer).
		With().
		Timestamp().
		Logger()
}

func parseLevel(level string) zerolog.Level {
	switch level {
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

// WithUser adds a username to the logger context.
func WithUser(logger zerolog.Logger, username string) zerolog.Logger {
	return logger.With().Str("user", username).Logger()
}

// LogBuy logs a recorded buy trade.
func LogBuy(logger zerolog.Logger, memo, instrument, quantity, rate string) {
	logger.Info().
		Str("event", "buy").
		Str("memo", memo).
		Str("instrument", instrument).
		Str("quantity", quantity).
		Str("rate", rate).
		Msg("Buy trade recorded")
}

// LogSell logs a recorded disposal.
func LogSell(logger zerolog.Logger, memo, instrument, quantity, realizedPL, cgt string) {
	logger.Info().
		Str("event", "sell").
		Str("memo", memo).
		Str("instrument", instrument).
		Str("quantity", quantity).
		Str("realized_pl", realizedPL).
		Str("cgt", cgt).
		Msg("Sell trade recorded")
}

// LogDividend logs a recorded dividend payment.
func LogDividend(logger zerolog.Logger, warrant, instrument, net string) {
	logger.Info().
		Str("event", "dividend").
		Str("warrant", warrant).
		Str("instrument", instrument).
		Str("net_amount", net).
		Msg("Dividend recorded")
}

// LogPriceFetch logs a price reader call.
func LogPriceFetch(logger zerolog.Logger, source, symbol string, duration time.Duration, err error) {
	event := logger.Debug().
		Str("event", "price_fetch").
		Str("source", source).
		Str("symbol", symbol).
		Dur("duration", duration)

	if err != nil {
		event.Err(err).Msg("Price fetch failed")
	} else {
		event.Msg("Price fetch completed")
	}
}
