// Package logging builds the zap loggers used throughout the trainer.
//
// Loggers should be injected and named, e.g. logger.Named("worker").
// Tests should use Test, with New reserved for the command line.
package logging

import (
	"fmt"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

// New returns a new Logger at the given level, one of debug, info,
// warn or error. Development loggers write coloured console output,
// others write JSON.
func New(level string, development bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	return NewWith(func(cfg *zap.Config) {
		if development {
			*cfg = zap.NewDevelopmentConfig()
			cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		cfg.Level.SetLevel(lvl)
	})
}

// NewWith returns a new Logger from a modified production config
func NewWith(cfgFn func(*zap.Config)) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfgFn(&cfg)

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("newWith: %w", err)
	}
	return logger, nil
}

// Test returns a new debug level Logger that writes to tb
func Test(tb testing.TB) *zap.Logger {
	tb.Helper()
	return zaptest.NewLogger(tb, zaptest.Level(zapcore.DebugLevel))
}

// Nop returns a Logger that discards everything
func Nop() *zap.Logger {
	return zap.NewNop()
}
