// Package logging constructs the application logger.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls logger construction.
type Options struct {
	Verbose bool // Enable debug-level output.
	JSON    bool // Emit JSON instead of console encoding.
}

// New builds a zap logger writing to stderr.
// Console encoding by default; JSON when opts.JSON is set.
func New(opts Options) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if opts.Verbose {
		level = zapcore.DebugLevel
	}

	cfg := zap.NewProductionConfig()
	if !opts.JSON {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.TimeKey = ""
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.EncoderConfig.EncodeCaller = nil
	}

	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = !opts.Verbose

	if opts.JSON {
		cfg.Encoding = "json"
	} else {
		cfg.Encoding = "console"
	}

	return cfg.Build()
}
