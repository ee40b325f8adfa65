// Package observability provides logging utilities.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/actioncore/internal/config"
)

// NewLogger creates a structured logger from the given logging configuration.
//
// Precondition: cfg.Level must be one of "debug", "info", "warn", "error".
// Precondition: cfg.Format must be "json" or "console".
// Postcondition: Returns a configured zap.Logger or a non-nil error. Sampling
// is enabled only when cfg.SampleInitial > 0.
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}

	var zapCfg zap.Config
	switch cfg.Format {
	case "json":
		zapCfg = zap.NewProductionConfig()
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.Sampling = Sampling(cfg)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

// Sampling returns the zap sampling settings for cfg, or nil when sampling is
// off. With sampling on, the first SampleInitial entries of each message per
// second are logged and then every SampleThereafter-th one.
func Sampling(cfg config.LoggingConfig) *zap.SamplingConfig {
	if cfg.SampleInitial <= 0 {
		return nil
	}
	thereafter := cfg.SampleThereafter
	if thereafter <= 0 {
		thereafter = cfg.SampleInitial
	}
	return &zap.SamplingConfig{Initial: cfg.SampleInitial, Thereafter: thereafter}
}

// Component returns base named after a subsystem, e.g. "sim" or "journal".
//
// Precondition: base must be non-nil.
func Component(base *zap.Logger, name string) *zap.Logger {
	return base.Named(name)
}
