package config

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a production JSON logger in production and a development
// console logger elsewhere. The returned level can be changed at runtime.
func NewLogger(cfg *Config) (*zap.Logger, zap.AtomicLevel, error) {
	level, err := ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, zap.AtomicLevel{}, err
	}
	atomic := zap.NewAtomicLevelAt(level)

	var zc zap.Config
	if cfg.IsProduction() {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = atomic

	logger, err := zc.Build(zap.Fields(zap.String("environment", cfg.Environment)))
	if err != nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, atomic, nil
}

// ParseLevel parses a LOG_LEVEL value; an empty value means info
func ParseLevel(s string) (zapcore.Level, error) {
	if s == "" {
		return zapcore.InfoLevel, nil
	}
	level, err := zapcore.ParseLevel(s)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}

// FollowLogLevel keeps level in step with reloaded configuration
func FollowLogLevel(w *Watcher, level zap.AtomicLevel, logger *zap.Logger) {
	w.OnChange(func(cfg *Config) {
		next, err := ParseLevel(cfg.LogLevel)
		if err != nil {
			logger.Warn("Ignoring log level from reloaded config", zap.Error(err))
			return
		}
		if next != level.Level() {
			logger.Info("Log level changed",
				zap.String("from", level.Level().String()),
				zap.String("to", next.String()),
			)
			level.SetLevel(next)
		}
	})
}
