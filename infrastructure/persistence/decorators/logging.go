package decorators

import (
	"context"
	"time"

	"go.uber.org/zap"

	pkgerrors "multinet/pkg/errors"
)

// LoggingConfig controls what the logging interceptor writes
type LoggingConfig struct {
	LogErrors     bool
	SlowThreshold time.Duration
}

// DefaultLoggingConfig returns sensible defaults for logging configuration
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		LogErrors:     true,
		SlowThreshold: time.Second,
	}
}

// Logging writes a debug line per store call, a warning for slow calls and
// an error for infrastructure failures
func Logging(logger *zap.Logger, config LoggingConfig) Interceptor {
	logger = logger.Named("store")
	return func(ctx context.Context, op Op, next func(context.Context) error) error {
		start := time.Now()
		err := next(ctx)
		duration := time.Since(start)

		fields := []zap.Field{
			zap.String("operation", op.Name),
			zap.Duration("duration", duration),
		}
		if op.Workspace != "" {
			fields = append(fields, zap.String("workspace", op.Workspace))
		}
		if op.Table != "" {
			fields = append(fields, zap.String("table", op.Table))
		}

		switch {
		case err != nil && config.LogErrors && !isBreakerSuccess(err):
			logger.Error("store operation failed", append(fields, zap.Error(err))...)
		case config.SlowThreshold > 0 && duration > config.SlowThreshold:
			logger.Warn("slow store operation", fields...)
		case err != nil:
			logger.Debug("store operation returned error",
				append(fields, zap.String("error_type", errorType(err)))...)
		default:
			logger.Debug("store operation completed", fields...)
		}
		return err
	}
}

func errorType(err error) string {
	if appErr := pkgerrors.GetAppError(err); appErr != nil {
		return string(appErr.Type)
	}
	return "unknown"
}
