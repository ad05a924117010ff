package decorators

import (
	"context"
	"time"
)

// StoreMetrics receives one observation per store call
type StoreMetrics interface {
	ObserveStoreOperation(operation, table string, duration time.Duration, err error)
}

// Metrics times every store call
func Metrics(m StoreMetrics) Interceptor {
	return func(ctx context.Context, op Op, next func(context.Context) error) error {
		start := time.Now()
		err := next(ctx)
		m.ObserveStoreOperation(op.Name, op.Table, time.Since(start), err)
		return err
	}
}
