package decorators

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracing opens one client span per store call
func Tracing(tracer trace.Tracer) Interceptor {
	return func(ctx context.Context, op Op, next func(context.Context) error) error {
		attrs := []attribute.KeyValue{attribute.String("db.operation", op.Name)}
		if op.Workspace != "" {
			attrs = append(attrs, attribute.String("multinet.workspace", op.Workspace))
		}
		if op.Table != "" {
			attrs = append(attrs, attribute.String("multinet.table", op.Table))
		}

		ctx, span := tracer.Start(ctx, "store."+op.Name,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(attrs...),
		)
		defer span.End()

		err := next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return err
	}
}
