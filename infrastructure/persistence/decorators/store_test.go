package decorators

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"

	"multinet/application/ports"
	"multinet/domain/core/entities"
	"multinet/domain/core/valueobjects"
	"multinet/infrastructure/persistence/memory"
	"multinet/infrastructure/persistence/storetest"
	pkgerrors "multinet/pkg/errors"
)

// flakyStore fails ListWorkspaces while down is set
type flakyStore struct {
	*memory.Store
	mu   sync.Mutex
	down bool
}

func (s *flakyStore) setDown(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.down = down
}

func (s *flakyStore) ListWorkspaces(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	down := s.down
	s.mu.Unlock()
	if down {
		return nil, pkgerrors.NewDatabaseError("list_workspaces", errors.New("connection refused"))
	}
	return s.Store.ListWorkspaces(ctx)
}

type observation struct {
	operation string
	table     string
	failed    bool
}

type recordingMetrics struct {
	mu  sync.Mutex
	obs []observation
}

func (m *recordingMetrics) ObserveStoreOperation(operation, table string, _ time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.obs = append(m.obs, observation{operation: operation, table: table, failed: err != nil})
}

func TestWrappedStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) ports.Store {
		breaker := NewCircuitBreaker(DefaultCircuitBreakerConfig("test"), zap.NewNop())
		tracer := sdktrace.NewTracerProvider().Tracer("test")
		return Wrap(memory.NewStore(),
			Tracing(tracer),
			Metrics(&recordingMetrics{}),
			Logging(zap.NewNop(), DefaultLoggingConfig()),
			breaker.Intercept,
		)
	})
}

func TestWrap_NoInterceptorsReturnsInner(t *testing.T) {
	inner := memory.NewStore()
	assert.Same(t, inner, Wrap(inner))
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) Interceptor {
		return func(ctx context.Context, op Op, next func(context.Context) error) error {
			order = append(order, name+">")
			err := next(ctx)
			order = append(order, "<"+name)
			return err
		}
	}

	err := Chain(mark("a"), mark("b"))(context.Background(), Op{Name: "x"}, func(context.Context) error {
		order = append(order, "call")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a>", "b>", "call", "<b", "<a"}, order)
}

func TestCircuitBreaker_OpensOnInfrastructureFailures(t *testing.T) {
	inner := &flakyStore{Store: memory.NewStore(), down: true}
	config := DefaultCircuitBreakerConfig("store")
	config.MinRequests = 3
	config.FailureThreshold = 0.5
	config.Timeout = time.Hour
	breaker := NewCircuitBreaker(config, zap.NewNop())
	store := Wrap(inner, breaker.Intercept)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.ListWorkspaces(ctx)
		assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeDatabase))
	}
	assert.Equal(t, gobreaker.StateOpen, breaker.State())

	inner.setDown(false)
	_, err := store.ListWorkspaces(ctx)
	assert.True(t, pkgerrors.IsUnavailable(err))
}

func TestCircuitBreaker_IgnoresClientErrors(t *testing.T) {
	config := DefaultCircuitBreakerConfig("store")
	config.MinRequests = 2
	breaker := NewCircuitBreaker(config, zap.NewNop())
	store := Wrap(memory.NewStore(), breaker.Intercept)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := store.GetTable(ctx, "missing", "people")
		assert.True(t, pkgerrors.IsNotFound(err))
	}
	assert.Equal(t, gobreaker.StateClosed, breaker.State())
}

func TestIsBreakerSuccess(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, true},
		{"canceled", context.Canceled, true},
		{"not found", pkgerrors.NewNotFoundError("table"), true},
		{"conflict", pkgerrors.NewAlreadyExists("Graph", "g"), true},
		{"validation", pkgerrors.NewValidationFailed([]string{"x"}), true},
		{"database", pkgerrors.NewDatabaseError("op", errors.New("boom")), false},
		{"unavailable", pkgerrors.NewDatabaseNotLive(errors.New("boom")), false},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isBreakerSuccess(tt.err))
		})
	}
}

func TestTracing_RecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	store := Wrap(memory.NewStore(), Tracing(provider.Tracer("test")))
	ctx := context.Background()

	require.NoError(t, store.CreateWorkspace(ctx, "ws"))
	_, err := store.GetTable(ctx, "ws", "people")
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "store.create_workspace", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)

	assert.Equal(t, "store.get_table", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Contains(t, spans[1].Attributes(), attribute.String("multinet.table", "people"))
}

func TestMetrics_ObservesEveryCall(t *testing.T) {
	metrics := &recordingMetrics{}
	store := Wrap(memory.NewStore(), Metrics(metrics))
	ctx := context.Background()

	require.NoError(t, store.CreateWorkspace(ctx, "ws"))
	table, err := entities.NewTable("ws", "people", entities.RoleNode)
	require.NoError(t, err)
	require.NoError(t, store.CreateTable(ctx, table))
	_, err = store.InsertMany(ctx, "ws", "people", []valueobjects.Record{
		valueobjects.NewRecord(valueobjects.Field{Name: valueobjects.FieldKey, Value: "a"}),
	})
	require.NoError(t, err)
	rows, total, err := store.Rows(ctx, "ws", "people", ports.Page{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 1, total)
	_, err = store.GetRecord(ctx, "ws", "people", "zzz")
	require.Error(t, err)

	assert.Equal(t, []observation{
		{operation: "create_workspace"},
		{operation: "create_table", table: "people"},
		{operation: "insert_many", table: "people"},
		{operation: "rows", table: "people"},
		{operation: "get_record", table: "people", failed: true},
	}, metrics.obs)
}
