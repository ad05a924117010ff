package di

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"

	"multinet/application/commands"
	"multinet/application/commands/bus"
	commandhandlers "multinet/application/commands/handlers"
	"multinet/application/ports"
	"multinet/application/queries"
	querybus "multinet/application/queries/bus"
	queryhandlers "multinet/application/queries/handlers"
	"multinet/infrastructure/config"
	"multinet/infrastructure/messaging"
	"multinet/infrastructure/messaging/eventbridge"
	"multinet/infrastructure/observability"
	"multinet/infrastructure/persistence/decorators"
	"multinet/infrastructure/persistence/dynamodb"
	"multinet/infrastructure/persistence/memory"
	"multinet/infrastructure/persistence/sqlite"
)

// Logging pairs the process logger with its adjustable level
type Logging struct {
	Logger *zap.Logger
	Level  zap.AtomicLevel
}

// ProvideLogging creates the process logger
func ProvideLogging(cfg *config.Config) (*Logging, func(), error) {
	logger, level, err := config.NewLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = logger.Sync() }
	return &Logging{Logger: logger, Level: level}, cleanup, nil
}

// ProvideLogger extracts the logger
func ProvideLogger(l *Logging) *zap.Logger {
	return l.Logger
}

// ProvideLogLevel extracts the adjustable level
func ProvideLogLevel(l *Logging) zap.AtomicLevel {
	return l.Level
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client, pointed at
// DYNAMODB_ENDPOINT when set (DynamoDB Local)
func ProvideDynamoDBClient(awsCfg aws.Config, cfg *config.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg, func(o *awsdynamodb.Options) {
		if cfg.DynamoDBEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
		}
	})
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCollector creates the prometheus collector
func ProvideCollector() *observability.Collector {
	return observability.NewCollector("multinet")
}

// ProvideMetrics returns the domain metrics sink
func ProvideMetrics(cfg *config.Config, collector *observability.Collector) ports.Metrics {
	if !cfg.EnableMetrics {
		return ports.NopMetrics{}
	}
	return collector
}

// ProvideTracerProvider installs tracing. The cleanup flushes pending spans.
func ProvideTracerProvider(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*observability.TracerProvider, func(), error) {
	tp, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.EnableTracing,
		ServiceName: "multinet",
		Environment: cfg.Environment,
		Endpoint:    cfg.OTLPEndpoint,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	cleanup := func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Warn("Failed to shut down tracer provider", zap.Error(err))
		}
	}
	return tp, cleanup, nil
}

// ProvideCircuitBreaker creates the breaker guarding the store
func ProvideCircuitBreaker(cfg *config.Config, logger *zap.Logger) *decorators.CircuitBreaker {
	breakerCfg := decorators.DefaultCircuitBreakerConfig("store")
	breakerCfg.MinRequests = cfg.BreakerMinRequests
	breakerCfg.FailureThreshold = cfg.BreakerFailureThreshold
	breakerCfg.Timeout = cfg.BreakerTimeout
	return decorators.NewCircuitBreaker(breakerCfg, logger)
}

// ProvideStore opens the configured backend and wraps it with tracing,
// metrics, logging and the circuit breaker, outermost first
func ProvideStore(
	ctx context.Context,
	cfg *config.Config,
	client *awsdynamodb.Client,
	collector *observability.Collector,
	tp *observability.TracerProvider,
	breaker *decorators.CircuitBreaker,
	logger *zap.Logger,
) (ports.Store, func(), error) {
	var inner ports.Store
	switch cfg.StoreBackend {
	case config.StoreMemory:
		inner = memory.NewStore()
	case config.StoreSQLite:
		s, err := sqlite.NewStore(ctx, sqlite.Config{Path: cfg.SQLitePath}, logger)
		if err != nil {
			return nil, nil, err
		}
		inner = s
	case config.StoreDynamoDB:
		inner = dynamodb.NewStore(client, cfg.DynamoDBTable, logger)
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	var interceptors []decorators.Interceptor
	if cfg.EnableTracing {
		interceptors = append(interceptors, decorators.Tracing(tp.Tracer("multinet/store")))
	}
	if cfg.EnableMetrics {
		interceptors = append(interceptors, decorators.Metrics(collector))
	}
	interceptors = append(interceptors,
		decorators.Logging(logger, decorators.DefaultLoggingConfig()),
		breaker.Intercept,
	)

	logger.Info("Store ready",
		zap.String("backend", cfg.StoreBackend),
		zap.Int("interceptors", len(interceptors)),
	)

	store := decorators.Wrap(inner, interceptors...)
	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close store", zap.Error(err))
		}
	}
	return store, cleanup, nil
}

// ProvideEventBus creates the local bus. Every event is logged; when
// EVENT_BUS_NAME is set events are also forwarded to EventBridge.
func ProvideEventBus(cfg *config.Config, client *awseventbridge.Client, logger *zap.Logger) (ports.EventBus, error) {
	var forward ports.EventPublisher
	if cfg.EventBusName != "" {
		forward = eventbridge.NewPublisher(client, cfg.EventBusName, logger)
	}

	eventBus := messaging.NewLocalEventBus(forward, logger)
	if err := eventBus.Subscribe(messaging.AllEvents, messaging.NewLogHandler(logger)); err != nil {
		return nil, err
	}
	return eventBus, nil
}

// commandHandler adapts a typed handler method to bus.CommandHandler
func commandHandler[C bus.Command, R any](handle func(context.Context, C) (R, error)) bus.CommandHandler {
	return bus.CommandHandlerFunc(func(ctx context.Context, cmd bus.Command) (interface{}, error) {
		typed, ok := cmd.(C)
		if !ok {
			return nil, fmt.Errorf("invalid command type %T", cmd)
		}
		result, err := handle(ctx, typed)
		if err != nil {
			return nil, err
		}
		return result, nil
	})
}

// queryHandler adapts a typed handler method to querybus.QueryHandler
func queryHandler[Q querybus.Query, R any](handle func(context.Context, Q) (R, error)) querybus.QueryHandler {
	return querybus.QueryHandlerFunc(func(ctx context.Context, query querybus.Query) (interface{}, error) {
		typed, ok := query.(Q)
		if !ok {
			return nil, fmt.Errorf("invalid query type %T", query)
		}
		result, err := handle(ctx, typed)
		if err != nil {
			return nil, err
		}
		return result, nil
	})
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(
	store ports.Store,
	eventBus ports.EventBus,
	metrics ports.Metrics,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(bus.LoggingMiddleware(logger))

	createWorkspace := commandhandlers.NewCreateWorkspaceHandler(store, eventBus, logger)
	deleteWorkspace := commandhandlers.NewDeleteWorkspaceHandler(store, eventBus, logger)
	uploadNested := commandhandlers.NewUploadNestedJSONHandler(store, eventBus, metrics, logger)
	uploadCSV := commandhandlers.NewUploadCSVHandler(store, eventBus, metrics, logger)
	createGraph := commandhandlers.NewCreateGraphHandler(store, eventBus, metrics, logger)

	registrations := []struct {
		cmd     bus.Command
		handler bus.CommandHandler
	}{
		{commands.CreateWorkspaceCommand{}, commandHandler(createWorkspace.Handle)},
		{commands.DeleteWorkspaceCommand{}, commandHandler(deleteWorkspace.Handle)},
		{commands.UploadNestedJSONCommand{}, commandHandler(uploadNested.Handle)},
		{commands.UploadCSVCommand{}, commandHandler(uploadCSV.Handle)},
		{commands.CreateGraphCommand{}, commandHandler(createGraph.Handle)},
	}
	for _, r := range registrations {
		if err := commandBus.Register(r.cmd, r.handler); err != nil {
			return nil, err
		}
	}
	return commandBus, nil
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(
	store ports.Store,
	cfg *config.Config,
	collector *observability.Collector,
	logger *zap.Logger,
) (*querybus.QueryBus, error) {
	var wrappers []querybus.Wrapper
	if cfg.EnableMetrics {
		wrappers = append(wrappers, querybus.NewMetricsMiddleware(collector))
	}
	queryBus := querybus.NewQueryBus(wrappers...)

	workspaces := queryhandlers.NewWorkspaceQueryHandler(store, logger)
	graphs := queryhandlers.NewGraphQueryHandler(store, logger)

	registrations := []struct {
		query   querybus.Query
		handler querybus.QueryHandler
	}{
		{queries.ListWorkspacesQuery{}, queryHandler(workspaces.ListWorkspaces)},
		{queries.GetWorkspaceQuery{}, queryHandler(workspaces.GetWorkspace)},
		{queries.ListTablesQuery{}, queryHandler(workspaces.ListTables)},
		{queries.GetTableRowsQuery{}, queryHandler(workspaces.GetTableRows)},
		{queries.ListGraphsQuery{}, queryHandler(graphs.ListGraphs)},
		{queries.GetGraphQuery{}, queryHandler(graphs.GetGraph)},
		{queries.GraphNodesQuery{}, queryHandler(graphs.GraphNodes)},
		{queries.NodeAttributesQuery{}, queryHandler(graphs.NodeAttributes)},
		{queries.NodeEdgesQuery{}, queryHandler(graphs.NodeEdges)},
	}
	for _, r := range registrations {
		if err := queryBus.Register(r.query, r.handler); err != nil {
			return nil, err
		}
	}
	return queryBus, nil
}
