package di

import (
	"go.uber.org/zap"

	"multinet/application/commands/bus"
	"multinet/application/ports"
	querybus "multinet/application/queries/bus"
	"multinet/infrastructure/config"
	"multinet/infrastructure/observability"
	"multinet/infrastructure/persistence/decorators"
)

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	LogLevel   zap.AtomicLevel
	Store      ports.Store
	EventBus   ports.EventBus
	CommandBus *bus.CommandBus
	QueryBus   *querybus.QueryBus
	Collector  *observability.Collector
	Tracing    *observability.TracerProvider
	Breaker    *decorators.CircuitBreaker
}
