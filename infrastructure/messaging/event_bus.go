// Package messaging provides in-process event delivery. Events published on
// the LocalEventBus reach subscribed handlers synchronously and may be
// forwarded to an external publisher such as EventBridge.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"multinet/application/ports"
	"multinet/domain/events"
)

// AllEvents subscribes a handler to every event type
const AllEvents = "*"

// LocalEventBus dispatches events to local handlers and then forwards them
type LocalEventBus struct {
	mu       sync.RWMutex
	handlers map[string][]ports.EventHandler
	forward  ports.EventPublisher
	logger   *zap.Logger
}

var _ ports.EventBus = (*LocalEventBus)(nil)

// NewLocalEventBus creates a bus. forward may be nil.
func NewLocalEventBus(forward ports.EventPublisher, logger *zap.Logger) *LocalEventBus {
	return &LocalEventBus{
		handlers: make(map[string][]ports.EventHandler),
		forward:  forward,
		logger:   logger,
	}
}

// Subscribe registers a handler for an event type or AllEvents
func (b *LocalEventBus) Subscribe(eventType string, handler ports.EventHandler) error {
	if handler == nil {
		return errors.New("event handler must not be nil")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	return nil
}

// Publish dispatches one event
func (b *LocalEventBus) Publish(ctx context.Context, event events.DomainEvent) error {
	return b.PublishBatch(ctx, []events.DomainEvent{event})
}

// PublishBatch dispatches each event to its local handlers, then forwards the
// whole batch. Handler failures do not stop delivery to the other handlers.
func (b *LocalEventBus) PublishBatch(ctx context.Context, domainEvents []events.DomainEvent) error {
	if len(domainEvents) == 0 {
		return nil
	}

	start := time.Now()
	var errs []error
	for _, event := range domainEvents {
		for _, handler := range b.handlersFor(event.GetEventType()) {
			if err := handler.Handle(ctx, event); err != nil {
				b.logger.Warn("Failed to dispatch event locally",
					zap.String("eventType", event.GetEventType()),
					zap.String("aggregateID", event.GetAggregateID()),
					zap.Error(err),
				)
				errs = append(errs, fmt.Errorf("%s: %w", event.GetEventType(), err))
			}
		}
	}

	b.logger.Debug("Events dispatched locally",
		zap.Int("count", len(domainEvents)),
		zap.Int("failed", len(errs)),
		zap.Duration("duration", time.Since(start)),
	)

	if b.forward != nil {
		if err := b.forward.PublishBatch(ctx, domainEvents); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *LocalEventBus) handlersFor(eventType string) []ports.EventHandler {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []ports.EventHandler
	for _, key := range []string{eventType, AllEvents} {
		for _, h := range b.handlers[key] {
			if h.CanHandle(eventType) {
				out = append(out, h)
			}
		}
	}
	return out
}

// LogHandler writes every event it receives to the log
type LogHandler struct {
	logger *zap.Logger
}

var _ ports.EventHandler = (*LogHandler)(nil)

// NewLogHandler creates a handler that logs events at info level
func NewLogHandler(logger *zap.Logger) *LogHandler {
	return &LogHandler{logger: logger.Named("events")}
}

// Handle logs the event
func (h *LogHandler) Handle(ctx context.Context, event events.DomainEvent) error {
	h.logger.Info("Domain event",
		zap.String("eventID", event.GetEventID()),
		zap.String("eventType", event.GetEventType()),
		zap.String("aggregateID", event.GetAggregateID()),
		zap.Time("timestamp", event.GetTimestamp()),
	)
	return nil
}

// CanHandle accepts every event type
func (h *LogHandler) CanHandle(string) bool { return true }
