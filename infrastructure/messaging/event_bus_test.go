package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"multinet/domain/events"
)

type MockEventHandler struct {
	mock.Mock
}

func (m *MockEventHandler) Handle(ctx context.Context, event events.DomainEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *MockEventHandler) CanHandle(eventType string) bool {
	return m.Called(eventType).Bool(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *MockPublisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	return m.Called(ctx, evts).Error(0)
}

func TestLocalEventBus_DispatchesByType(t *testing.T) {
	bus := NewLocalEventBus(nil, zap.NewNop())
	created := events.NewWorkspaceCreated("ws", time.Now())
	deleted := events.NewWorkspaceDeleted("ws", time.Now())

	onCreate := new(MockEventHandler)
	onCreate.On("CanHandle", events.TypeWorkspaceCreated).Return(true)
	onCreate.On("Handle", mock.Anything, created).Return(nil).Once()
	require.NoError(t, bus.Subscribe(events.TypeWorkspaceCreated, onCreate))

	everything := new(MockEventHandler)
	everything.On("CanHandle", mock.Anything).Return(true)
	everything.On("Handle", mock.Anything, mock.Anything).Return(nil).Twice()
	require.NoError(t, bus.Subscribe(AllEvents, everything))

	require.NoError(t, bus.PublishBatch(context.Background(), []events.DomainEvent{created, deleted}))

	onCreate.AssertExpectations(t)
	everything.AssertExpectations(t)
}

func TestLocalEventBus_HandlerFailureDoesNotStopOthers(t *testing.T) {
	bus := NewLocalEventBus(nil, zap.NewNop())
	event := events.NewWorkspaceCreated("ws", time.Now())

	failing := new(MockEventHandler)
	failing.On("CanHandle", mock.Anything).Return(true)
	failing.On("Handle", mock.Anything, mock.Anything).Return(errors.New("boom"))

	ok := new(MockEventHandler)
	ok.On("CanHandle", mock.Anything).Return(true)
	ok.On("Handle", mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, bus.Subscribe(AllEvents, failing))
	require.NoError(t, bus.Subscribe(AllEvents, ok))

	err := bus.Publish(context.Background(), event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	ok.AssertCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestLocalEventBus_Forwards(t *testing.T) {
	forward := new(MockPublisher)
	bus := NewLocalEventBus(forward, zap.NewNop())
	batch := []events.DomainEvent{events.NewWorkspaceCreated("ws", time.Now())}
	forward.On("PublishBatch", mock.Anything, batch).Return(nil).Once()

	require.NoError(t, bus.PublishBatch(context.Background(), batch))
	forward.AssertExpectations(t)
}

func TestLocalEventBus_SubscribeNil(t *testing.T) {
	bus := NewLocalEventBus(nil, zap.NewNop())
	assert.Error(t, bus.Subscribe(AllEvents, nil))
}

func TestLogHandler(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := NewLogHandler(zap.New(core))
	event := events.NewTableUploaded("ws", "people", "node", 3, time.Now())

	assert.True(t, handler.CanHandle(events.TypeTableUploaded))
	require.NoError(t, handler.Handle(context.Background(), event))

	entries := logs.FilterMessage("Domain event").All()
	require.Len(t, entries, 1)
	assert.Equal(t, events.TypeTableUploaded, entries[0].ContextMap()["eventType"])
	assert.Equal(t, "ws/people", entries[0].ContextMap()["aggregateID"])
}
