package eventbridge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"multinet/domain/events"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*eventbridge.PutEventsOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func workspaceEvents(n int) []events.DomainEvent {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	out := make([]events.DomainEvent, n)
	for i := range out {
		out[i] = events.NewWorkspaceCreated("ws", now)
	}
	return out
}

func TestPublisher_PublishBatchSplitsIntoTens(t *testing.T) {
	client := new(MockClient)
	var sizes []int
	client.On("PutEvents", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			sizes = append(sizes, len(args.Get(1).(*eventbridge.PutEventsInput).Entries))
		}).
		Return(&eventbridge.PutEventsOutput{}, nil)

	publisher := NewPublisher(client, "multinet-bus", zap.NewNop())
	require.NoError(t, publisher.PublishBatch(context.Background(), workspaceEvents(23)))

	assert.Equal(t, []int{10, 10, 3}, sizes)
	client.AssertNumberOfCalls(t, "PutEvents", 3)
}

func TestPublisher_EntryShape(t *testing.T) {
	client := new(MockClient)
	client.On("PutEvents", mock.Anything, mock.MatchedBy(func(in *eventbridge.PutEventsInput) bool {
		if len(in.Entries) != 1 {
			return false
		}
		e := in.Entries[0]
		var detail map[string]interface{}
		if err := json.Unmarshal([]byte(aws.ToString(e.Detail)), &detail); err != nil {
			return false
		}
		return aws.ToString(e.EventBusName) == "multinet-bus" &&
			aws.ToString(e.Source) == events.SourceBackend &&
			aws.ToString(e.DetailType) == events.TypeGraphCreated &&
			detail["aggregate_id"] == "ws/g" &&
			detail["graph"] == "g"
	})).Return(&eventbridge.PutEventsOutput{}, nil)

	publisher := NewPublisher(client, "multinet-bus", zap.NewNop())
	event := events.NewGraphCreated("ws", "g", []string{"people"}, "links", time.Now())
	require.NoError(t, publisher.Publish(context.Background(), event))
	client.AssertExpectations(t)
}

func TestPublisher_FailedEntries(t *testing.T) {
	client := new(MockClient)
	client.On("PutEvents", mock.Anything, mock.Anything).Return(&eventbridge.PutEventsOutput{
		FailedEntryCount: 1,
		Entries: []types.PutEventsResultEntry{
			{EventId: aws.String("1")},
			{ErrorCode: aws.String("InternalFailure"), ErrorMessage: aws.String("try again")},
		},
	}, nil)

	publisher := NewPublisher(client, "multinet-bus", zap.NewNop())
	err := publisher.PublishBatch(context.Background(), workspaceEvents(2))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 events failed")
}

func TestPublisher_ClientError(t *testing.T) {
	client := new(MockClient)
	client.On("PutEvents", mock.Anything, mock.Anything).Return(nil, errors.New("network down"))

	publisher := NewPublisher(client, "multinet-bus", zap.NewNop())
	err := publisher.Publish(context.Background(), workspaceEvents(1)[0])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "network down")
}

func TestPublisher_EmptyBatch(t *testing.T) {
	client := new(MockClient)
	publisher := NewPublisher(client, "multinet-bus", zap.NewNop())
	require.NoError(t, publisher.PublishBatch(context.Background(), nil))
	client.AssertNotCalled(t, "PutEvents", mock.Anything, mock.Anything)
}
