package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"multinet/application/ports"
	"multinet/domain/core/entities"
	"multinet/domain/core/valueobjects"
	"multinet/infrastructure/persistence/storetest"
	pkgerrors "multinet/pkg/errors"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) ports.Store {
		return NewStore(newFakeClient(), "multinet-test", zap.NewNop())
	})
}

func newTestStore(t *testing.T) (*Store, *fakeClient) {
	t.Helper()
	client := newFakeClient()
	store := NewStore(client, "multinet-test", zap.NewNop())

	ctx := context.Background()
	require.NoError(t, store.CreateWorkspace(ctx, "ws"))
	table, err := entities.NewTable("ws", "people", entities.RoleNode)
	require.NoError(t, err)
	require.NoError(t, store.CreateTable(ctx, table))
	return store, client
}

func people(n int) []valueobjects.Record {
	records := make([]valueobjects.Record, n)
	for i := range records {
		records[i] = valueobjects.NewRecord(
			valueobjects.Field{Name: valueobjects.FieldKey, Value: fmt.Sprintf("p%03d", n-i)},
			valueobjects.Field{Name: "rank", Value: float64(i)},
		)
	}
	return records
}

func TestStore_InsertManyChunksBatches(t *testing.T) {
	store, client := newTestStore(t)
	ctx := context.Background()

	n, err := store.InsertMany(ctx, "ws", "people", people(60))
	require.NoError(t, err)
	assert.Equal(t, 60, n)
	assert.Equal(t, 3, client.batchCalls)

	rows, total, err := store.Rows(ctx, "ws", "people", ports.Page{Offset: 0, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, 60, total)
	require.Len(t, rows, 3)

	// insertion order, not sort-key order
	key, _ := rows[0].Key()
	assert.Equal(t, "p060", key)
}

func TestStore_InsertManyRetriesUnprocessed(t *testing.T) {
	store, client := newTestStore(t)
	client.throttleBatches = 2
	ctx := context.Background()

	_, err := store.InsertMany(ctx, "ws", "people", people(5))
	require.NoError(t, err)
	assert.Equal(t, 3, client.batchCalls)

	keys, err := store.KeysOf(ctx, "ws", "people")
	require.NoError(t, err)
	assert.Equal(t, 5, keys.Len())
}

func TestStore_InsertManyGivesUpAfterRetries(t *testing.T) {
	store, client := newTestStore(t)
	client.throttleBatches = maxRetries
	ctx := context.Background()

	_, err := store.InsertMany(ctx, "ws", "people", people(1))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeDatabase))
}

func TestStore_QueryFollowsPages(t *testing.T) {
	store, client := newTestStore(t)
	ctx := context.Background()

	_, err := store.InsertMany(ctx, "ws", "people", people(20))
	require.NoError(t, err)

	client.queryCalls = 0
	all, err := store.All(ctx, "ws", "people")
	require.NoError(t, err)
	assert.Len(t, all, 20)
	// 20 items at 7 per page
	assert.Equal(t, 3, client.queryCalls)
}

func TestStore_DeleteWorkspaceRemovesEveryItem(t *testing.T) {
	store, client := newTestStore(t)
	ctx := context.Background()

	_, err := store.InsertMany(ctx, "ws", "people", people(30))
	require.NoError(t, err)
	require.NoError(t, store.DeleteWorkspace(ctx, "ws"))

	assert.Zero(t, client.itemCount())
}

func TestStore_Ping(t *testing.T) {
	store, _ := newTestStore(t)
	assert.NoError(t, store.Ping(context.Background()))
}

func TestStore_Classify(t *testing.T) {
	store := NewStore(newFakeClient(), "multinet-test", zap.NewNop())

	tests := []struct {
		name     string
		err      error
		wantType pkgerrors.ErrorType
	}{
		{
			name:     "missing table",
			err:      &smithy.GenericAPIError{Code: "ResourceNotFoundException", Message: "no table"},
			wantType: pkgerrors.ErrorTypeUnavailable,
		},
		{
			name:     "throttled",
			err:      &smithy.GenericAPIError{Code: "ProvisionedThroughputExceededException"},
			wantType: pkgerrors.ErrorTypeUnavailable,
		},
		{
			name:     "other api error",
			err:      &smithy.GenericAPIError{Code: "ValidationException"},
			wantType: pkgerrors.ErrorTypeDatabase,
		},
		{
			name:     "transport error",
			err:      errors.New("connection reset"),
			wantType: pkgerrors.ErrorTypeDatabase,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.classify("op", tt.err)
			assert.True(t, pkgerrors.IsType(err, tt.wantType), "got %v", err)
		})
	}
}
