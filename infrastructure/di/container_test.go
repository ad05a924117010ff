package di

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multinet/application/commands"
	"multinet/application/queries"
	"multinet/infrastructure/config"
	pkgerrors "multinet/pkg/errors"
)

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.StoreBackend = backend
	cfg.SQLitePath = filepath.Join(t.TempDir(), "multinet.db")
	cfg.LogLevel = "error"
	return cfg
}

func TestInitializeContainer(t *testing.T) {
	for _, backend := range []string{config.StoreMemory, config.StoreSQLite} {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			container, cleanup, err := InitializeContainer(ctx, testConfig(t, backend))
			require.NoError(t, err)
			defer cleanup()

			require.NoError(t, container.Store.Ping(ctx))

			_, err = container.CommandBus.Send(ctx, commands.CreateWorkspaceCommand{Workspace: "ws"})
			require.NoError(t, err)

			_, err = container.CommandBus.Send(ctx, commands.UploadNestedJSONCommand{
				Workspace: "ws",
				Table:     "tree",
				Data:      []byte(`{"node_data": {"name": "root"}, "children": [{"node_data": {"name": "leaf"}}]}`),
			})
			require.NoError(t, err)

			result, err := container.QueryBus.Ask(ctx, queries.ListTablesQuery{Workspace: "ws", Type: "edge"})
			require.NoError(t, err)
			assert.Equal(t, []string{"tree_edges"}, result)

			_, err = container.CommandBus.Send(ctx, commands.CreateWorkspaceCommand{Workspace: "ws"})
			assert.True(t, pkgerrors.IsConflict(err))
		})
	}
}

func TestInitializeContainer_RejectsUnknownBackend(t *testing.T) {
	_, _, err := InitializeContainer(context.Background(), testConfig(t, "redis"))
	assert.Error(t, err)
}

func TestInitializeContainer_WithoutMetrics(t *testing.T) {
	cfg := testConfig(t, config.StoreMemory)
	cfg.EnableMetrics = false

	container, cleanup, err := InitializeContainer(context.Background(), cfg)
	require.NoError(t, err)
	defer cleanup()

	_, err = container.QueryBus.Ask(context.Background(), queries.ListWorkspacesQuery{})
	require.NoError(t, err)
}
