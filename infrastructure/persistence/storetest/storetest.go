// Package storetest holds the behaviour every ports.Store implementation
// must share. Store packages call Run from their own tests.
package storetest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multinet/application/ports"
	"multinet/domain/core/aggregates"
	"multinet/domain/core/entities"
	"multinet/domain/core/valueobjects"
	pkgerrors "multinet/pkg/errors"
)

// Factory returns a fresh, empty store
type Factory func(t *testing.T) ports.Store

// Run executes the contract against stores produced by newStore
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, store ports.Store)
	}{
		{"Workspaces", testWorkspaces},
		{"MissingWorkspace", testMissingWorkspace},
		{"Tables", testTables},
		{"InsertAndRead", testInsertAndRead},
		{"Upsert", testUpsert},
		{"Rows", testRows},
		{"RecordFieldsSurvive", testRecordFieldsSurvive},
		{"Graphs", testGraphs},
		{"ConcurrentDefineGraph", testConcurrentDefineGraph},
		{"DeleteWorkspaceCascades", testDeleteWorkspaceCascades},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(t)
			t.Cleanup(func() { _ = store.Close() })
			tt.fn(t, store)
		})
	}
}

func record(key string, fields ...valueobjects.Field) valueobjects.Record {
	return valueobjects.NewRecord(append([]valueobjects.Field{{Name: valueobjects.FieldKey, Value: key}}, fields...)...)
}

func mustTable(t *testing.T, store ports.Store, ws, name string, role entities.TableRole) {
	t.Helper()
	table, err := entities.NewTable(ws, name, role)
	require.NoError(t, err)
	require.NoError(t, store.CreateTable(context.Background(), table))
}

func keys(t *testing.T, records []valueobjects.Record) []string {
	t.Helper()
	out := make([]string, 0, len(records))
	for _, rec := range records {
		k, ok := rec.Key()
		require.True(t, ok)
		out = append(out, k)
	}
	return out
}

func testWorkspaces(t *testing.T, store ports.Store) {
	ctx := context.Background()

	names, err := store.ListWorkspaces(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, store.CreateWorkspace(ctx, "beta"))
	require.NoError(t, store.CreateWorkspace(ctx, "alpha"))

	err = store.CreateWorkspace(ctx, "alpha")
	assert.True(t, pkgerrors.IsConflict(err), "got %v", err)

	ok, err := store.HasWorkspace(ctx, "alpha")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.HasWorkspace(ctx, "gamma")
	require.NoError(t, err)
	assert.False(t, ok)

	names, err = store.ListWorkspaces(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, names)

	require.NoError(t, store.DeleteWorkspace(ctx, "beta"))
	names, err = store.ListWorkspaces(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha"}, names)

	assert.True(t, pkgerrors.IsNotFound(store.DeleteWorkspace(ctx, "beta")))
}

func testMissingWorkspace(t *testing.T, store ports.Store) {
	ctx := context.Background()

	_, err := store.HasTable(ctx, "nope", "t")
	assert.True(t, pkgerrors.IsNotFound(err), "HasTable: %v", err)

	_, err = store.ListTables(ctx, "nope")
	assert.True(t, pkgerrors.IsNotFound(err), "ListTables: %v", err)

	_, err = store.HasGraph(ctx, "nope", "g")
	assert.True(t, pkgerrors.IsNotFound(err), "HasGraph: %v", err)

	_, err = store.ListGraphs(ctx, "nope")
	assert.True(t, pkgerrors.IsNotFound(err), "ListGraphs: %v", err)

	table, err := entities.NewTable("nope", "t", entities.RoleNode)
	require.NoError(t, err)
	assert.True(t, pkgerrors.IsNotFound(store.CreateTable(ctx, table)))
}

func testTables(t *testing.T, store ports.Store) {
	ctx := context.Background()
	require.NoError(t, store.CreateWorkspace(ctx, "ws"))

	mustTable(t, store, "ws", "people", entities.RoleNode)
	mustTable(t, store, "ws", "links", entities.RoleEdge)

	table, err := entities.NewTable("ws", "people", entities.RoleNode)
	require.NoError(t, err)
	assert.True(t, pkgerrors.IsConflict(store.CreateTable(ctx, table)))

	ok, err := store.HasTable(ctx, "ws", "people")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.HasTable(ctx, "ws", "clubs")
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := store.GetTable(ctx, "ws", "links")
	require.NoError(t, err)
	assert.Equal(t, "links", got.Name)
	assert.Equal(t, entities.RoleEdge, got.Role)

	_, err = store.GetTable(ctx, "ws", "clubs")
	assert.True(t, pkgerrors.IsNotFound(err))

	tables, err := store.ListTables(ctx, "ws")
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, "links", tables[0].Name)
	assert.Equal(t, "people", tables[1].Name)
	assert.Equal(t, entities.RoleNode, tables[1].Role)

	_, err = store.All(ctx, "ws", "clubs")
	assert.True(t, pkgerrors.IsNotFound(err))
	_, err = store.KeysOf(ctx, "ws", "clubs")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func testInsertAndRead(t *testing.T, store ports.Store) {
	ctx := context.Background()
	require.NoError(t, store.CreateWorkspace(ctx, "ws"))
	mustTable(t, store, "ws", "people", entities.RoleNode)

	all, err := store.All(ctx, "ws", "people")
	require.NoError(t, err)
	assert.Empty(t, all)

	n, err := store.InsertMany(ctx, "ws", "people", []valueobjects.Record{
		record("carol", valueobjects.Field{Name: "age", Value: json.Number("41")}),
		record("alice"),
		record("bob"),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	all, err = store.All(ctx, "ws", "people")
	require.NoError(t, err)
	assert.Equal(t, []string{"carol", "alice", "bob"}, keys(t, all))

	keySet, err := store.KeysOf(ctx, "ws", "people")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "carol"}, keySet.Sorted())

	rec, err := store.GetRecord(ctx, "ws", "people", "carol")
	require.NoError(t, err)
	age, ok := rec.Get("age")
	require.True(t, ok)
	assert.Equal(t, json.Number("41"), age)

	_, err = store.GetRecord(ctx, "ws", "people", "dave")
	assert.True(t, pkgerrors.IsNotFound(err))

	_, err = store.InsertMany(ctx, "ws", "people", []valueobjects.Record{valueobjects.NewRecord()})
	assert.Error(t, err)

	n, err = store.InsertMany(ctx, "ws", "people", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func testUpsert(t *testing.T, store ports.Store) {
	ctx := context.Background()
	require.NoError(t, store.CreateWorkspace(ctx, "ws"))
	mustTable(t, store, "ws", "people", entities.RoleNode)

	_, err := store.InsertMany(ctx, "ws", "people", []valueobjects.Record{
		record("a", valueobjects.Field{Name: "v", Value: "1"}),
		record("b"),
	})
	require.NoError(t, err)

	_, err = store.InsertMany(ctx, "ws", "people", []valueobjects.Record{
		record("a", valueobjects.Field{Name: "v", Value: "2"}),
		record("c"),
	})
	require.NoError(t, err)

	all, err := store.All(ctx, "ws", "people")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, keys(t, all))

	v, _ := all[0].GetString("v")
	assert.Equal(t, "2", v)
}

func testRows(t *testing.T, store ports.Store) {
	ctx := context.Background()
	require.NoError(t, store.CreateWorkspace(ctx, "ws"))
	mustTable(t, store, "ws", "items", entities.RoleNode)

	var batch []valueobjects.Record
	for i := 0; i < 40; i++ {
		batch = append(batch, record(fmt.Sprintf("k%02d", i)))
	}
	_, err := store.InsertMany(ctx, "ws", "items", batch)
	require.NoError(t, err)

	tests := []struct {
		name      string
		page      ports.Page
		wantFirst string
		wantLen   int
	}{
		{name: "first page", page: ports.Page{Offset: 0, Limit: 30}, wantFirst: "k00", wantLen: 30},
		{name: "second page", page: ports.Page{Offset: 30, Limit: 30}, wantFirst: "k30", wantLen: 10},
		{name: "middle window", page: ports.Page{Offset: 5, Limit: 3}, wantFirst: "k05", wantLen: 3},
		{name: "past the end", page: ports.Page{Offset: 50, Limit: 10}, wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, total, err := store.Rows(ctx, "ws", "items", tt.page)
			require.NoError(t, err)
			assert.Equal(t, 40, total)
			require.Len(t, rows, tt.wantLen)
			if tt.wantLen > 0 {
				assert.Equal(t, tt.wantFirst, keys(t, rows)[0])
			}
		})
	}
}

func testRecordFieldsSurvive(t *testing.T, store ports.Store) {
	ctx := context.Background()
	require.NoError(t, store.CreateWorkspace(ctx, "ws"))
	mustTable(t, store, "ws", "links", entities.RoleEdge)

	in, err := valueobjects.ParseRecord([]byte(
		`{"_key":"e1","zeta":true,"_from":"people/a","_to":"people/b","nested":{"x":[1,2]},"empty":null}`))
	require.NoError(t, err)

	_, err = store.InsertMany(ctx, "ws", "links", []valueobjects.Record{in})
	require.NoError(t, err)

	out, err := store.GetRecord(ctx, "ws", "links", "e1")
	require.NoError(t, err)

	want, err := json.Marshal(in)
	require.NoError(t, err)
	got, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(got))

	names := make([]string, 0, out.Len())
	for _, f := range out.Fields() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"_key", "zeta", "_from", "_to", "nested", "empty"}, names)
}

func testGraphs(t *testing.T, store ports.Store) {
	ctx := context.Background()
	require.NoError(t, store.CreateWorkspace(ctx, "ws"))

	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	def := aggregates.RestoreGraphDefinition("ws", "social", []string{"people", "clubs"}, "membership", created)
	require.NoError(t, store.DefineGraph(ctx, def))

	err := store.DefineGraph(ctx, aggregates.RestoreGraphDefinition("ws", "social", []string{"x"}, "y", created))
	assert.True(t, pkgerrors.IsConflict(err), "got %v", err)

	ok, err := store.HasGraph(ctx, "ws", "social")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := store.GetGraph(ctx, "ws", "social")
	require.NoError(t, err)
	assert.Equal(t, []string{"people", "clubs"}, got.NodeTables())
	assert.Equal(t, "membership", got.EdgeTable())
	assert.True(t, created.Equal(got.CreatedAt()))

	_, err = store.GetGraph(ctx, "ws", "other")
	assert.True(t, pkgerrors.IsNotFound(err))

	require.NoError(t, store.DefineGraph(ctx, aggregates.RestoreGraphDefinition("ws", "alpha", []string{"a"}, "e", created)))
	names, err := store.ListGraphs(ctx, "ws")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "social"}, names)
}

func testConcurrentDefineGraph(t *testing.T, store ports.Store) {
	ctx := context.Background()
	require.NoError(t, store.CreateWorkspace(ctx, "ws"))

	const writers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			def := aggregates.RestoreGraphDefinition("ws", "race", []string{"n"}, "e", time.Now().UTC())
			err := store.DefineGraph(ctx, def)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case pkgerrors.IsConflict(err):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, writers-1, conflicts)
}

func testDeleteWorkspaceCascades(t *testing.T, store ports.Store) {
	ctx := context.Background()
	require.NoError(t, store.CreateWorkspace(ctx, "ws"))
	mustTable(t, store, "ws", "people", entities.RoleNode)
	_, err := store.InsertMany(ctx, "ws", "people", []valueobjects.Record{record("a")})
	require.NoError(t, err)
	require.NoError(t, store.DefineGraph(ctx, aggregates.RestoreGraphDefinition("ws", "g", []string{"people"}, "e", time.Now().UTC())))

	require.NoError(t, store.DeleteWorkspace(ctx, "ws"))
	require.NoError(t, store.CreateWorkspace(ctx, "ws"))

	tables, err := store.ListTables(ctx, "ws")
	require.NoError(t, err)
	assert.Empty(t, tables)

	graphs, err := store.ListGraphs(ctx, "ws")
	require.NoError(t, err)
	assert.Empty(t, graphs)
}
