// Package decorators adds cross-cutting behaviour to a ports.Store without
// touching the storage adapters. Each concern is an Interceptor; Wrap chains
// them around one inner store.
package decorators

import (
	"context"

	"multinet/application/ports"
	"multinet/domain/core/aggregates"
	"multinet/domain/core/entities"
	"multinet/domain/core/valueobjects"
)

// Op describes one store call
type Op struct {
	Name      string
	Workspace string
	Table     string
}

// Interceptor runs next on behalf of op. It may act before and after the
// call and may replace the returned error.
type Interceptor func(ctx context.Context, op Op, next func(context.Context) error) error

// Chain composes interceptors; the first one is outermost
func Chain(interceptors ...Interceptor) Interceptor {
	return func(ctx context.Context, op Op, next func(context.Context) error) error {
		call := next
		for i := len(interceptors) - 1; i >= 0; i-- {
			intercept, inner := interceptors[i], call
			call = func(ctx context.Context) error {
				return intercept(ctx, op, inner)
			}
		}
		return call(ctx)
	}
}

// Store routes every call of an inner store through an interceptor chain
type Store struct {
	inner     ports.Store
	intercept Interceptor
}

var _ ports.Store = (*Store)(nil)

// Wrap returns inner decorated with the given interceptors. With none,
// inner is returned unchanged.
func Wrap(inner ports.Store, interceptors ...Interceptor) ports.Store {
	if len(interceptors) == 0 {
		return inner
	}
	return &Store{inner: inner, intercept: Chain(interceptors...)}
}

func call[T any](s *Store, ctx context.Context, op Op, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := s.intercept(ctx, op, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}

func (s *Store) CreateWorkspace(ctx context.Context, name string) error {
	return s.intercept(ctx, Op{Name: "create_workspace", Workspace: name}, func(ctx context.Context) error {
		return s.inner.CreateWorkspace(ctx, name)
	})
}

func (s *Store) DeleteWorkspace(ctx context.Context, name string) error {
	return s.intercept(ctx, Op{Name: "delete_workspace", Workspace: name}, func(ctx context.Context) error {
		return s.inner.DeleteWorkspace(ctx, name)
	})
}

func (s *Store) HasWorkspace(ctx context.Context, name string) (bool, error) {
	return call(s, ctx, Op{Name: "has_workspace", Workspace: name}, func(ctx context.Context) (bool, error) {
		return s.inner.HasWorkspace(ctx, name)
	})
}

func (s *Store) ListWorkspaces(ctx context.Context) ([]string, error) {
	return call(s, ctx, Op{Name: "list_workspaces"}, s.inner.ListWorkspaces)
}

func (s *Store) HasTable(ctx context.Context, ws, table string) (bool, error) {
	return call(s, ctx, Op{Name: "has_table", Workspace: ws, Table: table}, func(ctx context.Context) (bool, error) {
		return s.inner.HasTable(ctx, ws, table)
	})
}

func (s *Store) CreateTable(ctx context.Context, t *entities.Table) error {
	return s.intercept(ctx, Op{Name: "create_table", Workspace: t.Workspace, Table: t.Name}, func(ctx context.Context) error {
		return s.inner.CreateTable(ctx, t)
	})
}

func (s *Store) GetTable(ctx context.Context, ws, table string) (*entities.Table, error) {
	return call(s, ctx, Op{Name: "get_table", Workspace: ws, Table: table}, func(ctx context.Context) (*entities.Table, error) {
		return s.inner.GetTable(ctx, ws, table)
	})
}

func (s *Store) ListTables(ctx context.Context, ws string) ([]*entities.Table, error) {
	return call(s, ctx, Op{Name: "list_tables", Workspace: ws}, func(ctx context.Context) ([]*entities.Table, error) {
		return s.inner.ListTables(ctx, ws)
	})
}

func (s *Store) InsertMany(ctx context.Context, ws, table string, records []valueobjects.Record) (int, error) {
	return call(s, ctx, Op{Name: "insert_many", Workspace: ws, Table: table}, func(ctx context.Context) (int, error) {
		return s.inner.InsertMany(ctx, ws, table, records)
	})
}

func (s *Store) All(ctx context.Context, ws, table string) ([]valueobjects.Record, error) {
	return call(s, ctx, Op{Name: "all", Workspace: ws, Table: table}, func(ctx context.Context) ([]valueobjects.Record, error) {
		return s.inner.All(ctx, ws, table)
	})
}

func (s *Store) Rows(ctx context.Context, ws, table string, page ports.Page) ([]valueobjects.Record, int, error) {
	var total int
	rows, err := call(s, ctx, Op{Name: "rows", Workspace: ws, Table: table}, func(ctx context.Context) ([]valueobjects.Record, error) {
		var (
			rows []valueobjects.Record
			err  error
		)
		rows, total, err = s.inner.Rows(ctx, ws, table, page)
		return rows, err
	})
	return rows, total, err
}

func (s *Store) GetRecord(ctx context.Context, ws, table, key string) (valueobjects.Record, error) {
	return call(s, ctx, Op{Name: "get_record", Workspace: ws, Table: table}, func(ctx context.Context) (valueobjects.Record, error) {
		return s.inner.GetRecord(ctx, ws, table, key)
	})
}

func (s *Store) KeysOf(ctx context.Context, ws, table string) (valueobjects.KeySet, error) {
	return call(s, ctx, Op{Name: "keys_of", Workspace: ws, Table: table}, func(ctx context.Context) (valueobjects.KeySet, error) {
		return s.inner.KeysOf(ctx, ws, table)
	})
}

func (s *Store) HasGraph(ctx context.Context, ws, name string) (bool, error) {
	return call(s, ctx, Op{Name: "has_graph", Workspace: ws}, func(ctx context.Context) (bool, error) {
		return s.inner.HasGraph(ctx, ws, name)
	})
}

func (s *Store) DefineGraph(ctx context.Context, graph *aggregates.GraphDefinition) error {
	op := Op{Name: "define_graph", Workspace: graph.Workspace(), Table: graph.EdgeTable()}
	return s.intercept(ctx, op, func(ctx context.Context) error {
		return s.inner.DefineGraph(ctx, graph)
	})
}

func (s *Store) GetGraph(ctx context.Context, ws, name string) (*aggregates.GraphDefinition, error) {
	return call(s, ctx, Op{Name: "get_graph", Workspace: ws}, func(ctx context.Context) (*aggregates.GraphDefinition, error) {
		return s.inner.GetGraph(ctx, ws, name)
	})
}

func (s *Store) ListGraphs(ctx context.Context, ws string) ([]string, error) {
	return call(s, ctx, Op{Name: "list_graphs", Workspace: ws}, func(ctx context.Context) ([]string, error) {
		return s.inner.ListGraphs(ctx, ws)
	})
}

func (s *Store) Ping(ctx context.Context) error {
	return s.intercept(ctx, Op{Name: "ping"}, s.inner.Ping)
}

func (s *Store) Close() error {
	return s.inner.Close()
}
