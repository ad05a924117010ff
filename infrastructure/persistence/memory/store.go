package memory

import (
	"context"
	"sort"
	"sync"

	"multinet/application/ports"
	"multinet/domain/core/aggregates"
	"multinet/domain/core/entities"
	"multinet/domain/core/valueobjects"
	"multinet/infrastructure/persistence"
	pkgerrors "multinet/pkg/errors"
)

// Store provides an in-memory implementation of ports.Store
type Store struct {
	mu         sync.RWMutex
	workspaces map[string]*workspace
}

type workspace struct {
	tables map[string]*table
	graphs map[string]*aggregates.GraphDefinition
}

type table struct {
	meta    entities.Table
	order   []string
	records map[string]valueobjects.Record
}

var _ ports.Store = (*Store)(nil)

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{workspaces: make(map[string]*workspace)}
}

// CreateWorkspace creates an empty workspace
func (s *Store) CreateWorkspace(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.workspaces[name]; exists {
		return pkgerrors.NewAlreadyExists("Workspace", name)
	}
	s.workspaces[name] = &workspace{
		tables: make(map[string]*table),
		graphs: make(map[string]*aggregates.GraphDefinition),
	}
	return nil
}

// DeleteWorkspace removes a workspace and its contents
func (s *Store) DeleteWorkspace(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.workspaces[name]; !exists {
		return persistence.WorkspaceNotFound(name)
	}
	delete(s.workspaces, name)
	return nil
}

// HasWorkspace reports whether the workspace exists
func (s *Store) HasWorkspace(ctx context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.workspaces[name]
	return exists, nil
}

// ListWorkspaces returns workspace names in ascending order
func (s *Store) ListWorkspaces(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.workspaces))
	for name := range s.workspaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// HasTable reports whether the table exists
func (s *Store) HasTable(ctx context.Context, ws, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, err := s.workspace(ws)
	if err != nil {
		return false, err
	}
	_, exists := w.tables[name]
	return exists, nil
}

// CreateTable creates an empty table
func (s *Store) CreateTable(ctx context.Context, t *entities.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := s.workspace(t.Workspace)
	if err != nil {
		return err
	}
	if _, exists := w.tables[t.Name]; exists {
		return pkgerrors.NewAlreadyExists("Table", t.Name)
	}
	w.tables[t.Name] = &table{
		meta:    *t,
		records: make(map[string]valueobjects.Record),
	}
	return nil
}

// GetTable returns the table descriptor
func (s *Store) GetTable(ctx context.Context, ws, name string) (*entities.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, err := s.table(ws, name)
	if err != nil {
		return nil, err
	}
	meta := t.meta
	return &meta, nil
}

// ListTables returns every table ordered by name
func (s *Store) ListTables(ctx context.Context, ws string) ([]*entities.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, err := s.workspace(ws)
	if err != nil {
		return nil, err
	}
	tables := make([]*entities.Table, 0, len(w.tables))
	for _, t := range w.tables {
		meta := t.meta
		tables = append(tables, &meta)
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].Name < tables[j].Name })
	return tables, nil
}

// InsertMany upserts records by _key. A replaced record keeps its position.
func (s *Store) InsertMany(ctx context.Context, ws, name string, records []valueobjects.Record) (int, error) {
	for _, rec := range records {
		if _, ok := rec.Key(); !ok {
			return 0, persistence.MissingKey(name)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.table(ws, name)
	if err != nil {
		return 0, err
	}
	for _, rec := range records {
		key, _ := rec.Key()
		if _, exists := t.records[key]; !exists {
			t.order = append(t.order, key)
		}
		t.records[key] = rec.Clone()
	}
	return len(records), nil
}

// All returns every record in insertion order
func (s *Store) All(ctx context.Context, ws, name string) ([]valueobjects.Record, error) {
	rows, _, err := s.Rows(ctx, ws, name, ports.Page{})
	return rows, err
}

// Rows returns one page of records and the total count
func (s *Store) Rows(ctx context.Context, ws, name string, page ports.Page) ([]valueobjects.Record, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, err := s.table(ws, name)
	if err != nil {
		return nil, 0, err
	}
	start, end := page.Window(len(t.order))
	rows := make([]valueobjects.Record, 0, end-start)
	for _, key := range t.order[start:end] {
		rows = append(rows, t.records[key].Clone())
	}
	return rows, len(t.order), nil
}

// GetRecord returns the record with the given key
func (s *Store) GetRecord(ctx context.Context, ws, name, key string) (valueobjects.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, err := s.table(ws, name)
	if err != nil {
		return valueobjects.Record{}, err
	}
	rec, exists := t.records[key]
	if !exists {
		return valueobjects.Record{}, persistence.RecordNotFound(name, key)
	}
	return rec.Clone(), nil
}

// KeysOf returns every key in the table
func (s *Store) KeysOf(ctx context.Context, ws, name string) (valueobjects.KeySet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, err := s.table(ws, name)
	if err != nil {
		return nil, err
	}
	return valueobjects.NewKeySet(t.order...), nil
}

// HasGraph reports whether the graph is defined
func (s *Store) HasGraph(ctx context.Context, ws, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, err := s.workspace(ws)
	if err != nil {
		return false, err
	}
	_, exists := w.graphs[name]
	return exists, nil
}

// DefineGraph stores a new graph definition
func (s *Store) DefineGraph(ctx context.Context, graph *aggregates.GraphDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := s.workspace(graph.Workspace())
	if err != nil {
		return err
	}
	if _, exists := w.graphs[graph.Name()]; exists {
		return pkgerrors.NewAlreadyExists("Graph", graph.Name())
	}
	w.graphs[graph.Name()] = graph
	return nil
}

// GetGraph returns a graph definition
func (s *Store) GetGraph(ctx context.Context, ws, name string) (*aggregates.GraphDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, err := s.workspace(ws)
	if err != nil {
		return nil, err
	}
	graph, exists := w.graphs[name]
	if !exists {
		return nil, persistence.GraphNotFound(ws, name)
	}
	return graph, nil
}

// ListGraphs returns graph names in ascending order
func (s *Store) ListGraphs(ctx context.Context, ws string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, err := s.workspace(ws)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(w.graphs))
	for name := range w.graphs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Ping always succeeds
func (s *Store) Ping(ctx context.Context) error { return nil }

// Close is a no-op
func (s *Store) Close() error { return nil }

// workspace must be called with the lock held
func (s *Store) workspace(name string) (*workspace, error) {
	w, exists := s.workspaces[name]
	if !exists {
		return nil, persistence.WorkspaceNotFound(name)
	}
	return w, nil
}

// table must be called with the lock held
func (s *Store) table(ws, name string) (*table, error) {
	w, err := s.workspace(ws)
	if err != nil {
		return nil, err
	}
	t, exists := w.tables[name]
	if !exists {
		return nil, persistence.TableNotFound(ws, name)
	}
	return t, nil
}
