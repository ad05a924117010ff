// Package sqlite implements ports.Store on an embedded SQLite database using
// the pure Go modernc.org/sqlite driver. Records are stored as JSON documents
// so their field order survives a round trip.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"multinet/application/ports"
	"multinet/domain/core/aggregates"
	"multinet/domain/core/entities"
	"multinet/domain/core/valueobjects"
	"multinet/infrastructure/persistence"
	pkgerrors "multinet/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS workspaces (
	name       TEXT PRIMARY KEY,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tables (
	workspace  TEXT NOT NULL,
	name       TEXT NOT NULL,
	role       TEXT NOT NULL,
	created_at TEXT NOT NULL,
	PRIMARY KEY (workspace, name)
);

CREATE TABLE IF NOT EXISTS records (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	workspace TEXT NOT NULL,
	tbl       TEXT NOT NULL,
	rkey      TEXT NOT NULL,
	doc       TEXT NOT NULL,
	UNIQUE (workspace, tbl, rkey)
);

CREATE TABLE IF NOT EXISTS graphs (
	workspace   TEXT NOT NULL,
	name        TEXT NOT NULL,
	node_tables TEXT NOT NULL,
	edge_table  TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	PRIMARY KEY (workspace, name)
);
`

// Config holds SQLite-specific configuration
type Config struct {
	Path         string // file path or ":memory:"
	BusyTimeout  time.Duration
	MaxOpenConns int
}

// Store implements ports.Store on SQLite
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ ports.Store = (*Store)(nil)

// NewStore opens (creating if needed) the database at cfg.Path and applies
// the schema.
func NewStore(ctx context.Context, cfg Config, logger *zap.Logger) (*Store, error) {
	if cfg.Path == "" {
		cfg.Path = "multinet.db"
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if cfg.MaxOpenConns <= 0 {
		// one connection serialises writers and keeps ":memory:" databases shared
		cfg.MaxOpenConns = 1
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)",
		cfg.Path, cfg.BusyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	logger.Info("SQLite store ready", zap.String("path", cfg.Path))
	return &Store{db: db, logger: logger}, nil
}

// CreateWorkspace creates an empty workspace
func (s *Store) CreateWorkspace(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO workspaces (name, created_at) VALUES (?, ?)`,
		name, formatTime(time.Now()))
	if err != nil {
		return pkgerrors.NewDatabaseError("create_workspace", err)
	}
	if affected(res) == 0 {
		return pkgerrors.NewAlreadyExists("Workspace", name)
	}
	return nil
}

// DeleteWorkspace removes a workspace with its tables, records and graphs
func (s *Store) DeleteWorkspace(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return pkgerrors.NewDatabaseError("delete_workspace", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM workspaces WHERE name = ?`, name)
	if err != nil {
		return pkgerrors.NewDatabaseError("delete_workspace", err)
	}
	if affected(res) == 0 {
		return persistence.WorkspaceNotFound(name)
	}
	for _, stmt := range []string{
		`DELETE FROM records WHERE workspace = ?`,
		`DELETE FROM tables WHERE workspace = ?`,
		`DELETE FROM graphs WHERE workspace = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, name); err != nil {
			return pkgerrors.NewDatabaseError("delete_workspace", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return pkgerrors.NewDatabaseError("delete_workspace", err)
	}
	return nil
}

// HasWorkspace reports whether the workspace exists
func (s *Store) HasWorkspace(ctx context.Context, name string) (bool, error) {
	return s.exists(ctx, "has_workspace", `SELECT 1 FROM workspaces WHERE name = ?`, name)
}

// ListWorkspaces returns workspace names in ascending order
func (s *Store) ListWorkspaces(ctx context.Context) ([]string, error) {
	return s.strings(ctx, "list_workspaces", `SELECT name FROM workspaces ORDER BY name`)
}

// HasTable reports whether the table exists
func (s *Store) HasTable(ctx context.Context, ws, name string) (bool, error) {
	if err := s.requireWorkspace(ctx, ws); err != nil {
		return false, err
	}
	return s.exists(ctx, "has_table", `SELECT 1 FROM tables WHERE workspace = ? AND name = ?`, ws, name)
}

// CreateTable creates an empty table
func (s *Store) CreateTable(ctx context.Context, t *entities.Table) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO tables (workspace, name, role, created_at)
		 SELECT ?, ?, ?, ? WHERE EXISTS (SELECT 1 FROM workspaces WHERE name = ?)`,
		t.Workspace, t.Name, string(t.Role), formatTime(t.CreatedAt), t.Workspace)
	if err != nil {
		return pkgerrors.NewDatabaseError("create_table", err)
	}
	if affected(res) == 0 {
		if err := s.requireWorkspace(ctx, t.Workspace); err != nil {
			return err
		}
		return pkgerrors.NewAlreadyExists("Table", t.Name)
	}
	return nil
}

// GetTable returns the table descriptor
func (s *Store) GetTable(ctx context.Context, ws, name string) (*entities.Table, error) {
	if err := s.requireWorkspace(ctx, ws); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT name, role, created_at FROM tables WHERE workspace = ? AND name = ?`, ws, name)
	t, err := scanTable(ws, row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.TableNotFound(ws, name)
	}
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get_table", err)
	}
	return t, nil
}

// ListTables returns every table ordered by name
func (s *Store) ListTables(ctx context.Context, ws string) ([]*entities.Table, error) {
	if err := s.requireWorkspace(ctx, ws); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, role, created_at FROM tables WHERE workspace = ? ORDER BY name`, ws)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("list_tables", err)
	}
	defer rows.Close()

	tables := make([]*entities.Table, 0)
	for rows.Next() {
		t, err := scanTable(ws, rows)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("list_tables", err)
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, pkgerrors.NewDatabaseError("list_tables", err)
	}
	return tables, nil
}

// InsertMany upserts records by _key in one transaction. A replaced record
// keeps its original position.
func (s *Store) InsertMany(ctx context.Context, ws, name string, records []valueobjects.Record) (int, error) {
	docs := make([][2]string, 0, len(records))
	for _, rec := range records {
		key, ok := rec.Key()
		if !ok {
			return 0, persistence.MissingKey(name)
		}
		doc, err := json.Marshal(rec)
		if err != nil {
			return 0, pkgerrors.NewValidationError(fmt.Sprintf("record %s/%s cannot be encoded: %v", name, key, err))
		}
		docs = append(docs, [2]string{key, string(doc)})
	}

	if err := s.requireTable(ctx, ws, name); err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, pkgerrors.NewDatabaseError("insert_many", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (workspace, tbl, rkey, doc) VALUES (?, ?, ?, ?)
		 ON CONFLICT (workspace, tbl, rkey) DO UPDATE SET doc = excluded.doc`)
	if err != nil {
		return 0, pkgerrors.NewDatabaseError("insert_many", err)
	}
	defer stmt.Close()

	for _, d := range docs {
		if _, err := stmt.ExecContext(ctx, ws, name, d[0], d[1]); err != nil {
			return 0, pkgerrors.NewDatabaseError("insert_many", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, pkgerrors.NewDatabaseError("insert_many", err)
	}
	return len(docs), nil
}

// All returns every record in insertion order
func (s *Store) All(ctx context.Context, ws, name string) ([]valueobjects.Record, error) {
	if err := s.requireTable(ctx, ws, name); err != nil {
		return nil, err
	}
	return s.records(ctx, "all",
		`SELECT doc FROM records WHERE workspace = ? AND tbl = ? ORDER BY id`, ws, name)
}

// Rows returns one page of records and the total count
func (s *Store) Rows(ctx context.Context, ws, name string, page ports.Page) ([]valueobjects.Record, int, error) {
	if err := s.requireTable(ctx, ws, name); err != nil {
		return nil, 0, err
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM records WHERE workspace = ? AND tbl = ?`, ws, name).Scan(&total); err != nil {
		return nil, 0, pkgerrors.NewDatabaseError("rows", err)
	}

	start, end := page.Window(total)
	if start == end {
		return []valueobjects.Record{}, total, nil
	}
	recs, err := s.records(ctx, "rows",
		`SELECT doc FROM records WHERE workspace = ? AND tbl = ? ORDER BY id LIMIT ? OFFSET ?`,
		ws, name, end-start, start)
	if err != nil {
		return nil, 0, err
	}
	return recs, total, nil
}

// GetRecord returns the record with the given key
func (s *Store) GetRecord(ctx context.Context, ws, name, key string) (valueobjects.Record, error) {
	if err := s.requireTable(ctx, ws, name); err != nil {
		return valueobjects.Record{}, err
	}

	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM records WHERE workspace = ? AND tbl = ? AND rkey = ?`, ws, name, key).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return valueobjects.Record{}, persistence.RecordNotFound(name, key)
	}
	if err != nil {
		return valueobjects.Record{}, pkgerrors.NewDatabaseError("get_record", err)
	}
	return decodeRecord(doc)
}

// KeysOf returns every key in the table
func (s *Store) KeysOf(ctx context.Context, ws, name string) (valueobjects.KeySet, error) {
	if err := s.requireTable(ctx, ws, name); err != nil {
		return nil, err
	}
	keys, err := s.strings(ctx, "keys_of",
		`SELECT rkey FROM records WHERE workspace = ? AND tbl = ?`, ws, name)
	if err != nil {
		return nil, err
	}
	return valueobjects.NewKeySet(keys...), nil
}

// HasGraph reports whether the graph is defined
func (s *Store) HasGraph(ctx context.Context, ws, name string) (bool, error) {
	if err := s.requireWorkspace(ctx, ws); err != nil {
		return false, err
	}
	return s.exists(ctx, "has_graph", `SELECT 1 FROM graphs WHERE workspace = ? AND name = ?`, ws, name)
}

// DefineGraph stores a new graph definition. The insert is conditional so
// concurrent definitions of one name leave exactly one winner.
func (s *Store) DefineGraph(ctx context.Context, graph *aggregates.GraphDefinition) error {
	nodeTables, err := json.Marshal(graph.NodeTables())
	if err != nil {
		return pkgerrors.NewInternalError("failed to encode node tables").WithCause(err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO graphs (workspace, name, node_tables, edge_table, created_at)
		 SELECT ?, ?, ?, ?, ? WHERE EXISTS (SELECT 1 FROM workspaces WHERE name = ?)`,
		graph.Workspace(), graph.Name(), string(nodeTables), graph.EdgeTable(),
		formatTime(graph.CreatedAt()), graph.Workspace())
	if err != nil {
		return pkgerrors.NewDatabaseError("define_graph", err)
	}
	if affected(res) == 0 {
		if err := s.requireWorkspace(ctx, graph.Workspace()); err != nil {
			return err
		}
		return pkgerrors.NewAlreadyExists("Graph", graph.Name())
	}
	return nil
}

// GetGraph returns a graph definition
func (s *Store) GetGraph(ctx context.Context, ws, name string) (*aggregates.GraphDefinition, error) {
	if err := s.requireWorkspace(ctx, ws); err != nil {
		return nil, err
	}

	var nodeTables, edgeTable, createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT node_tables, edge_table, created_at FROM graphs WHERE workspace = ? AND name = ?`,
		ws, name).Scan(&nodeTables, &edgeTable, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.GraphNotFound(ws, name)
	}
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get_graph", err)
	}

	var tables []string
	if err := json.Unmarshal([]byte(nodeTables), &tables); err != nil {
		return nil, pkgerrors.NewDatabaseError("get_graph", err)
	}
	created, err := parseTime(createdAt)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get_graph", err)
	}
	return aggregates.RestoreGraphDefinition(ws, name, tables, edgeTable, created), nil
}

// ListGraphs returns graph names in ascending order
func (s *Store) ListGraphs(ctx context.Context, ws string) ([]string, error) {
	if err := s.requireWorkspace(ctx, ws); err != nil {
		return nil, err
	}
	return s.strings(ctx, "list_graphs", `SELECT name FROM graphs WHERE workspace = ? ORDER BY name`, ws)
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return pkgerrors.NewDatabaseNotLive(err)
	}
	return nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) requireWorkspace(ctx context.Context, ws string) error {
	ok, err := s.HasWorkspace(ctx, ws)
	if err != nil {
		return err
	}
	if !ok {
		return persistence.WorkspaceNotFound(ws)
	}
	return nil
}

func (s *Store) requireTable(ctx context.Context, ws, name string) error {
	ok, err := s.HasTable(ctx, ws, name)
	if err != nil {
		return err
	}
	if !ok {
		return persistence.TableNotFound(ws, name)
	}
	return nil
}

func (s *Store) exists(ctx context.Context, op, query string, args ...interface{}) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, pkgerrors.NewDatabaseError(op, err)
	}
	return true, nil
}

func (s *Store) strings(ctx context.Context, op, query string, args ...interface{}) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError(op, err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, pkgerrors.NewDatabaseError(op, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, pkgerrors.NewDatabaseError(op, err)
	}
	return out, nil
}

func (s *Store) records(ctx context.Context, op, query string, args ...interface{}) ([]valueobjects.Record, error) {
	docs, err := s.strings(ctx, op, query, args...)
	if err != nil {
		return nil, err
	}
	out := make([]valueobjects.Record, 0, len(docs))
	for _, doc := range docs {
		rec, err := decodeRecord(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTable(ws string, row scanner) (*entities.Table, error) {
	var name, role, createdAt string
	if err := row.Scan(&name, &role, &createdAt); err != nil {
		return nil, err
	}
	r, err := entities.ParseTableRole(role)
	if err != nil {
		return nil, err
	}
	created, err := parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	return &entities.Table{Workspace: ws, Name: name, Role: r, CreatedAt: created}, nil
}

func decodeRecord(doc string) (valueobjects.Record, error) {
	rec, err := valueobjects.ParseRecord([]byte(doc))
	if err != nil {
		return valueobjects.Record{}, pkgerrors.NewDatabaseError("decode_record", err)
	}
	return rec, nil
}

func affected(res sql.Result) int64 {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
}
