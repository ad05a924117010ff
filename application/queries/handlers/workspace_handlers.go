package handlers

import (
	"context"

	"go.uber.org/zap"

	"multinet/application/ports"
	"multinet/application/queries"
	"multinet/domain/core/entities"
	"multinet/domain/core/valueobjects"
	pkgerrors "multinet/pkg/errors"
)

// WorkspaceQueryHandler answers workspace and table queries
type WorkspaceQueryHandler struct {
	store  ports.Store
	logger *zap.Logger
}

// NewWorkspaceQueryHandler creates a new handler instance
func NewWorkspaceQueryHandler(store ports.Store, logger *zap.Logger) *WorkspaceQueryHandler {
	return &WorkspaceQueryHandler{store: store, logger: logger}
}

// ListWorkspaces returns every workspace name
func (h *WorkspaceQueryHandler) ListWorkspaces(ctx context.Context, _ queries.ListWorkspacesQuery) ([]string, error) {
	names, err := h.store.ListWorkspaces(ctx)
	if err != nil {
		return nil, storeError("list_workspaces", err)
	}
	return nonNil(names), nil
}

// GetWorkspace summarises the tables and graphs of one workspace
func (h *WorkspaceQueryHandler) GetWorkspace(ctx context.Context, q queries.GetWorkspaceQuery) (*queries.WorkspaceSummary, error) {
	tables, err := h.store.ListTables(ctx, q.Workspace)
	if err != nil {
		return nil, storeError("list_tables", err)
	}
	graphs, err := h.store.ListGraphs(ctx, q.Workspace)
	if err != nil {
		return nil, storeError("list_graphs", err)
	}

	summary := &queries.WorkspaceSummary{
		Name:   q.Workspace,
		Tables: make([]queries.TableSummary, 0, len(tables)),
		Graphs: nonNil(graphs),
	}
	for _, t := range tables {
		summary.Tables = append(summary.Tables, queries.TableSummary{Name: t.Name, Type: string(t.Role)})
	}
	return summary, nil
}

// ListTables returns the names of tables that pass the type filter
func (h *WorkspaceQueryHandler) ListTables(ctx context.Context, q queries.ListTablesQuery) ([]string, error) {
	filter, _ := entities.ParseTableFilter(q.Type)

	tables, err := h.store.ListTables(ctx, q.Workspace)
	if err != nil {
		return nil, storeError("list_tables", err)
	}

	names := make([]string, 0, len(tables))
	for _, t := range tables {
		if filter.Matches(t.Role) {
			names = append(names, t.Name)
		}
	}
	return names, nil
}

// GetTableRows returns one page of a table's records
func (h *WorkspaceQueryHandler) GetTableRows(ctx context.Context, q queries.GetTableRowsQuery) ([]valueobjects.Record, error) {
	rows, _, err := h.store.Rows(ctx, q.Workspace, q.Table, pageOf(q.Offset, q.Limit))
	if err != nil {
		return nil, storeError("rows", err)
	}
	if rows == nil {
		rows = []valueobjects.Record{}
	}
	return rows, nil
}

func storeError(op string, err error) error {
	if err == nil || pkgerrors.IsAppError(err) {
		return err
	}
	return pkgerrors.NewDatabaseError(op, err)
}

func pageOf(offset, limit int) ports.Page {
	if limit <= 0 {
		limit = ports.DefaultPageLimit
	}
	return ports.Page{Offset: offset, Limit: limit}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
