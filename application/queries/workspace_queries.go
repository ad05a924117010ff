package queries

import (
	"multinet/domain/core/entities"
	pkgerrors "multinet/pkg/errors"
	"multinet/pkg/validation"
)

// ListWorkspacesQuery lists every workspace
type ListWorkspacesQuery struct{}

// Validate always succeeds
func (q ListWorkspacesQuery) Validate() error { return nil }

// GetWorkspaceQuery describes one workspace
type GetWorkspaceQuery struct {
	Workspace string `json:"workspace" validate:"required,name"`
}

// Validate checks the query fields
func (q GetWorkspaceQuery) Validate() error { return validation.Struct(q) }

// WorkspaceSummary is the result of GetWorkspaceQuery
type WorkspaceSummary struct {
	Name   string         `json:"name"`
	Tables []TableSummary `json:"tables"`
	Graphs []string       `json:"graphs"`
}

// TableSummary names a table and its role
type TableSummary struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ListTablesQuery lists table names, optionally filtered by role
type ListTablesQuery struct {
	Workspace string `json:"workspace" validate:"required,name"`
	Type      string `json:"type"`
}

// Validate checks the query fields. Type must be empty, all, node or edge.
func (q ListTablesQuery) Validate() error {
	if err := validation.Struct(q); err != nil {
		return err
	}
	if _, ok := entities.ParseTableFilter(q.Type); !ok {
		return pkgerrors.NewBadQueryArgument("type", q.Type, entities.TableFilterValues)
	}
	return nil
}

// GetTableRowsQuery returns one page of a table's records
type GetTableRowsQuery struct {
	Workspace string `json:"workspace" validate:"required,name"`
	Table     string `json:"table" validate:"required,name"`
	Offset    int    `json:"offset" validate:"gte=0"`
	Limit     int    `json:"limit" validate:"gte=0"`
}

// Validate checks the query fields
func (q GetTableRowsQuery) Validate() error { return validation.Struct(q) }
