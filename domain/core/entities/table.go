package entities

import (
	"fmt"
	"time"

	"multinet/domain/core/valueobjects"
	pkgerrors "multinet/pkg/errors"
)

// TableRole distinguishes plain node tables from edge tables.
type TableRole string

const (
	RoleNode TableRole = "node"
	RoleEdge TableRole = "edge"
)

// ParseTableRole converts a stored role string back to a TableRole.
func ParseTableRole(s string) (TableRole, error) {
	switch TableRole(s) {
	case RoleNode, RoleEdge:
		return TableRole(s), nil
	default:
		return "", fmt.Errorf("unknown table role %q", s)
	}
}

// TableFilter selects tables by role when listing a workspace.
type TableFilter string

const (
	FilterAll  TableFilter = "all"
	FilterNode TableFilter = "node"
	FilterEdge TableFilter = "edge"
)

// TableFilterValues lists the accepted filter values in display order.
var TableFilterValues = []string{string(FilterAll), string(FilterNode), string(FilterEdge)}

// ParseTableFilter accepts "", "all", "node" and "edge". Empty means all.
func ParseTableFilter(s string) (TableFilter, bool) {
	switch TableFilter(s) {
	case "", FilterAll:
		return FilterAll, true
	case FilterNode, FilterEdge:
		return TableFilter(s), true
	default:
		return "", false
	}
}

// Matches reports whether a table with role passes the filter.
func (f TableFilter) Matches(role TableRole) bool {
	switch f {
	case FilterNode:
		return role == RoleNode
	case FilterEdge:
		return role == RoleEdge
	default:
		return true
	}
}

// Table is a named collection of records inside a workspace.
type Table struct {
	Workspace string
	Name      string
	Role      TableRole
	CreatedAt time.Time
}

// NewTable validates the name and builds a table descriptor.
func NewTable(workspace, name string, role TableRole) (*Table, error) {
	if err := valueobjects.ValidateName("workspace", workspace); err != nil {
		return nil, err
	}
	if err := valueobjects.ValidateName("table", name); err != nil {
		return nil, err
	}
	if _, err := ParseTableRole(string(role)); err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	return &Table{
		Workspace: workspace,
		Name:      name,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// IsEdge reports whether the table stores edges.
func (t *Table) IsEdge() bool {
	return t.Role == RoleEdge
}

// CheckRecord verifies a record can be stored in the table: it must carry a
// key, and edge records must also carry well-formed _from and _to references.
func (t *Table) CheckRecord(rec valueobjects.Record) error {
	if _, ok := rec.Key(); !ok {
		return pkgerrors.NewValidationError(fmt.Sprintf("record in table %s has no %s", t.Name, valueobjects.FieldKey))
	}
	if !t.IsEdge() {
		return nil
	}
	for _, field := range []string{valueobjects.FieldFrom, valueobjects.FieldTo} {
		raw, ok := rec.GetString(field)
		if !ok {
			return pkgerrors.NewValidationError(fmt.Sprintf("edge record in table %s is missing %s", t.Name, field))
		}
		if _, err := valueobjects.ParseReference(raw); err != nil {
			return pkgerrors.NewValidationError(fmt.Sprintf("edge record in table %s: %v", t.Name, err))
		}
	}
	return nil
}
