package aggregates

import (
	"time"

	"multinet/domain/core/valueobjects"
	pkgerrors "multinet/pkg/errors"
)

// GraphDefinition names a set of node tables and the edge table that
// connects them. A definition is only created after its edge table has been
// checked for referential integrity.
type GraphDefinition struct {
	workspace  string
	name       string
	nodeTables []string
	edgeTable  string
	createdAt  time.Time
}

// NewGraphDefinition validates the inputs and creates a definition.
// Duplicate node table names are dropped, first occurrence wins.
func NewGraphDefinition(workspace, name string, nodeTables []string, edgeTable string) (*GraphDefinition, error) {
	if err := valueobjects.ValidateName("workspace", workspace); err != nil {
		return nil, err
	}
	if err := valueobjects.ValidateName("graph", name); err != nil {
		return nil, err
	}
	if len(nodeTables) == 0 {
		return nil, pkgerrors.NewValidationError("a graph needs at least one node table")
	}
	if err := valueobjects.ValidateName("edge table", edgeTable); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(nodeTables))
	tables := make([]string, 0, len(nodeTables))
	for _, t := range nodeTables {
		if err := valueobjects.ValidateName("node table", t); err != nil {
			return nil, err
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		tables = append(tables, t)
	}

	return &GraphDefinition{
		workspace:  workspace,
		name:       name,
		nodeTables: tables,
		edgeTable:  edgeTable,
		createdAt:  time.Now().UTC(),
	}, nil
}

// RestoreGraphDefinition rebuilds a definition loaded from storage.
func RestoreGraphDefinition(workspace, name string, nodeTables []string, edgeTable string, createdAt time.Time) *GraphDefinition {
	tables := make([]string, len(nodeTables))
	copy(tables, nodeTables)
	return &GraphDefinition{
		workspace:  workspace,
		name:       name,
		nodeTables: tables,
		edgeTable:  edgeTable,
		createdAt:  createdAt,
	}
}

// Workspace returns the owning workspace.
func (g *GraphDefinition) Workspace() string { return g.workspace }

// Name returns the graph name.
func (g *GraphDefinition) Name() string { return g.name }

// EdgeTable returns the edge table name.
func (g *GraphDefinition) EdgeTable() string { return g.edgeTable }

// CreatedAt returns when the definition was created.
func (g *GraphDefinition) CreatedAt() time.Time { return g.createdAt }

// NodeTables returns a copy of the node table names.
func (g *GraphDefinition) NodeTables() []string {
	out := make([]string, len(g.nodeTables))
	copy(out, g.nodeTables)
	return out
}

// HasNodeTable reports whether table is one of the graph's node tables.
func (g *GraphDefinition) HasNodeTable(table string) bool {
	for _, t := range g.nodeTables {
		if t == table {
			return true
		}
	}
	return false
}
