package commands

import "multinet/pkg/validation"

// CreateGraphCommand defines a graph over existing tables. The edge table
// must pass the referential integrity check before the graph is stored.
type CreateGraphCommand struct {
	Workspace  string   `json:"workspace" validate:"required,name"`
	Graph      string   `json:"graph" validate:"required,name"`
	NodeTables []string `json:"node_tables" validate:"required,min=1,dive,name"`
	EdgeTable  string   `json:"edge_table" validate:"required,name"`
}

// Validate checks the command fields
func (c CreateGraphCommand) Validate() error {
	return validation.Struct(c)
}

// CreateGraphResult names the created graph
type CreateGraphResult struct {
	Workspace  string   `json:"workspace"`
	Graph      string   `json:"graph"`
	NodeTables []string `json:"nodeTables"`
	EdgeTable  string   `json:"edgeTable"`
}
