package events

import "time"

// WorkspaceCreated is raised when a new workspace is created
type WorkspaceCreated struct {
	BaseEvent
	Workspace string `json:"workspace"`
}

// NewWorkspaceCreated creates a WorkspaceCreated event
func NewWorkspaceCreated(workspace string, timestamp time.Time) WorkspaceCreated {
	return WorkspaceCreated{
		BaseEvent: newBaseEvent(workspace, TypeWorkspaceCreated, timestamp),
		Workspace: workspace,
	}
}

// WorkspaceDeleted is raised when a workspace and its contents are removed
type WorkspaceDeleted struct {
	BaseEvent
	Workspace string `json:"workspace"`
}

// NewWorkspaceDeleted creates a WorkspaceDeleted event
func NewWorkspaceDeleted(workspace string, timestamp time.Time) WorkspaceDeleted {
	return WorkspaceDeleted{
		BaseEvent: newBaseEvent(workspace, TypeWorkspaceDeleted, timestamp),
		Workspace: workspace,
	}
}

// TableUploaded is raised after records were written to a table
type TableUploaded struct {
	BaseEvent
	Workspace   string `json:"workspace"`
	Table       string `json:"table"`
	Role        string `json:"role"`
	RecordCount int    `json:"record_count"`
}

// NewTableUploaded creates a TableUploaded event
func NewTableUploaded(workspace, table, role string, count int, timestamp time.Time) TableUploaded {
	return TableUploaded{
		BaseEvent:   newBaseEvent(workspace+"/"+table, TypeTableUploaded, timestamp),
		Workspace:   workspace,
		Table:       table,
		Role:        role,
		RecordCount: count,
	}
}

// GraphCreated is raised once a graph definition passed validation and was stored
type GraphCreated struct {
	BaseEvent
	Workspace  string   `json:"workspace"`
	Graph      string   `json:"graph"`
	NodeTables []string `json:"node_tables"`
	EdgeTable  string   `json:"edge_table"`
}

// NewGraphCreated creates a GraphCreated event
func NewGraphCreated(workspace, graph string, nodeTables []string, edgeTable string, timestamp time.Time) GraphCreated {
	return GraphCreated{
		BaseEvent:  newBaseEvent(workspace+"/"+graph, TypeGraphCreated, timestamp),
		Workspace:  workspace,
		Graph:      graph,
		NodeTables: nodeTables,
		EdgeTable:  edgeTable,
	}
}
