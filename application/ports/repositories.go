package ports

import (
	"context"

	"multinet/domain/core/aggregates"
	"multinet/domain/core/entities"
	"multinet/domain/core/valueobjects"
	"multinet/domain/events"
)

// WorkspaceRepository defines persistence for workspaces.
// Workspace-scoped calls on the other repositories return a NotFound error
// when the workspace does not exist.
type WorkspaceRepository interface {
	// CreateWorkspace creates an empty workspace, Conflict if it exists
	CreateWorkspace(ctx context.Context, name string) error

	// DeleteWorkspace removes a workspace with all of its tables and graphs
	DeleteWorkspace(ctx context.Context, name string) error

	// HasWorkspace reports whether the workspace exists
	HasWorkspace(ctx context.Context, name string) (bool, error)

	// ListWorkspaces returns workspace names in ascending order
	ListWorkspaces(ctx context.Context) ([]string, error)
}

// TableRepository defines persistence for tables and their records
type TableRepository interface {
	// HasTable reports whether the table exists in the workspace
	HasTable(ctx context.Context, workspace, table string) (bool, error)

	// CreateTable creates an empty table, Conflict if it exists
	CreateTable(ctx context.Context, table *entities.Table) error

	// GetTable returns the table descriptor
	GetTable(ctx context.Context, workspace, table string) (*entities.Table, error)

	// ListTables returns every table in the workspace ordered by name
	ListTables(ctx context.Context, workspace string) ([]*entities.Table, error)

	// InsertMany stores records, replacing any record with the same _key.
	// Every record must carry a _key. Returns the number of records written.
	InsertMany(ctx context.Context, workspace, table string, records []valueobjects.Record) (int, error)

	// All returns every record of the table in insertion order
	All(ctx context.Context, workspace, table string) ([]valueobjects.Record, error)

	// Rows returns one page of records and the total record count
	Rows(ctx context.Context, workspace, table string, page Page) ([]valueobjects.Record, int, error)

	// GetRecord returns the record with the given key
	GetRecord(ctx context.Context, workspace, table, key string) (valueobjects.Record, error)

	// KeysOf returns the set of keys stored in the table
	KeysOf(ctx context.Context, workspace, table string) (valueobjects.KeySet, error)
}

// GraphRepository defines persistence for graph definitions
type GraphRepository interface {
	// HasGraph reports whether a graph with the name is defined
	HasGraph(ctx context.Context, workspace, name string) (bool, error)

	// DefineGraph stores a new definition, Conflict if the name is taken
	DefineGraph(ctx context.Context, graph *aggregates.GraphDefinition) error

	// GetGraph returns a definition by name
	GetGraph(ctx context.Context, workspace, name string) (*aggregates.GraphDefinition, error)

	// ListGraphs returns graph names in ascending order
	ListGraphs(ctx context.Context, workspace string) ([]string, error)
}

// Store groups the repositories backed by one database
type Store interface {
	WorkspaceRepository
	TableRepository
	GraphRepository

	// Ping checks that the database is reachable
	Ping(ctx context.Context) error

	// Close releases database resources
	Close() error
}

// Page selects a window of records
type Page struct {
	Offset int
	Limit  int
}

// DefaultPageLimit is used when a request does not set a limit
const DefaultPageLimit = 30

// Window clamps the page to n items and returns the [start, end) bounds.
// A non-positive limit selects everything after the offset.
func (p Page) Window(n int) (int, int) {
	start := p.Offset
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	end := n
	if p.Limit > 0 && start+p.Limit < n {
		end = start + p.Limit
	}
	return start, end
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// EventBus is an EventPublisher that also dispatches to local handlers
type EventBus interface {
	EventPublisher

	// Subscribe registers a handler for an event type
	Subscribe(eventType string, handler EventHandler) error
}

// EventHandler defines the interface for handling domain events
type EventHandler interface {
	// Handle processes an event
	Handle(ctx context.Context, event events.DomainEvent) error

	// CanHandle checks if this handler can process the event
	CanHandle(eventType string) bool
}
