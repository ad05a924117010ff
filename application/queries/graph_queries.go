package queries

import (
	pkgerrors "multinet/pkg/errors"
	"multinet/pkg/validation"
)

// Edge directions relative to a node
const (
	DirectionAll      = "all"
	DirectionIncoming = "incoming"
	DirectionOutgoing = "outgoing"
)

// DirectionValues lists the accepted edge directions
var DirectionValues = []string{DirectionIncoming, DirectionOutgoing, DirectionAll}

// ListGraphsQuery lists graph names in a workspace
type ListGraphsQuery struct {
	Workspace string `json:"workspace" validate:"required,name"`
}

// Validate checks the query fields
func (q ListGraphsQuery) Validate() error { return validation.Struct(q) }

// GetGraphQuery returns one graph definition
type GetGraphQuery struct {
	Workspace string `json:"workspace" validate:"required,name"`
	Graph     string `json:"graph" validate:"required,name"`
}

// Validate checks the query fields
func (q GetGraphQuery) Validate() error { return validation.Struct(q) }

// GraphSpec is the public view of a graph definition
type GraphSpec struct {
	NodeTables []string `json:"nodeTables"`
	EdgeTable  string   `json:"edgeTable"`
}

// GraphNodesQuery pages through the nodes of every node table of a graph
type GraphNodesQuery struct {
	Workspace string `json:"workspace" validate:"required,name"`
	Graph     string `json:"graph" validate:"required,name"`
	Offset    int    `json:"offset" validate:"gte=0"`
	Limit     int    `json:"limit" validate:"gte=0"`
}

// Validate checks the query fields
func (q GraphNodesQuery) Validate() error { return validation.Struct(q) }

// NodesResult lists node ids ("table/key") and the total node count
type NodesResult struct {
	Count int      `json:"count"`
	Nodes []string `json:"nodes"`
}

// NodeAttributesQuery returns the record of one node
type NodeAttributesQuery struct {
	Workspace string `json:"workspace" validate:"required,name"`
	Graph     string `json:"graph" validate:"required,name"`
	Table     string `json:"table" validate:"required,name"`
	Node      string `json:"node" validate:"required"`
}

// Validate checks the query fields
func (q NodeAttributesQuery) Validate() error { return validation.Struct(q) }

// NodeEdgesQuery pages through the edges touching one node
type NodeEdgesQuery struct {
	Workspace string `json:"workspace" validate:"required,name"`
	Graph     string `json:"graph" validate:"required,name"`
	Table     string `json:"table" validate:"required,name"`
	Node      string `json:"node" validate:"required"`
	Direction string `json:"direction"`
	Offset    int    `json:"offset" validate:"gte=0"`
	Limit     int    `json:"limit" validate:"gte=0"`
}

// Validate checks the query fields. An empty direction means all.
func (q NodeEdgesQuery) Validate() error {
	switch q.Direction {
	case "", DirectionAll, DirectionIncoming, DirectionOutgoing:
	default:
		return pkgerrors.NewBadQueryArgument("direction", q.Direction, DirectionValues)
	}
	return validation.Struct(q)
}

// EdgeRef identifies one edge and its endpoints
type EdgeRef struct {
	Edge string `json:"edge"`
	From string `json:"from"`
	To   string `json:"to"`
}

// EdgesResult lists a page of edges and the total edge count
type EdgesResult struct {
	Count int       `json:"count"`
	Edges []EdgeRef `json:"edges"`
}
