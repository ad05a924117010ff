package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"multinet/application/ports"
	"multinet/application/queries"
	"multinet/domain/core/aggregates"
	"multinet/domain/core/valueobjects"
	pkgerrors "multinet/pkg/errors"
)

// GraphQueryHandler answers queries about graph definitions and the nodes
// and edges they cover
type GraphQueryHandler struct {
	store  ports.Store
	logger *zap.Logger
}

// NewGraphQueryHandler creates a new handler instance
func NewGraphQueryHandler(store ports.Store, logger *zap.Logger) *GraphQueryHandler {
	return &GraphQueryHandler{store: store, logger: logger}
}

// ListGraphs returns graph names in the workspace
func (h *GraphQueryHandler) ListGraphs(ctx context.Context, q queries.ListGraphsQuery) ([]string, error) {
	names, err := h.store.ListGraphs(ctx, q.Workspace)
	if err != nil {
		return nil, storeError("list_graphs", err)
	}
	return nonNil(names), nil
}

// GetGraph returns the tables a graph is made of
func (h *GraphQueryHandler) GetGraph(ctx context.Context, q queries.GetGraphQuery) (*queries.GraphSpec, error) {
	graph, err := h.graph(ctx, q.Workspace, q.Graph)
	if err != nil {
		return nil, err
	}
	return &queries.GraphSpec{NodeTables: graph.NodeTables(), EdgeTable: graph.EdgeTable()}, nil
}

// GraphNodes pages through node ids across the graph's node tables, in
// node table order. Count is the total over all node tables.
func (h *GraphQueryHandler) GraphNodes(ctx context.Context, q queries.GraphNodesQuery) (*queries.NodesResult, error) {
	graph, err := h.graph(ctx, q.Workspace, q.Graph)
	if err != nil {
		return nil, err
	}

	page := pageOf(q.Offset, q.Limit)
	skip, remaining := page.Offset, page.Limit
	result := &queries.NodesResult{Nodes: []string{}}

	for _, table := range graph.NodeTables() {
		limit := remaining
		if limit == 0 {
			// page is full, only the total is still needed
			limit = 1
		}
		rows, total, err := h.store.Rows(ctx, q.Workspace, table, ports.Page{Offset: skip, Limit: limit})
		if err != nil {
			if pkgerrors.IsNotFound(err) {
				h.logger.Debug("Graph node table missing",
					zap.String("workspace", q.Workspace),
					zap.String("graph", q.Graph),
					zap.String("table", table),
				)
				continue
			}
			return nil, storeError("rows", err)
		}

		result.Count += total
		if remaining > 0 {
			for _, rec := range rows {
				key, _ := rec.Key()
				result.Nodes = append(result.Nodes, valueobjects.NewReference(table, key).String())
			}
			remaining -= len(rows)
		}
		skip = max(0, skip-total)
	}
	return result, nil
}

// NodeAttributes returns the record of a node in one of the graph's node tables
func (h *GraphQueryHandler) NodeAttributes(ctx context.Context, q queries.NodeAttributesQuery) (valueobjects.Record, error) {
	graph, err := h.graph(ctx, q.Workspace, q.Graph)
	if err != nil {
		return valueobjects.Record{}, err
	}
	if !graph.HasNodeTable(q.Table) {
		return valueobjects.Record{}, pkgerrors.NewNotFoundError(fmt.Sprintf("node table '%s' in graph '%s'", q.Table, q.Graph))
	}

	rec, err := h.store.GetRecord(ctx, q.Workspace, q.Table, q.Node)
	if err != nil {
		return valueobjects.Record{}, storeError("get_record", err)
	}
	return rec, nil
}

// NodeEdges pages through the edges of the graph that start at (outgoing),
// end at (incoming) or touch (all) the node
func (h *GraphQueryHandler) NodeEdges(ctx context.Context, q queries.NodeEdgesQuery) (*queries.EdgesResult, error) {
	graph, err := h.graph(ctx, q.Workspace, q.Graph)
	if err != nil {
		return nil, err
	}

	node := valueobjects.NewReference(q.Table, q.Node).String()
	edges, err := h.store.All(ctx, q.Workspace, graph.EdgeTable())
	if err != nil {
		return nil, storeError("all", err)
	}

	matched := make([]queries.EdgeRef, 0)
	for _, edge := range edges {
		from, _ := edge.GetString(valueobjects.FieldFrom)
		to, _ := edge.GetString(valueobjects.FieldTo)

		var hit bool
		switch q.Direction {
		case queries.DirectionOutgoing:
			hit = from == node
		case queries.DirectionIncoming:
			hit = to == node
		default:
			hit = from == node || to == node
		}
		if !hit {
			continue
		}

		key, _ := edge.Key()
		matched = append(matched, queries.EdgeRef{
			Edge: valueobjects.NewReference(graph.EdgeTable(), key).String(),
			From: from,
			To:   to,
		})
	}

	start, end := pageOf(q.Offset, q.Limit).Window(len(matched))
	return &queries.EdgesResult{Count: len(matched), Edges: matched[start:end]}, nil
}

func (h *GraphQueryHandler) graph(ctx context.Context, workspace, name string) (*aggregates.GraphDefinition, error) {
	graph, err := h.store.GetGraph(ctx, workspace, name)
	if err != nil {
		return nil, storeError("get_graph", err)
	}
	return graph, nil
}
