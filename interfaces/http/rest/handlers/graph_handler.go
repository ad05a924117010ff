package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"multinet/application/commands"
	"multinet/application/commands/bus"
	"multinet/application/queries"
	querybus "multinet/application/queries/bus"
	pkgerrors "multinet/pkg/errors"
	"multinet/pkg/validation"
)

// CreateGraphRequest is the body of a graph creation request
type CreateGraphRequest struct {
	NodeTables []string `json:"node_tables" validate:"required,min=1"`
	EdgeTable  string   `json:"edge_table" validate:"required"`
}

// GraphHandler handles graph-related HTTP requests
type GraphHandler struct {
	base
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{base{commandBus: commandBus, queryBus: queryBus, errors: errs, logger: logger}}
}

// ListGraphs handles GET /api/workspaces/{workspace}/graphs
func (h *GraphHandler) ListGraphs(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.ListGraphsQuery{
		Workspace: chi.URLParam(r, "workspace"),
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	streamArray(&h.base, w, result.([]string))
}

// GetGraph handles GET /api/workspaces/{workspace}/graphs/{graph}
func (h *GraphHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.GetGraphQuery{
		Workspace: chi.URLParam(r, "workspace"),
		Graph:     chi.URLParam(r, "graph"),
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}

// CreateGraph handles POST /api/workspaces/{workspace}/graph/{graph}. A body
// without node_tables or edge_table is rejected before any lookup.
func (h *GraphHandler) CreateGraph(w http.ResponseWriter, r *http.Request) {
	data, ok := h.readBody(w, r)
	if !ok {
		return
	}

	var req CreateGraphRequest
	if err := json.Unmarshal(data, &req); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewMalformedRequestBody(string(data)).WithCause(err))
		return
	}
	if err := validation.Validator().Struct(req); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewMalformedRequestBody(string(data)).WithCause(err))
		return
	}

	workspace := chi.URLParam(r, "workspace")
	graph := chi.URLParam(r, "graph")

	result, err := h.commandBus.Send(r.Context(), commands.CreateGraphCommand{
		Workspace:  workspace,
		Graph:      graph,
		NodeTables: req.NodeTables,
		EdgeTable:  req.EdgeTable,
	})
	if err != nil {
		if pkgerrors.IsValidation(err) {
			h.logger.Info("Graph rejected",
				zap.String("workspace", workspace),
				zap.String("graph", graph),
				zap.Error(err),
			)
		}
		h.errors.Handle(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, result)
}

// GraphNodes handles GET /api/workspaces/{workspace}/graphs/{graph}/nodes
func (h *GraphHandler) GraphNodes(w http.ResponseWriter, r *http.Request) {
	offset, limit, err := pageParams(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GraphNodesQuery{
		Workspace: chi.URLParam(r, "workspace"),
		Graph:     chi.URLParam(r, "graph"),
		Offset:    offset,
		Limit:     limit,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}

// NodeAttributes handles GET .../nodes/{table}/{node}/attributes
func (h *GraphHandler) NodeAttributes(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.NodeAttributesQuery{
		Workspace: chi.URLParam(r, "workspace"),
		Graph:     chi.URLParam(r, "graph"),
		Table:     chi.URLParam(r, "table"),
		Node:      chi.URLParam(r, "node"),
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}

// NodeEdges handles GET .../nodes/{table}/{node}/edges?direction&offset&limit
func (h *GraphHandler) NodeEdges(w http.ResponseWriter, r *http.Request) {
	offset, limit, err := pageParams(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.NodeEdgesQuery{
		Workspace: chi.URLParam(r, "workspace"),
		Graph:     chi.URLParam(r, "graph"),
		Table:     chi.URLParam(r, "table"),
		Node:      chi.URLParam(r, "node"),
		Direction: r.URL.Query().Get("direction"),
		Offset:    offset,
		Limit:     limit,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}
