package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"multinet/application/commands"
	"multinet/application/commands/bus"
	"multinet/application/queries"
	querybus "multinet/application/queries/bus"
	"multinet/domain/core/valueobjects"
	pkgerrors "multinet/pkg/errors"
)

// WorkspaceHandler handles workspace and table HTTP requests
type WorkspaceHandler struct {
	base
}

// NewWorkspaceHandler creates a new workspace handler
func NewWorkspaceHandler(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *WorkspaceHandler {
	return &WorkspaceHandler{base{commandBus: commandBus, queryBus: queryBus, errors: errs, logger: logger}}
}

// ListWorkspaces handles GET /api/workspaces
func (h *WorkspaceHandler) ListWorkspaces(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.ListWorkspacesQuery{})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	streamArray(&h.base, w, result.([]string))
}

// GetWorkspace handles GET /api/workspaces/{workspace}
func (h *WorkspaceHandler) GetWorkspace(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.GetWorkspaceQuery{
		Workspace: chi.URLParam(r, "workspace"),
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}

// CreateWorkspace handles POST /api/workspaces/{workspace}
func (h *WorkspaceHandler) CreateWorkspace(w http.ResponseWriter, r *http.Request) {
	result, err := h.commandBus.Send(r.Context(), commands.CreateWorkspaceCommand{
		Workspace: chi.URLParam(r, "workspace"),
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, result)
}

// DeleteWorkspace handles DELETE /api/workspaces/{workspace}
func (h *WorkspaceHandler) DeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	result, err := h.commandBus.Send(r.Context(), commands.DeleteWorkspaceCommand{
		Workspace: chi.URLParam(r, "workspace"),
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}

// ListTables handles GET /api/workspaces/{workspace}/tables?type=
func (h *WorkspaceHandler) ListTables(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.ListTablesQuery{
		Workspace: chi.URLParam(r, "workspace"),
		Type:      r.URL.Query().Get("type"),
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	streamArray(&h.base, w, result.([]string))
}

// GetTableRows handles GET /api/workspaces/{workspace}/tables/{table}?offset&limit
func (h *WorkspaceHandler) GetTableRows(w http.ResponseWriter, r *http.Request) {
	offset, limit, err := pageParams(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetTableRowsQuery{
		Workspace: chi.URLParam(r, "workspace"),
		Table:     chi.URLParam(r, "table"),
		Offset:    offset,
		Limit:     limit,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	streamArray(&h.base, w, result.([]valueobjects.Record))
}
