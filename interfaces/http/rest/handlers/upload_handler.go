package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"multinet/application/commands"
	"multinet/application/commands/bus"
	pkgerrors "multinet/pkg/errors"
)

// UploadHandler handles table uploads
type UploadHandler struct {
	base
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(commandBus *bus.CommandBus, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{base{commandBus: commandBus, errors: errs, logger: logger}}
}

// UploadNestedJSON handles POST /api/nested_json/{workspace}/{table}
func (h *UploadHandler) UploadNestedJSON(w http.ResponseWriter, r *http.Request) {
	data, ok := h.readBody(w, r)
	if !ok {
		return
	}

	result, err := h.commandBus.Send(r.Context(), commands.UploadNestedJSONCommand{
		Workspace: chi.URLParam(r, "workspace"),
		Table:     chi.URLParam(r, "table"),
		Data:      data,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}

// UploadCSV handles POST /api/csv/{workspace}/{table}
func (h *UploadHandler) UploadCSV(w http.ResponseWriter, r *http.Request) {
	data, ok := h.readBody(w, r)
	if !ok {
		return
	}

	result, err := h.commandBus.Send(r.Context(), commands.UploadCSVCommand{
		Workspace: chi.URLParam(r, "workspace"),
		Table:     chi.URLParam(r, "table"),
		Data:      data,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}
