package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"multinet/application/commands/bus"
	querybus "multinet/application/queries/bus"
	pkgerrors "multinet/pkg/errors"
)

// base carries what every handler needs
type base struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

func (h *base) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// streamArray writes items as a JSON array one element at a time, flushing
// as it goes so large tables never sit in one buffer
func streamArray[T any](h *base, w http.ResponseWriter, items []T) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)

	if _, err := io.WriteString(w, "["); err != nil {
		return
	}
	for i, item := range items {
		if i > 0 {
			if _, err := io.WriteString(w, ","); err != nil {
				return
			}
		}
		if err := enc.Encode(item); err != nil {
			h.logger.Error("Failed to encode array element", zap.Int("index", i), zap.Error(err))
			return
		}
		if flusher != nil && i%100 == 99 {
			flusher.Flush()
		}
	}
	_, _ = io.WriteString(w, "]\n")
}

// readBody reads the whole request body. Bodies over the server limit are
// reported as 413.
func (h *base) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.errors.HandleStatus(w, r, http.StatusRequestEntityTooLarge,
				"Request body exceeds "+strconv.FormatInt(tooLarge.Limit, 10)+" bytes")
			return nil, false
		}
		h.errors.Handle(w, r, pkgerrors.NewDecodeFailed(err))
		return nil, false
	}
	return data, true
}

// intParam parses an optional non-negative integer query argument
func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, pkgerrors.NewBadQueryArgument(name, raw, []string{"non-negative integer"})
	}
	return n, nil
}

// pageParams reads offset and limit
func pageParams(r *http.Request) (int, int, error) {
	offset, err := intParam(r, "offset")
	if err != nil {
		return 0, 0, err
	}
	limit, err := intParam(r, "limit")
	if err != nil {
		return 0, 0, err
	}
	return offset, limit, nil
}
