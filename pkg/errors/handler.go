package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every non-2xx API response. Integrity
// violations travel in Details["errors"]; debug builds add Details["debug"].
type ErrorResponse struct {
	Error     bool                   `json:"error"`
	Type      string                 `json:"type"`
	Message   string                 `json:"message"`
	Code      string                 `json:"code,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// DebugInfo is attached under details.debug when the handler runs in debug
// mode. It never replaces the client-facing message or details.errors.
type DebugInfo struct {
	Cause string   `json:"cause,omitempty"`
	Stack []string `json:"stack,omitempty"`
}

// ErrorHandler renders errors as ErrorResponse bodies and logs them
type ErrorHandler struct {
	logger *zap.Logger
	debug  bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *zap.Logger, debug bool) *ErrorHandler {
	return &ErrorHandler{logger: logger, debug: debug}
}

// Handle writes err as a JSON error response. AppErrors keep their status,
// code and details; anything else becomes an opaque 500.
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	appErr := GetAppError(err)
	if appErr == nil {
		appErr = &AppError{
			Type:       ErrorTypeInternal,
			Message:    "An internal error occurred",
			HTTPStatus: http.StatusInternalServerError,
			Cause:      err,
		}
	}

	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}

	response := ErrorResponse{
		Error:     true,
		Type:      string(appErr.Type),
		Message:   appErr.Message,
		Code:      appErr.Code,
		Details:   copyDetails(appErr.Details),
		RequestID: requestIDFrom(r),
	}
	if h.debug {
		if info, ok := debugInfo(appErr); ok {
			if response.Details == nil {
				response.Details = make(map[string]interface{}, 1)
			}
			response.Details["debug"] = info
		}
	}

	h.logError(r, appErr, status, response.RequestID)
	h.sendJSON(w, status, response)
}

// HandleStatus sends an error response for a status the router produced
// itself, such as 404 for an unknown route or 413 for an oversized body
func (h *ErrorHandler) HandleStatus(w http.ResponseWriter, r *http.Request, status int, message string) {
	response := ErrorResponse{
		Error:     true,
		Type:      statusToErrorType(status),
		Message:   message,
		RequestID: requestIDFrom(r),
	}

	h.logger.Warn("HTTP error",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("message", message),
		zap.String("request_id", response.RequestID),
	)

	h.sendJSON(w, status, response)
}

// Middleware turns panics into 500 responses
func (h *ErrorHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				h.Handle(w, r, NewInternalError(fmt.Sprintf("panic: %v", rec)))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// logError logs at error for 5xx and warn for everything else. The number of
// integrity violations is logged rather than the whole list.
func (h *ErrorHandler) logError(r *http.Request, err *AppError, status int, requestID string) {
	fields := []zap.Field{
		zap.String("error_type", string(err.Type)),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("request_id", requestID),
	}
	if err.Code != "" {
		fields = append(fields, zap.String("error_code", err.Code))
	}
	if err.Cause != nil {
		fields = append(fields, zap.Error(err.Cause))
	}
	for k, v := range err.Details {
		if list, ok := v.([]string); ok && k == "errors" {
			fields = append(fields, zap.Int("violations", len(list)))
			continue
		}
		fields = append(fields, zap.Any(k, v))
	}

	if status >= 500 {
		h.logger.Error(err.Message, fields...)
		return
	}
	h.logger.Warn(err.Message, fields...)
}

func (h *ErrorHandler) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode error response", zap.Error(err))
	}
}

// debugInfo collects the cause and stack of err; ok is false when there is
// nothing to add
func debugInfo(err *AppError) (DebugInfo, bool) {
	var info DebugInfo
	if err.Cause != nil {
		info.Cause = err.Cause.Error()
	}
	if err.StackTrace != "" {
		info.Stack = strings.Split(strings.TrimRight(err.StackTrace, "\n"), "\n")
	}
	return info, info.Cause != "" || len(info.Stack) > 0
}

func statusToErrorType(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
		return string(ErrorTypeValidation)
	case http.StatusUnauthorized:
		return string(ErrorTypeUnauthorized)
	case http.StatusNotFound:
		return string(ErrorTypeNotFound)
	case http.StatusConflict:
		return string(ErrorTypeConflict)
	case http.StatusServiceUnavailable:
		return string(ErrorTypeUnavailable)
	case http.StatusBadGateway:
		return string(ErrorTypeExternal)
	default:
		return string(ErrorTypeInternal)
	}
}

func requestIDFrom(r *http.Request) string {
	if id := chimiddleware.GetReqID(r.Context()); id != "" {
		return id
	}
	return r.Header.Get("X-Request-ID")
}

func copyDetails(details map[string]interface{}) map[string]interface{} {
	if details == nil {
		return nil
	}
	out := make(map[string]interface{}, len(details))
	for k, v := range details {
		out[k] = v
	}
	return out
}
