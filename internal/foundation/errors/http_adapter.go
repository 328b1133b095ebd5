package errors

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// HTTPErrorAdapter handles error presentation and status code determination for HTTP applications.
type HTTPErrorAdapter struct {
	logger *slog.Logger
}

// NewHTTPErrorAdapter creates a new HTTP error adapter with an optional slog logger.
// If logger is nil, the default package logger will be used.
func NewHTTPErrorAdapter(logger *slog.Logger) *HTTPErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPErrorAdapter{logger: logger}
}

// HTTPErrorResponse represents a standard JSON error payload.
type HTTPErrorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// StatusCodeFor determines the HTTP status code for a given error based on
// its classification. Unknown errors map to 500.
func (a *HTTPErrorAdapter) StatusCodeFor(err error) int {
	if err == nil {
		return http.StatusOK
	}

	c, ok := AsClassified(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch c.Category() {
	case CategoryValidation, CategoryConfig:
		return http.StatusBadRequest
	case CategoryNotFound:
		return http.StatusNotFound
	case CategoryForbidden:
		return http.StatusForbidden
	case CategoryParse:
		return http.StatusUnprocessableEntity
	case CategoryRuntime:
		return http.StatusServiceUnavailable
	case CategoryFileSystem, CategoryModifier, CategoryInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// WriteErrorResponse writes a JSON error response and logs with appropriate level.
func (a *HTTPErrorAdapter) WriteErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	status := a.StatusCodeFor(err)
	payload := a.FormatErrorResponse(err)

	b, jerr := json.Marshal(payload)
	if jerr != nil {
		w.WriteHeader(status)
		_, _ = w.Write([]byte("{\"error\":\"internal error\"}"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write(b)

	level := slog.LevelError
	if status < http.StatusInternalServerError {
		level = slog.LevelWarn
	}
	a.logger.Log(r.Context(), level, "request failed",
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.Any("error", err))
}

// FormatErrorResponse converts known errors into a canonical error payload.
// Causes are not exposed to clients; only the classified message and context are.
func (a *HTTPErrorAdapter) FormatErrorResponse(err error) HTTPErrorResponse {
	if err == nil {
		return HTTPErrorResponse{}
	}
	if c, ok := AsClassified(err); ok {
		resp := HTTPErrorResponse{Error: c.Message(), Code: string(c.Category())}
		if len(c.Context()) > 0 {
			resp.Details = map[string]any(c.Context())
		}
		return resp
	}
	return HTTPErrorResponse{Error: "internal error", Code: string(CategoryInternal)}
}
