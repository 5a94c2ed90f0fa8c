package transport

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/contacthub/internal"
	"github.com/frahmantamala/contacthub/pkg/logger"
)

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
	maxJSONBodyBytes = 1 << 20
)

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
	}
	return &BaseHandler{Logger: lg}
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes an error response
func (h *BaseHandler) WriteError(w http.ResponseWriter, appErr *internal.AppError) {
	status, body := appErr.ToHTTPResponse()
	h.WriteJSON(w, status, body)
}

// HandleServiceError maps a service error onto the JSON error envelope.
// Anything that is not an AppError is logged and reported as internal.
func (h *BaseHandler) HandleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	lg := logger.From(r.Context())

	appErr, ok := internal.IsAppError(err)
	if !ok {
		lg.ErrorContext(r.Context(), "unhandled service error", "error", err, "path", r.URL.Path)
		h.WriteError(w, internal.NewInternalError("Internal server error", err))
		return
	}

	switch {
	case appErr.StatusCode >= http.StatusInternalServerError:
		lg.ErrorContext(r.Context(), "request failed", "error", appErr, "path", r.URL.Path)
	case appErr.StatusCode == http.StatusUnauthorized || appErr.StatusCode == http.StatusForbidden:
		lg.WarnContext(r.Context(), "request denied", "code", appErr.Code, "path", r.URL.Path)
	default:
		lg.DebugContext(r.Context(), "request rejected", "code", appErr.Code, "message", appErr.GetDetailedMessage())
	}
	h.WriteError(w, appErr)
}

// DecodeJSON reads a bounded JSON body into dst.
func (h *BaseHandler) DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) *internal.AppError {
	body := http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return internal.NewValidationError("request body is required", internal.ErrCodeInvalidRequest)
		}
		return internal.NewValidationError("invalid request body", internal.ErrCodeInvalidRequest)
	}
	return nil
}

// ParseIDParam reads a positive integer chi URL parameter.
func ParseIDParam(r *http.Request, name string) (int64, *internal.AppError) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, internal.NewValidationError("invalid "+name, internal.ErrCodeInvalidID)
	}
	return id, nil
}

// ParseOptionalID reads an optional positive integer query parameter.
func ParseOptionalID(r *http.Request, name string) (*int64, *internal.AppError) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, internal.NewValidationError("invalid "+name, internal.ErrCodeInvalidID)
	}
	return &id, nil
}

// ParseOptionalFormID reads an optional positive integer form value.
func ParseOptionalFormID(r *http.Request, name string) (*int64, *internal.AppError) {
	raw := r.FormValue(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, internal.NewValidationError("invalid "+name, internal.ErrCodeInvalidID)
	}
	return &id, nil
}

// ParsePagination reads limit/offset with defaults and an upper bound.
func ParsePagination(r *http.Request) (limit, offset int) {
	limit = DefaultPageLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = min(v, MaxPageLimit)
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}

// CurrentUser returns the authenticated principal or an unauthorized error.
func CurrentUser(r *http.Request) (*internal.User, *internal.AppError) {
	user, ok := internal.UserFromContext(r.Context())
	if !ok {
		return nil, internal.ErrSessionInvalid
	}
	return user, nil
}
