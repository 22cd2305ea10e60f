package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/frahmantamala/role-permission-api/internal"
	"github.com/frahmantamala/role-permission-api/pkg/logger"
	"github.com/go-chi/chi"
)

// Meta mirrors the HTTP status of an envelope.
type Meta struct {
	Code    int    `json:"code"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Envelope is the body of every API response.
type Envelope struct {
	Meta   Meta        `json:"meta"`
	Result interface{} `json:"result"`
	Errors interface{} `json:"errors"`
}

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
		if lg == nil {
			lg = slog.Default()
		}
	}
	return &BaseHandler{Logger: lg}
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteEnvelope writes the {meta,result,errors} body. Nil results and errors render as [].
func (h *BaseHandler) WriteEnvelope(w http.ResponseWriter, status int, message string, result, errs interface{}) {
	h.WriteJSON(w, status, Envelope{
		Meta: Meta{
			Code:    status,
			Success: status < http.StatusBadRequest,
			Message: message,
		},
		Result: orEmptyList(result),
		Errors: orEmptyList(errs),
	})
}

// WriteSuccess writes a successful envelope with an empty errors list.
func (h *BaseHandler) WriteSuccess(w http.ResponseWriter, status int, message string, result interface{}) {
	h.WriteEnvelope(w, status, message, result, nil)
}

// WriteError writes a failure envelope without field detail.
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	h.Logger.Error("http error", "status", status, "message", message)
	h.WriteEnvelope(w, status, message, nil, nil)
}

// WriteAppError renders err as an envelope. Anything that is not an *internal.AppError is an
// unexpected failure and becomes a 500 carrying the error text.
func (h *BaseHandler) WriteAppError(w http.ResponseWriter, r *http.Request, err error) {
	lg := logger.FromOr(r.Context(), h.Logger)

	appErr, ok := internal.IsAppError(err)
	if !ok {
		appErr = internal.NewInternalError("Server error.", err)
	}

	switch appErr.Type {
	case internal.ErrorTypeInternal:
		lg.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	default:
		lg.Warn("request rejected", "method", r.Method, "path", r.URL.Path, "status", appErr.StatusCode, "error", appErr.GetDetailedMessage())
	}

	h.WriteEnvelope(w, appErr.StatusCode, appErr.Message, nil, appErr.Details())
}

// DecodeJSON reads the request body into dst. A malformed body is reported as a validation error.
func (h *BaseHandler) DecodeJSON(r *http.Request, dst interface{}) *internal.AppError {
	if r.Body == nil {
		return internal.NewValidationFieldError("payload", "The request body is required.")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return internal.NewValidationFieldError("payload", "The request body must be valid JSON: "+err.Error())
	}
	return nil
}

// PathID parses a numeric chi URL parameter. ok is false when the segment is not a positive integer.
func (h *BaseHandler) PathID(r *http.Request, key string) (id int64, raw string, ok bool) {
	raw = chi.URLParam(r, key)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, raw, false
	}
	return id, raw, true
}

// ExtractTokenFromHeader extracts Bearer token from Authorization header
func (h *BaseHandler) ExtractTokenFromHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if len(authHeader) < 7 || !strings.EqualFold(authHeader[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(authHeader[7:])
}

func orEmptyList(v interface{}) interface{} {
	if v == nil {
		return []interface{}{}
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Ptr:
		if rv.IsNil() {
			return []interface{}{}
		}
	}
	return v
}
