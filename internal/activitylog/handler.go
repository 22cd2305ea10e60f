package activitylog

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/frahmantamala/role-permission-api/internal/core/common/validation"
	"github.com/frahmantamala/role-permission-api/internal/transport"
	"github.com/go-chi/chi"
)

const dateLayout = "2006-01-02"

type ServiceAPI interface {
	List(ctx context.Context, limit, offset int) ([]*ActivityLog, error)
	ListByLogName(ctx context.Context, logName string, limit, offset int) ([]*ActivityLog, error)
	ListByDateRange(ctx context.Context, start, end time.Time, limit, offset int) ([]*ActivityLog, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func pagination(r *http.Request) (limit, offset int) {
	limit = DefaultLimit

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= MaxLimit {
			limit = l
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}
	return limit, offset
}

func (h *Handler) GetAllLogs(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	logs, err := h.Service.List(r.Context(), limit, offset)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteSuccess(w, http.StatusOK, "Activity logs retrieved successfully.", logs)
}

func (h *Handler) GetLogsByLogName(w http.ResponseWriter, r *http.Request) {
	logName := chi.URLParam(r, "log_name")
	limit, offset := pagination(r)

	logs, err := h.Service.ListByLogName(r.Context(), logName, limit, offset)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteSuccess(w, http.StatusOK, "Activity logs retrieved successfully.", logs)
}

func (h *Handler) GetLogsByDateRange(w http.ResponseWriter, r *http.Request) {
	startRaw := r.URL.Query().Get("start_date")
	endRaw := r.URL.Query().Get("end_date")

	v := validation.NewValidator()
	v.Field("start_date", startRaw).Required().Date(dateLayout)
	v.Field("end_date", endRaw).Required().Date(dateLayout).Custom(func(value interface{}) string {
		start, errStart := time.Parse(dateLayout, startRaw)
		end, errEnd := time.Parse(dateLayout, value.(string))
		if errStart == nil && errEnd == nil && end.Before(start) {
			return "The end_date field must be a date after or equal to start_date."
		}
		return ""
	})
	if appErr := v.Validate(); appErr != nil {
		h.WriteAppError(w, r, appErr)
		return
	}

	start, _ := time.Parse(dateLayout, startRaw)
	end, _ := time.Parse(dateLayout, endRaw)
	limit, offset := pagination(r)

	logs, err := h.Service.ListByDateRange(r.Context(), start, end, limit, offset)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteSuccess(w, http.StatusOK, "Activity logs retrieved successfully.", logs)
}
