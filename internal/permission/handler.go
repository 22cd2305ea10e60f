package permission

import (
	"context"
	"fmt"
	"net/http"

	"github.com/frahmantamala/role-permission-api/internal"
	"github.com/frahmantamala/role-permission-api/internal/activitylog"
	"github.com/frahmantamala/role-permission-api/internal/transport"
)

type ServiceAPI interface {
	CreateMany(ctx context.Context, items []CreatePermissionDTO) ([]*Permission, error)
	List(ctx context.Context) ([]*Permission, error)
	GetByID(ctx context.Context, id int64) (*Permission, error)
	Rename(ctx context.Context, id int64, dto UpdatePermissionDTO) (*Permission, error)
	Delete(ctx context.Context, id int64) (*Permission, error)
	DeleteMany(ctx context.Context, dto DeletePermissionsDTO) ([]*Permission, error)
}

// AuditRecorder receives one entry per handled request.
type AuditRecorder interface {
	Record(ctx context.Context, entry activitylog.Entry)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Audit   AuditRecorder
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI, audit AuditRecorder) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
		Audit:       audit,
	}
}

func (h *Handler) record(r *http.Request, event, description string, props map[string]interface{}) {
	h.Audit.Record(r.Context(), activitylog.Entry{
		LogName:     LogName,
		Event:       event,
		Description: description,
		Actor:       activitylog.ActorFromRequest(r),
		Properties:  props,
	})
}

// reject writes err and records not-found and validation outcomes. Unexpected failures are only logged.
func (h *Handler) reject(w http.ResponseWriter, r *http.Request, err error, action string, props map[string]interface{}) {
	if props == nil {
		props = map[string]interface{}{}
	}
	if appErr, ok := internal.IsAppError(err); ok {
		switch appErr.Type {
		case internal.ErrorTypeNotFound:
			h.record(r, "Permission Not Found", "Failed to "+action, props)
		case internal.ErrorTypeValidation:
			props["errors"] = appErr.Details()
			h.record(r, "Permission Validation Failed", "Rejected invalid input to "+action, props)
		}
	}
	h.WriteAppError(w, r, err)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, action string) (int64, bool) {
	id, raw, ok := h.PathID(r, "id")
	if !ok {
		h.reject(w, r, internal.ErrPermissionNotFound, fmt.Sprintf("%s with ID: %s", action, raw), nil)
	}
	return id, ok
}

func (h *Handler) CreatePermissions(w http.ResponseWriter, r *http.Request) {
	var items []CreatePermissionDTO
	if appErr := h.DecodeJSON(r, &items); appErr != nil {
		h.reject(w, r, appErr, "create permissions", nil)
		return
	}

	created, err := h.Service.CreateMany(r.Context(), items)
	if err != nil {
		h.reject(w, r, err, "create permissions", nil)
		return
	}

	h.record(r, "Permissions Created", "Created permissions.", map[string]interface{}{
		"permissions": created,
	})
	h.WriteSuccess(w, http.StatusCreated, "Permissions created successfully.", created)
}

func (h *Handler) GetAllPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.Service.List(r.Context())
	if err != nil {
		h.reject(w, r, err, "retrieve permissions", nil)
		return
	}

	h.record(r, "Permissions Retrieved", "Retrieved all permissions.", map[string]interface{}{
		"permissions_count": len(perms),
	})
	h.WriteSuccess(w, http.StatusOK, "Permissions retrieved successfully.", perms)
}

func (h *Handler) GetPermissionByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "retrieve permission")
	if !ok {
		return
	}

	perm, err := h.Service.GetByID(r.Context(), id)
	if err != nil {
		h.reject(w, r, err, fmt.Sprintf("retrieve permission with ID: %d", id), map[string]interface{}{
			"permission_id": id,
			"found":         false,
		})
		return
	}

	h.record(r, "Permission Retrieved", fmt.Sprintf("Retrieved permission with ID: %d", id), map[string]interface{}{
		"permission_id": id,
		"found":         true,
		"permission":    perm,
	})
	h.WriteSuccess(w, http.StatusOK, "Permission retrieved successfully.", perm)
}

func (h *Handler) UpdatePermission(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "find permission")
	if !ok {
		return
	}

	var dto UpdatePermissionDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.reject(w, r, appErr, fmt.Sprintf("update permission with ID: %d", id), nil)
		return
	}

	perm, err := h.Service.Rename(r.Context(), id, dto)
	if err != nil {
		h.reject(w, r, err, fmt.Sprintf("find permission with ID: %d", id), map[string]interface{}{
			"permission_id": id,
		})
		return
	}

	h.record(r, "Permission Updated", "Updated permission name to: "+perm.Name, map[string]interface{}{
		"permission_id": perm.ID,
		"new_name":      perm.Name,
	})
	h.WriteSuccess(w, http.StatusOK, "Permission updated successfully.", perm)
}

func (h *Handler) DeletePermission(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "delete permission")
	if !ok {
		return
	}

	deleted, err := h.Service.Delete(r.Context(), id)
	if err != nil {
		h.reject(w, r, err, fmt.Sprintf("delete permission with ID: %d", id), map[string]interface{}{
			"permission_id": id,
		})
		return
	}

	h.record(r, "Permission Deleted", "Deleted a permission.", map[string]interface{}{
		"permission_details": deleted,
	})
	h.WriteSuccess(w, http.StatusOK, "Permission deleted successfully.", nil)
}

func (h *Handler) DeletePermissions(w http.ResponseWriter, r *http.Request) {
	var dto DeletePermissionsDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.reject(w, r, appErr, "delete permissions", nil)
		return
	}

	deleted, err := h.Service.DeleteMany(r.Context(), dto)
	if err != nil {
		h.reject(w, r, err, "delete permissions", map[string]interface{}{
			"ids": dto.IDs,
		})
		return
	}

	h.record(r, "Permissions Deleted", "Deleted multiple permissions.", map[string]interface{}{
		"permission_details": deleted,
		"requested_ids":      dto.IDs,
	})
	h.WriteSuccess(w, http.StatusOK, "Permissions deleted successfully.", nil)
}
