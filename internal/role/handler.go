package role

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/frahmantamala/role-permission-api/internal"
	"github.com/frahmantamala/role-permission-api/internal/activitylog"
	"github.com/frahmantamala/role-permission-api/internal/permission"
	"github.com/frahmantamala/role-permission-api/internal/transport"
)

type ServiceAPI interface {
	CreateMany(ctx context.Context, items []CreateRoleDTO) ([]*Role, error)
	List(ctx context.Context) ([]*Role, error)
	GetByID(ctx context.Context, id int64) (*Role, error)
	UpdateMetadata(ctx context.Context, id int64, dto UpdateRoleDTO) (*Role, error)
	UpdateWithPermissions(ctx context.Context, id int64, dto UpdateRoleWithPermissionsDTO) (*Role, error)
	Grant(ctx context.Context, id int64, dto GrantPermissionsDTO) (*Role, error)
	Revoke(ctx context.Context, id int64, dto RevokePermissionsDTO) (*Role, []*permission.Permission, error)
	Delete(ctx context.Context, id int64) (*Role, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Audit   permission.AuditRecorder
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI, audit permission.AuditRecorder) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
		Audit:       audit,
	}
}

type syncedRole struct {
	*Summary
	UpdatedAt time.Time `json:"updated_at"`
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
			h.record(r, "Role Not Found", "Failed to "+action, props)
		case internal.ErrorTypeValidation:
			props["errors"] = appErr.Details()
			h.record(r, "Role Validation Failed", "Rejected invalid input to "+action, props)
		}
	}
	h.WriteAppError(w, r, err)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, key, action string, notFound error) (int64, bool) {
	id, raw, ok := h.PathID(r, key)
	if !ok {
		h.reject(w, r, notFound, fmt.Sprintf("%s with ID: %s", action, raw), nil)
	}
	return id, ok
}

func (h *Handler) CreateRoles(w http.ResponseWriter, r *http.Request) {
	var items []CreateRoleDTO
	if appErr := h.DecodeJSON(r, &items); appErr != nil {
		h.reject(w, r, appErr, "create roles", nil)
		return
	}

	created, err := h.Service.CreateMany(r.Context(), items)
	if err != nil {
		h.reject(w, r, err, "create roles", nil)
		return
	}

	h.record(r, "Roles Created", "Created roles with permissions.", map[string]interface{}{
		"roles": created,
	})
	h.WriteSuccess(w, http.StatusCreated, "Roles created successfully.", Summaries(created))
}

func (h *Handler) GetAllRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.Service.List(r.Context())
	if err != nil {
		h.reject(w, r, err, "retrieve roles", nil)
		return
	}

	h.record(r, "Roles Retrieved", "Retrieved all roles with permissions", map[string]interface{}{
		"role_count": len(roles),
	})
	h.WriteSuccess(w, http.StatusOK, "Roles retrieved successfully.", Summaries(roles))
}

func (h *Handler) GetRolesWithPermissions(w http.ResponseWriter, r *http.Request) {
	roles, err := h.Service.List(r.Context())
	if err != nil {
		h.reject(w, r, err, "retrieve roles", nil)
		return
	}

	h.record(r, "Roles Retrieved with Permissions", "Retrieved all roles with permissions", map[string]interface{}{
		"roles_count": len(roles),
	})
	h.WriteSuccess(w, http.StatusOK, "Roles retrieved successfully.", roles)
}

func (h *Handler) GetRoleByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id", "retrieve role", internal.ErrRoleNotFound)
	if !ok {
		return
	}

	found, err := h.Service.GetByID(r.Context(), id)
	if err != nil {
		h.reject(w, r, err, fmt.Sprintf("retrieve role with ID: %d", id), map[string]interface{}{
			"role_id": id,
		})
		return
	}

	h.record(r, "Role Retrieved", fmt.Sprintf("Retrieved role with ID: %d", id), map[string]interface{}{
		"role_details": found,
	})
	h.WriteSuccess(w, http.StatusOK, "Role details retrieved successfully.", found.Summary())
}

func (h *Handler) GetRoleWithPermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id", "retrieve role", internal.ErrRoleNotFound)
	if !ok {
		return
	}

	found, err := h.Service.GetByID(r.Context(), id)
	if err != nil {
		h.reject(w, r, err, fmt.Sprintf("retrieve role with ID: %d", id), map[string]interface{}{
			"role_id": id,
		})
		return
	}

	h.record(r, "Role Retrieved with Permissions", fmt.Sprintf("Retrieved role with ID: %d", id), map[string]interface{}{
		"role": found,
	})
	h.WriteSuccess(w, http.StatusOK, "Role retrieved successfully.", found)
}

func (h *Handler) AssignPermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id", "find role", internal.ErrRoleNotFound)
	if !ok {
		return
	}

	var dto GrantPermissionsDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.reject(w, r, appErr, fmt.Sprintf("assign permissions to role with ID: %d", id), nil)
		return
	}

	granted, err := h.Service.Grant(r.Context(), id, dto)
	if err != nil {
		h.reject(w, r, err, fmt.Sprintf("assign permissions to role with ID: %d", id), map[string]interface{}{
			"role_id":     id,
			"permissions": dto.Permissions,
		})
		return
	}

	h.record(r, "Permissions Assigned to Role", "Assigned permissions to role", map[string]interface{}{
		"role_id":     granted.ID,
		"permissions": dto.Permissions,
	})
	h.WriteSuccess(w, http.StatusOK, "Permissions assigned successfully.", granted.Summary())
}

func (h *Handler) DetachPermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "role_id", "find role", internal.ErrRoleNotFoundBare)
	if !ok {
		return
	}

	var dto RevokePermissionsDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.reject(w, r, appErr, fmt.Sprintf("detach permissions from role with ID: %d", id), nil)
		return
	}

	revoked, detached, err := h.Service.Revoke(r.Context(), id, dto)
	if err != nil {
		h.reject(w, r, err, fmt.Sprintf("detach permissions from role with ID: %d", id), map[string]interface{}{
			"role_id":     id,
			"permissions": dto.Permissions,
		})
		return
	}

	h.record(r, "Permissions Detached", "Detached permissions from role.", map[string]interface{}{
		"role":                 revoked.Name,
		"detached_permissions": permission.Names(detached),
	})
	h.WriteSuccess(w, http.StatusOK, "Permissions detached successfully.", nil)
}

func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id", "find role", internal.ErrRoleNotFound)
	if !ok {
		return
	}

	var dto UpdateRoleDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.reject(w, r, appErr, fmt.Sprintf("update role with ID: %d", id), nil)
		return
	}

	updated, err := h.Service.UpdateMetadata(r.Context(), id, dto)
	if err != nil {
		h.reject(w, r, err, fmt.Sprintf("find role with ID: %d", id), map[string]interface{}{
			"role_id": id,
		})
		return
	}

	h.record(r, "Role Updated", "Updated role details", map[string]interface{}{
		"role_details": updated.Details(),
	})
	h.WriteSuccess(w, http.StatusOK, "Role updated successfully.", updated.Details())
}

func (h *Handler) UpdateRoleWithPermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id", "find role", internal.ErrRoleNotFound)
	if !ok {
		return
	}

	var dto UpdateRoleWithPermissionsDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.reject(w, r, appErr, fmt.Sprintf("update role with ID: %d", id), nil)
		return
	}

	updated, err := h.Service.UpdateWithPermissions(r.Context(), id, dto)
	if err != nil {
		h.reject(w, r, err, fmt.Sprintf("find role with ID: %d", id), map[string]interface{}{
			"role_id": id,
		})
		return
	}

	h.record(r, "Role Updated with Permissions", "Updated role and permissions", map[string]interface{}{
		"role_details": updated.Details(),
		"permissions":  updated.PermissionNames(),
	})
	h.WriteSuccess(w, http.StatusOK, "Role updated and permissions updated successfully.", syncedRole{
		Summary:   updated.Summary(),
		UpdatedAt: updated.UpdatedAt,
	})
}

func (h *Handler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id", "delete role", internal.ErrRoleNotFound)
	if !ok {
		return
	}

	if _, err := h.Service.Delete(r.Context(), id); err != nil {
		h.reject(w, r, err, fmt.Sprintf("delete role with ID: %d", id), map[string]interface{}{
			"role_id": id,
		})
		return
	}

	h.record(r, "Role Deleted", fmt.Sprintf("Deleted role with ID: %d", id), map[string]interface{}{
		"role_id": id,
	})
	h.WriteSuccess(w, http.StatusOK, "Role deleted successfully.", nil)
}
