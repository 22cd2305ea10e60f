package role

import (
	"time"

	rbacDatamodel "github.com/frahmantamala/role-permission-api/internal/core/datamodel/rbac"
	"github.com/frahmantamala/role-permission-api/internal/permission"
)

const LogName = "Role"

// Role is a named bundle of permissions. Permissions is loaded by every service read.
type Role struct {
	ID          int64                    `json:"id"`
	Name        string                   `json:"name"`
	GuardName   string                   `json:"guard_name"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
	Permissions []*permission.Permission `json:"permissions"`
}

// Summary is a role with its permissions reduced to names.
type Summary struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// Details is a role without its permission set.
type Details struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	GuardName string    `json:"guard_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewRole(name, guardName string) *Role {
	now := time.Now()
	return &Role{
		Name:        name,
		GuardName:   guardName,
		CreatedAt:   now,
		UpdatedAt:   now,
		Permissions: []*permission.Permission{},
	}
}

// UpdateMetadata renames the role. A nil guard keeps the current one.
func (r *Role) UpdateMetadata(name string, guardName *string) {
	r.Name = name
	if guardName != nil && *guardName != "" {
		r.GuardName = *guardName
	}
	r.UpdatedAt = time.Now()
}

func (r *Role) PermissionNames() []string {
	return permission.Names(r.Permissions)
}

func (r *Role) Summary() *Summary {
	return &Summary{
		ID:          r.ID,
		Name:        r.Name,
		Permissions: r.PermissionNames(),
	}
}

func (r *Role) Details() *Details {
	return &Details{
		ID:        r.ID,
		Name:      r.Name,
		GuardName: r.GuardName,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func Summaries(roles []*Role) []*Summary {
	out := make([]*Summary, 0, len(roles))
	for _, r := range roles {
		out = append(out, r.Summary())
	}
	return out
}

// ToDataModel converts the role row only; the permission set is written through the join table.
func ToDataModel(r *Role) *rbacDatamodel.Role {
	return &rbacDatamodel.Role{
		ID:        r.ID,
		Name:      r.Name,
		GuardName: r.GuardName,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func FromDataModel(row *rbacDatamodel.Role) *Role {
	perms := make([]*permission.Permission, 0, len(row.Permissions))
	for i := range row.Permissions {
		perms = append(perms, permission.FromDataModel(&row.Permissions[i]))
	}
	return &Role{
		ID:          row.ID,
		Name:        row.Name,
		GuardName:   row.GuardName,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
		Permissions: perms,
	}
}

func FromDataModels(rows []*rbacDatamodel.Role) []*Role {
	roles := make([]*Role, 0, len(rows))
	for _, row := range rows {
		roles = append(roles, FromDataModel(row))
	}
	return roles
}
