package permission

import (
	"time"

	rbacDatamodel "github.com/frahmantamala/role-permission-api/internal/core/datamodel/rbac"
)

const LogName = "Permission"

type Permission struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	GuardName string    `json:"guard_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewPermission(name, guardName string) *Permission {
	now := time.Now()
	return &Permission{
		Name:      name,
		GuardName: guardName,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (p *Permission) Rename(name string) {
	p.Name = name
	p.UpdatedAt = time.Now()
}

func ToDataModel(p *Permission) *rbacDatamodel.Permission {
	return &rbacDatamodel.Permission{
		ID:        p.ID,
		Name:      p.Name,
		GuardName: p.GuardName,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func FromDataModel(p *rbacDatamodel.Permission) *Permission {
	return &Permission{
		ID:        p.ID,
		Name:      p.Name,
		GuardName: p.GuardName,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func FromDataModels(rows []*rbacDatamodel.Permission) []*Permission {
	perms := make([]*Permission, 0, len(rows))
	for _, row := range rows {
		perms = append(perms, FromDataModel(row))
	}
	return perms
}

// Names returns the permission names in slice order.
func Names(perms []*Permission) []string {
	names := make([]string, 0, len(perms))
	for _, p := range perms {
		names = append(names, p.Name)
	}
	return names
}

// IDs returns the permission ids in slice order.
func IDs(perms []*Permission) []int64 {
	ids := make([]int64, 0, len(perms))
	for _, p := range perms {
		ids = append(ids, p.ID)
	}
	return ids
}
