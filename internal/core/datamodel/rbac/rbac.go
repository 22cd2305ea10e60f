package rbac

import (
	"time"

	"gorm.io/gorm"
)

type Permission struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"column:name;size:255;not null;uniqueIndex:idx_permissions_name_guard"`
	GuardName string    `gorm:"column:guard_name;size:255;not null;default:web;uniqueIndex:idx_permissions_name_guard"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Permission) TableName() string {
	return "permissions"
}

type Role struct {
	ID          int64        `gorm:"primaryKey"`
	Name        string       `gorm:"column:name;size:255;not null;uniqueIndex:idx_roles_name_guard"`
	GuardName   string       `gorm:"column:guard_name;size:255;not null;default:web;uniqueIndex:idx_roles_name_guard"`
	CreatedAt   time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time    `gorm:"column:updated_at;autoUpdateTime"`
	Permissions []Permission `gorm:"many2many:role_has_permissions;"`
}

func (Role) TableName() string {
	return "roles"
}

// RolePermission is one row of the role↔permission join. The composite key keeps pairs unique.
type RolePermission struct {
	RoleID       int64 `gorm:"column:role_id;primaryKey;autoIncrement:false"`
	PermissionID int64 `gorm:"column:permission_id;primaryKey;autoIncrement:false"`
}

func (RolePermission) TableName() string {
	return "role_has_permissions"
}

// AutoMigrate creates the RBAC tables through gorm. Production schemas come from db/migrations;
// this is used for throwaway databases.
func AutoMigrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&Role{}, "Permissions", &RolePermission{}); err != nil {
		return err
	}
	return db.AutoMigrate(&Permission{}, &Role{}, &RolePermission{})
}
