package postgres

import (
	"context"
	"errors"

	rbacDatamodel "github.com/frahmantamala/role-permission-api/internal/core/datamodel/rbac"
	"github.com/frahmantamala/role-permission-api/internal/role"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) role.RepositoryAPI {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) Transaction(ctx context.Context, fn func(repo role.RepositoryAPI) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&RoleRepository{db: tx})
	})
}

func (r *RoleRepository) withPermissions(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Permissions", func(db *gorm.DB) *gorm.DB {
		return db.Order("permissions.id ASC")
	})
}

func (r *RoleRepository) GetAll(ctx context.Context) ([]*rbacDatamodel.Role, error) {
	var roles []*rbacDatamodel.Role
	err := r.withPermissions(ctx).Order("id ASC").Find(&roles).Error
	return roles, err
}

func (r *RoleRepository) GetByID(ctx context.Context, id int64) (*rbacDatamodel.Role, error) {
	var row rbacDatamodel.Role
	err := r.withPermissions(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *RoleRepository) GetByName(ctx context.Context, name string) (*rbacDatamodel.Role, error) {
	var row rbacDatamodel.Role
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *RoleRepository) GetByNames(ctx context.Context, names []string) ([]*rbacDatamodel.Role, error) {
	var roles []*rbacDatamodel.Role
	if len(names) == 0 {
		return roles, nil
	}
	err := r.db.WithContext(ctx).Where("name IN ?", names).Order("id ASC").Find(&roles).Error
	return roles, err
}

func (r *RoleRepository) Create(ctx context.Context, row *rbacDatamodel.Role) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(row).Error
}

func (r *RoleRepository) Update(ctx context.Context, row *rbacDatamodel.Role) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(row).Error
}

// Delete removes the role together with its join rows.
func (r *RoleRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", id).Delete(&rbacDatamodel.RolePermission{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&rbacDatamodel.Role{}).Error
	})
}

func (r *RoleRepository) PermissionIDs(ctx context.Context, roleID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&rbacDatamodel.RolePermission{}).
		Where("role_id = ?", roleID).
		Order("permission_id ASC").
		Pluck("permission_id", &ids).Error
	return ids, err
}

// AttachPermissions inserts the pairs in one statement. Pairs that already exist are left alone.
func (r *RoleRepository) AttachPermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	if len(permissionIDs) == 0 {
		return nil
	}
	rows := make([]rbacDatamodel.RolePermission, 0, len(permissionIDs))
	for _, id := range permissionIDs {
		rows = append(rows, rbacDatamodel.RolePermission{RoleID: roleID, PermissionID: id})
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func (r *RoleRepository) DetachPermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	if len(permissionIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("role_id = ? AND permission_id IN ?", roleID, permissionIDs).
		Delete(&rbacDatamodel.RolePermission{}).Error
}
