package postgres

import (
	"context"
	"errors"

	rbacDatamodel "github.com/frahmantamala/role-permission-api/internal/core/datamodel/rbac"
	"github.com/frahmantamala/role-permission-api/internal/permission"
	"gorm.io/gorm"
)

type PermissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) permission.RepositoryAPI {
	return &PermissionRepository{db: db}
}

func (r *PermissionRepository) Transaction(ctx context.Context, fn func(repo permission.RepositoryAPI) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PermissionRepository{db: tx})
	})
}

func (r *PermissionRepository) GetAll(ctx context.Context) ([]*rbacDatamodel.Permission, error) {
	var perms []*rbacDatamodel.Permission
	err := r.db.WithContext(ctx).Order("id ASC").Find(&perms).Error
	return perms, err
}

func (r *PermissionRepository) GetByID(ctx context.Context, id int64) (*rbacDatamodel.Permission, error) {
	var p rbacDatamodel.Permission
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PermissionRepository) GetByName(ctx context.Context, name string) (*rbacDatamodel.Permission, error) {
	var p rbacDatamodel.Permission
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PermissionRepository) GetByNames(ctx context.Context, names []string) ([]*rbacDatamodel.Permission, error) {
	var perms []*rbacDatamodel.Permission
	if len(names) == 0 {
		return perms, nil
	}
	err := r.db.WithContext(ctx).Where("name IN ?", names).Order("id ASC").Find(&perms).Error
	return perms, err
}

func (r *PermissionRepository) GetByIDs(ctx context.Context, ids []int64) ([]*rbacDatamodel.Permission, error) {
	var perms []*rbacDatamodel.Permission
	if len(ids) == 0 {
		return perms, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&perms).Error
	return perms, err
}

func (r *PermissionRepository) Create(ctx context.Context, p *rbacDatamodel.Permission) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PermissionRepository) Update(ctx context.Context, p *rbacDatamodel.Permission) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// DeleteByIDs removes the permissions together with every role assignment that references them.
func (r *PermissionRepository) DeleteByIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("permission_id IN ?", ids).Delete(&rbacDatamodel.RolePermission{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&rbacDatamodel.Permission{}).Error
	})
}
