package permission

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/frahmantamala/role-permission-api/internal"
	"github.com/frahmantamala/role-permission-api/internal/core/common/validation"
	rbacDatamodel "github.com/frahmantamala/role-permission-api/internal/core/datamodel/rbac"
)

// RepositoryAPI is the permission store. Lookups return (nil, nil) when nothing matches.
type RepositoryAPI interface {
	Transaction(ctx context.Context, fn func(repo RepositoryAPI) error) error
	GetAll(ctx context.Context) ([]*rbacDatamodel.Permission, error)
	GetByID(ctx context.Context, id int64) (*rbacDatamodel.Permission, error)
	GetByName(ctx context.Context, name string) (*rbacDatamodel.Permission, error)
	GetByNames(ctx context.Context, names []string) ([]*rbacDatamodel.Permission, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*rbacDatamodel.Permission, error)
	Create(ctx context.Context, permission *rbacDatamodel.Permission) error
	Update(ctx context.Context, permission *rbacDatamodel.Permission) error
	DeleteByIDs(ctx context.Context, ids []int64) error
}

type Service struct {
	repo         RepositoryAPI
	defaultGuard string
	logger       *slog.Logger
}

func NewService(repo RepositoryAPI, defaultGuard string, logger *slog.Logger) *Service {
	if defaultGuard == "" {
		defaultGuard = internal.DefaultGuardName
	}
	return &Service{
		repo:         repo,
		defaultGuard: defaultGuard,
		logger:       logger,
	}
}

func (s *Service) guardOrDefault(guard *string) string {
	if guard == nil || *guard == "" {
		return s.defaultGuard
	}
	return *guard
}

// CreateMany validates every item before writing any row, then creates them in one transaction.
func (s *Service) CreateMany(ctx context.Context, items []CreatePermissionDTO) ([]*Permission, error) {
	errs := internal.FieldErrors{}
	if len(items) == 0 {
		errs.Add("payload", "At least one permission is required.")
		return nil, internal.NewValidationError(errs)
	}

	indexByName := make(map[string]int, len(items))
	names := make([]string, 0, len(items))
	for i, item := range items {
		validation.Struct(strconv.Itoa(i), item, errs)

		field := validation.Key(i, "name")
		if errs.Has(field) {
			continue
		}
		if _, dup := indexByName[item.Name]; dup {
			errs.Add(field, validation.Duplicate(field))
			continue
		}
		indexByName[item.Name] = i
		names = append(names, item.Name)
	}

	if len(names) > 0 {
		existing, err := s.repo.GetByNames(ctx, names)
		if err != nil {
			s.logger.Error("failed to check permission names", "error", err)
			return nil, fmt.Errorf("check permission names: %w", err)
		}
		for _, row := range existing {
			field := validation.Key(indexByName[row.Name], "name")
			errs.Add(field, validation.Taken(field))
		}
	}

	if !errs.Empty() {
		s.logger.Warn("permission batch rejected", "errors", errs)
		return nil, internal.NewValidationError(errs)
	}

	created := make([]*Permission, 0, len(items))
	err := s.repo.Transaction(ctx, func(repo RepositoryAPI) error {
		for _, item := range items {
			row := ToDataModel(NewPermission(item.Name, s.guardOrDefault(item.GuardName)))
			if err := repo.Create(ctx, row); err != nil {
				return fmt.Errorf("create permission %q: %w", item.Name, err)
			}
			created = append(created, FromDataModel(row))
		}
		return nil
	})
	if err != nil {
		s.logger.Error("failed to create permissions", "error", err)
		return nil, err
	}

	s.logger.Info("permissions created", "count", len(created))
	return created, nil
}

func (s *Service) List(ctx context.Context) ([]*Permission, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to list permissions", "error", err)
		return nil, err
	}
	return FromDataModels(rows), nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Permission, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get permission", "error", err, "permission_id", id)
		return nil, err
	}
	if row == nil {
		return nil, internal.ErrPermissionNotFound
	}
	return FromDataModel(row), nil
}

// Rename changes only the name; renaming to the current name is allowed.
func (s *Service) Rename(ctx context.Context, id int64, dto UpdatePermissionDTO) (*Permission, error) {
	errs := internal.FieldErrors{}
	validation.Struct("", dto, errs)
	if !errs.Has("name") {
		holder, err := s.repo.GetByName(ctx, dto.Name)
		if err != nil {
			s.logger.Error("failed to check permission name", "error", err, "name", dto.Name)
			return nil, err
		}
		if holder != nil && holder.ID != id {
			errs.Add("name", validation.Taken("name"))
		}
	}
	if !errs.Empty() {
		return nil, internal.NewValidationError(errs)
	}

	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	current.Rename(dto.Name)
	row := ToDataModel(current)
	if err := s.repo.Update(ctx, row); err != nil {
		s.logger.Error("failed to rename permission", "error", err, "permission_id", id)
		return nil, err
	}

	s.logger.Info("permission renamed", "permission_id", id, "name", dto.Name)
	return FromDataModel(row), nil
}

// Delete removes the permission and its role assignments, returning the row as it was.
func (s *Service) Delete(ctx context.Context, id int64) (*Permission, error) {
	snapshot, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.DeleteByIDs(ctx, []int64{id}); err != nil {
		s.logger.Error("failed to delete permission", "error", err, "permission_id", id)
		return nil, err
	}

	s.logger.Info("permission deleted", "permission_id", id)
	return snapshot, nil
}

// DeleteMany deletes the permissions among ids that exist. Unknown ids are ignored unless none match.
func (s *Service) DeleteMany(ctx context.Context, dto DeletePermissionsDTO) ([]*Permission, error) {
	errs := internal.FieldErrors{}
	validation.Struct("", dto, errs)
	if !errs.Empty() {
		appErr := internal.NewValidationError(errs)
		appErr.Message = "No IDs provided."
		return nil, appErr
	}

	rows, err := s.repo.GetByIDs(ctx, dto.IDs)
	if err != nil {
		s.logger.Error("failed to load permissions for deletion", "error", err)
		return nil, err
	}
	if len(rows) == 0 {
		return nil, internal.ErrPermissionsNotFound
	}

	deleted := FromDataModels(rows)
	if err := s.repo.DeleteByIDs(ctx, IDs(deleted)); err != nil {
		s.logger.Error("failed to delete permissions", "error", err)
		return nil, err
	}

	s.logger.Info("permissions deleted", "requested", len(dto.IDs), "deleted", len(deleted))
	return deleted, nil
}
