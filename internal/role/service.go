package role

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/frahmantamala/role-permission-api/internal"
	"github.com/frahmantamala/role-permission-api/internal/core/common/validation"
	rbacDatamodel "github.com/frahmantamala/role-permission-api/internal/core/datamodel/rbac"
	"github.com/frahmantamala/role-permission-api/internal/permission"
)

// RepositoryAPI is the role store. Reads preload the permission set; lookups return (nil, nil) when
// nothing matches.
type RepositoryAPI interface {
	Transaction(ctx context.Context, fn func(repo RepositoryAPI) error) error
	GetAll(ctx context.Context) ([]*rbacDatamodel.Role, error)
	GetByID(ctx context.Context, id int64) (*rbacDatamodel.Role, error)
	GetByName(ctx context.Context, name string) (*rbacDatamodel.Role, error)
	GetByNames(ctx context.Context, names []string) ([]*rbacDatamodel.Role, error)
	Create(ctx context.Context, role *rbacDatamodel.Role) error
	Update(ctx context.Context, role *rbacDatamodel.Role) error
	Delete(ctx context.Context, id int64) error
	PermissionIDs(ctx context.Context, roleID int64) ([]int64, error)
	AttachPermissions(ctx context.Context, roleID int64, permissionIDs []int64) error
	DetachPermissions(ctx context.Context, roleID int64, permissionIDs []int64) error
}

// PermissionLookup resolves permission references. permission.RepositoryAPI satisfies it.
type PermissionLookup interface {
	GetByNames(ctx context.Context, names []string) ([]*rbacDatamodel.Permission, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*rbacDatamodel.Permission, error)
}

type Service struct {
	repo         RepositoryAPI
	permissions  PermissionLookup
	defaultGuard string
	logger       *slog.Logger
}

func NewService(repo RepositoryAPI, permissions PermissionLookup, defaultGuard string, logger *slog.Logger) *Service {
	if defaultGuard == "" {
		defaultGuard = internal.DefaultGuardName
	}
	return &Service{
		repo:         repo,
		permissions:  permissions,
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

// CreateMany validates every item, then creates the roles and their permission sets in one transaction.
func (s *Service) CreateMany(ctx context.Context, items []CreateRoleDTO) ([]*Role, error) {
	errs := internal.FieldErrors{}
	if len(items) == 0 {
		errs.Add("payload", "At least one role is required.")
		return nil, internal.NewValidationError(errs)
	}

	indexByName := make(map[string]int, len(items))
	names := make([]string, 0, len(items))
	var permNames []string
	for i, item := range items {
		validation.Struct(strconv.Itoa(i), item, errs)
		permNames = append(permNames, item.Permissions...)

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
			s.logger.Error("failed to check role names", "error", err)
			return nil, fmt.Errorf("check role names: %w", err)
		}
		for _, row := range existing {
			field := validation.Key(indexByName[row.Name], "name")
			errs.Add(field, validation.Taken(field))
		}
	}

	idByName, err := s.permissionIDsByName(ctx, permNames)
	if err != nil {
		return nil, err
	}
	for i, item := range items {
		markUnknownNames(validation.Key(i, "permissions"), item.Permissions, idByName, errs)
	}

	if !errs.Empty() {
		s.logger.Warn("role batch rejected", "errors", errs)
		return nil, internal.NewValidationError(errs)
	}

	created := make([]*Role, 0, len(items))
	err = s.repo.Transaction(ctx, func(repo RepositoryAPI) error {
		for _, item := range items {
			row := ToDataModel(NewRole(item.Name, s.guardOrDefault(item.GuardName)))
			if err := repo.Create(ctx, row); err != nil {
				return fmt.Errorf("create role %q: %w", item.Name, err)
			}

			desired := make([]int64, 0, len(item.Permissions))
			for _, name := range item.Permissions {
				desired = append(desired, idByName[name])
			}
			if err := synchronize(ctx, repo, row.ID, desired); err != nil {
				return err
			}

			loaded, err := repo.GetByID(ctx, row.ID)
			if err != nil {
				return fmt.Errorf("reload role %d: %w", row.ID, err)
			}
			created = append(created, FromDataModel(loaded))
		}
		return nil
	})
	if err != nil {
		s.logger.Error("failed to create roles", "error", err)
		return nil, err
	}

	s.logger.Info("roles created", "count", len(created))
	return created, nil
}

func (s *Service) List(ctx context.Context) ([]*Role, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to list roles", "error", err)
		return nil, err
	}
	return FromDataModels(rows), nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Role, error) {
	row, err := s.find(ctx, s.repo, id, internal.ErrRoleNotFound)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

// UpdateMetadata changes name and guard. The permission set is untouched.
func (s *Service) UpdateMetadata(ctx context.Context, id int64, dto UpdateRoleDTO) (*Role, error) {
	errs := internal.FieldErrors{}
	validation.Struct("", dto, errs)
	if err := s.checkNameFree(ctx, id, dto.Name, errs); err != nil {
		return nil, err
	}
	if !errs.Empty() {
		return nil, internal.NewValidationError(errs)
	}

	row, err := s.find(ctx, s.repo, id, internal.ErrRoleNotFound)
	if err != nil {
		return nil, err
	}

	current := FromDataModel(row)
	current.UpdateMetadata(dto.Name, dto.GuardName)
	if err := s.repo.Update(ctx, ToDataModel(current)); err != nil {
		s.logger.Error("failed to update role", "error", err, "role_id", id)
		return nil, err
	}

	s.logger.Info("role updated", "role_id", id, "name", current.Name)
	return current, nil
}

// UpdateWithPermissions updates the metadata and replaces the permission set in one transaction.
func (s *Service) UpdateWithPermissions(ctx context.Context, id int64, dto UpdateRoleWithPermissionsDTO) (*Role, error) {
	errs := internal.FieldErrors{}
	validation.Struct("", dto, errs)
	if err := s.checkNameFree(ctx, id, dto.Name, errs); err != nil {
		return nil, err
	}
	if _, err := s.checkPermissionIDs(ctx, "permissions", dto.Permissions, errs); err != nil {
		return nil, err
	}
	if !errs.Empty() {
		return nil, internal.NewValidationError(errs)
	}

	var updated *Role
	err := s.repo.Transaction(ctx, func(repo RepositoryAPI) error {
		row, err := s.find(ctx, repo, id, internal.ErrRoleNotFound)
		if err != nil {
			return err
		}

		current := FromDataModel(row)
		current.UpdateMetadata(dto.Name, dto.GuardName)
		if err := repo.Update(ctx, ToDataModel(current)); err != nil {
			return fmt.Errorf("update role %d: %w", id, err)
		}
		if err := synchronize(ctx, repo, id, dto.Permissions); err != nil {
			return err
		}

		loaded, err := repo.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("reload role %d: %w", id, err)
		}
		updated = FromDataModel(loaded)
		return nil
	})
	if err != nil {
		if !internal.IsNotFound(err) {
			s.logger.Error("failed to update role permissions", "error", err, "role_id", id)
		}
		return nil, err
	}

	s.logger.Info("role permissions synchronized", "role_id", id, "permissions", len(updated.Permissions))
	return updated, nil
}

// Grant adds the named permissions. Permissions already held are skipped.
func (s *Service) Grant(ctx context.Context, id int64, dto GrantPermissionsDTO) (*Role, error) {
	errs := internal.FieldErrors{}
	validation.Struct("", dto, errs)
	idByName, err := s.permissionIDsByName(ctx, dto.Permissions)
	if err != nil {
		return nil, err
	}
	markUnknownNames("permissions", dto.Permissions, idByName, errs)
	if !errs.Empty() {
		return nil, internal.NewValidationError(errs)
	}

	requested := make([]int64, 0, len(dto.Permissions))
	for _, name := range dto.Permissions {
		requested = append(requested, idByName[name])
	}

	var granted *Role
	err = s.repo.Transaction(ctx, func(repo RepositoryAPI) error {
		if _, err := s.find(ctx, repo, id, internal.ErrRoleNotFound); err != nil {
			return err
		}
		if err := grant(ctx, repo, id, requested); err != nil {
			return err
		}

		loaded, err := repo.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("reload role %d: %w", id, err)
		}
		granted = FromDataModel(loaded)
		return nil
	})
	if err != nil {
		if !internal.IsNotFound(err) {
			s.logger.Error("failed to grant permissions", "error", err, "role_id", id)
		}
		return nil, err
	}

	s.logger.Info("permissions granted", "role_id", id, "requested", len(requested))
	return granted, nil
}

// Revoke removes the given permission ids from the role. Ids the role does not hold are skipped.
// It returns the role as it is afterwards and the permissions that were requested.
func (s *Service) Revoke(ctx context.Context, id int64, dto RevokePermissionsDTO) (*Role, []*permission.Permission, error) {
	errs := internal.FieldErrors{}
	validation.Struct("", dto, errs)
	requested, err := s.checkPermissionIDs(ctx, "permissions", dto.Permissions, errs)
	if err != nil {
		return nil, nil, err
	}
	if !errs.Empty() {
		return nil, nil, internal.NewValidationError(errs)
	}

	var revoked *Role
	err = s.repo.Transaction(ctx, func(repo RepositoryAPI) error {
		if _, err := s.find(ctx, repo, id, internal.ErrRoleNotFoundBare); err != nil {
			return err
		}
		if err := revoke(ctx, repo, id, dto.Permissions); err != nil {
			return err
		}

		loaded, err := repo.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("reload role %d: %w", id, err)
		}
		revoked = FromDataModel(loaded)
		return nil
	})
	if err != nil {
		if !internal.IsNotFound(err) {
			s.logger.Error("failed to revoke permissions", "error", err, "role_id", id)
		}
		return nil, nil, err
	}

	s.logger.Info("permissions revoked", "role_id", id, "requested", len(dto.Permissions))
	return revoked, requested, nil
}

// Delete removes the role and its permission assignments, returning the role as it was.
func (s *Service) Delete(ctx context.Context, id int64) (*Role, error) {
	snapshot, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete role", "error", err, "role_id", id)
		return nil, err
	}

	s.logger.Info("role deleted", "role_id", id)
	return snapshot, nil
}

func (s *Service) find(ctx context.Context, repo RepositoryAPI, id int64, notFound *internal.AppError) (*rbacDatamodel.Role, error) {
	row, err := repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get role", "error", err, "role_id", id)
		return nil, err
	}
	if row == nil {
		return nil, notFound
	}
	return row, nil
}

// checkNameFree reports name as taken when another role already uses it.
func (s *Service) checkNameFree(ctx context.Context, id int64, name string, errs internal.FieldErrors) error {
	if errs.Has("name") {
		return nil
	}
	holder, err := s.repo.GetByName(ctx, name)
	if err != nil {
		s.logger.Error("failed to check role name", "error", err, "name", name)
		return err
	}
	if holder != nil && holder.ID != id {
		errs.Add("name", validation.Taken("name"))
	}
	return nil
}

func (s *Service) permissionIDsByName(ctx context.Context, names []string) (map[string]int64, error) {
	idByName := make(map[string]int64, len(names))
	if len(names) == 0 {
		return idByName, nil
	}
	rows, err := s.permissions.GetByNames(ctx, names)
	if err != nil {
		s.logger.Error("failed to resolve permission names", "error", err)
		return nil, fmt.Errorf("resolve permission names: %w", err)
	}
	for _, row := range rows {
		idByName[row.Name] = row.ID
	}
	return idByName, nil
}

// checkPermissionIDs reports every id in ids that has no permission row, keyed "<field>.<index>",
// and returns the permissions that do exist.
func (s *Service) checkPermissionIDs(ctx context.Context, field string, ids []int64, errs internal.FieldErrors) ([]*permission.Permission, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.permissions.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("failed to resolve permission ids", "error", err)
		return nil, fmt.Errorf("resolve permission ids: %w", err)
	}

	found := make(map[int64]struct{}, len(rows))
	for _, row := range rows {
		found[row.ID] = struct{}{}
	}
	for j, id := range ids {
		key := validation.Key(field, j)
		if _, ok := found[id]; ok || errs.Has(key) {
			continue
		}
		errs.Add(key, validation.Invalid(key))
	}
	return permission.FromDataModels(rows), nil
}

func markUnknownNames(field string, names []string, idByName map[string]int64, errs internal.FieldErrors) {
	for j, name := range names {
		key := validation.Key(field, j)
		if name == "" || errs.Has(key) {
			continue
		}
		if _, ok := idByName[name]; !ok {
			errs.Add(key, validation.Invalid(key))
		}
	}
}
