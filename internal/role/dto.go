package role

type CreateRoleDTO struct {
	Name        string   `json:"name" validate:"required,max=255"`
	GuardName   *string  `json:"guard_name" validate:"omitempty,max=255"`
	Permissions []string `json:"permissions" validate:"required,min=1,dive,required"`
}

type UpdateRoleDTO struct {
	Name      string  `json:"name" validate:"required,max=255"`
	GuardName *string `json:"guard_name" validate:"omitempty,max=255"`
}

// UpdateRoleWithPermissionsDTO replaces the role's permission set with the given permission ids.
type UpdateRoleWithPermissionsDTO struct {
	Name        string  `json:"name" validate:"required,max=255"`
	GuardName   *string `json:"guard_name" validate:"omitempty,max=255"`
	Permissions []int64 `json:"permissions" validate:"required,min=1,dive,gt=0"`
}

// GrantPermissionsDTO names the permissions to add.
type GrantPermissionsDTO struct {
	Permissions []string `json:"permissions" validate:"required,min=1,dive,required"`
}

// RevokePermissionsDTO lists permission ids to remove.
type RevokePermissionsDTO struct {
	Permissions []int64 `json:"permissions" validate:"required,min=1,dive,gt=0"`
}
