package permission

type CreatePermissionDTO struct {
	Name      string  `json:"name" validate:"required,max=255"`
	GuardName *string `json:"guard_name" validate:"omitempty,max=255"`
}

type UpdatePermissionDTO struct {
	Name string `json:"name" validate:"required,max=255"`
}

type DeletePermissionsDTO struct {
	IDs []int64 `json:"ids" validate:"required,min=1"`
}
