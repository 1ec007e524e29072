package domain

// PermissionType represents a granular permission
type PermissionType string

const (
	PermissionProspectsRead  PermissionType = "prospects:read"
	PermissionProspectsWrite PermissionType = "prospects:write"
	PermissionProspectsDelete PermissionType = "prospects:delete"
	PermissionProspectsConvert PermissionType = "prospects:convert"

	PermissionAccountsRead   PermissionType = "accounts:read"
	PermissionAccountsWrite  PermissionType = "accounts:write"
	PermissionAccountsDelete PermissionType = "accounts:delete"

	PermissionOpportunitiesRead   PermissionType = "opportunities:read"
	PermissionOpportunitiesWrite  PermissionType = "opportunities:write"
	PermissionOpportunitiesDelete PermissionType = "opportunities:delete"

	PermissionPropertiesRead  PermissionType = "properties:read"
	PermissionPropertiesWrite PermissionType = "properties:write"

	PermissionTasksRead  PermissionType = "tasks:read"
	PermissionTasksWrite PermissionType = "tasks:write"

	PermissionActivitiesRead  PermissionType = "activities:read"
	PermissionActivitiesWrite PermissionType = "activities:write"

	PermissionUsersRead        PermissionType = "users:read"
	PermissionUsersManageRoles PermissionType = "users:manage_roles"

	PermissionExportsRun PermissionType = "exports:run"
)
