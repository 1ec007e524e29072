package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/summitcrm/pipeline-api/internal/domain"
)

// UserContext holds authenticated user information
type UserContext struct {
	UserID      uuid.UUID
	DisplayName string
	Email       string
	Roles       []domain.UserRoleType
	TenantID    domain.TenantID
}

type contextKey string

const userContextKey contextKey = "userContext"
const tenantFilterKey contextKey = "tenantFilter"

// WithUserContext adds user context to the context
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts user context from the context
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok
}

// MustFromContext extracts user context or panics
func MustFromContext(ctx context.Context) *UserContext {
	user, ok := FromContext(ctx)
	if !ok {
		panic("user context not found in context")
	}
	return user
}

// HasRole checks if user has a specific role
func (u *UserContext) HasRole(role domain.UserRoleType) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole checks if user has any of the specified roles
func (u *UserContext) HasAnyRole(roles ...domain.UserRoleType) bool {
	for _, role := range roles {
		if u.HasRole(role) {
			return true
		}
	}
	return false
}

// IsAdmin checks if user is an admin for their tenant
func (u *UserContext) IsAdmin() bool {
	return u.HasRole(domain.RoleAdmin)
}

// HasPermission checks if user has a specific permission based on their roles
func (u *UserContext) HasPermission(permission domain.PermissionType) bool {
	// Admins have all permissions within their tenant
	if u.IsAdmin() {
		return true
	}

	for _, role := range u.Roles {
		if hasRolePermission(role, permission) {
			return true
		}
	}
	return false
}

// hasRolePermission checks if a role has a specific permission by default
func hasRolePermission(role domain.UserRoleType, permission domain.PermissionType) bool {
	rolePermissions := map[domain.UserRoleType][]domain.PermissionType{
		domain.RoleManager: {
			domain.PermissionProspectsRead, domain.PermissionProspectsWrite, domain.PermissionProspectsDelete, domain.PermissionProspectsConvert,
			domain.PermissionAccountsRead, domain.PermissionAccountsWrite, domain.PermissionAccountsDelete,
			domain.PermissionOpportunitiesRead, domain.PermissionOpportunitiesWrite, domain.PermissionOpportunitiesDelete,
			domain.PermissionPropertiesRead, domain.PermissionPropertiesWrite,
			domain.PermissionTasksRead, domain.PermissionTasksWrite,
			domain.PermissionActivitiesRead, domain.PermissionActivitiesWrite,
			domain.PermissionUsersRead,
			domain.PermissionExportsRun,
		},
		domain.RoleRep: {
			domain.PermissionProspectsRead, domain.PermissionProspectsWrite, domain.PermissionProspectsConvert,
			domain.PermissionAccountsRead, domain.PermissionAccountsWrite,
			domain.PermissionOpportunitiesRead, domain.PermissionOpportunitiesWrite,
			domain.PermissionPropertiesRead, domain.PermissionPropertiesWrite,
			domain.PermissionTasksRead, domain.PermissionTasksWrite,
			domain.PermissionActivitiesRead, domain.PermissionActivitiesWrite,
			domain.PermissionUsersRead,
			domain.PermissionExportsRun,
		},
		domain.RoleViewer: {
			domain.PermissionProspectsRead,
			domain.PermissionAccountsRead,
			domain.PermissionOpportunitiesRead,
			domain.PermissionPropertiesRead,
			domain.PermissionTasksRead,
			domain.PermissionActivitiesRead,
			domain.PermissionUsersRead,
		},
		domain.RoleAPIService: {
			domain.PermissionProspectsRead, domain.PermissionProspectsWrite,
			domain.PermissionAccountsRead, domain.PermissionAccountsWrite,
			domain.PermissionOpportunitiesRead, domain.PermissionOpportunitiesWrite,
			domain.PermissionPropertiesRead, domain.PermissionPropertiesWrite,
			domain.PermissionActivitiesRead, domain.PermissionActivitiesWrite,
		},
	}

	perms, ok := rolePermissions[role]
	if !ok {
		return false
	}

	for _, p := range perms {
		if p == permission {
			return true
		}
	}
	return false
}

// GetDisplayNameInitials returns initials from the display name (e.g., "John Doe" -> "JD")
func (u *UserContext) GetDisplayNameInitials() string {
	if u.DisplayName == "" {
		return ""
	}
	parts := strings.Fields(u.DisplayName)
	initials := ""
	for _, part := range parts {
		if len(part) > 0 {
			initials += strings.ToUpper(string(part[0]))
		}
	}
	return initials
}

// RolesAsStrings returns roles as a slice of strings
func (u *UserContext) RolesAsStrings() []string {
	result := make([]string, len(u.Roles))
	for i, role := range u.Roles {
		result[i] = string(role)
	}
	return result
}

// TenantScope represents the effective tenant filter for queries.
// Set by middleware from the authenticated user; background jobs set it
// explicitly per tenant they process.
type TenantScope struct {
	TenantID domain.TenantID
}

// WithTenantScope adds a tenant scope to the context
func WithTenantScope(ctx context.Context, scope *TenantScope) context.Context {
	return context.WithValue(ctx, tenantFilterKey, scope)
}

// TenantScopeFromContext extracts the tenant scope from the context
func TenantScopeFromContext(ctx context.Context) (*TenantScope, bool) {
	scope, ok := ctx.Value(tenantFilterKey).(*TenantScope)
	return scope, ok
}

// GetEffectiveTenant returns the tenant ID to filter queries by.
// Repositories use this for multi-tenant scoping. Returns nil only when
// neither a tenant scope nor a user context is present.
func GetEffectiveTenant(ctx context.Context) *domain.TenantID {
	if scope, ok := TenantScopeFromContext(ctx); ok && scope != nil {
		return &scope.TenantID
	}

	if userCtx, ok := FromContext(ctx); ok {
		return &userCtx.TenantID
	}

	return nil
}
