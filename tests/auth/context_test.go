package auth_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/summitcrm/pipeline-api/internal/auth"
	"github.com/summitcrm/pipeline-api/internal/domain"
)

func TestUserContext_HasRole(t *testing.T) {
	tests := []struct {
		name     string
		roles    []domain.UserRoleType
		role     domain.UserRoleType
		expected bool
	}{
		{
			name:     "has role",
			roles:    []domain.UserRoleType{domain.RoleManager, domain.RoleRep},
			role:     domain.RoleManager,
			expected: true,
		},
		{
			name:     "does not have role",
			roles:    []domain.UserRoleType{domain.RoleRep},
			role:     domain.RoleManager,
			expected: false,
		},
		{
			name:     "empty roles",
			roles:    []domain.UserRoleType{},
			role:     domain.RoleManager,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userCtx := &auth.UserContext{Roles: tt.roles}
			assert.Equal(t, tt.expected, userCtx.HasRole(tt.role))
		})
	}
}

func TestUserContext_HasAnyRole(t *testing.T) {
	tests := []struct {
		name     string
		roles    []domain.UserRoleType
		check    []domain.UserRoleType
		expected bool
	}{
		{
			name:     "has one of the roles",
			roles:    []domain.UserRoleType{domain.RoleRep},
			check:    []domain.UserRoleType{domain.RoleManager, domain.RoleRep},
			expected: true,
		},
		{
			name:     "has none of the roles",
			roles:    []domain.UserRoleType{domain.RoleViewer},
			check:    []domain.UserRoleType{domain.RoleManager, domain.RoleRep},
			expected: false,
		},
		{
			name:     "empty check list",
			roles:    []domain.UserRoleType{domain.RoleRep},
			check:    []domain.UserRoleType{},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userCtx := &auth.UserContext{Roles: tt.roles}
			assert.Equal(t, tt.expected, userCtx.HasAnyRole(tt.check...))
		})
	}
}

func TestUserContext_IsAdmin(t *testing.T) {
	admin := &auth.UserContext{Roles: []domain.UserRoleType{domain.RoleAdmin}}
	assert.True(t, admin.IsAdmin())

	rep := &auth.UserContext{Roles: []domain.UserRoleType{domain.RoleRep}}
	assert.False(t, rep.IsAdmin())
}

func TestUserContext_HasPermission(t *testing.T) {
	tests := []struct {
		name       string
		roles      []domain.UserRoleType
		permission domain.PermissionType
		expected   bool
	}{
		{
			name:       "admin has everything",
			roles:      []domain.UserRoleType{domain.RoleAdmin},
			permission: domain.PermissionUsersManageRoles,
			expected:   true,
		},
		{
			name:       "manager can delete prospects",
			roles:      []domain.UserRoleType{domain.RoleManager},
			permission: domain.PermissionProspectsDelete,
			expected:   true,
		},
		{
			name:       "rep cannot delete prospects",
			roles:      []domain.UserRoleType{domain.RoleRep},
			permission: domain.PermissionProspectsDelete,
			expected:   false,
		},
		{
			name:       "rep can convert prospects",
			roles:      []domain.UserRoleType{domain.RoleRep},
			permission: domain.PermissionProspectsConvert,
			expected:   true,
		},
		{
			name:       "viewer is read only",
			roles:      []domain.UserRoleType{domain.RoleViewer},
			permission: domain.PermissionAccountsWrite,
			expected:   false,
		},
		{
			name:       "viewer can read accounts",
			roles:      []domain.UserRoleType{domain.RoleViewer},
			permission: domain.PermissionAccountsRead,
			expected:   true,
		},
		{
			name:       "viewer cannot run exports",
			roles:      []domain.UserRoleType{domain.RoleViewer},
			permission: domain.PermissionExportsRun,
			expected:   false,
		},
		{
			name:       "api service cannot convert",
			roles:      []domain.UserRoleType{domain.RoleAPIService},
			permission: domain.PermissionProspectsConvert,
			expected:   false,
		},
		{
			name:       "no roles no permissions",
			roles:      nil,
			permission: domain.PermissionProspectsRead,
			expected:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userCtx := &auth.UserContext{Roles: tt.roles}
			assert.Equal(t, tt.expected, userCtx.HasPermission(tt.permission))
		})
	}
}

func TestUserContext_GetDisplayNameInitials(t *testing.T) {
	tests := []struct {
		name     string
		display  string
		expected string
	}{
		{"two names", "Jordan Smith", "JS"},
		{"single name", "Jordan", "J"},
		{"three names", "Jordan Lee Smith", "JLS"},
		{"empty", "", ""},
		{"lowercase", "jordan smith", "JS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userCtx := &auth.UserContext{DisplayName: tt.display}
			assert.Equal(t, tt.expected, userCtx.GetDisplayNameInitials())
		})
	}
}

func TestWithUserContext_RoundTrip(t *testing.T) {
	userCtx := &auth.UserContext{
		UserID:      uuid.New(),
		DisplayName: "Jordan Smith",
		Email:       "jordan@example.com",
		Roles:       []domain.UserRoleType{domain.RoleRep},
		TenantID:    domain.TenantID("acme"),
	}

	ctx := auth.WithUserContext(context.Background(), userCtx)

	got, ok := auth.FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, userCtx, got)
}

func TestFromContext_Missing(t *testing.T) {
	_, ok := auth.FromContext(context.Background())
	assert.False(t, ok)
}

func TestMustFromContext_Panics(t *testing.T) {
	assert.Panics(t, func() {
		auth.MustFromContext(context.Background())
	})
}

func TestGetEffectiveTenant(t *testing.T) {
	t.Run("nothing in context", func(t *testing.T) {
		assert.Nil(t, auth.GetEffectiveTenant(context.Background()))
	})

	t.Run("from user context", func(t *testing.T) {
		ctx := auth.WithUserContext(context.Background(), &auth.UserContext{
			TenantID: domain.TenantID("acme"),
		})
		got := auth.GetEffectiveTenant(ctx)
		require.NotNil(t, got)
		assert.Equal(t, domain.TenantID("acme"), *got)
	})

	t.Run("tenant scope wins over user context", func(t *testing.T) {
		ctx := auth.WithUserContext(context.Background(), &auth.UserContext{
			TenantID: domain.TenantID("acme"),
		})
		ctx = auth.WithTenantScope(ctx, &auth.TenantScope{TenantID: domain.TenantID("globex")})

		got := auth.GetEffectiveTenant(ctx)
		require.NotNil(t, got)
		assert.Equal(t, domain.TenantID("globex"), *got)
	})
}

func TestRolesAsStrings(t *testing.T) {
	userCtx := &auth.UserContext{
		Roles: []domain.UserRoleType{domain.RoleAdmin, domain.RoleRep},
	}
	assert.Equal(t, []string{"admin", "rep"}, userCtx.RolesAsStrings())
}
