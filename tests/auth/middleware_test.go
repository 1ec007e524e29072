package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/summitcrm/pipeline-api/internal/auth"
	"github.com/summitcrm/pipeline-api/internal/config"
	"github.com/summitcrm/pipeline-api/internal/domain"
)

func createTestConfig(jwksURL, apiKey string) *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			IssuerURL:      "https://id.summitcrm.io",
			Audience:       "pipeline-api",
			JWKSURL:        jwksURL,
			RequiredScopes: "",
		},
		ApiKey: config.ApiKeyConfig{
			Value: apiKey,
		},
	}
}

func createTestMiddleware(t *testing.T, jwksURL, apiKey string) *auth.Middleware {
	cfg := createTestConfig(jwksURL, apiKey)
	return auth.NewMiddleware(cfg, zap.NewNop())
}

func TestMiddleware_Authenticate_WithAPIKey(t *testing.T) {
	apiKey := "test-api-key-12345"
	middleware := createTestMiddleware(t, "http://localhost", apiKey)

	handlerCalled := false
	var capturedUserCtx *auth.UserContext

	handler := middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		capturedUserCtx, _ = auth.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/prospects", nil)
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("X-Tenant-ID", "acme")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.True(t, handlerCalled)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, capturedUserCtx)
	assert.Equal(t, "System", capturedUserCtx.DisplayName)
	assert.Equal(t, "system@summitcrm.io", capturedUserCtx.Email)
	assert.Equal(t, domain.TenantID("acme"), capturedUserCtx.TenantID)
	assert.True(t, capturedUserCtx.HasRole(domain.RoleAdmin))
	assert.True(t, capturedUserCtx.HasRole(domain.RoleAPIService))
}

func TestMiddleware_Authenticate_APIKeyWithoutTenantHeader(t *testing.T) {
	apiKey := "test-api-key-12345"
	middleware := createTestMiddleware(t, "http://localhost", apiKey)

	handlerCalled := false
	handler := middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/prospects", nil)
	req.Header.Set("x-api-key", apiKey)
	// No X-Tenant-ID header
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.False(t, handlerCalled)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddleware_Authenticate_WithInvalidAPIKey(t *testing.T) {
	middleware := createTestMiddleware(t, "http://localhost", "correct-key")

	handlerCalled := false
	handler := middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/prospects", nil)
	req.Header.Set("x-api-key", "wrong-key")
	req.Header.Set("X-Tenant-ID", "acme")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.False(t, handlerCalled)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddleware_Authenticate_EmptyConfiguredAPIKey(t *testing.T) {
	// No API key configured means the x-api-key path always refuses
	middleware := createTestMiddleware(t, "http://localhost", "")

	handlerCalled := false
	handler := middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/prospects", nil)
	req.Header.Set("x-api-key", "anything")
	req.Header.Set("X-Tenant-ID", "acme")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.False(t, handlerCalled)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddleware_Authenticate_WithJWT(t *testing.T) {
	keyPair := generateTestKeyPair(t)
	server := createMockJWKSServer(t, keyPair)
	defer server.Close()

	middleware := createTestMiddleware(t, server.URL, "")

	tokenString := createTestToken(t, keyPair, validClaims())

	handlerCalled := false
	var capturedUserCtx *auth.UserContext

	handler := middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		capturedUserCtx, _ = auth.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/prospects", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.True(t, handlerCalled)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, capturedUserCtx)
	assert.Equal(t, "Test User", capturedUserCtx.DisplayName)
	assert.Equal(t, "test@example.com", capturedUserCtx.Email)
	assert.Equal(t, domain.TenantID("acme"), capturedUserCtx.TenantID)
}

func TestMiddleware_Authenticate_MissingAuth(t *testing.T) {
	middleware := createTestMiddleware(t, "http://localhost", "test-key")

	handlerCalled := false
	handler := middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/prospects", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.False(t, handlerCalled)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddleware_Authenticate_InvalidBearerFormat(t *testing.T) {
	middleware := createTestMiddleware(t, "http://localhost", "test-key")

	tests := []struct {
		name       string
		authHeader string
	}{
		{"no bearer prefix", "some-token"},
		{"basic auth", "Basic dXNlcjpwYXNz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled := false
			handler := middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/prospects", nil)
			req.Header.Set("Authorization", tt.authHeader)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.False(t, handlerCalled)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestMiddleware_RequireRole_HasRole(t *testing.T) {
	middleware := createTestMiddleware(t, "http://localhost", "test-key")

	handlerCalled := false
	handler := middleware.RequireRole(domain.RoleManager, domain.RoleRep)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
	}))

	userCtx := &auth.UserContext{
		Roles: []domain.UserRoleType{domain.RoleRep},
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/prospects", nil)
	req = req.WithContext(auth.WithUserContext(req.Context(), userCtx))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.True(t, handlerCalled)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMiddleware_RequireRole_MissingRole(t *testing.T) {
	middleware := createTestMiddleware(t, "http://localhost", "test-key")

	handlerCalled := false
	handler := middleware.RequireRole(domain.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	}))

	userCtx := &auth.UserContext{
		Roles: []domain.UserRoleType{domain.RoleViewer},
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin", nil)
	req = req.WithContext(auth.WithUserContext(req.Context(), userCtx))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.False(t, handlerCalled)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMiddleware_RequireRole_NoUserContext(t *testing.T) {
	middleware := createTestMiddleware(t, "http://localhost", "test-key")

	handlerCalled := false
	handler := middleware.RequireRole(domain.RoleViewer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/prospects", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.False(t, handlerCalled)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMiddleware_RequireAdmin_IsAdmin(t *testing.T) {
	middleware := createTestMiddleware(t, "http://localhost", "test-key")

	handlerCalled := false
	handler := middleware.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
	}))

	userCtx := &auth.UserContext{
		Roles: []domain.UserRoleType{domain.RoleAdmin},
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin", nil)
	req = req.WithContext(auth.WithUserContext(req.Context(), userCtx))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.True(t, handlerCalled)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMiddleware_RequireAdmin_NotAdmin(t *testing.T) {
	middleware := createTestMiddleware(t, "http://localhost", "test-key")

	handlerCalled := false
	handler := middleware.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	}))

	userCtx := &auth.UserContext{
		Roles: []domain.UserRoleType{domain.RoleManager},
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin", nil)
	req = req.WithContext(auth.WithUserContext(req.Context(), userCtx))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.False(t, handlerCalled)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMiddleware_RequirePermission_HasPermission(t *testing.T) {
	middleware := createTestMiddleware(t, "http://localhost", "test-key")

	handlerCalled := false
	handler := middleware.RequirePermission(domain.PermissionProspectsRead)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
	}))

	userCtx := &auth.UserContext{
		Roles: []domain.UserRoleType{domain.RoleViewer},
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/prospects", nil)
	req = req.WithContext(auth.WithUserContext(req.Context(), userCtx))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.True(t, handlerCalled)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMiddleware_RequirePermission_MissingPermission(t *testing.T) {
	middleware := createTestMiddleware(t, "http://localhost", "test-key")

	handlerCalled := false
	handler := middleware.RequirePermission(domain.PermissionProspectsDelete)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	}))

	userCtx := &auth.UserContext{
		Roles: []domain.UserRoleType{domain.RoleRep},
	}
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/prospects/123", nil)
	req = req.WithContext(auth.WithUserContext(req.Context(), userCtx))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.False(t, handlerCalled)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMiddleware_APIKeyPriority(t *testing.T) {
	keyPair := generateTestKeyPair(t)
	server := createMockJWKSServer(t, keyPair)
	defer server.Close()

	apiKey := "test-api-key"
	middleware := createTestMiddleware(t, server.URL, apiKey)

	tokenString := createTestToken(t, keyPair, validClaims())

	var capturedUserCtx *auth.UserContext

	handler := middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedUserCtx, _ = auth.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// Send request with BOTH API key and JWT - API key should take priority
	req := httptest.NewRequest(http.MethodGet, "/api/v1/prospects", nil)
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("X-Tenant-ID", "acme")
	req.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, capturedUserCtx)
	// Should be System user (from API key), not JWT user
	assert.Equal(t, "System", capturedUserCtx.DisplayName)
	assert.Equal(t, domain.TenantID("acme"), capturedUserCtx.TenantID)
}
