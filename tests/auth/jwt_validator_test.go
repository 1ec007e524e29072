package auth_test

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/summitcrm/pipeline-api/internal/auth"
	"github.com/summitcrm/pipeline-api/internal/config"
	"github.com/summitcrm/pipeline-api/internal/domain"
)

// testKeyPair holds RSA keys for testing
type testKeyPair struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	kid        string
}

// generateTestKeyPair generates an RSA key pair for testing
func generateTestKeyPair(t *testing.T) *testKeyPair {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	return &testKeyPair{
		privateKey: privateKey,
		publicKey:  &privateKey.PublicKey,
		kid:        "test-key-id-123",
	}
}

// createMockJWKSServer creates a mock JWKS endpoint server
func createMockJWKSServer(t *testing.T, keyPair *testKeyPair) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := base64.RawURLEncoding.EncodeToString(keyPair.publicKey.N.Bytes())
		e := base64.RawURLEncoding.EncodeToString(big.NewInt(int64(keyPair.publicKey.E)).Bytes())

		jwks := map[string]interface{}{
			"keys": []map[string]interface{}{
				{
					"kty": "RSA",
					"use": "sig",
					"kid": keyPair.kid,
					"n":   n,
					"e":   e,
					"alg": "RS256",
				},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(jwks)
	}))
}

// createTestToken creates a signed JWT token for testing
func createTestToken(t *testing.T, keyPair *testKeyPair, claims jwt.MapClaims) string {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = keyPair.kid

	tokenString, err := token.SignedString(keyPair.privateKey)
	require.NoError(t, err)

	return tokenString
}

func testAuthConfig(jwksURL string) *config.AuthConfig {
	return &config.AuthConfig{
		IssuerURL:      "https://id.summitcrm.io",
		Audience:       "pipeline-api",
		JWKSURL:        jwksURL,
		RequiredScopes: "",
	}
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"aud":       "pipeline-api",
		"iss":       "https://id.summitcrm.io/oauth2",
		"exp":       time.Now().Add(time.Hour).Unix(),
		"nbf":       time.Now().Add(-time.Minute).Unix(),
		"iat":       time.Now().Unix(),
		"sub":       "12345678-1234-1234-1234-123456789012",
		"name":      "Test User",
		"email":     "test@example.com",
		"roles":     []interface{}{"admin", "rep"},
		"tenant_id": "acme",
	}
}

func TestJWTValidator_ValidateToken_ValidToken(t *testing.T) {
	keyPair := generateTestKeyPair(t)
	server := createMockJWKSServer(t, keyPair)
	defer server.Close()

	validator := auth.NewJWTValidator(testAuthConfig(server.URL))

	tokenString := createTestToken(t, keyPair, validClaims())

	userCtx, err := validator.ValidateToken(tokenString)

	require.NoError(t, err)
	assert.NotNil(t, userCtx)
	assert.Equal(t, "Test User", userCtx.DisplayName)
	assert.Equal(t, "test@example.com", userCtx.Email)
	assert.Equal(t, "12345678-1234-1234-1234-123456789012", userCtx.UserID.String())
	assert.Equal(t, domain.TenantID("acme"), userCtx.TenantID)
	assert.Len(t, userCtx.Roles, 2)
}

func TestJWTValidator_ValidateToken_ExpiredToken(t *testing.T) {
	keyPair := generateTestKeyPair(t)
	server := createMockJWKSServer(t, keyPair)
	defer server.Close()

	validator := auth.NewJWTValidator(testAuthConfig(server.URL))

	claims := validClaims()
	claims["exp"] = time.Now().Add(-time.Hour).Unix()
	claims["nbf"] = time.Now().Add(-2 * time.Hour).Unix()
	claims["iat"] = time.Now().Add(-2 * time.Hour).Unix()

	tokenString := createTestToken(t, keyPair, claims)

	userCtx, err := validator.ValidateToken(tokenString)

	assert.Error(t, err)
	assert.Nil(t, userCtx)
	assert.ErrorIs(t, err, auth.ErrExpiredToken)
}

func TestJWTValidator_ValidateToken_InvalidAudience(t *testing.T) {
	keyPair := generateTestKeyPair(t)
	server := createMockJWKSServer(t, keyPair)
	defer server.Close()

	validator := auth.NewJWTValidator(testAuthConfig(server.URL))

	claims := validClaims()
	claims["aud"] = "some-other-api"

	tokenString := createTestToken(t, keyPair, claims)

	userCtx, err := validator.ValidateToken(tokenString)

	assert.Error(t, err)
	assert.Nil(t, userCtx)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestJWTValidator_ValidateToken_InvalidIssuer(t *testing.T) {
	keyPair := generateTestKeyPair(t)
	server := createMockJWKSServer(t, keyPair)
	defer server.Close()

	validator := auth.NewJWTValidator(testAuthConfig(server.URL))

	claims := validClaims()
	claims["iss"] = "https://evil.example.com"

	tokenString := createTestToken(t, keyPair, claims)

	userCtx, err := validator.ValidateToken(tokenString)

	assert.Error(t, err)
	assert.Nil(t, userCtx)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestJWTValidator_ValidateToken_MissingTenant(t *testing.T) {
	keyPair := generateTestKeyPair(t)
	server := createMockJWKSServer(t, keyPair)
	defer server.Close()

	validator := auth.NewJWTValidator(testAuthConfig(server.URL))

	claims := validClaims()
	delete(claims, "tenant_id")

	tokenString := createTestToken(t, keyPair, claims)

	userCtx, err := validator.ValidateToken(tokenString)

	assert.Error(t, err)
	assert.Nil(t, userCtx)
	assert.ErrorIs(t, err, auth.ErrMissingTenant)
}

func TestJWTValidator_ValidateToken_OrgIDTenantFallback(t *testing.T) {
	keyPair := generateTestKeyPair(t)
	server := createMockJWKSServer(t, keyPair)
	defer server.Close()

	validator := auth.NewJWTValidator(testAuthConfig(server.URL))

	claims := validClaims()
	delete(claims, "tenant_id")
	claims["org_id"] = "globex"

	tokenString := createTestToken(t, keyPair, claims)

	userCtx, err := validator.ValidateToken(tokenString)

	require.NoError(t, err)
	assert.Equal(t, domain.TenantID("globex"), userCtx.TenantID)
}

func TestJWTValidator_ValidateToken_MissingRequiredScope(t *testing.T) {
	keyPair := generateTestKeyPair(t)
	server := createMockJWKSServer(t, keyPair)
	defer server.Close()

	cfg := testAuthConfig(server.URL)
	cfg.RequiredScopes = "pipeline.access"
	validator := auth.NewJWTValidator(cfg)

	claims := validClaims()
	claims["scp"] = "something.else"

	tokenString := createTestToken(t, keyPair, claims)

	userCtx, err := validator.ValidateToken(tokenString)

	assert.Error(t, err)
	assert.Nil(t, userCtx)
	assert.ErrorIs(t, err, auth.ErrInvalidScope)
}

func TestJWTValidator_ValidateToken_WrongSigningKey(t *testing.T) {
	keyPair := generateTestKeyPair(t)
	server := createMockJWKSServer(t, keyPair)
	defer server.Close()

	validator := auth.NewJWTValidator(testAuthConfig(server.URL))

	// Sign with a different key but claim the served kid
	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, validClaims())
	token.Header["kid"] = keyPair.kid
	tokenString, err := token.SignedString(otherKey)
	require.NoError(t, err)

	userCtx, err := validator.ValidateToken(tokenString)

	assert.Error(t, err)
	assert.Nil(t, userCtx)
}

func TestJWTValidator_ValidateToken_MissingKid(t *testing.T) {
	keyPair := generateTestKeyPair(t)
	server := createMockJWKSServer(t, keyPair)
	defer server.Close()

	validator := auth.NewJWTValidator(testAuthConfig(server.URL))

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, validClaims())
	tokenString, err := token.SignedString(keyPair.privateKey)
	require.NoError(t, err)

	userCtx, err := validator.ValidateToken(tokenString)

	assert.Error(t, err)
	assert.Nil(t, userCtx)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestJWTValidator_ValidateToken_Garbage(t *testing.T) {
	validator := auth.NewJWTValidator(testAuthConfig("http://localhost:1"))

	userCtx, err := validator.ValidateToken("not-a-token")

	assert.Error(t, err)
	assert.Nil(t, userCtx)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
