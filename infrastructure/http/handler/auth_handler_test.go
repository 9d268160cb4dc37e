package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopfox/auth-service/application/port/outbound"
	"github.com/shopfox/auth-service/domain/entity"
	"github.com/shopfox/auth-service/infrastructure/http/middleware"
	jwtservice "github.com/shopfox/auth-service/infrastructure/service/jwt"
	"github.com/shopfox/auth-service/infrastructure/service/keys"
	"github.com/shopfox/auth-service/infrastructure/service/logger"
)

func newTestRouter(t *testing.T) (*mux.Router, outbound.TokenService, *keys.Provider) {
	t.Helper()

	provider, err := keys.NewProvider(context.Background(), nil, "RS256", logger.NewNopLogger())
	require.NoError(t, err)

	tokenService, err := jwtservice.NewJWTService(provider, jwtservice.JWTConfig{
		Issuer:          "shopfox-auth",
		Audience:        "shopfox-api",
		Algorithm:       "RS256",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	})
	require.NoError(t, err)

	authMiddleware := middleware.NewAuthMiddleware(tokenService, true)

	router := mux.NewRouter()
	NewAuthHandler(tokenService, authMiddleware).RegisterRoutes(router)
	NewKeysHandler(provider).RegisterRoutes(router)
	return router, tokenService, provider
}

func postRefresh(t *testing.T, router *mux.Router, refreshToken string) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(RefreshRequest{RefreshToken: refreshToken})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/refresh", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRefreshEndpoint(t *testing.T) {
	router, tokenService, _ := newTestRouter(t)

	pair, err := tokenService.IssueTokenPair(&entity.User{ID: "user-1", Email: "user@example.com"})
	require.NoError(t, err)

	rec := postRefresh(t, router, pair.RefreshToken)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status bool `json:"status"`
		Data   struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
			TokenType    string `json:"token_type"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.True(t, body.Status)
	assert.Equal(t, "Bearer", body.Data.TokenType)

	// The rotated access token must verify on its own and keep the subject.
	claims, err := tokenService.Verify(body.Data.AccessToken, outbound.VerifyOptions{})
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestRefreshEndpointRejectsAccessToken(t *testing.T) {
	router, tokenService, _ := newTestRouter(t)

	pair, err := tokenService.IssueTokenPair(&entity.User{ID: "user-1"})
	require.NoError(t, err)

	rec := postRefresh(t, router, pair.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshEndpointRejectsGarbage(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := postRefresh(t, router, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshEndpointRequiresBody(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := postRefresh(t, router, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMeEndpoint(t *testing.T) {
	router, tokenService, _ := newTestRouter(t)

	pair, err := tokenService.IssueTokenPair(&entity.User{
		ID:    "user-1",
		Email: "user@example.com",
		Roles: []string{"editor"},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data entity.Principal `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "user-1", body.Data.ID)
	assert.Equal(t, []string{"editor"}, body.Data.Roles)
}

func TestMeEndpointRequiresAuth(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWKSEndpoint(t *testing.T) {
	router, _, provider := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/.well-known/jwks.json", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var jwks keys.JWKS
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&jwks))
	require.Len(t, jwks.Keys, 1)
	assert.Equal(t, "RSA", jwks.Keys[0].Kty)
	assert.Equal(t, "sig", jwks.Keys[0].Use)
	assert.Equal(t, provider.KeyID(), jwks.Keys[0].Kid)
}
