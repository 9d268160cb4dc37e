package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins:   []string{"https://app.example.com"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           10 * time.Minute,
	}
}

func serveCORS(cfg CORSConfig, r *http.Request) (*httptest.ResponseRecorder, bool) {
	reached := false
	handler := CORSMiddleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)
	return rec, reached
}

func TestPreflightFromAllowedOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/v1/things", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")

	rec, reached := serveCORS(testCORSConfig(), req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, reached, "preflight must not reach the downstream handler")
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type, Authorization", rec.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))
	assert.Equal(t, "X-Correlation-ID", rec.Header().Get("Access-Control-Expose-Headers"))
}

func TestPreflightEchoesRequestedHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/v1/things", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "X-Custom, Authorization")

	rec, _ := serveCORS(testCORSConfig(), req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "X-Custom, Authorization", rec.Header().Get("Access-Control-Allow-Headers"))
}

func TestPreflightFromDisallowedOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/v1/things", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")

	rec, reached := serveCORS(testCORSConfig(), req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, reached)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestOptionsWithoutRequestMethodIsNotPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/v1/things", nil)
	req.Header.Set("Origin", "https://app.example.com")

	rec, reached := serveCORS(testCORSConfig(), req)

	assert.True(t, reached, "plain OPTIONS is an actual request")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestActualRequestFromAllowedOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/things", nil)
	req.Header.Set("Origin", "https://app.example.com")

	rec, reached := serveCORS(testCORSConfig(), req)

	assert.True(t, reached)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "X-Correlation-ID", rec.Header().Get("Access-Control-Expose-Headers"))
	assert.Contains(t, rec.Header().Values("Vary"), "Origin")
}

func TestActualRequestFromDisallowedOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/things", nil)
	req.Header.Set("Origin", "https://evil.example.com")

	rec, reached := serveCORS(testCORSConfig(), req)

	assert.False(t, reached)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestWithoutOriginPassesThrough(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/things", nil)

	rec, reached := serveCORS(testCORSConfig(), req)

	assert.True(t, reached)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestOriginMatcher(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		origin   string
		want     bool
	}{
		{"exact match", []string{"https://app.example.com"}, "https://app.example.com", true},
		{"exact mismatch", []string{"https://app.example.com"}, "https://evil.example.com", false},
		{"exact is case sensitive", []string{"https://app.example.com"}, "https://APP.example.com", false},
		{"subdomain wildcard matches", []string{"https://*.example.com"}, "https://app.example.com", true},
		{"subdomain wildcard matches nested", []string{"https://*.example.com"}, "https://a.b.example.com", true},
		{"subdomain wildcard rejects apex", []string{"https://*.example.com"}, "https://example.com", false},
		{"wildcard is anchored", []string{"https://*.example.com"}, "https://app.example.com.evil.net", false},
		{"dot is literal", []string{"https://app.example.com"}, "https://appxexample.com", false},
		{"scheme wildcard", []string{"*://app.example.com"}, "http://app.example.com", true},
		{"port wildcard", []string{"http://localhost:*"}, "http://localhost:3000", true},
		{"star matches everything", []string{"*"}, "https://anything.at.all", true},
		{"empty list matches nothing", nil, "https://app.example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newOriginMatcher(tt.patterns)
			assert.Equal(t, tt.want, m.matches(tt.origin))
		})
	}
}

func TestWildcardOriginAdmitsAnyOrigin(t *testing.T) {
	cfg := testCORSConfig()
	cfg.AllowedOrigins = []string{"*"}

	req := httptest.NewRequest(http.MethodGet, "/v1/things", nil)
	req.Header.Set("Origin", "https://anywhere.example.net")

	rec, reached := serveCORS(cfg, req)

	assert.True(t, reached)
	assert.Equal(t, "https://anywhere.example.net", rec.Header().Get("Access-Control-Allow-Origin"))
}
