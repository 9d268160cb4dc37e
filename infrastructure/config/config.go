package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Token policy
	JWTIssuer       string
	JWTAudience     string
	JWTAlgorithm    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// Gate policy
	AuthRequiredByDefault bool

	// Secret store (signing key material)
	SecretStoreRedisURL string
	SecretStorePrefix   string

	// CORS
	CORSEnabled          bool
	CORSAllowedOrigins   []string
	CORSAllowedMethods   []string
	CORSAllowedHeaders   []string
	CORSExposedHeaders   []string
	CORSAllowCredentials bool
	CORSMaxAge           time.Duration

	// Server
	ServerPort  string
	ServerHost  string
	Environment string

	// Logging
	LogLevel  string
	LogFormat string
}

var (
	ErrMissingJWTIssuer    = errors.New("JWT_ISSUER is required")
	ErrMissingJWTAudience  = errors.New("JWT_AUDIENCE is required")
	ErrInvalidTokenTTL     = errors.New("invalid token TTL format")
	ErrInvalidJWTAlgorithm = errors.New("invalid JWT algorithm")
)

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		JWTIssuer:             getEnvOrDefault("JWT_ISSUER", "shopfox-auth"),
		JWTAudience:           getEnvOrDefault("JWT_AUDIENCE", "shopfox-api"),
		JWTAlgorithm:          getEnvOrDefault("JWT_ALG", "RS256"),
		AuthRequiredByDefault: getEnvOrDefaultBool("AUTH_REQUIRED_BY_DEFAULT", true),
		SecretStoreRedisURL:   os.Getenv("SECRET_STORE_REDIS_URL"),
		SecretStorePrefix:     getEnvOrDefault("SECRET_STORE_PREFIX", "secret:"),
		CORSEnabled:           getEnvOrDefaultBool("CORS_ENABLED", true),
		CORSAllowedOrigins:    getEnvOrDefaultSlice("CORS_ALLOWED_ORIGINS", []string{}),
		CORSAllowedMethods:    getEnvOrDefaultSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		CORSAllowedHeaders:    getEnvOrDefaultSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization", "X-Correlation-ID"}),
		CORSExposedHeaders:    getEnvOrDefaultSlice("CORS_EXPOSED_HEADERS", []string{"X-Correlation-ID"}),
		CORSAllowCredentials:  getEnvOrDefaultBool("CORS_ALLOW_CREDENTIALS", true),
		ServerPort:            getEnvOrDefault("SERVER_PORT", "8080"),
		ServerHost:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
		Environment:           getEnvOrDefault("ENV", "development"),
		LogLevel:              getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:             getEnvOrDefault("LOG_FORMAT", "json"),
	}

	var err error
	if cfg.AccessTokenTTL, err = getEnvOrDefaultDuration("ACCESS_TOKEN_TTL", 15*time.Minute); err != nil {
		return nil, fmt.Errorf("%w: ACCESS_TOKEN_TTL: %v", ErrInvalidTokenTTL, err)
	}
	if cfg.RefreshTokenTTL, err = getEnvOrDefaultDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour); err != nil {
		return nil, fmt.Errorf("%w: REFRESH_TOKEN_TTL: %v", ErrInvalidTokenTTL, err)
	}
	if cfg.CORSMaxAge, err = getEnvOrDefaultDuration("CORS_MAX_AGE", 10*time.Minute); err != nil {
		return nil, fmt.Errorf("invalid CORS_MAX_AGE: %w", err)
	}

	if cfg.JWTIssuer == "" {
		return nil, ErrMissingJWTIssuer
	}
	if cfg.JWTAudience == "" {
		return nil, ErrMissingJWTAudience
	}
	// Tokens are signed with an asymmetric key pair so the public half can be
	// published over JWKS; symmetric algorithms are not supported.
	if cfg.JWTAlgorithm != "RS256" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidJWTAlgorithm, cfg.JWTAlgorithm)
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrDefaultBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvOrDefaultDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	return time.ParseDuration(value)
}

func getEnvOrDefaultSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
