package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/shopfox/auth-service/application/port/outbound"
	"github.com/shopfox/auth-service/infrastructure/config"
	"github.com/shopfox/auth-service/infrastructure/http/handler"
	"github.com/shopfox/auth-service/infrastructure/http/middleware"
	"github.com/shopfox/auth-service/infrastructure/secrets"
	jwtservice "github.com/shopfox/auth-service/infrastructure/service/jwt"
	"github.com/shopfox/auth-service/infrastructure/service/keys"
	"github.com/shopfox/auth-service/infrastructure/service/logger"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logger
	structuredLogger := logger.NewStructuredLogger(logger.LoggerConfig{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: "auth-service",
	})
	structuredLogger.Info(ctx, "Application starting", map[string]interface{}{
		"env": cfg.Environment,
	})

	// Pick the secret store backing the signing key material. Redis when
	// configured, environment variables otherwise.
	var secretStore outbound.SecretStore
	if cfg.SecretStoreRedisURL != "" {
		redisStore, err := secrets.NewRedisStore(cfg.SecretStoreRedisURL, cfg.SecretStorePrefix)
		if err != nil {
			// Key resolution falls back to local generation below; the
			// provider logs that path loudly.
			structuredLogger.Error(ctx, "Failed to connect to Redis secret store", err, map[string]interface{}{})
		} else {
			defer redisStore.Close()
			secretStore = redisStore
		}
	}
	if secretStore == nil {
		secretStore = secrets.NewEnvStore("AUTH_SECRET_")
	}

	// Resolve signing key material. Failure here is fatal: the process must
	// not serve authenticated routes without a key.
	keyProvider, err := keys.NewProvider(ctx, secretStore, cfg.JWTAlgorithm, structuredLogger)
	if err != nil {
		structuredLogger.Error(ctx, "Failed to initialize signing key material", err, map[string]interface{}{})
		log.Fatalf("Failed to initialize signing key material: %v", err)
	}

	// Initialize token service
	tokenService, err := jwtservice.NewJWTService(keyProvider, jwtservice.JWTConfig{
		Issuer:          cfg.JWTIssuer,
		Audience:        cfg.JWTAudience,
		Algorithm:       cfg.JWTAlgorithm,
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
	})
	if err != nil {
		structuredLogger.Error(ctx, "Failed to initialize token service", err, map[string]interface{}{})
		log.Fatalf("Failed to initialize token service: %v", err)
	}

	// Initialize middleware and handlers
	authMiddleware := middleware.NewAuthMiddleware(tokenService, cfg.AuthRequiredByDefault)
	authHandler := handler.NewAuthHandler(tokenService, authMiddleware)
	keysHandler := handler.NewKeysHandler(keyProvider)

	// Setup routes
	router := mux.NewRouter()
	router.Use(middleware.LoggingMiddleware(structuredLogger))
	router.Use(middleware.RecoveryMiddleware(structuredLogger))

	authHandler.RegisterRoutes(router)
	keysHandler.RegisterRoutes(router)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"status":"healthy"}`)
	}).Methods(http.MethodGet)

	// The origin gate wraps the whole router so preflights are answered even
	// for routes registered under other methods; correlation sits outermost
	// so every log line, including CORS rejections, carries an ID.
	var rootHandler http.Handler = router
	if cfg.CORSEnabled {
		rootHandler = middleware.CORSMiddleware(middleware.CORSConfig{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   cfg.CORSAllowedMethods,
			AllowedHeaders:   cfg.CORSAllowedHeaders,
			ExposedHeaders:   cfg.CORSExposedHeaders,
			AllowCredentials: cfg.CORSAllowCredentials,
			MaxAge:           cfg.CORSMaxAge,
		})(rootHandler)
	}
	rootHandler = middleware.CorrelationIDMiddleware(rootHandler)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      rootHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		structuredLogger.Info(ctx, "Starting server", map[string]interface{}{
			"host":      cfg.ServerHost,
			"port":      cfg.ServerPort,
			"key_id":    keyProvider.KeyID(),
			"ephemeral": keyProvider.Ephemeral(),
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			structuredLogger.Error(ctx, "Server failed to start", err, map[string]interface{}{
				"host": cfg.ServerHost,
				"port": cfg.ServerPort,
			})
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	structuredLogger.Info(ctx, "Shutting down server...", map[string]interface{}{})

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		structuredLogger.Error(ctx, "Server forced to shutdown", err, map[string]interface{}{})
	}
	structuredLogger.Info(ctx, "Server exited", map[string]interface{}{})
}
