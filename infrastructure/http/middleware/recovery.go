package middleware

import (
	"net/http"

	"github.com/shopfox/auth-service/infrastructure/http/response"
	"github.com/shopfox/auth-service/infrastructure/service/logger"
)

// RecoveryMiddleware converts panics in downstream handlers into a 500
// response instead of tearing down the connection. No stack trace or
// internal detail reaches the client.
func RecoveryMiddleware(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error(r.Context(), "Panic recovered in handler", nil, map[string]interface{}{
						"panic":  rec,
						"method": r.Method,
						"path":   r.URL.Path,
					})
					response.InternalServerError(w, "Internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
