package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/shopfox/auth-service/application/port/outbound"
	"github.com/shopfox/auth-service/domain/apperror"
	"github.com/shopfox/auth-service/domain/entity"
	"github.com/shopfox/auth-service/infrastructure/http/response"
)

type principalContextKey string

// PrincipalKey is the context key under which the verified Principal is
// attached to the request.
const PrincipalKey principalContextKey = "auth_principal"

// Policy describes what a gate demands of a request: whether a credential is
// mandatory, which roles are acceptable (OR semantics) and which permissions
// are all required (AND semantics).
type Policy struct {
	Required    bool
	Roles       []string
	Permissions []string
}

type AuthMiddleware struct {
	tokenService      outbound.TokenService
	requiredByDefault bool
}

func NewAuthMiddleware(tokenService outbound.TokenService, requiredByDefault bool) *AuthMiddleware {
	return &AuthMiddleware{
		tokenService:      tokenService,
		requiredByDefault: requiredByDefault,
	}
}

// DefaultGate applies the configured required-by-default policy with no role
// or permission demands.
func (m *AuthMiddleware) DefaultGate() func(http.Handler) http.Handler {
	return m.Gate(Policy{Required: m.requiredByDefault})
}

// Gate returns a middleware enforcing the given policy. On success the
// Principal is attached to the request context; every failure is converted
// into a structured response at this boundary.
func (m *AuthMiddleware) Gate(policy Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawToken, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				if !policy.Required {
					// Anonymous-allowed path: no credential, no principal.
					next.ServeHTTP(w, r)
					return
				}
				response.AppError(w, apperror.ErrAuthRequired("missing bearer credential"))
				return
			}

			claims, err := m.tokenService.Verify(rawToken, outbound.VerifyOptions{})
			if err != nil {
				response.AppError(w, err)
				return
			}

			// Refresh tokens are never acceptable as access credentials,
			// however valid their signature may be.
			if claims.TokenType == outbound.TokenTypeRefresh {
				response.AppError(w, apperror.ErrWrongTokenType("refresh token presented as access credential"))
				return
			}

			principal := &entity.Principal{
				ID:          claims.UserID,
				Email:       claims.Email,
				Roles:       claims.Roles,
				Permissions: claims.Permissions,
				TokenID:     claims.TokenID,
				RawToken:    rawToken,
			}

			if len(policy.Roles) > 0 && !principal.HasAnyRole(policy.Roles) {
				response.AppError(w, apperror.ErrInsufficientPermissions("roles", policy.Roles, principal.Roles))
				return
			}
			if len(policy.Permissions) > 0 && !principal.HasAllPermissions(policy.Permissions) {
				response.AppError(w, apperror.ErrInsufficientPermissions("permissions", policy.Permissions, principal.Permissions))
				return
			}

			ctx := context.WithValue(r.Context(), PrincipalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth gates on a valid access token with no role or permission
// demands.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return m.Gate(Policy{Required: true})(next)
}

// OptionalAuth verifies a credential when one is present but lets anonymous
// requests through without a principal.
func (m *AuthMiddleware) OptionalAuth(next http.Handler) http.Handler {
	return m.Gate(Policy{Required: false})(next)
}

// RequireAnyRole admits principals holding at least one of the given roles.
func (m *AuthMiddleware) RequireAnyRole(roles ...string) func(http.Handler) http.Handler {
	return m.Gate(Policy{Required: true, Roles: roles})
}

// RequireAllPermissions admits principals holding every one of the given
// permissions.
func (m *AuthMiddleware) RequireAllPermissions(permissions ...string) func(http.Handler) http.Handler {
	return m.Gate(Policy{Required: true, Permissions: permissions})
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header value. A missing or malformed header counts as no credential.
func bearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}

// GetPrincipal retrieves the verified principal from a request context, or
// nil on the anonymous path.
func GetPrincipal(ctx context.Context) *entity.Principal {
	if principal, ok := ctx.Value(PrincipalKey).(*entity.Principal); ok {
		return principal
	}
	return nil
}
