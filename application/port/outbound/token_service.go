package outbound

import (
	"github.com/shopfox/auth-service/domain/entity"
	"github.com/shopfox/auth-service/domain/valueobject"
)

// Token types carried in the token_type claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenClaims is the decoded, verified payload of a signed token. All
// timestamps are second-granularity Unix epoch values.
type TokenClaims struct {
	UserID      string   `json:"user_id"`
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
	TokenID     string   `json:"token_id"`
	TokenType   string   `json:"token_type"`
	IssuedAt    int64    `json:"issued_at"`
	ExpiresAt   int64    `json:"expires_at"`
	Issuer      string   `json:"issuer"`
	Audience    string   `json:"audience"`
}

// VerifyOptions tunes token verification. SkipExpiry is for narrow internal
// use only; signature, issuer and audience are always enforced.
type VerifyOptions struct {
	SkipExpiry bool
}

type TokenService interface {
	IssueTokenPair(user *entity.User) (*valueobject.TokenPair, error)
	Verify(token string, opts VerifyOptions) (*TokenClaims, error)
	Refresh(refreshToken string) (*valueobject.TokenPair, error)
}
