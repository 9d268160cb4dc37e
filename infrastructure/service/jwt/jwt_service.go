package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/shopfox/auth-service/application/port/outbound"
	"github.com/shopfox/auth-service/domain/apperror"
	"github.com/shopfox/auth-service/domain/entity"
	"github.com/shopfox/auth-service/domain/valueobject"
	"github.com/shopfox/auth-service/infrastructure/service/keys"
)

// Claims is the signed token payload. Registered claims carry subject,
// token id, issuer, audience and the [iat, exp) validity window; the rest
// are service-specific.
type Claims struct {
	jwt.RegisteredClaims
	Email       string   `json:"email,omitempty"`
	Roles       []string `json:"roles,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	TokenType   string   `json:"token_type"`
}

// JWTService issues and verifies RS256-signed token pairs over the key
// provider's material. All methods are pure given the immutable key and are
// safe for unbounded concurrent use.
type JWTService struct {
	keys            *keys.Provider
	issuer          string
	audience        string
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
}

// JWTConfig carries the token-lifetime and claim policy.
type JWTConfig struct {
	Issuer          string
	Audience        string
	Algorithm       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

func NewJWTService(provider *keys.Provider, cfg JWTConfig) (*JWTService, error) {
	if cfg.Algorithm != "RS256" {
		return nil, fmt.Errorf("unsupported JWT algorithm: %s", cfg.Algorithm)
	}
	if cfg.Issuer == "" || cfg.Audience == "" {
		return nil, fmt.Errorf("issuer and audience are required")
	}
	return &JWTService{
		keys:            provider,
		issuer:          cfg.Issuer,
		audience:        cfg.Audience,
		accessTokenTTL:  cfg.AccessTokenTTL,
		refreshTokenTTL: cfg.RefreshTokenTTL,
	}, nil
}

// IssueTokenPair produces a signed access/refresh token pair for an
// already-authenticated user. Each token carries a freshly random token id.
func (s *JWTService) IssueTokenPair(user *entity.User) (*valueobject.TokenPair, error) {
	now := time.Now().Truncate(time.Second)

	accessToken, err := s.sign(user, outbound.TokenTypeAccess, now, now.Add(s.accessTokenTTL))
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshToken, err := s.sign(user, outbound.TokenTypeRefresh, now, now.Add(s.refreshTokenTTL))
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return valueobject.NewTokenPair(accessToken, refreshToken, int(s.accessTokenTTL.Seconds())), nil
}

func (s *JWTService) sign(user *entity.User, tokenType string, issuedAt, expiresAt time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email:       user.Email,
		Roles:       user.Roles,
		Permissions: user.Permissions,
		TokenType:   tokenType,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = s.keys.KeyID()

	return token.SignedString(s.keys.PrivateKey())
}

// Verify validates signature, issuer, audience and expiry and returns the
// decoded claims. Failures are classified: expiry alone yields TokenExpired,
// everything else (signature, issuer, audience, malformed input, wrong
// signing method) yields InvalidToken.
func (s *JWTService) Verify(tokenString string, opts outbound.VerifyOptions) (*outbound.TokenClaims, error) {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256"}),
	}
	if opts.SkipExpiry {
		// Signature is still checked; issuer and audience are validated by
		// hand below since the parser-level checks are skipped wholesale.
		parserOpts = append(parserOpts, jwt.WithoutClaimsValidation())
	} else {
		parserOpts = append(parserOpts,
			jwt.WithIssuer(s.issuer),
			jwt.WithAudience(s.audience),
			jwt.WithIssuedAt(),
		)
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.keys.PublicKey(), nil
	}, parserOpts...)

	if err != nil {
		return nil, classifyError(err)
	}
	if !token.Valid {
		return nil, apperror.ErrInvalidToken("token failed validation")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, apperror.ErrInvalidToken("unexpected claims type")
	}

	if opts.SkipExpiry {
		if claims.Issuer != s.issuer {
			return nil, apperror.ErrInvalidToken("issuer mismatch")
		}
		if !audienceContains(claims.Audience, s.audience) {
			return nil, apperror.ErrInvalidToken("audience mismatch")
		}
	}

	return toTokenClaims(claims), nil
}

// Refresh verifies a refresh token and issues a brand-new pair for the same
// subject. Rotation is by reissue only: the spent refresh token stays valid
// until its natural expiry because no revocation ledger exists.
func (s *JWTService) Refresh(refreshToken string) (*valueobject.TokenPair, error) {
	claims, err := s.Verify(refreshToken, outbound.VerifyOptions{})
	if err != nil {
		return nil, err
	}
	if claims.TokenType != outbound.TokenTypeRefresh {
		return nil, apperror.ErrWrongTokenType("refresh requires a refresh token")
	}

	user := &entity.User{
		ID:          claims.UserID,
		Email:       claims.Email,
		Roles:       claims.Roles,
		Permissions: claims.Permissions,
	}
	return s.IssueTokenPair(user)
}

func classifyError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return apperror.ErrTokenExpired("token is past its expiry")
	}
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return apperror.ErrInvalidToken("signature verification failed")
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return apperror.ErrInvalidToken("issuer mismatch")
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return apperror.ErrInvalidToken("audience mismatch")
	case errors.Is(err, jwt.ErrTokenMalformed):
		return apperror.ErrInvalidToken("malformed token")
	default:
		return apperror.ErrInvalidToken("token verification failed")
	}
}

func audienceContains(audience jwt.ClaimStrings, expected string) bool {
	for _, aud := range audience {
		if aud == expected {
			return true
		}
	}
	return false
}

func toTokenClaims(claims *Claims) *outbound.TokenClaims {
	out := &outbound.TokenClaims{
		UserID:      claims.Subject,
		Email:       claims.Email,
		Roles:       claims.Roles,
		Permissions: claims.Permissions,
		TokenID:     claims.ID,
		TokenType:   claims.TokenType,
		Issuer:      claims.Issuer,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Unix()
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Unix()
	}
	if len(claims.Audience) > 0 {
		out.Audience = claims.Audience[0]
	}
	return out
}
