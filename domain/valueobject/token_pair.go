package valueobject

// TokenTypeBearer is the only token type this service issues.
const TokenTypeBearer = "Bearer"

// TokenPair is the ephemeral result of a token issuance. It is returned to
// the caller and never stored by this service.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

func NewTokenPair(accessToken, refreshToken string, expiresIn int) *TokenPair {
	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
		TokenType:    TokenTypeBearer,
	}
}
