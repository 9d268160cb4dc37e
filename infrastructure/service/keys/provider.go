package keys

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"math/big"

	"github.com/google/uuid"

	"github.com/shopfox/auth-service/application/port/outbound"
	"github.com/shopfox/auth-service/domain/apperror"
	"github.com/shopfox/auth-service/infrastructure/service/logger"
)

// Secret names looked up in the secret store during initialization.
const (
	SecretPrivateKey = "private-key"
	SecretPublicKey  = "public-key"
	SecretKeyID      = "key-id"
)

const generatedKeyBits = 2048

// KeyMaterial is the process-wide asymmetric signing key. It is resolved
// exactly once and never mutated afterwards.
type KeyMaterial struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	keyID      string
	algorithm  string
}

// JWK is the public half of the signing key in JWKS form, for external
// key-discovery consumers.
type JWK struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	Kid string `json:"kid"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JWKS is the key set wrapper served at the discovery endpoint.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// Provider owns the single KeyMaterial of the process. All reads after
// NewProvider are pure and safe for concurrent use.
type Provider struct {
	material  KeyMaterial
	ephemeral bool
}

// NewProvider resolves the signing key material. It first asks the secret
// store for private-key, public-key and key-id; if the store cannot supply
// complete, parseable material it falls back to generating an ephemeral
// RSA key pair. Tokens signed with an ephemeral key do not survive a process
// restart and cannot be verified by other instances, so the fallback is
// logged at warn level with ephemeral=true.
func NewProvider(ctx context.Context, store outbound.SecretStore, algorithm string, log logger.Logger) (*Provider, error) {
	material, err := fromSecretStore(ctx, store, algorithm)
	if err == nil {
		log.Info(ctx, "Signing key loaded from secret store", map[string]interface{}{
			"key_id":    material.keyID,
			"algorithm": material.algorithm,
			"ephemeral": false,
		})
		return &Provider{material: *material}, nil
	}

	log.Warn(ctx, "Secret store could not supply signing key material, generating ephemeral key pair", map[string]interface{}{
		"reason": err.Error(),
	})

	material, genErr := generateEphemeral(algorithm)
	if genErr != nil {
		return nil, apperror.ErrKeyInitialization("secret store and local key generation both failed", genErr)
	}

	log.Warn(ctx, "Ephemeral signing key in use: issued tokens will not be valid across restarts or other instances", map[string]interface{}{
		"key_id":    material.keyID,
		"algorithm": material.algorithm,
		"ephemeral": true,
	})
	return &Provider{material: *material, ephemeral: true}, nil
}

// PublicKey returns the active public key.
func (p *Provider) PublicKey() *rsa.PublicKey {
	return p.material.publicKey
}

// PrivateKey returns the active signing key. It is handed to the token
// service only and must never appear in any response or log.
func (p *Provider) PrivateKey() *rsa.PrivateKey {
	return p.material.privateKey
}

// KeyID returns the active key identifier.
func (p *Provider) KeyID() string {
	return p.material.keyID
}

// Algorithm returns the signing algorithm name.
func (p *Provider) Algorithm() string {
	return p.material.algorithm
}

// Ephemeral reports whether the key pair was generated locally instead of
// loaded from the secret store.
func (p *Provider) Ephemeral() bool {
	return p.ephemeral
}

// JWKS projects the public key for JWKS-style consumers.
func (p *Provider) JWKS() JWKS {
	pub := p.material.publicKey
	return JWKS{
		Keys: []JWK{
			{
				Kty: "RSA",
				Use: "sig",
				Kid: p.material.keyID,
				Alg: p.material.algorithm,
				N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
				E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
			},
		},
	}
}

func fromSecretStore(ctx context.Context, store outbound.SecretStore, algorithm string) (*KeyMaterial, error) {
	if store == nil {
		return nil, fmt.Errorf("no secret store configured")
	}

	privatePEM, ok, err := store.GetSecret(ctx, SecretPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", SecretPrivateKey, err)
	}
	if !ok {
		return nil, fmt.Errorf("secret %s absent", SecretPrivateKey)
	}

	publicPEM, ok, err := store.GetSecret(ctx, SecretPublicKey)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", SecretPublicKey, err)
	}
	if !ok {
		return nil, fmt.Errorf("secret %s absent", SecretPublicKey)
	}

	keyID, ok, err := store.GetSecret(ctx, SecretKeyID)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", SecretKeyID, err)
	}
	if !ok || keyID == "" {
		return nil, fmt.Errorf("secret %s absent", SecretKeyID)
	}

	privateKey, err := parsePrivateKeyPEM([]byte(privatePEM))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	publicKey, err := parsePublicKeyPEM([]byte(publicPEM))
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}

	return &KeyMaterial{
		privateKey: privateKey,
		publicKey:  publicKey,
		keyID:      keyID,
		algorithm:  algorithm,
	}, nil
}

func generateEphemeral(algorithm string) (*KeyMaterial, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, generatedKeyBits)
	if err != nil {
		return nil, fmt.Errorf("generate RSA key pair: %w", err)
	}
	return &KeyMaterial{
		privateKey: privateKey,
		publicKey:  &privateKey.PublicKey,
		keyID:      "ephemeral-" + uuid.NewString(),
		algorithm:  algorithm,
	}, nil
}

func parsePrivateKeyPEM(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("PEM block is not an RSA private key")
	}
	return key, nil
}

func parsePublicKeyPEM(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}
	if key, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("PEM block is not an RSA public key")
	}
	return key, nil
}
