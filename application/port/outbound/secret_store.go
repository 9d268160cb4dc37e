package outbound

import "context"

// SecretStore is the capability used to fetch signing key material during
// startup. A missing secret is reported as ok=false, not as an error; errors
// are reserved for the store itself being unreachable.
type SecretStore interface {
	GetSecret(ctx context.Context, name string) (value string, ok bool, err error)
}
