package secrets

import (
	"context"
	"os"
	"strings"
)

// EnvStore resolves secrets from environment variables. Secret names are
// mangled to ENV_CASE under the given prefix: with prefix "AUTH_SECRET_",
// "private-key" maps to AUTH_SECRET_PRIVATE_KEY.
type EnvStore struct {
	prefix string
}

func NewEnvStore(prefix string) *EnvStore {
	return &EnvStore{prefix: prefix}
}

func (s *EnvStore) GetSecret(_ context.Context, name string) (string, bool, error) {
	key := s.prefix + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return "", false, nil
	}
	return value, true, nil
}
