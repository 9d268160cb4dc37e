package secrets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvStoreGetSecret(t *testing.T) {
	t.Setenv("AUTH_SECRET_PRIVATE_KEY", "pem-data")

	store := NewEnvStore("AUTH_SECRET_")

	value, ok, err := store.GetSecret(context.Background(), "private-key")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "pem-data", value)
}

func TestEnvStoreAbsentSecret(t *testing.T) {
	store := NewEnvStore("AUTH_SECRET_")

	_, ok, err := store.GetSecret(context.Background(), "no-such-secret")
	require.NoError(t, err)
	assert.False(t, ok)
}
