package hasher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcrypt_HashAndCompare(t *testing.T) {
	t.Parallel()

	h := NewBcrypt(bcrypt.MinCost)

	hash, err := h.Hash("secret1")
	require.NoError(t, err)

	assert.NotEqual(t, []byte("secret1"), hash)
	assert.True(t, h.Compare(hash, "secret1"))
	assert.False(t, h.Compare(hash, "secret2"))
}

func TestBcrypt_CompareGarbageHash(t *testing.T) {
	t.Parallel()

	assert.False(t, NewBcrypt(bcrypt.MinCost).Compare([]byte("not-a-hash"), "secret1"))
}

func TestNewBcrypt_InvalidCostFallsBack(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultCost, NewBcrypt(0).cost)
	assert.Equal(t, DefaultCost, NewBcrypt(100).cost)
}
