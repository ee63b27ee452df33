package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_NonDeterministic(t *testing.T) {
	t.Parallel()

	first, err := HashPassword("secret1")
	require.NoError(t, err)

	second, err := HashPassword("secret1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "two hashes of the same password must differ")
	assert.NotEqual(t, "secret1", first, "hash must not equal the plaintext")

	ok, err := VerifyPassword("secret1", first)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("secret1", second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyPassword_Mismatch(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("secret1")
	require.NoError(t, err)

	ok, err := VerifyPassword("wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	t.Parallel()

	ok, err := VerifyPassword("secret1", "not-a-bcrypt-hash")
	require.Error(t, err)
	assert.False(t, ok)
}
