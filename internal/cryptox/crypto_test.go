package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)

	assert.True(t, CheckPassword(hash, "s3cret!"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestHashPassword_SaltedPerCall(t *testing.T) {
	h1, err := HashPassword("same")
	require.NoError(t, err)
	h2, err := HashPassword("same")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestHashPassword_TooLong(t *testing.T) {
	_, err := HashPassword(strings.Repeat("x", 73))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestCheckPassword_GarbageHash(t *testing.T) {
	assert.False(t, CheckPassword("not-a-hash", "pw"))
}

func TestResetCode(t *testing.T) {
	c1 := NewResetCode()
	c2 := NewResetCode()
	assert.Len(t, c1, 64)
	assert.NotEqual(t, c1, c2)

	assert.Equal(t, DigestCode(c1), DigestCode(c1))
	assert.NotEqual(t, DigestCode(c1), DigestCode(c2))
	assert.Len(t, DigestCode(c1), 64)
}
