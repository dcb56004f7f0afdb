package cryptox

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cheap parameters keep the suite fast
var testParams = Params{Time: 1, Memory: 1024, Threads: 1, SaltLen: 8, KeyLen: 16}

func TestDeriveKey_Deterministic(t *testing.T) {
	k1 := DeriveKey([]byte("secret"), []byte("salt-1"), testParams)
	k2 := DeriveKey([]byte("secret"), []byte("salt-1"), testParams)
	k3 := DeriveKey([]byte("secret"), []byte("salt-2"), testParams)

	assert.True(t, bytes.Equal(k1, k2))
	assert.False(t, bytes.Equal(k1, k3))
	assert.Len(t, k1, int(testParams.KeyLen))
}

func TestHashPassword_RoundTrip(t *testing.T) {
	h, err := HashPassword("hunter22", testParams)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(h, "$argon2id$v=19$m=1024,t=1,p=1$"))

	ok, err := VerifyPassword("hunter22", h)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("hunter23", h)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPassword_SaltsDiffer(t *testing.T) {
	a, err := HashPassword("same", testParams)
	require.NoError(t, err)
	b, err := HashPassword("same", testParams)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerifyPassword_Malformed(t *testing.T) {
	for _, in := range []string{
		"",
		"plain",
		"$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=1$m=1,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$garbage$c2FsdA$a2V5",
		"$argon2id$v=19$m=1,t=1,p=1$!!$a2V5",
		"$argon2id$v=19$m=1,t=1,p=1$c2FsdA$!!",
	} {
		_, err := VerifyPassword("x", in)
		assert.ErrorIs(t, err, ErrMalformedHash, in)
	}
}
