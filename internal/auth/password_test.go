package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		plain string
	}{
		{"simple", "secret123"},
		{"long", "a very long passphrase with spaces and 1234567890"},
		{"unicode", "pässwörd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.plain)
			require.NoError(t, err)
			assert.NotEqual(t, tt.plain, hash)
			assert.True(t, CheckPassword(tt.plain, hash))
			assert.False(t, CheckPassword(tt.plain+"x", hash))
		})
	}
}

func TestHashPassword_FreshSaltPerCall(t *testing.T) {
	h1, err := HashPassword("secret123")
	require.NoError(t, err)
	h2, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
	assert.True(t, CheckPassword("secret123", h1))
	assert.True(t, CheckPassword("secret123", h2))
}

func TestCheckPassword_GarbageHash(t *testing.T) {
	assert.False(t, CheckPassword("secret123", "not-a-bcrypt-hash"))
	assert.False(t, CheckPassword("secret123", ""))
}
