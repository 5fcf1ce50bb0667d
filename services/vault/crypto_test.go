package vault

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCipher_RoundTrip(t *testing.T) {
	c, err := NewCipher("correct horse battery staple")
	require.NoError(t, err)

	sealed, err := c.Seal("ya29.access-token")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "ya29")

	opened, err := c.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "ya29.access-token", opened)
}

func TestCipher_NonceIsRandom(t *testing.T) {
	c, err := NewCipher("secret")
	require.NoError(t, err)

	first, err := c.Seal("same")
	require.NoError(t, err)
	second, err := c.Seal("same")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestCipher_OpenFailures(t *testing.T) {
	c, err := NewCipher("secret")
	require.NoError(t, err)
	other, err := NewCipher("another secret")
	require.NoError(t, err)

	sealed, err := c.Seal("token")
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
	}{
		{"not base64", "%%%"},
		{"too short", base64.StdEncoding.EncodeToString([]byte("abc"))},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Open(tt.input)
			assert.Error(t, err)
		})
	}

	_, err = other.Open(sealed)
	assert.Error(t, err, "wrong key must not open the ciphertext")
}

func TestNewCipher_EmptySecret(t *testing.T) {
	_, err := NewCipher("")
	assert.Error(t, err)
}
