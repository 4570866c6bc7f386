package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_RoundTrip(t *testing.T) {
	s := &TokenService{secret: []byte("test-secret")}

	raw, err := s.CreateSessionToken(map[string]any{
		"email": "alice@example.com",
		"name":  "Alice",
	})
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	token, err := s.ParseSessionToken(raw)
	require.NoError(t, err)

	assert.Equal(t, _ISSUER, token.Issuer())
	assert.Equal(t, "alice@example.com", token.Subject())

	name, ok := token.Get("name")
	require.True(t, ok)
	assert.Equal(t, "Alice", name)
}

func TestTokenService_RejectsWrongSecret(t *testing.T) {
	signer := &TokenService{secret: []byte("signer-secret")}
	verifier := &TokenService{secret: []byte("other-secret")}

	raw, err := signer.CreateSessionToken(map[string]any{"email": "alice@example.com"})
	require.NoError(t, err)

	_, err = verifier.ParseSessionToken(raw)
	assert.Error(t, err)
}

func TestTokenService_RejectsGarbage(t *testing.T) {
	s := &TokenService{secret: []byte("test-secret")}

	_, err := s.ParseSessionToken("not-a-token")
	assert.Error(t, err)
}
