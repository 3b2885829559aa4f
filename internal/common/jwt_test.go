package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTResolver_RoundTrip(t *testing.T) {
	resolver := NewJWTResolver("test-secret")

	token, err := resolver.GenerateToken(42, "alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := resolver.Resolve(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), userID)
}

func TestJWTResolver_Rejections(t *testing.T) {
	resolver := NewJWTResolver("test-secret")

	goodToken, err := resolver.GenerateToken(42, "alice")
	require.NoError(t, err)

	otherResolver := NewJWTResolver("other-secret")

	tests := []struct {
		name       string
		resolver   *JWTResolver
		credential string
	}{
		{name: "empty credential", resolver: resolver, credential: ""},
		{name: "garbage credential", resolver: resolver, credential: "not-a-jwt"},
		{name: "wrong secret", resolver: otherResolver, credential: goodToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userID, err := tt.resolver.Resolve(tt.credential)

			assert.ErrorIs(t, err, ErrUnauthenticated)
			assert.Zero(t, userID)
		})
	}
}
