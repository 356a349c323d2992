// internal/utils/jwt_test.go
package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")

	token, err := GenerateJWT("0x00000000000000000000000000000000000000ab", "alice", "participant", 1)
	require.NoError(t, err)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "0x00000000000000000000000000000000000000ab", claims.Address)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "participant", claims.Role)
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	SetJWTSecret("test-secret")
	token, err := GenerateJWT("0x00000000000000000000000000000000000000ab", "alice", "participant", 1)
	require.NoError(t, err)

	SetJWTSecret("different-secret")
	_, err = ValidateJWT(token)
	assert.Error(t, err)
}

func TestRefreshTokenCarriesAddress(t *testing.T) {
	SetJWTSecret("test-secret")

	token, err := GenerateRefreshToken("0x00000000000000000000000000000000000000cd", 1)
	require.NoError(t, err)

	address, err := ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, "0x00000000000000000000000000000000000000cd", address)
}
