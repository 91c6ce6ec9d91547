package security

import (
	"Glimpse/internal/api/config"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	Configure(config.JWTConfig{Secret: "unit-test-secret", Issuer: "Glimpse"})

	token, err := GenerateToken(42, []string{"USER"}, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.Equal(t, []string{"USER"}, claims.Roles)

	sig, err := ExtractSignature(token)
	require.NoError(t, err)
	assert.NotEmpty(t, sig)
}

func TestValidateTokenRejects(t *testing.T) {
	Configure(config.JWTConfig{Secret: "unit-test-secret", Issuer: "Glimpse"})

	expired, err := GenerateToken(1, nil, -time.Minute)
	require.NoError(t, err)
	_, err = ValidateToken(expired)
	assert.Error(t, err)

	good, err := GenerateToken(1, nil, time.Hour)
	require.NoError(t, err)
	Configure(config.JWTConfig{Secret: "another-secret"})
	_, err = ValidateToken(good)
	assert.Error(t, err)

	_, err = ValidateToken("garbage")
	assert.Error(t, err)

	_, err = ExtractSignature("a.b")
	assert.Error(t, err)
}
