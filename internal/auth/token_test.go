package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret-thats-long-enough"

func TestGenerateAndValidateAccessToken(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)

	token, err := tm.GenerateAccessToken("user-1", "user@example.com", "sess-abc")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)

	assert.Equal(t, "access", claims.Type)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, "sess-abc", claims.SessionID)
	assert.NotEmpty(t, claims.ID, "expected a JTI claim")
}

func TestValidateTokenExpired(t *testing.T) {
	tm := NewTokenManager(testSecret, -time.Minute)

	token, err := tm.GenerateAccessToken("user-1", "user@example.com", "sess-abc")
	require.NoError(t, err)

	_, err = tm.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)
	other := NewTokenManager("a-completely-different-secret-key", time.Hour)

	token, err := tm.GenerateAccessToken("user-1", "user@example.com", "sess-abc")
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenGarbage(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)

	_, err := tm.ValidateToken("not-a-jwt")
	assert.Error(t, err)
}
