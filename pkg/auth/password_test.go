package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndComparePassword(t *testing.T) {
	hash, err := HashPassword("Sup3rSecret!")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.NoError(t, ComparePassword(hash, "Sup3rSecret!"))
	assert.Error(t, ComparePassword(hash, "wrong-password"))
}

func TestHashPasswordEmpty(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid strong password", "Sup3rSecret!", false},
		{"too short", "Ab1!", true},
		{"no uppercase", "sup3rsecret!", true},
		{"no lowercase", "SUP3RSECRET!", true},
		{"no digit", "SuperSecret!", true},
		{"no special char", "Sup3rSecret", true},
		{"common password", "password123!", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGenerateResetToken(t *testing.T) {
	a, err := GenerateResetToken()
	require.NoError(t, err)
	b, err := GenerateResetToken()
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}

func TestGenerateReadablePassword(t *testing.T) {
	pw, err := GenerateReadablePassword()
	require.NoError(t, err)

	assert.Len(t, pw, 12)
	for _, r := range pw {
		assert.True(t, (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'),
			"expected letters only, got %q", r)
	}
}
