package secret

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	first, err := h.Hash("NewPass123!")
	require.NoError(t, err)
	second, err := h.Hash("NewPass123!")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "salt must differ per call")
	assert.NotContains(t, first, "NewPass123!")
	assert.True(t, h.Verify("NewPass123!", first))
	assert.False(t, h.Verify("newpass123!", first))
	assert.False(t, h.Verify("NewPass123!", ""))
}

func TestNewPasswordHasher_FallsBackToDefaultCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(0).Cost)
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(99).Cost)
}

func TestValidatePasswordStrength(t *testing.T) {
	assert.NoError(t, ValidatePasswordStrength("NewPass123!"))
	assert.Error(t, ValidatePasswordStrength("short1!"))
	assert.Error(t, ValidatePasswordStrength("nouppercase123!"))
	assert.Error(t, ValidatePasswordStrength("NoSymbols123"))
}

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken()
	require.NoError(t, err)
	b, err := GenerateToken()
	require.NoError(t, err)

	assert.Len(t, a, tokenBytes*2)
	assert.NotEqual(t, a, b)
}

func TestDigestToken(t *testing.T) {
	d := DigestToken("abc")

	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", d)
	assert.Equal(t, d, DigestToken("abc"))
	assert.False(t, strings.Contains(d, "abc"))
}
