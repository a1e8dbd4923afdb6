package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_SignAndParse(t *testing.T) {
	codec := NewCodec("test-secret", "consultant-access", 24*time.Hour)
	id := uuid.New()

	token, expiresAt, err := codec.Sign(id, "consultant", "broker1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), expiresAt, time.Minute)

	claims, err := codec.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.AccountID)
	assert.Equal(t, "consultant", claims.Role)
	assert.Equal(t, "broker1", claims.Username)
	assert.Equal(t, id.String(), claims.Subject)
}

func TestCodec_ExpiredTokenIsDistinct(t *testing.T) {
	past := time.Now().Add(-48 * time.Hour)
	issuer := NewCodec("test-secret", "consultant-access", time.Hour).WithClock(func() time.Time { return past })

	token, _, err := issuer.Sign(uuid.New(), "admin", "root@example.com")
	require.NoError(t, err)

	_, err = NewCodec("test-secret", "consultant-access", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestCodec_RejectsForeignSignature(t *testing.T) {
	token, _, err := NewCodec("other-secret", "consultant-access", time.Hour).Sign(uuid.New(), "admin", "x")
	require.NoError(t, err)

	_, err = NewCodec("test-secret", "consultant-access", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestCodec_RejectsGarbage(t *testing.T) {
	_, err := NewCodec("test-secret", "consultant-access", time.Hour).Parse("not.a.token")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestCodec_RejectsOtherIssuer(t *testing.T) {
	token, _, err := NewCodec("test-secret", "someone-else", time.Hour).Sign(uuid.New(), "admin", "x")
	require.NoError(t, err)

	_, err = NewCodec("test-secret", "consultant-access", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
