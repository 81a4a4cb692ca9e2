package auth

import (
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func TestTokenManager_IssueAndVerify(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)}
	tm := NewTokenManager("test-secret", 0, WithClock(clock.Now))

	token, issued, err := tm.Issue("u1", "u1@example.edu")
	require.NoError(t, err)
	assert.NotEmpty(t, issued.ID)
	assert.Equal(t, clock.now.Add(DefaultTokenTTL), issued.ExpiresAtTime())

	claims, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "u1@example.edu", claims.Email)
	assert.Equal(t, issued.ID, claims.ID)

	clock.now = clock.now.Add(DefaultTokenTTL + time.Second)
	_, err = tm.Verify(token)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestTokenManager_FlippedSignature(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	token, _, err := tm.Issue("u1", "u1@example.edu")
	require.NoError(t, err)

	sigStart := strings.LastIndex(token, ".") + 1
	idx := sigStart + 5
	replacement := byte('A')
	if token[idx] == 'A' {
		replacement = 'B'
	}
	tampered := token[:idx] + string(replacement) + token[idx+1:]

	_, err = tm.Verify(tampered)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestTokenManager_Rejections(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	other := NewTokenManager("other-secret", time.Hour)

	foreign, _, err := other.Issue("u1", "u1@example.edu")
	require.NoError(t, err)
	_, err = tm.Verify(foreign)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = tm.Verify("not-a-jwt")
	assert.ErrorIs(t, err, ErrMalformedToken)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "u1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = tm.Verify(raw)
	assert.Error(t, err)

	noExpiry := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1"})
	raw, err = noExpiry.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = tm.Verify(raw)
	assert.Error(t, err)

	_, _, err = tm.Issue("", "x@example.edu")
	assert.Error(t, err)
}
