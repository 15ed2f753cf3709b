package helpers

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestJWTManager_GenerateAndParse(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewJWTManager("super-secret", time.Hour).WithClock(fixedClock(t0))

	tok, exp, err := m.GenerateToken("user-123")
	require.NoError(t, err)
	assert.Equal(t, t0.Add(time.Hour), exp)

	claims, err := m.ParseToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, t0.Unix(), claims.IssuedAtTime().Unix())
}

func TestJWTManager_ExpiryHorizon(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewJWTManager("secret", 10*time.Minute).WithClock(fixedClock(t0))
	tok, _, err := issuer.GenerateToken("u1")
	require.NoError(t, err)

	t.Run("valid just before expiry", func(t *testing.T) {
		_, err := issuer.WithClock(fixedClock(t0.Add(9*time.Minute + 59*time.Second))).ParseToken(tok)
		require.NoError(t, err)
	})

	t.Run("expired after horizon", func(t *testing.T) {
		_, err := issuer.WithClock(fixedClock(t0.Add(10*time.Minute + time.Second))).ParseToken(tok)
		require.ErrorIs(t, err, ErrExpiredToken)
	})
}

func TestJWTManager_WrongSecret(t *testing.T) {
	tok, _, err := NewJWTManager("right-secret", time.Hour).GenerateToken("u2")
	require.NoError(t, err)

	_, err = NewJWTManager("wrong-secret", time.Hour).ParseToken(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_Malformed(t *testing.T) {
	m := NewJWTManager("k", time.Hour)

	for _, tok := range []string{"", "not.a.jwt", "abc"} {
		_, err := m.ParseToken(tok)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", tok)
	}
}

func TestJWTManager_RejectsOtherAlgorithms(t *testing.T) {
	claims := &Claims{
		UserID: "u3",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewJWTManager("k", time.Hour).ParseToken(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_RequiresSubject(t *testing.T) {
	m := NewJWTManager("k", time.Hour)
	tok, _, err := m.GenerateToken("")
	require.NoError(t, err)

	_, err = m.ParseToken(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}
