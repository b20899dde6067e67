package jwtutil

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignParse(t *testing.T) {
	s := &Signer{Secret: []byte("k"), Issuer: "esn-monitor", ExpMin: 5}

	tok, err := s.Sign(7, "alice", "admin")
	require.NoError(t, err)

	c, err := s.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, uint(7), c.UserID)
	assert.Equal(t, "alice", c.Username)
	assert.Equal(t, "alice", c.Subject)
	assert.Equal(t, "admin", c.Role)
}

func TestParseRejects(t *testing.T) {
	s := &Signer{Secret: []byte("k"), Issuer: "esn-monitor", ExpMin: 5}

	other := &Signer{Secret: []byte("other"), Issuer: "esn-monitor", ExpMin: 5}
	tok, err := other.Sign(1, "bob", "viewer")
	require.NoError(t, err)
	_, err = s.Parse(tok)
	assert.Error(t, err, "wrong secret")

	wrongIss := &Signer{Secret: []byte("k"), Issuer: "someone-else", ExpMin: 5}
	tok, err = wrongIss.Sign(1, "bob", "viewer")
	require.NoError(t, err)
	_, err = s.Parse(tok)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: 1, Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "esn-monitor", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
	})
	tok, err = expired.SignedString([]byte("k"))
	require.NoError(t, err)
	_, err = s.Parse(tok)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: 1, RegisteredClaims: jwt.RegisteredClaims{Issuer: "esn-monitor"}})
	tok, err = noExp.SignedString([]byte("k"))
	require.NoError(t, err)
	_, err = s.Parse(tok)
	assert.Error(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1, RegisteredClaims: jwt.RegisteredClaims{Issuer: "esn-monitor", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}})
	tok, err = none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = s.Parse(tok)
	assert.Error(t, err)
}
