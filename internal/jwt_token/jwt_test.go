package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "relief/pkg/domain-errors"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := NewJWTService("test-signing-key", "relief", "relief-portal")
	createdAt := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)

	t.Run("valid token carries the identity claims", func(t *testing.T) {
		tok, err := svc.GenerateAccessToken("user-1", false, createdAt, time.Hour)
		require.NoError(t, err)

		claims, err := svc.ValidateToken(tok)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)
		assert.False(t, claims.Admin)
		assert.Equal(t, createdAt.Unix(), claims.AccountCreatedAt)
		assert.Equal(t, "relief", claims.Issuer)
	})

	t.Run("admin claim survives the round trip", func(t *testing.T) {
		tok, err := svc.GenerateAccessToken("admin-1", true, createdAt, time.Hour)
		require.NoError(t, err)

		claims, err := svc.ValidateToken(tok)
		require.NoError(t, err)
		assert.True(t, claims.Admin)
	})

	t.Run("expired token is unauthorized", func(t *testing.T) {
		tok, err := svc.GenerateAccessToken("user-1", false, createdAt, -time.Minute)
		require.NoError(t, err)

		_, err = svc.ValidateToken(tok)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
		assert.Contains(t, err.Error(), "expired")
	})

	t.Run("token signed with a different key is rejected", func(t *testing.T) {
		other := NewJWTService("other-key", "relief", "relief-portal")
		tok, err := other.GenerateAccessToken("user-1", false, createdAt, time.Hour)
		require.NoError(t, err)

		_, err = svc.ValidateToken(tok)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("garbage input is rejected", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func TestToMiddlewareClaims(t *testing.T) {
	claims := &Claims{
		UserID:           "user-1",
		Admin:            true,
		AccountCreatedAt: time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC).Unix(),
	}
	mw := ToMiddlewareClaims(claims)
	assert.Equal(t, "user-1", mw.UserID)
	assert.True(t, mw.Admin)
	assert.Equal(t, claims.AccountCreatedAt, mw.AccountCreatedAt.Unix())
}
