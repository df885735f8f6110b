package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthServiceRoundTrip(t *testing.T) {
	auth := NewAuthService("secret", time.Hour)

	token, err := auth.IssueToken("alice")
	require.NoError(t, err)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Name)
	assert.NotEmpty(t, claims.ID)
}

func TestAuthServiceRejectsBadTokens(t *testing.T) {
	auth := NewAuthService("secret", time.Hour)

	other, err := NewAuthService("other-secret", time.Hour).IssueToken("alice")
	require.NoError(t, err)
	expired, err := NewAuthService("secret", -time.Minute).IssueToken("alice")
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": other,
		"expired":      expired,
		"empty":        "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := auth.ValidateToken(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
