package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	tok, err := GenerateToken("u1", "moderator", "s3cret", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(tok, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "moderator", claims.Role)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	tok, err := GenerateToken("u1", "admin", "s3cret", time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(tok, "other")
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	tok, err := GenerateToken("u1", "admin", "s3cret", -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(tok, "s3cret")
	assert.Error(t, err)
}
