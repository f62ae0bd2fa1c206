package jwt

import (
	"activity-assistant/config"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	cfg := *config.Get()
	cfg.JWT.AccessSecret = "secret"
	config.Set(&cfg)

	token, err := CreateToken("u1")
	require.NoError(t, err)

	claims, ok := ParseToken(token)
	require.True(t, ok)
	assert.Equal(t, "u1", claims.UserID)

	_, ok = ParseToken(token + "x")
	assert.False(t, ok)

	cfg.JWT.AccessSecret = "other"
	config.Set(&cfg)
	_, ok = ParseToken(token)
	assert.False(t, ok, "密钥不同")
}
