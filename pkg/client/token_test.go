package client

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedHS256(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("irrelevant"))
	require.NoError(t, err)
	return token
}

func TestDecodeUnverified(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signedHS256(t, jwt.MapClaims{
		"sub":          "user-1",
		"email":        "a@x.com",
		"name":         "Ana Example",
		"realm_access": map[string]any{"roles": []string{"soporte"}},
		"exp":          exp.Unix(),
	})

	info, err := DecodeUnverified(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", info.Subject)
	assert.Equal(t, "a@x.com", info.Email)
	assert.Equal(t, "Ana Example", info.Name)
	assert.Equal(t, []string{"soporte"}, info.Roles)
	require.NotNil(t, info.ExpiresAt)
	assert.True(t, info.ExpiresAt.Time.Equal(exp))
}

func TestDecodeUnverified_Fallbacks(t *testing.T) {
	info, err := DecodeUnverified(signedHS256(t, jwt.MapClaims{
		"preferred_username": "ana",
		"given_name":         "Ana",
	}))
	require.NoError(t, err)
	assert.Equal(t, "ana", info.Email)
	assert.Equal(t, "Ana", info.Name)
	assert.Nil(t, info.ExpiresAt)
}

func TestDecodeUnverified_Rejects(t *testing.T) {
	for _, raw := range []string{"", "   ", "not-a-jwt", "a.b", "a.!!!.c"} {
		_, err := DecodeUnverified(raw)
		assert.ErrorIs(t, err, ErrInvalidToken, raw)
	}
}
