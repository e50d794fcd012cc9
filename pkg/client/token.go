package client

import (
	"errors"
	"fmt"
	"strings"

	jwt "github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a pasted token cannot be decoded.
var ErrInvalidToken = errors.New("invalid token")

// TokenInfo is what a token claims about its holder. It is read without
// checking the signature and must only be used for display.
type TokenInfo struct {
	Subject   string
	Email     string
	Name      string
	Roles     []string
	ExpiresAt *jwt.NumericDate
}

type displayClaims struct {
	jwt.RegisteredClaims
	Email             string `json:"email"`
	PreferredUsername string `json:"preferred_username"`
	Name              string `json:"name"`
	GivenName         string `json:"given_name"`
	RealmAccess       struct {
		Roles []string `json:"roles"`
	} `json:"realm_access"`
}

// DecodeUnverified parses the payload of a JWT without verifying it.
func DecodeUnverified(token string) (TokenInfo, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return TokenInfo{}, ErrInvalidToken
	}
	var claims displayClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return TokenInfo{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	info := TokenInfo{
		Subject:   claims.Subject,
		Email:     claims.Email,
		Name:      claims.Name,
		Roles:     claims.RealmAccess.Roles,
		ExpiresAt: claims.ExpiresAt,
	}
	if info.Email == "" {
		info.Email = claims.PreferredUsername
	}
	if info.Name == "" {
		info.Name = claims.GivenName
	}
	return info, nil
}
