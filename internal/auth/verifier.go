package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/ticketflow/ticketflow/internal/config"
	"github.com/ticketflow/ticketflow/internal/domain"
)

const defaultDisplayName = "Usuario"

// ErrMissingEmail is returned for tokens that identify nobody this service
// can scope tickets to.
var ErrMissingEmail = errors.New("token carries neither email nor preferred_username")

// ErrUnstorableEmail is returned when the token email cannot be recorded as
// a ticket creator.
var ErrUnstorableEmail = errors.New("token email is too long or contains NUL bytes")

// Claims is the subset of an identity-provider access token this service reads.
type Claims struct {
	Subject           string `json:"sub"`
	Email             string `json:"email"`
	PreferredUsername string `json:"preferred_username"`
	Name              string `json:"name"`
	GivenName         string `json:"given_name"`
	RealmAccess       struct {
		Roles []string `json:"roles"`
	} `json:"realm_access"`
}

// Identity derives the request identity from the verified claims.
func (c Claims) Identity() (domain.Identity, error) {
	email := c.Email
	if email == "" {
		email = c.PreferredUsername
	}
	if email == "" {
		return domain.Identity{}, ErrMissingEmail
	}
	if utf8.RuneCountInString(email) > domain.MaxEmailLength || strings.ContainsRune(email, 0) {
		return domain.Identity{}, ErrUnstorableEmail
	}

	name := domain.StorableName(strings.TrimSpace(c.Name))
	if name == "" {
		name = domain.StorableName(strings.TrimSpace(c.GivenName))
	}
	if name == "" {
		name = defaultDisplayName
	}

	roles := make([]string, len(c.RealmAccess.Roles))
	copy(roles, c.RealmAccess.Roles)
	return domain.Identity{Email: email, Name: name, Roles: roles}, nil
}

// TokenVerifier checks a raw bearer token and returns its claims.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (*Claims, error)
}

// OIDCVerifier validates signatures against the identity provider's JWKS and
// checks issuer, audience and expiry.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier builds a verifier backed by the remote key set at
// cfg.JWKSURI. Keys are fetched lazily and cached by the key set for the
// life of ctx; an unknown key id triggers a refetch.
func NewOIDCVerifier(ctx context.Context, cfg config.AuthConfig) (*OIDCVerifier, error) {
	if cfg.JWKSURI == "" {
		return nil, errors.New("jwks uri is required")
	}
	if cfg.Issuer == "" {
		return nil, errors.New("issuer is required")
	}
	return newOIDCVerifier(oidc.NewRemoteKeySet(ctx, cfg.JWKSURI), cfg), nil
}

func newOIDCVerifier(keySet oidc.KeySet, cfg config.AuthConfig) *OIDCVerifier {
	algs := cfg.SigningAlgs
	if len(algs) == 0 {
		algs = []string{oidc.RS256}
	}
	return &OIDCVerifier{
		verifier: oidc.NewVerifier(cfg.Issuer, keySet, &oidc.Config{
			ClientID:             cfg.Audience,
			SkipClientIDCheck:    cfg.Audience == "",
			SupportedSigningAlgs: algs,
		}),
	}
}

// Verify implements TokenVerifier.
func (v *OIDCVerifier) Verify(ctx context.Context, raw string) (*Claims, error) {
	token, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	var claims Claims
	if err := token.Claims(&claims); err != nil {
		return nil, fmt.Errorf("decode claims: %w", err)
	}
	return &claims, nil
}
