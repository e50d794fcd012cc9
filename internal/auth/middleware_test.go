package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/ticketflow/ticketflow/pkg/util/errorutil"
)

// fakeVerifier accepts a fixed set of raw tokens.
type fakeVerifier struct {
	tokens map[string]*Claims
}

func (f *fakeVerifier) Verify(_ context.Context, raw string) (*Claims, error) {
	if claims, ok := f.tokens[raw]; ok {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

func claimsWithRoles(email string, roles ...string) *Claims {
	c := &Claims{Email: email, Name: "Test"}
	c.RealmAccess.Roles = roles
	return c
}

func newTestApp(mw *AuthMiddleware, guards ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"error": fiber.Map{"code": de.Code, "message": de.Message}})
		},
	})
	handlers := append([]fiber.Handler{mw.Handle}, guards...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return c.SendStatus(http.StatusTeapot)
		}
		return c.JSON(fiber.Map{"email": identity.Email, "roles": identity.Roles})
	})
	app.Get("/", handlers...)
	return app
}

func doGet(t *testing.T, app *fiber.App, authHeader string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestAuthMiddleware(t *testing.T) {
	verifier := &fakeVerifier{tokens: map[string]*Claims{
		"good":     claimsWithRoles("a@x.com"),
		"no-email": {Name: "Ghost"},
	}}
	app := newTestApp(NewAuthMiddleware(verifier, zap.NewNop()))

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"bearer without token", "Bearer ", http.StatusUnauthorized},
		{"unknown token", "Bearer forged", http.StatusUnauthorized},
		{"token without email", "Bearer no-email", http.StatusUnauthorized},
		{"valid", "Bearer good", http.StatusOK},
		{"scheme is case-insensitive", "bearer good", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := doGet(t, app, tc.header)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestAuthMiddleware_AttachesIdentity(t *testing.T) {
	verifier := &fakeVerifier{tokens: map[string]*Claims{"good": claimsWithRoles("a@x.com", "soporte")}}
	app := newTestApp(NewAuthMiddleware(verifier, zap.NewNop()))

	resp := doGet(t, app, "Bearer good")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Email string   `json:"email"`
		Roles []string `json:"roles"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "a@x.com", body.Email)
	assert.Equal(t, []string{"soporte"}, body.Roles)
}

func TestAuthMiddleware_WithOIDCVerifier(t *testing.T) {
	issuer := newTestIssuer(t)
	v := newTestVerifier(t, issuer, testAudience)
	app := newTestApp(NewAuthMiddleware(v, zap.NewNop()))

	resp := doGet(t, app, "Bearer "+signRS256(t, issuer.key, baseClaims()))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doGet(t, app, "Bearer "+unsignedToken(t, baseClaims()))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
