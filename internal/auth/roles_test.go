package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRequireRole(t *testing.T) {
	verifier := &fakeVerifier{tokens: map[string]*Claims{
		"user":    claimsWithRoles("a@x.com", "offline_access"),
		"support": claimsWithRoles("s@x.com", "soporte"),
		"admin":   claimsWithRoles("root@x.com", "admin"),
		"cased":   claimsWithRoles("c@x.com", "Soporte"),
	}}
	mw := NewAuthMiddleware(verifier, zap.NewNop())

	supportOnly := newTestApp(mw, RequireRole("soporte"))
	assert.Equal(t, http.StatusForbidden, doGet(t, supportOnly, "Bearer user").StatusCode)
	assert.Equal(t, http.StatusForbidden, doGet(t, supportOnly, "Bearer admin").StatusCode)
	assert.Equal(t, http.StatusForbidden, doGet(t, supportOnly, "Bearer cased").StatusCode)
	assert.Equal(t, http.StatusOK, doGet(t, supportOnly, "Bearer support").StatusCode)

	staff := newTestApp(mw, RequireAnyRole("soporte", "admin"))
	assert.Equal(t, http.StatusForbidden, doGet(t, staff, "Bearer user").StatusCode)
	assert.Equal(t, http.StatusOK, doGet(t, staff, "Bearer admin").StatusCode)
	assert.Equal(t, http.StatusOK, doGet(t, staff, "Bearer support").StatusCode)
}

func TestRequireRole_WithoutAuthentication(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.SendStatus(http.StatusUnauthorized)
		},
	})
	app.Get("/", RequireRole("admin"), func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
