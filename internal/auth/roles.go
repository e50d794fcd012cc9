package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/ticketflow/ticketflow/pkg/util/errorutil"
)

// RequireRole allows the request only when the caller holds exactly role.
// Mount after AuthMiddleware.Handle.
func RequireRole(role string) fiber.Handler {
	return RequireAnyRole(role)
}

// RequireAnyRole allows the request when the caller holds at least one of roles.
func RequireAnyRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		for _, role := range roles {
			if identity.HasRole(role) {
				return c.Next()
			}
		}
		return apperrors.NewForbidden("insufficient role")
	}
}
