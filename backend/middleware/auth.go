package middleware

import (
	"github.com/gofiber/fiber/v2"

	"testplatform/backend/config"
	"testplatform/backend/utils"
)

const (
	LocalUserID = "user_id"
	LocalRole   = "role"
)

// AuthMiddleware verifies the JWT and stores the caller's identity in locals.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, role, err := utils.ExtractUserFromToken(c, cfg)
		if err != nil {
			return utils.Unauthorized(c, "Unauthorized")
		}
		c.Locals(LocalUserID, userID)
		c.Locals(LocalRole, role)
		return c.Next()
	}
}

// RequireRole gates a route group to a single role.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Locals(LocalRole) != role {
			return utils.Forbidden(c, "Forbidden - "+role+" access required")
		}
		return c.Next()
	}
}

// UserID returns the authenticated user id stored by AuthMiddleware.
func UserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(LocalUserID).(uint)
	return id
}
