package middleware

import (
	"strconv"

	"github.com/duomind/backend/internal/core/ports"
	"github.com/duomind/backend/internal/domain"
	"github.com/gofiber/fiber/v2"
)

const userLocalKey = "current_user"

// UserAuth resolves the User-ID header into a full user record. Identity
// verification happens upstream; this layer only needs a trusted caller
// object for ownership and role checks.
func UserAuth(users ports.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Get("User-ID")
		if raw == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "authentication required",
			})
		}

		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid user id",
			})
		}

		user, err := users.GetByID(c.Context(), uint(id))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "user not found",
			})
		}

		c.Locals(userLocalKey, user)
		return c.Next()
	}
}

// RequireAdmin must run after UserAuth.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil || !user.IsAdmin() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "administrator access required",
			})
		}
		return c.Next()
	}
}

func CurrentUser(c *fiber.Ctx) *domain.User {
	user, _ := c.Locals(userLocalKey).(*domain.User)
	return user
}
