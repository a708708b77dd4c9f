package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/davidiwezulu/ecommerce/internal/domain"
	applog "github.com/davidiwezulu/ecommerce/internal/log"
	"github.com/davidiwezulu/ecommerce/internal/services"
)

// LoadUser resolves the session cookie into a *domain.User local. It never
// rejects: anonymous shoppers continue as guests.
func LoadUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if sid := c.Cookies("sid"); sid != "" {
			if u, err := auth.CurrentUser(sid); err == nil && u != nil {
				c.Locals("user", u)
			}
		}
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}

func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if currentUser(c) == nil {
			return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Log in first.")
		}
		return c.Next()
	}
}

func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := currentUser(c)
		if u == nil {
			return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Log in first.")
		}
		if !u.Admin() {
			applog.Security(c, "access.denied.admin", map[string]any{"user_id": u.ID})
			return jsonError(c, fiber.StatusForbidden, "forbidden", "Admin access required.")
		}
		return c.Next()
	}
}
