package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "github.com/davidiwezulu/ecommerce/internal/log"
	"github.com/davidiwezulu/ecommerce/internal/services"
	"github.com/davidiwezulu/ecommerce/internal/validate"
)

type AuthHandler struct {
	Auth *services.AuthService
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Malformed request body.")
	}
	email, ok := validate.Email(req.Email)
	if !ok || req.Password == "" {
		applog.Security(c, "login.reject", map[string]any{"reason": "validation"})
		return jsonError(c, fiber.StatusBadRequest, "invalid_argument", "Email and password are required.")
	}

	sid := ensureSID(c)
	u, err := h.Auth.Login(sid, email, req.Password)
	if err != nil {
		applog.Security(c, "login.fail", map[string]any{"email": email})
		return jsonError(c, fiber.StatusUnauthorized, "bad_credentials", "Invalid email or password.")
	}

	applog.Audit(c, "login.ok", map[string]any{"user_id": u.ID})
	return c.JSON(fiber.Map{"user": fiber.Map{"id": u.ID, "name": u.Name, "role": u.Role}})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := c.Cookies("sid")
	if sid != "" {
		if err := h.Auth.Logout(sid); err != nil {
			applog.Error(c, "logout", err, nil)
		}
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	u := currentUser(c)
	if u == nil {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Not logged in.")
	}
	return c.JSON(fiber.Map{"user": fiber.Map{"id": u.ID, "name": u.Name, "role": u.Role}})
}
