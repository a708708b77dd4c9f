package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/davidiwezulu/ecommerce/internal/domain"
	applog "github.com/davidiwezulu/ecommerce/internal/log"
	"github.com/davidiwezulu/ecommerce/internal/services"
	"github.com/davidiwezulu/ecommerce/internal/validate"
)

type CartHandler struct {
	Cart *services.CartService
}

// ensureSID gives every shopper a stable session id; it doubles as the cart
// key for guests. Logged-in users shop under their user id instead.
func ensureSID(c *fiber.Ctx) string {
	sid := c.Cookies("sid")
	if sid == "" {
		sid = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     "sid",
			Value:    sid,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
	return sid
}

// cartKey is the user id when logged in, else the session id.
func cartKey(c *fiber.Ctx) string {
	if u, ok := c.Locals("user").(*domain.User); ok && u != nil {
		return u.ID
	}
	return ensureSID(c)
}

type addCartRequest struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	var req addCartRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Malformed request body.")
	}
	pid, ok := validate.ID(req.ProductID)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "product_id"})
		return jsonError(c, fiber.StatusBadRequest, "invalid_argument", "Invalid product id.")
	}
	if err := h.Cart.Add(cartKey(c), pid, req.Qty); err != nil {
		return failWorkflow(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	cv, err := h.Cart.View(cartKey(c))
	if err != nil {
		applog.Error(c, "cart.view", err, nil)
		return jsonError(c, fiber.StatusInternalServerError, "internal", "Could not load your cart.")
	}
	return c.JSON(cv)
}

func (h *CartHandler) Update(c *fiber.Ctx) error {
	var req addCartRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Malformed request body.")
	}
	pid, ok := validate.ID(req.ProductID)
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid_argument", "Invalid product id.")
	}
	if err := h.Cart.SetQuantity(cartKey(c), pid, req.Qty); err != nil {
		return failWorkflow(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	var req addCartRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Malformed request body.")
	}
	pid, ok := validate.ID(req.ProductID)
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid_argument", "Invalid product id.")
	}
	if err := h.Cart.Remove(cartKey(c), pid); err != nil {
		return failWorkflow(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CartHandler) Clear(c *fiber.Ctx) error {
	if err := h.Cart.Clear(cartKey(c)); err != nil {
		applog.Error(c, "cart.clear", err, nil)
		return jsonError(c, fiber.StatusInternalServerError, "internal", "Could not clear your cart.")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
