package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/davidiwezulu/ecommerce/internal/domain"
	applog "github.com/davidiwezulu/ecommerce/internal/log"
	"github.com/davidiwezulu/ecommerce/internal/payment"
	"github.com/davidiwezulu/ecommerce/internal/services"
	"github.com/davidiwezulu/ecommerce/internal/validate"
)

type OrderHandler struct {
	Cart  *services.CartService
	Order *services.OrderService
}

type checkoutRequest struct {
	Gateway string            `json:"gateway"`
	Fields  map[string]string `json:"fields"`
}

// Checkout settles the current cart. Synchronous gateways answer 201 with the
// order; two-phase gateways answer 202 with the redirect target and the
// external order id the client must retain to resume.
func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Malformed request body.")
	}
	gateway, ok := validate.Gateway(req.Gateway)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "gateway"})
		return jsonError(c, fiber.StatusBadRequest, "invalid_argument", "Invalid gateway.")
	}

	key := cartKey(c)
	items, err := h.Cart.Items(key)
	if err != nil {
		applog.Error(c, "checkout.load_cart", err, nil)
		return jsonError(c, fiber.StatusInternalServerError, "internal", "Could not load your cart.")
	}

	res, err := h.Order.CreateOrder(c.Context(), userID(c), items, services.PaymentDetails{
		Gateway: gateway,
		Fields:  payment.Details(req.Fields),
	})
	if err != nil {
		return failWorkflow(c, err)
	}

	if res.Pending() {
		applog.Audit(c, "checkout.pending_redirect", map[string]any{
			"gateway":           gateway,
			"external_order_id": res.ExternalOrderID,
		})
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"redirect_url":      res.RedirectURL,
			"external_order_id": res.ExternalOrderID,
			"gateway":           gateway,
		})
	}

	// Settled synchronously: the cart has been charged, drop it.
	_ = h.Cart.Clear(key)
	applog.Audit(c, "order.place", map[string]any{
		"order_id": res.Order.ID,
		"gateway":  gateway,
		"total":    res.Order.Total.String(),
	})
	return c.Status(fiber.StatusCreated).JSON(orderJSON(res.Order, res.Items))
}

type resumeRequest struct {
	Gateway         string `json:"gateway"`
	ExternalOrderID string `json:"external_order_id"`
}

// Resume captures a pending two-phase payment after the shopper returns from
// the gateway. Totals are recomputed from the cart as it stands now.
func (h *OrderHandler) Resume(c *fiber.Ctx) error {
	var req resumeRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Malformed request body.")
	}
	gateway, ok := validate.Gateway(req.Gateway)
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid_argument", "Invalid gateway.")
	}
	if req.ExternalOrderID == "" {
		return jsonError(c, fiber.StatusBadRequest, "invalid_argument", "Missing external order id.")
	}

	key := cartKey(c)
	items, err := h.Cart.Items(key)
	if err != nil {
		applog.Error(c, "resume.load_cart", err, nil)
		return jsonError(c, fiber.StatusInternalServerError, "internal", "Could not load your cart.")
	}

	res, err := h.Order.ResumePayment(c.Context(), gateway, req.ExternalOrderID, userID(c), items)
	if err != nil {
		return failWorkflow(c, err)
	}

	_ = h.Cart.Clear(key)
	applog.Audit(c, "order.place", map[string]any{
		"order_id":          res.Order.ID,
		"gateway":           gateway,
		"external_order_id": req.ExternalOrderID,
		"total":             res.Order.Total.String(),
	})
	return c.Status(fiber.StatusCreated).JSON(orderJSON(res.Order, res.Items))
}

func (h *OrderHandler) View(c *fiber.Ctx) error {
	oid, ok := validate.ID(c.Params("id"))
	if !ok {
		return jsonError(c, fiber.StatusNotFound, "order_not_found", "Order not found.")
	}
	order, items, err := h.Order.Get(oid)
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "order_not_found", "Order not found.")
	}

	// Ownership: the order's user, or an admin. Guest orders are looked up by
	// the session that placed them holding the id.
	uid := userID(c)
	if order.UserID.Valid && order.UserID.String != uid {
		if u, _ := c.Locals("user").(*domain.User); u == nil || !u.Admin() {
			applog.Security(c, "access.denied.order", map[string]any{"order_id": oid})
			return jsonError(c, fiber.StatusNotFound, "order_not_found", "Order not found.")
		}
	}
	return c.JSON(orderJSON(&order, items))
}

func (h *OrderHandler) History(c *fiber.Ctx) error {
	u, _ := c.Locals("user").(*domain.User)
	if u == nil {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Log in to view your orders.")
	}
	orders, err := h.Order.Orders.ListByUser(u.ID)
	if err != nil {
		applog.Error(c, "orders.history", err, nil)
		return jsonError(c, fiber.StatusInternalServerError, "internal", "Could not load orders.")
	}
	return c.JSON(fiber.Map{"orders": orders})
}

func userID(c *fiber.Ctx) string {
	if u, ok := c.Locals("user").(*domain.User); ok && u != nil {
		return u.ID
	}
	return ensureSID(c)
}

func orderJSON(o *domain.Order, items []domain.OrderItem) fiber.Map {
	lines := make([]fiber.Map, 0, len(items))
	for _, it := range items {
		lines = append(lines, fiber.Map{
			"product_id": it.ProductID,
			"qty":        it.Qty,
			"price":      it.Price.String(),
			"tax_rate":   it.TaxRate.String(),
			"tax_amount": it.TaxAmount.String(),
		})
	}
	var uid string
	if o.UserID.Valid {
		uid = o.UserID.String
	}
	return fiber.Map{
		"id":         o.ID,
		"user_id":    uid,
		"total":      o.Total.String(),
		"status":     o.Status,
		"gateway":    o.Gateway,
		"created_at": o.CreatedAt,
		"items":      lines,
	}
}
