package handlers

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/davidiwezulu/ecommerce/internal/domain"
	applog "github.com/davidiwezulu/ecommerce/internal/log"
	"github.com/davidiwezulu/ecommerce/internal/repos"
	"github.com/davidiwezulu/ecommerce/internal/services"
	"github.com/davidiwezulu/ecommerce/internal/validate"
)

// AdminHandler bundles the back-office operations: catalog and stock upkeep,
// order status overrides, post-sale corrections and refunds. All routes
// behind RequireAdmin.
type AdminHandler struct {
	Order *services.OrderService
	Inv   *services.InventoryService
	Prods *repos.ProductRepo
}

func (h *AdminHandler) Orders(c *fiber.Ctx) error {
	out, err := h.Order.Orders.ListLatest(c.QueryInt("limit", 100))
	if err != nil {
		applog.Error(c, "admin.orders.list", err, nil)
		return jsonError(c, fiber.StatusInternalServerError, "internal", "Could not load orders.")
	}
	return c.JSON(fiber.Map{"orders": out})
}

func (h *AdminHandler) Inventory(c *fiber.Ctx) error {
	rows, err := h.Inv.Inv.ListAll()
	if err != nil {
		applog.Error(c, "admin.inventory.list", err, nil)
		return jsonError(c, fiber.StatusInternalServerError, "internal", "Could not load inventory.")
	}
	return c.JSON(fiber.Map{"inventory": rows})
}

type createProductRequest struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	SKU     string `json:"sku"`
	Price   string `json:"price"`
	TaxRate string `json:"tax_rate"` // empty: configured default applies
}

func (h *AdminHandler) CreateProduct(c *fiber.Ctx) error {
	var req createProductRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Malformed request body.")
	}
	pid, ok := validate.ID(req.ID)
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid_argument", "Invalid product id.")
	}
	name, ok := validate.Name(req.Name)
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid_argument", "Invalid product name.")
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		return jsonError(c, fiber.StatusBadRequest, "invalid_argument", "Invalid price.")
	}

	p := domain.Product{ID: pid, Name: name, Price: price, Active: true}
	if req.SKU != "" {
		p.SKU = sql.NullString{String: req.SKU, Valid: true}
	}
	if req.TaxRate != "" {
		rate, err := decimal.NewFromString(req.TaxRate)
		if err != nil || rate.IsNegative() {
			return jsonError(c, fiber.StatusBadRequest, "invalid_argument", "Invalid tax rate.")
		}
		p.TaxRate = decimal.NullDecimal{Decimal: rate, Valid: true}
	}

	if err := h.Prods.Create(p); err != nil {
		applog.Error(c, "admin.product.create", err, map[string]any{"product_id": pid})
		return jsonError(c, fiber.StatusConflict, "product_exists", "A product with that id or SKU already exists.")
	}
	applog.Audit(c, "admin.product.create", map[string]any{"product_id": pid, "price": price.String()})
	return c.Status(fiber.StatusCreated).JSON(p)
}

type restockRequest struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

func (h *AdminHandler) Restock(c *fiber.Ctx) error {
	var req restockRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Malformed request body.")
	}
	pid, ok := validate.ID(req.ProductID)
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid_argument", "Invalid product id.")
	}
	if err := h.Inv.Restock(pid, req.Qty); err != nil {
		return failWorkflow(c, err)
	}
	applog.Audit(c, "admin.restock", map[string]any{"product_id": pid, "qty": req.Qty})
	return c.SendStatus(fiber.StatusNoContent)
}

type statusRequest struct {
	Status string `json:"status"`
}

// SetStatus is the admin override: any valid status, no transition ordering.
func (h *AdminHandler) SetStatus(c *fiber.Ctx) error {
	oid, ok := validate.ID(c.Params("id"))
	if !ok {
		return jsonError(c, fiber.StatusNotFound, "order_not_found", "Order not found.")
	}
	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Malformed request body.")
	}
	if err := h.Order.UpdateStatus(oid, domain.OrderStatus(req.Status), true); err != nil {
		return failOrder(c, err)
	}
	applog.Audit(c, "admin.order.status", map[string]any{"order_id": oid, "status": req.Status})
	return c.SendStatus(fiber.StatusNoContent)
}

type correctQtyRequest struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

func (h *AdminHandler) CorrectItemQty(c *fiber.Ctx) error {
	oid, ok := validate.ID(c.Params("id"))
	if !ok {
		return jsonError(c, fiber.StatusNotFound, "order_not_found", "Order not found.")
	}
	var req correctQtyRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Malformed request body.")
	}
	pid, ok := validate.ID(req.ProductID)
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid_argument", "Invalid product id.")
	}
	if err := h.Order.CorrectItemQuantity(oid, pid, req.Qty); err != nil {
		return failOrder(c, err)
	}
	applog.Audit(c, "admin.order.correct_qty", map[string]any{"order_id": oid, "product_id": pid, "qty": req.Qty})
	return c.SendStatus(fiber.StatusNoContent)
}

// Recalculate rewrites item tax amounts and the order total from the stored
// price/rate snapshots. The explicit follow-up to CorrectItemQty.
func (h *AdminHandler) Recalculate(c *fiber.Ctx) error {
	oid, ok := validate.ID(c.Params("id"))
	if !ok {
		return jsonError(c, fiber.StatusNotFound, "order_not_found", "Order not found.")
	}
	total, err := h.Order.RecalculateTotals(oid)
	if err != nil {
		return failOrder(c, err)
	}
	applog.Audit(c, "admin.order.recalculate", map[string]any{"order_id": oid, "total": total.String()})
	return c.JSON(fiber.Map{"order_id": oid, "total": total.String()})
}

func (h *AdminHandler) Refund(c *fiber.Ctx) error {
	oid, ok := validate.ID(c.Params("id"))
	if !ok {
		return jsonError(c, fiber.StatusNotFound, "order_not_found", "Order not found.")
	}
	res, err := h.Order.Refund(c.Context(), oid)
	if err != nil {
		return failOrder(c, err)
	}
	applog.Audit(c, "admin.order.refund", map[string]any{"order_id": oid, "refund_id": res.RefundID})
	return c.JSON(fiber.Map{"order_id": oid, "refund_id": res.RefundID, "status": domain.StatusCancelled})
}
