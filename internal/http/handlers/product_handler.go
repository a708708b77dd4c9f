package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "github.com/davidiwezulu/ecommerce/internal/log"
	"github.com/davidiwezulu/ecommerce/internal/repos"
	"github.com/davidiwezulu/ecommerce/internal/services"
	"github.com/davidiwezulu/ecommerce/internal/validate"
)

type ProductHandler struct {
	Prods *repos.ProductRepo
	Inv   *services.InventoryService
}

func (h *ProductHandler) List(c *fiber.Ctx) error {
	ps, err := h.Prods.List(c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		applog.Error(c, "products.list", err, nil)
		return jsonError(c, fiber.StatusInternalServerError, "internal", "Could not load products.")
	}
	return c.JSON(fiber.Map{"products": ps})
}

func (h *ProductHandler) Get(c *fiber.Ctx) error {
	pid, ok := validate.ID(c.Params("id"))
	if !ok {
		return jsonError(c, fiber.StatusNotFound, "product_not_found", "Product not found.")
	}
	p, err := h.Prods.Get(pid)
	if err != nil {
		return failWorkflow(c, err)
	}
	return c.JSON(p)
}

// Availability classifies live stock for a product without exposing exact
// counts to anonymous shoppers.
func (h *ProductHandler) Availability(c *fiber.Ctx) error {
	pid, ok := validate.ID(c.Params("id"))
	if !ok {
		return jsonError(c, fiber.StatusNotFound, "product_not_found", "Product not found.")
	}
	if _, err := h.Prods.Get(pid); err != nil {
		return failWorkflow(c, err)
	}
	av, err := h.Inv.CheckAvailability(pid)
	if err != nil {
		applog.Error(c, "inventory.availability", err, map[string]any{"product_id": pid})
		return jsonError(c, fiber.StatusInternalServerError, "internal", "Could not check availability.")
	}
	return c.JSON(fiber.Map{"product_id": pid, "status": av.Status})
}
