package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"github.com/davidiwezulu/ecommerce/internal/domain"
	applog "github.com/davidiwezulu/ecommerce/internal/log"
	"github.com/davidiwezulu/ecommerce/internal/payment"
)

func jsonError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error":   code,
		"message": message,
	})
}

// failOrder is failWorkflow plus the order-lookup miss that only the order
// management routes can hit.
func failOrder(c *fiber.Ctx, err error) error {
	if errors.Is(err, domain.ErrOrderNotFound) {
		return jsonError(c, fiber.StatusNotFound, "order_not_found", "Order not found.")
	}
	return failWorkflow(c, err)
}

// failWorkflow maps the workflow error taxonomy onto HTTP responses. The
// message stays user-safe; details go to the log.
func failWorkflow(c *fiber.Ctx, err error) error {
	var insuff *domain.InsufficientInventoryError
	var gw *payment.GatewayError
	var pc *domain.PostChargePersistenceError

	switch {
	case errors.As(err, &pc):
		// Captured funds with no order row: operators must reconcile.
		applog.Error(c, "checkout.reconciliation_gap", err, map[string]any{
			"gateway":        pc.Gateway,
			"transaction_id": pc.TransactionID,
		})
		return jsonError(c, fiber.StatusInternalServerError, "settlement_incomplete",
			"Payment was taken but the order could not be recorded. Support has been notified; do not retry.")

	case errors.Is(err, payment.ErrAuthenticationFailed):
		// Configuration bug, not a shopper problem.
		applog.Error(c, "checkout.gateway_auth", err, nil)
		return jsonError(c, fiber.StatusBadGateway, "gateway_unavailable",
			"Payment is temporarily unavailable. Please try again later.")

	case errors.As(err, &insuff):
		return jsonError(c, fiber.StatusConflict, "insufficient_inventory",
			"Not enough stock for "+insuff.ProductID+". Please adjust your cart.")

	case errors.As(err, &gw):
		// Provider message is preserved for display (declined card etc.).
		applog.Info(c, "checkout.gateway_declined", map[string]any{"gateway": gw.Gateway, "detail": gw.Message})
		return jsonError(c, fiber.StatusPaymentRequired, "payment_failed", gw.Message)

	case errors.Is(err, payment.ErrNotImplemented):
		return jsonError(c, fiber.StatusNotImplemented, "not_supported",
			"The selected gateway does not support this operation.")

	case errors.Is(err, payment.ErrUnknownGateway):
		return jsonError(c, fiber.StatusBadRequest, "unknown_gateway", "Unknown payment gateway.")

	case errors.Is(err, domain.ErrProductNotFound):
		return jsonError(c, fiber.StatusNotFound, "product_not_found", "A product in your cart no longer exists.")

	case errors.Is(err, domain.ErrEmptyCart):
		return jsonError(c, fiber.StatusBadRequest, "empty_cart", "Your cart is empty.")

	case errors.Is(err, domain.ErrInvalidArgument):
		return jsonError(c, fiber.StatusBadRequest, "invalid_argument", "Invalid request.")

	default:
		applog.Error(c, "checkout.error", err, nil)
		return jsonError(c, fiber.StatusInternalServerError, "internal", "Something went wrong. Please try again.")
	}
}
