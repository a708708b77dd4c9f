package services

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/davidiwezulu/ecommerce/internal/domain"
	applog "github.com/davidiwezulu/ecommerce/internal/log"
	"github.com/davidiwezulu/ecommerce/internal/metrics"
	"github.com/davidiwezulu/ecommerce/internal/payment"
	"github.com/davidiwezulu/ecommerce/internal/pricing"
	"github.com/davidiwezulu/ecommerce/internal/repos"
)

// OrderService runs the settlement workflow: validate -> price -> charge ->
// persist. Synchronous gateways complete in one CreateOrder call; two-phase
// gateways return a pending redirect from CreateOrder and settle in
// ResumePayment. The persist step is one sqlite transaction covering the
// order row, its items and the inventory decrements.
type OrderService struct {
	Prods    *repos.ProductRepo
	Inv      *repos.InventoryRepo
	Orders   *repos.OrderRepo
	Gateways *payment.Registry

	DefaultTaxRate decimal.Decimal
	TaxInclusive   bool
}

func NewOrderService(prods *repos.ProductRepo, inv *repos.InventoryRepo, orders *repos.OrderRepo, gateways *payment.Registry, defaultTaxRate decimal.Decimal, taxInclusive bool) *OrderService {
	return &OrderService{
		Prods:          prods,
		Inv:            inv,
		Orders:         orders,
		Gateways:       gateways,
		DefaultTaxRate: defaultTaxRate,
		TaxInclusive:   taxInclusive,
	}
}

// PaymentDetails selects the gateway and carries its opaque fields
// (card token, shopper email, ...).
type PaymentDetails struct {
	Gateway string          `json:"gateway"`
	Fields  payment.Details `json:"fields"`
}

// PlaceResult is either a persisted order (synchronous settlement) or a
// pending redirect (two-phase). When Pending, the caller must retain
// ExternalOrderID together with the gateway key to resume.
type PlaceResult struct {
	Order *domain.Order
	Items []domain.OrderItem

	RedirectURL     string
	ExternalOrderID string
}

func (r *PlaceResult) Pending() bool { return r.RedirectURL != "" }

// CreateOrder runs the workflow for the given cart lines. userID may be empty
// for guest checkout. Validation and pricing failures abort before any
// external call; charge failures abort with no local side effects; a persist
// failure after a captured synchronous charge is wrapped as
// PostChargePersistenceError and must be reconciled manually.
func (s *OrderService) CreateOrder(ctx context.Context, userID string, items []domain.CartItem, pay PaymentDetails) (*PlaceResult, error) {
	if err := s.validate(items); err != nil {
		return nil, err
	}
	total := pricing.OrderTotal(items)

	provider, err := s.Gateways.Resolve(pay.Gateway)
	if err != nil {
		return nil, err
	}

	res, err := provider.Charge(ctx, total, pay.Fields)
	if err != nil {
		metrics.PaymentFailures.WithLabelValues(pay.Gateway, failureKind(err)).Inc()
		return nil, err
	}

	if res.Pending() {
		// Two-phase gateway: no order row, no inventory mutation yet.
		return &PlaceResult{RedirectURL: res.RedirectURL, ExternalOrderID: res.ExternalOrderID}, nil
	}

	order, orderItems, err := s.persist(userID, items, total, pay.Gateway, res.TransactionID)
	if err != nil {
		// Funds are already captured: the severe partial-failure class.
		pcErr := &domain.PostChargePersistenceError{Gateway: pay.Gateway, TransactionID: res.TransactionID, Err: err}
		metrics.ReconciliationFailures.Inc()
		applog.Error(nil, "order.reconciliation_gap", pcErr, map[string]any{
			"gateway":        pay.Gateway,
			"transaction_id": res.TransactionID,
		})
		return nil, pcErr
	}

	metrics.OrdersPlaced.WithLabelValues(pay.Gateway).Inc()
	return &PlaceResult{Order: order, Items: orderItems}, nil
}

// ResumePayment settles a pending two-phase checkout. The total is recomputed
// fresh from the supplied cart lines, never trusted from the initial call.
func (s *OrderService) ResumePayment(ctx context.Context, gateway, externalOrderID, userID string, items []domain.CartItem) (*PlaceResult, error) {
	if externalOrderID == "" {
		return nil, errors.Wrap(domain.ErrInvalidArgument, "external order id is required")
	}
	// Fail fast before capturing: stock may have been sold while the shopper
	// was away approving the payment.
	if err := s.validate(items); err != nil {
		return nil, err
	}
	total := pricing.OrderTotal(items)

	provider, err := s.Gateways.Resolve(gateway)
	if err != nil {
		return nil, err
	}

	res, err := provider.Execute(ctx, externalOrderID)
	if err != nil {
		metrics.PaymentFailures.WithLabelValues(gateway, failureKind(err)).Inc()
		return nil, err
	}

	order, orderItems, err := s.persist(userID, items, total, gateway, res.TransactionID)
	if err != nil {
		pcErr := &domain.PostChargePersistenceError{Gateway: gateway, TransactionID: res.TransactionID, Err: err}
		metrics.ReconciliationFailures.Inc()
		applog.Error(nil, "order.reconciliation_gap", pcErr, map[string]any{
			"gateway":        gateway,
			"transaction_id": res.TransactionID,
		})
		return nil, pcErr
	}

	metrics.OrdersPlaced.WithLabelValues(gateway).Inc()
	return &PlaceResult{Order: order, Items: orderItems}, nil
}

// validate checks every line before any external call: the product must exist
// and the requested quantity must look available. This is the cheap fail-fast
// pass; the decrement at persist time is the real safety mechanism.
func (s *OrderService) validate(items []domain.CartItem) error {
	if len(items) == 0 {
		return domain.ErrEmptyCart
	}
	for _, it := range items {
		if it.Qty <= 0 {
			return errors.Wrapf(domain.ErrInvalidArgument, "quantity for %s", it.ProductID)
		}
		if _, err := s.Prods.Get(it.ProductID); err != nil {
			return err
		}
		ok, err := s.Inv.CheckAvailable(it.ProductID, it.Qty)
		if err != nil {
			return err
		}
		if !ok {
			have, qerr := s.Inv.Qty(it.ProductID)
			if qerr != nil && !errors.Is(qerr, domain.ErrInventoryNotFound) {
				return qerr
			}
			return &domain.InsufficientInventoryError{ProductID: it.ProductID, Requested: it.Qty, Available: have}
		}
	}
	return nil
}

// persist writes the order, its items and the inventory decrements in one
// transaction. The guarded decrement re-validates stock at write time, so a
// concurrent sale between validation and here rolls the whole unit back.
func (s *OrderService) persist(userID string, items []domain.CartItem, total decimal.Decimal, gateway, transactionID string) (*domain.Order, []domain.OrderItem, error) {
	tx, err := s.Orders.Begin()
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback() }()

	order := domain.Order{
		ID:            uuid.NewString(),
		UserID:        nullableUser(userID),
		Total:         total,
		Status:        domain.StatusProcessing,
		Gateway:       gateway,
		TransactionID: transactionID,
	}
	if err := s.Orders.InsertTx(tx, order); err != nil {
		return nil, nil, err
	}

	orderItems := make([]domain.OrderItem, 0, len(items))
	for _, it := range items {
		oi := domain.OrderItem{
			OrderID:   order.ID,
			ProductID: it.ProductID,
			Qty:       it.Qty,
			Price:     it.Price,
			TaxRate:   s.rateFor(it.TaxRate),
			TaxAmount: it.TaxAmount,
		}
		if err := s.Orders.InsertItemTx(tx, oi); err != nil {
			return nil, nil, err
		}
		if err := s.Inv.DecrementTx(tx, it.ProductID, it.Qty); err != nil {
			return nil, nil, err
		}
		orderItems = append(orderItems, oi)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, errors.Wrap(err, "commit order")
	}
	return &order, orderItems, nil
}

// Get loads an order with its items.
func (s *OrderService) Get(orderID string) (domain.Order, []domain.OrderItem, error) {
	return s.Orders.Get(orderID)
}

// UpdateStatus moves an order along its lifecycle. Non-admin callers are held
// to the one-way pending -> processing -> completed|cancelled ordering.
func (s *OrderService) UpdateStatus(orderID string, status domain.OrderStatus, admin bool) error {
	if !domain.ValidStatus(status) {
		return errors.Wrapf(domain.ErrInvalidArgument, "status %q", status)
	}
	order, _, err := s.Orders.Get(orderID)
	if err != nil {
		return err
	}
	if !admin && !domain.CanTransition(order.Status, status) {
		return errors.Wrapf(domain.ErrInvalidArgument, "transition %s -> %s", order.Status, status)
	}
	return s.Orders.UpdateStatus(orderID, status)
}

// CorrectItemQuantity is the admin correction for a persisted order item.
// It deliberately does not touch the order total; RecalculateTotals is the
// explicit follow-up.
func (s *OrderService) CorrectItemQuantity(orderID, productID string, qty int) error {
	if qty <= 0 {
		return errors.Wrap(domain.ErrInvalidArgument, "quantity must be positive")
	}
	return s.Orders.UpdateItemQty(orderID, productID, qty)
}

// RecalculateTotals recomputes each item's tax amount from its price and tax
// rate snapshots under the current tax mode, then rewrites the order total.
func (s *OrderService) RecalculateTotals(orderID string) (decimal.Decimal, error) {
	_, items, err := s.Orders.Get(orderID)
	if err != nil {
		return decimal.Zero, err
	}
	for i, it := range items {
		tax, err := pricing.LineTax(it.Price, it.TaxRate, s.TaxInclusive)
		if err != nil {
			return decimal.Zero, err
		}
		if !tax.Equal(it.TaxAmount) {
			if err := s.Orders.UpdateItemTax(orderID, it.ProductID, tax); err != nil {
				return decimal.Zero, err
			}
		}
		items[i].TaxAmount = tax
	}
	total := pricing.ItemsTotal(items)
	if err := s.Orders.UpdateTotal(orderID, total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// Refund reverses a settled order's charge through its original gateway and
// cancels the order. Gateways without refund support surface ErrNotImplemented.
func (s *OrderService) Refund(ctx context.Context, orderID string) (*payment.RefundResult, error) {
	order, _, err := s.Orders.Get(orderID)
	if err != nil {
		return nil, err
	}
	if order.TransactionID == "" {
		return nil, errors.Wrap(domain.ErrInvalidArgument, "order has no captured transaction")
	}
	provider, err := s.Gateways.Resolve(order.Gateway)
	if err != nil {
		return nil, err
	}
	res, err := provider.Refund(ctx, order.TransactionID)
	if err != nil {
		return nil, err
	}
	if err := s.Orders.UpdateStatus(orderID, domain.StatusCancelled); err != nil {
		return res, err
	}
	return res, nil
}

func (s *OrderService) rateFor(productRate decimal.NullDecimal) decimal.Decimal {
	if productRate.Valid {
		return productRate.Decimal
	}
	return s.DefaultTaxRate
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, payment.ErrAuthenticationFailed):
		return "auth"
	case errors.Is(err, payment.ErrNotImplemented):
		return "not_implemented"
	default:
		return "gateway"
	}
}

func nullableUser(userID string) sql.NullString {
	if userID == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: userID, Valid: true}
}
