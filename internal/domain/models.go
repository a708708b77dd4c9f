package domain

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID        string              `db:"id"`
	Name      string              `db:"name"`
	SKU       sql.NullString      `db:"sku"`
	Price     decimal.Decimal     `db:"price"`
	TaxRate   decimal.NullDecimal `db:"tax_rate"` // NULL -> use configured default rate
	Active    bool                `db:"active"`
	CreatedAt string              `db:"created_at"`
	UpdatedAt string              `db:"updated_at"`
}

type Inventory struct {
	ProductID string `db:"product_id"`
	Qty       int    `db:"qty"`
	UpdatedAt string `db:"updated_at"`
}

// CartItem is one line of a user's cart. Price and TaxAmount are snapshots
// taken when the line was added or last updated; the order workflow charges
// these snapshots, not the live product price. TaxRate comes from the joined
// product row and is unset when the product carries no per-product rate.
type CartItem struct {
	UserID    string              `db:"user_id"`
	ProductID string              `db:"product_id"`
	Qty       int                 `db:"qty"`
	Price     decimal.Decimal     `db:"price"`
	TaxAmount decimal.Decimal     `db:"tax_amount"`
	TaxRate   decimal.NullDecimal `db:"tax_rate"`
	CreatedAt string              `db:"created_at"`
	UpdatedAt string              `db:"updated_at"`
}

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusCompleted  OrderStatus = "completed"
	StatusCancelled  OrderStatus = "cancelled"
)

var statusRank = map[OrderStatus]int{
	StatusPending:    0,
	StatusProcessing: 1,
	StatusCompleted:  2,
	StatusCancelled:  2,
}

// ValidStatus reports whether s is a known order status value.
func ValidStatus(s OrderStatus) bool {
	_, ok := statusRank[s]
	return ok
}

// CanTransition enforces the one-way pending -> processing -> completed|cancelled
// lifecycle. Admin overrides bypass this check explicitly.
func CanTransition(from, to OrderStatus) bool {
	fr, ok := statusRank[from]
	if !ok {
		return false
	}
	tr, ok := statusRank[to]
	if !ok {
		return false
	}
	return tr > fr
}

type Order struct {
	ID     string          `db:"id"`
	UserID sql.NullString  `db:"user_id"` // NULL for guest orders
	Total  decimal.Decimal `db:"total"`
	Status OrderStatus     `db:"status"`
	// Gateway and TransactionID record how the order was settled so refunds
	// and manual reconciliation can locate the provider-side charge.
	Gateway       string `db:"gateway"`
	TransactionID string `db:"transaction_id"`
	CreatedAt     string `db:"created_at"`
	UpdatedAt     string `db:"updated_at"`
}

// OrderItem snapshots price, tax rate and tax amount at creation time.
// Immutable afterwards except through the admin correction operations.
type OrderItem struct {
	OrderID   string          `db:"order_id"`
	ProductID string          `db:"product_id"`
	Qty       int             `db:"qty"`
	Price     decimal.Decimal `db:"price"`
	TaxRate   decimal.Decimal `db:"tax_rate"`
	TaxAmount decimal.Decimal `db:"tax_amount"`
}

type Availability struct {
	Status string `json:"status"` // IN_STOCK | LOW_STOCK | OUT_OF_STOCK
	Qty    int    `json:"qty,omitempty"`
}
