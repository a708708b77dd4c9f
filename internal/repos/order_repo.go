package repos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/davidiwezulu/ecommerce/internal/domain"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

// Begin opens the transaction the settlement step runs in. The order insert,
// its items and the inventory decrements must commit or roll back together.
func (r *OrderRepo) Begin() (*sqlx.Tx, error) {
	tx, err := r.db.Beginx()
	return tx, errors.Wrap(err, "begin order tx")
}

func (r *OrderRepo) InsertTx(tx *sqlx.Tx, o domain.Order) error {
	_, err := tx.Exec(`
	  INSERT INTO orders(id, user_id, total, status, gateway, transaction_id, created_at)
	  VALUES(?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, o.ID, o.UserID, o.Total, o.Status, o.Gateway, o.TransactionID)
	return errors.Wrap(err, "insert order")
}

func (r *OrderRepo) InsertItemTx(tx *sqlx.Tx, it domain.OrderItem) error {
	_, err := tx.Exec(`
	  INSERT INTO order_items(order_id, product_id, qty, price, tax_rate, tax_amount)
	  VALUES(?, ?, ?, ?, ?, ?)
	`, it.OrderID, it.ProductID, it.Qty, it.Price, it.TaxRate, it.TaxAmount)
	return errors.Wrap(err, "insert order item")
}

func (r *OrderRepo) Get(orderID string) (domain.Order, []domain.OrderItem, error) {
	var o domain.Order
	err := r.db.Get(&o, `
		SELECT id, user_id, total, status, gateway, transaction_id,
		       created_at, COALESCE(updated_at,'') AS updated_at
		FROM orders WHERE id = ?
	`, orderID)
	if err == sql.ErrNoRows {
		return domain.Order{}, nil, errors.Wrapf(domain.ErrOrderNotFound, "%s", orderID)
	}
	if err != nil {
		return domain.Order{}, nil, errors.Wrap(err, "get order")
	}

	var items []domain.OrderItem
	if err := r.db.Select(&items, `
		SELECT order_id, product_id, qty, price, tax_rate, tax_amount
		FROM order_items WHERE order_id = ?
		ORDER BY product_id
	`, orderID); err != nil {
		return domain.Order{}, nil, errors.Wrap(err, "get order items")
	}

	return o, items, nil
}

type OrderSummary struct {
	ID        string          `db:"id"`
	UserID    sql.NullString  `db:"user_id"`
	Total     decimal.Decimal `db:"total"`
	Status    string          `db:"status"`
	CreatedAt string          `db:"created_at"`
}

func (r *OrderRepo) ListByUser(userID string) ([]OrderSummary, error) {
	var out []OrderSummary
	err := r.db.Select(&out, `
		SELECT id, user_id, total, status, created_at
		FROM orders
		WHERE user_id = ?
		ORDER BY datetime(created_at) DESC
	`, userID)
	return out, errors.Wrap(err, "list orders by user")
}

func (r *OrderRepo) ListLatest(limit int) ([]OrderSummary, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []OrderSummary
	err := r.db.Select(&out, `
		SELECT id, user_id, total, status, created_at
		FROM orders
		ORDER BY datetime(created_at) DESC
		LIMIT ?
	`, limit)
	return out, errors.Wrap(err, "list latest orders")
}

func (r *OrderRepo) UpdateStatus(orderID string, status domain.OrderStatus) error {
	res, err := r.db.Exec(`
		UPDATE orders SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, status, orderID)
	if err != nil {
		return errors.Wrap(err, "update order status")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(domain.ErrOrderNotFound, "%s", orderID)
	}
	return nil
}

// UpdateItemQty is the admin quantity-correction operation. The order total
// is NOT recomputed here; recalculation is explicit (see UpdateItemTax /
// UpdateTotal callers).
func (r *OrderRepo) UpdateItemQty(orderID, productID string, qty int) error {
	res, err := r.db.Exec(`
		UPDATE order_items SET qty = ? WHERE order_id = ? AND product_id = ?
	`, qty, orderID, productID)
	if err != nil {
		return errors.Wrap(err, "update order item qty")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(domain.ErrOrderNotFound, "order %s item %s", orderID, productID)
	}
	return nil
}

func (r *OrderRepo) UpdateItemTax(orderID, productID string, taxAmount decimal.Decimal) error {
	res, err := r.db.Exec(`
		UPDATE order_items SET tax_amount = ? WHERE order_id = ? AND product_id = ?
	`, taxAmount, orderID, productID)
	if err != nil {
		return errors.Wrap(err, "update order item tax")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(domain.ErrOrderNotFound, "order %s item %s", orderID, productID)
	}
	return nil
}

func (r *OrderRepo) UpdateTotal(orderID string, total decimal.Decimal) error {
	res, err := r.db.Exec(`
		UPDATE orders SET total = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, total, orderID)
	if err != nil {
		return errors.Wrap(err, "update order total")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(domain.ErrOrderNotFound, "%s", orderID)
	}
	return nil
}
