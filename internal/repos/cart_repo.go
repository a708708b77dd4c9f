package repos

import (
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/davidiwezulu/ecommerce/internal/domain"
)

type CartRepo struct{ db *sqlx.DB }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

// UpsertItem adds a line or accumulates quantity on an existing one. The
// price/tax snapshot is refreshed on repeat add so the latest add-time price
// wins for the whole line.
func (r *CartRepo) UpsertItem(userID, productID string, qty int, price, taxAmount decimal.Decimal) error {
	_, err := r.db.Exec(`
		INSERT INTO cart_items(user_id, product_id, qty, price, tax_amount, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id, product_id) DO UPDATE
		SET qty        = cart_items.qty + excluded.qty,
		    price      = excluded.price,
		    tax_amount = excluded.tax_amount,
		    updated_at = CURRENT_TIMESTAMP
	`, userID, productID, qty, price, taxAmount)
	return errors.Wrap(err, "upsert cart item")
}

// SetQty replaces the quantity of an existing line in place.
func (r *CartRepo) SetQty(userID, productID string, qty int) error {
	res, err := r.db.Exec(`
		UPDATE cart_items SET qty = ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND product_id = ?
	`, qty, userID, productID)
	if err != nil {
		return errors.Wrap(err, "set cart qty")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(domain.ErrProductNotFound, "cart line %s", productID)
	}
	return nil
}

// Items returns the user's lines joined with the product tax rate, the exact
// shape the order workflow consumes.
func (r *CartRepo) Items(userID string) ([]domain.CartItem, error) {
	var out []domain.CartItem
	err := r.db.Select(&out, `
	  SELECT ci.user_id, ci.product_id, ci.qty, ci.price, ci.tax_amount,
	         p.tax_rate,
	         COALESCE(ci.created_at,'') AS created_at,
	         COALESCE(ci.updated_at,'') AS updated_at
	  FROM cart_items ci
	  JOIN products p ON p.id = ci.product_id
	  WHERE ci.user_id = ?
	  ORDER BY ci.created_at
	`, userID)
	return out, errors.Wrap(err, "load cart items")
}

func (r *CartRepo) Remove(userID, productID string) error {
	_, err := r.db.Exec(`DELETE FROM cart_items WHERE user_id = ? AND product_id = ?`, userID, productID)
	return errors.Wrap(err, "remove cart item")
}

func (r *CartRepo) Clear(userID string) error {
	_, err := r.db.Exec(`DELETE FROM cart_items WHERE user_id = ?`, userID)
	return errors.Wrap(err, "clear cart")
}
