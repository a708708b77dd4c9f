package repos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/davidiwezulu/ecommerce/internal/domain"
)

type InventoryRepo struct{ db *sqlx.DB }

func NewInventoryRepo(db *sqlx.DB) *InventoryRepo { return &InventoryRepo{db: db} }

// Qty returns current stock for a product. ErrInventoryNotFound when no row exists.
func (r *InventoryRepo) Qty(productID string) (int, error) {
	return qty(r.db, productID)
}

// CheckAvailable reports whether an inventory record exists with at least
// requested units. This is the fail-fast check; Decrement re-validates at
// write time and is the sole authority at commit.
func (r *InventoryRepo) CheckAvailable(productID string, requested int) (bool, error) {
	n, err := r.Qty(productID)
	if errors.Is(err, domain.ErrInventoryNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return n >= requested, nil
}

// Decrement subtracts qty, failing closed if stock is insufficient.
func (r *InventoryRepo) Decrement(productID string, by int) error {
	return decrement(r.db, productID, by)
}

// DecrementTx is Decrement inside a caller-owned transaction. The guarded
// UPDATE re-checks qty >= requested at the moment of mutation, so a stale
// earlier availability check can never drive stock negative.
func (r *InventoryRepo) DecrementTx(tx *sqlx.Tx, productID string, by int) error {
	return decrement(tx, productID, by)
}

// Increment adds stock, creating the record when absent.
func (r *InventoryRepo) Increment(productID string, by int) error {
	if by < 0 {
		return errors.Wrap(domain.ErrInvalidArgument, "increment must not be negative")
	}
	_, err := r.db.Exec(`
		INSERT INTO inventory(product_id, qty, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(product_id) DO UPDATE
		SET qty = qty + excluded.qty, updated_at = CURRENT_TIMESTAMP
	`, productID, by)
	return errors.Wrap(err, "increment inventory")
}

type InventoryRow struct {
	ProductID string `db:"product_id"`
	Name      string `db:"name"`
	Qty       int    `db:"qty"`
}

// ListAll returns inventory with product names (admin view).
func (r *InventoryRepo) ListAll() ([]InventoryRow, error) {
	var rows []InventoryRow
	err := r.db.Select(&rows, `
		SELECT i.product_id, p.name, i.qty
		FROM inventory i
		JOIN products p ON p.id = i.product_id
		ORDER BY p.name
	`)
	return rows, errors.Wrap(err, "list inventory")
}

func qty(q sqlx.Queryer, productID string) (int, error) {
	var n int
	err := sqlx.Get(q, &n, `SELECT qty FROM inventory WHERE product_id = ?`, productID)
	if err == sql.ErrNoRows {
		return 0, errors.Wrapf(domain.ErrInventoryNotFound, "%s", productID)
	}
	if err != nil {
		return 0, errors.Wrap(err, "query inventory")
	}
	return n, nil
}

func decrement(e sqlx.Ext, productID string, by int) error {
	if by <= 0 {
		return errors.Wrap(domain.ErrInvalidArgument, "decrement must be positive")
	}
	res, err := e.Exec(`
		UPDATE inventory
		SET qty = qty - ?, updated_at = CURRENT_TIMESTAMP
		WHERE product_id = ? AND qty >= ?
	`, by, productID, by)
	if err != nil {
		return errors.Wrap(err, "decrement inventory")
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		// Distinguish a missing record from a shortage.
		have, qerr := qty(e, productID)
		if qerr != nil {
			return qerr
		}
		return &domain.InsufficientInventoryError{ProductID: productID, Requested: by, Available: have}
	}
	return nil
}
