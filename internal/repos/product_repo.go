package repos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/davidiwezulu/ecommerce/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

func (r *ProductRepo) Get(id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.Get(&p, `
	  SELECT id, name, sku, price, tax_rate, active,
	         created_at, COALESCE(updated_at,'') AS updated_at
	  FROM products
	  WHERE id = ?
	`, id)
	if err == sql.ErrNoRows {
		return domain.Product{}, errors.Wrapf(domain.ErrProductNotFound, "%s", id)
	}
	if err != nil {
		return domain.Product{}, errors.Wrap(err, "get product")
	}
	return p, nil
}

func (r *ProductRepo) List(limit, offset int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []domain.Product
	err := r.db.Select(&out, `
	  SELECT id, name, sku, price, tax_rate, active,
	         created_at, COALESCE(updated_at,'') AS updated_at
	  FROM products
	  WHERE active = 1
	  ORDER BY created_at DESC
	  LIMIT ? OFFSET ?
	`, limit, offset)
	return out, errors.Wrap(err, "list products")
}

func (r *ProductRepo) Create(p domain.Product) error {
	_, err := r.db.Exec(`
	  INSERT INTO products(id, name, sku, price, tax_rate, active, created_at)
	  VALUES(?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, p.ID, p.Name, p.SKU, p.Price, p.TaxRate, p.Active)
	return errors.Wrap(err, "create product")
}
