package services

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/davidiwezulu/ecommerce/internal/domain"
	"github.com/davidiwezulu/ecommerce/internal/pricing"
	"github.com/davidiwezulu/ecommerce/internal/repos"
)

// CartService maintains per-user cart lines. Each line snapshots the product
// price and its computed tax at add time; the snapshot is what the order
// workflow charges later (price lock-in).
type CartService struct {
	Carts *repos.CartRepo
	Prods *repos.ProductRepo

	DefaultTaxRate decimal.Decimal
	TaxInclusive   bool
}

func NewCartService(carts *repos.CartRepo, prods *repos.ProductRepo, defaultTaxRate decimal.Decimal, taxInclusive bool) *CartService {
	return &CartService{Carts: carts, Prods: prods, DefaultTaxRate: defaultTaxRate, TaxInclusive: taxInclusive}
}

func (s *CartService) Add(userID, productID string, qty int) error {
	if qty <= 0 {
		return errors.Wrap(domain.ErrInvalidArgument, "quantity must be positive")
	}
	p, err := s.Prods.Get(productID)
	if err != nil {
		return err
	}
	rate := s.rateFor(p.TaxRate)
	tax, err := pricing.LineTax(p.Price, rate, s.TaxInclusive)
	if err != nil {
		return err
	}
	return s.Carts.UpsertItem(userID, productID, qty, p.Price, tax)
}

// SetQuantity replaces a line's quantity in place; zero removes the line.
func (s *CartService) SetQuantity(userID, productID string, qty int) error {
	if qty < 0 {
		return errors.Wrap(domain.ErrInvalidArgument, "quantity must not be negative")
	}
	if qty == 0 {
		return s.Carts.Remove(userID, productID)
	}
	return s.Carts.SetQty(userID, productID, qty)
}

func (s *CartService) Remove(userID, productID string) error {
	return s.Carts.Remove(userID, productID)
}

func (s *CartService) Clear(userID string) error {
	return s.Carts.Clear(userID)
}

// Items returns the raw lines in the shape the order workflow consumes.
func (s *CartService) Items(userID string) ([]domain.CartItem, error) {
	return s.Carts.Items(userID)
}

type CartView struct {
	Items []domain.CartItem `json:"items"`
	Total decimal.Decimal   `json:"total"`
}

func (s *CartService) View(userID string) (CartView, error) {
	items, err := s.Carts.Items(userID)
	if err != nil {
		return CartView{}, err
	}
	return CartView{Items: items, Total: pricing.OrderTotal(items)}, nil
}

func (s *CartService) rateFor(productRate decimal.NullDecimal) decimal.Decimal {
	if productRate.Valid {
		return productRate.Decimal
	}
	return s.DefaultTaxRate
}
