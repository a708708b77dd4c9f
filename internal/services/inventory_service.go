package services

import (
	"github.com/pkg/errors"

	"github.com/davidiwezulu/ecommerce/internal/domain"
	"github.com/davidiwezulu/ecommerce/internal/repos"
)

type InventoryService struct {
	Inv *repos.InventoryRepo
}

func NewInventoryService(inv *repos.InventoryRepo) *InventoryService {
	return &InventoryService{Inv: inv}
}

// CheckAvailable reports whether requested units of a product are in stock.
func (s *InventoryService) CheckAvailable(productID string, requested int) (bool, error) {
	if requested <= 0 {
		return false, errors.Wrap(domain.ErrInvalidArgument, "requested quantity must be positive")
	}
	return s.Inv.CheckAvailable(productID, requested)
}

// CheckAvailability classifies qty into IN_STOCK / LOW_STOCK / OUT_OF_STOCK.
func (s *InventoryService) CheckAvailability(productID string) (domain.Availability, error) {
	qty, err := s.Inv.Qty(productID)
	if errors.Is(err, domain.ErrInventoryNotFound) {
		// No inventory row is indistinguishable from zero stock to a shopper.
		return domain.Availability{Status: "OUT_OF_STOCK", Qty: 0}, nil
	}
	if err != nil {
		return domain.Availability{}, err
	}

	status := "OUT_OF_STOCK"
	switch {
	case qty >= 5:
		status = "IN_STOCK"
	case qty > 0:
		status = "LOW_STOCK"
	}
	return domain.Availability{Status: status, Qty: qty}, nil
}

// Restock adds stock, creating the inventory record when absent.
func (s *InventoryService) Restock(productID string, qty int) error {
	if qty < 0 {
		return errors.Wrap(domain.ErrInvalidArgument, "restock quantity must not be negative")
	}
	return s.Inv.Increment(productID, qty)
}
