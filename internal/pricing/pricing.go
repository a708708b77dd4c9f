// Package pricing computes per-line tax and order totals. All functions are
// pure; amounts are decimals in the major currency unit.
package pricing

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/davidiwezulu/ecommerce/internal/domain"
)

var one = decimal.NewFromInt(1)

// LineTax returns the tax component of a unit price, rounded to two places.
// When taxInclusive is set the listed price already contains tax and the
// component is extracted (price - price/(1+rate)); otherwise it is added
// (price * rate).
func LineTax(price, taxRate decimal.Decimal, taxInclusive bool) (decimal.Decimal, error) {
	if price.IsNegative() {
		return decimal.Zero, errors.Wrap(domain.ErrInvalidArgument, "price must not be negative")
	}
	if taxRate.IsNegative() {
		return decimal.Zero, errors.Wrap(domain.ErrInvalidArgument, "tax rate must not be negative")
	}
	if taxInclusive {
		return price.Sub(price.Div(one.Add(taxRate))).Round(2), nil
	}
	return price.Mul(taxRate).Round(2), nil
}

// OrderTotal sums (price + taxAmount) * qty over the given cart lines using
// the snapshots captured at add-to-cart time.
func OrderTotal(items []domain.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		line := it.Price.Add(it.TaxAmount).Mul(decimal.NewFromInt(int64(it.Qty)))
		total = total.Add(line)
	}
	return total
}

// ItemsTotal is OrderTotal for already-persisted order items; used by the
// admin recalculation operation.
func ItemsTotal(items []domain.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		line := it.Price.Add(it.TaxAmount).Mul(decimal.NewFromInt(int64(it.Qty)))
		total = total.Add(line)
	}
	return total
}
