package services_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/davidiwezulu/ecommerce/internal/domain"
	"github.com/davidiwezulu/ecommerce/internal/repos"
	"github.com/davidiwezulu/ecommerce/internal/services"
)

func newCartService(t *testing.T) (*services.CartService, func() []domain.CartItem) {
	t.Helper()
	db := memdb(t)
	svc := services.NewCartService(repos.NewCartRepo(db), repos.NewProductRepo(db),
		decimal.RequireFromString("0.2"), false)
	return svc, func() []domain.CartItem {
		items, err := svc.Items("u-demo")
		if err != nil {
			t.Fatal(err)
		}
		return items
	}
}

func TestCartAdd_SnapshotsPriceAndTax(t *testing.T) {
	svc, items := newCartService(t)

	// widget carries its own 10% rate.
	if err := svc.Add("u-demo", "widget", 1); err != nil {
		t.Fatal(err)
	}
	got := items()
	if len(got) != 1 {
		t.Fatalf("lines = %d", len(got))
	}
	if !got[0].Price.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("price snapshot = %s", got[0].Price)
	}
	if !got[0].TaxAmount.Equal(decimal.RequireFromString("10.00")) {
		t.Fatalf("tax snapshot = %s", got[0].TaxAmount)
	}

	// gadget has no rate of its own, the configured 20% default applies.
	if err := svc.Add("u-demo", "gadget", 1); err != nil {
		t.Fatal(err)
	}
	got = items()
	for _, it := range got {
		if it.ProductID == "gadget" && !it.TaxAmount.Equal(decimal.RequireFromString("12.00")) {
			t.Fatalf("default-rate tax = %s", it.TaxAmount)
		}
	}
}

func TestCartAdd_RepeatAccumulatesQty(t *testing.T) {
	svc, items := newCartService(t)

	if err := svc.Add("u-demo", "widget", 1); err != nil {
		t.Fatal(err)
	}
	if err := svc.Add("u-demo", "widget", 2); err != nil {
		t.Fatal(err)
	}
	got := items()
	if len(got) != 1 || got[0].Qty != 3 {
		t.Fatalf("want one line qty=3, got %+v", got)
	}
}

func TestCartAdd_Invalid(t *testing.T) {
	svc, _ := newCartService(t)

	if err := svc.Add("u-demo", "widget", 0); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("zero qty: %v", err)
	}
	if err := svc.Add("u-demo", "widget", -2); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("negative qty: %v", err)
	}
	if err := svc.Add("u-demo", "no-such", 1); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("missing product: %v", err)
	}
}

func TestCartSetQuantity(t *testing.T) {
	svc, items := newCartService(t)

	if err := svc.Add("u-demo", "widget", 2); err != nil {
		t.Fatal(err)
	}
	if err := svc.SetQuantity("u-demo", "widget", 5); err != nil {
		t.Fatal(err)
	}
	if got := items(); got[0].Qty != 5 {
		t.Fatalf("qty = %d", got[0].Qty)
	}

	// Zero removes the line.
	if err := svc.SetQuantity("u-demo", "widget", 0); err != nil {
		t.Fatal(err)
	}
	if got := items(); len(got) != 0 {
		t.Fatalf("line survived: %+v", got)
	}

	if err := svc.SetQuantity("u-demo", "widget", -1); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("negative qty: %v", err)
	}
}

func TestCartView_Total(t *testing.T) {
	svc, _ := newCartService(t)

	if err := svc.Add("u-demo", "widget", 2); err != nil {
		t.Fatal(err)
	}
	cv, err := svc.View("u-demo")
	if err != nil {
		t.Fatal(err)
	}
	if !cv.Total.Equal(decimal.RequireFromString("220.00")) {
		t.Fatalf("total = %s", cv.Total)
	}

	if err := svc.Clear("u-demo"); err != nil {
		t.Fatal(err)
	}
	cv, _ = svc.View("u-demo")
	if len(cv.Items) != 0 || !cv.Total.IsZero() {
		t.Fatalf("cart not cleared: %+v", cv)
	}
}
