package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"github.com/davidiwezulu/ecommerce/internal/http/handlers"
	"github.com/davidiwezulu/ecommerce/internal/payment"
	"github.com/davidiwezulu/ecommerce/internal/repos"
	"github.com/davidiwezulu/ecommerce/internal/services"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	db.SetMaxOpenConns(1)
	schema := `
	CREATE TABLE products(id TEXT PRIMARY KEY, name TEXT, sku TEXT, price NUMERIC,
	  tax_rate NUMERIC, active INTEGER DEFAULT 1, created_at TEXT DEFAULT CURRENT_TIMESTAMP, updated_at TEXT);
	CREATE TABLE inventory(product_id TEXT PRIMARY KEY, qty INTEGER CHECK (qty >= 0), updated_at TEXT);
	CREATE TABLE cart_items(user_id TEXT, product_id TEXT, qty INTEGER, price NUMERIC,
	  tax_amount NUMERIC, created_at TEXT, updated_at TEXT, PRIMARY KEY(user_id, product_id));
	CREATE TABLE orders(id TEXT PRIMARY KEY, user_id TEXT, total NUMERIC, status TEXT,
	  gateway TEXT DEFAULT '', transaction_id TEXT DEFAULT '',
	  created_at TEXT DEFAULT CURRENT_TIMESTAMP, updated_at TEXT);
	CREATE TABLE order_items(order_id TEXT, product_id TEXT, qty INTEGER, price NUMERIC,
	  tax_rate NUMERIC, tax_amount NUMERIC, PRIMARY KEY(order_id, product_id));
	CREATE TABLE users(id TEXT PRIMARY KEY, email TEXT UNIQUE, name TEXT,
	  password_hash TEXT, role TEXT, created_at TEXT DEFAULT CURRENT_TIMESTAMP);
	CREATE TABLE sessions(id TEXT PRIMARY KEY, user_id TEXT,
	  created_at TEXT DEFAULT CURRENT_TIMESTAMP, last_seen TEXT);

	INSERT INTO products(id,name,price,tax_rate) VALUES ('widget','Widget',100.00,0.1);
	INSERT INTO inventory(product_id,qty) VALUES ('widget',5);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatal(err)
	}
	return db
}

type scriptedProvider struct {
	name      string
	chargeRes *payment.ChargeResult
	chargeErr error
}

func (p *scriptedProvider) Name() string { return p.name }
func (p *scriptedProvider) Charge(context.Context, decimal.Decimal, payment.Details) (*payment.ChargeResult, error) {
	return p.chargeRes, p.chargeErr
}
func (p *scriptedProvider) Execute(context.Context, string) (*payment.ChargeResult, error) {
	return nil, payment.ErrNotImplemented
}
func (p *scriptedProvider) Refund(context.Context, string) (*payment.RefundResult, error) {
	return nil, payment.ErrNotImplemented
}

// checkoutApp wires a minimal app: cart + checkout over an in-memory database
// and a scripted provider.
func checkoutApp(t *testing.T, p payment.Provider) *fiber.App {
	t.Helper()
	db := memdb(t)

	prodRepo := repos.NewProductRepo(db)
	invRepo := repos.NewInventoryRepo(db)
	cartRepo := repos.NewCartRepo(db)
	orderRepo := repos.NewOrderRepo(db)

	rate := decimal.RequireFromString("0.1")
	cartSvc := services.NewCartService(cartRepo, prodRepo, rate, false)

	reg := payment.NewEmptyRegistry()
	if p != nil {
		reg.Register(p)
	}
	orderSvc := services.NewOrderService(prodRepo, invRepo, orderRepo, reg, rate, false)

	cartH := &handlers.CartHandler{Cart: cartSvc}
	orderH := &handlers.OrderHandler{Cart: cartSvc, Order: orderSvc}

	app := fiber.New()
	app.Use(requestid.New())
	app.Post("/cart", cartH.Add)
	app.Get("/cart", cartH.View)
	app.Post("/checkout", orderH.Checkout)
	app.Get("/orders/:id", orderH.View)
	return app
}

// do issues a JSON request, carrying the session cookie between calls.
func do(t *testing.T, app *fiber.App, method, path, body string, cookie *string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil && *cookie != "" {
		req.Header.Set("Cookie", *cookie)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request %s %s: %v", method, path, err)
	}
	if cookie != nil {
		for _, sc := range resp.Header.Values("Set-Cookie") {
			if strings.HasPrefix(sc, "sid=") {
				*cookie = strings.SplitN(sc, ";", 2)[0]
			}
		}
	}
	rec := httptest.NewRecorder()
	rec.Code = resp.StatusCode
	b, _ := io.ReadAll(resp.Body)
	rec.Body.Write(b)
	return rec
}

func TestCheckoutHTTP_Success(t *testing.T) {
	app := checkoutApp(t, &scriptedProvider{
		name:      "stripe",
		chargeRes: &payment.ChargeResult{TransactionID: "ch_1"},
	})

	var sid string
	if rec := do(t, app, "POST", "/cart", `{"product_id":"widget","qty":2}`, &sid); rec.Code != fiber.StatusNoContent {
		t.Fatalf("add to cart: %d %s", rec.Code, rec.Body.String())
	}

	rec := do(t, app, "POST", "/checkout", `{"gateway":"stripe","fields":{"card_token":"tok_visa"}}`, &sid)
	if rec.Code != fiber.StatusCreated {
		t.Fatalf("checkout: %d %s", rec.Code, rec.Body.String())
	}

	var out struct {
		ID     string `json:"id"`
		Total  string `json:"total"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.ID == "" || out.Status != "processing" {
		t.Fatalf("order body: %+v", out)
	}
	if out.Total != "220" && out.Total != "220.00" {
		t.Fatalf("total = %s", out.Total)
	}

	// Cart was cleared after settlement.
	cart := do(t, app, "GET", "/cart", "", &sid)
	if !strings.Contains(cart.Body.String(), `"items":[]`) && !strings.Contains(cart.Body.String(), `"items":null`) {
		t.Fatalf("cart not cleared: %s", cart.Body.String())
	}
}

func TestCheckoutHTTP_PendingRedirect(t *testing.T) {
	app := checkoutApp(t, &scriptedProvider{
		name:      "paypal",
		chargeRes: &payment.ChargeResult{ExternalOrderID: "EC-1", RedirectURL: "https://pp.test/approve/EC-1"},
	})

	var sid string
	do(t, app, "POST", "/cart", `{"product_id":"widget","qty":1}`, &sid)

	rec := do(t, app, "POST", "/checkout", `{"gateway":"paypal"}`, &sid)
	if rec.Code != fiber.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "https://pp.test/approve/EC-1") {
		t.Fatalf("missing redirect: %s", rec.Body.String())
	}

	// Pending checkout must keep the cart intact for the resume leg.
	cart := do(t, app, "GET", "/cart", "", &sid)
	if !strings.Contains(cart.Body.String(), "widget") {
		t.Fatalf("cart dropped early: %s", cart.Body.String())
	}
}

func TestCheckoutHTTP_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		provider   *scriptedProvider
		body       string
		qty        int
		wantStatus int
		wantText   string
	}{
		{
			name:       "declined card",
			provider:   &scriptedProvider{name: "stripe", chargeErr: &payment.GatewayError{Gateway: "stripe", Message: "Your card was declined.", Status: 402}},
			body:       `{"gateway":"stripe"}`,
			qty:        1,
			wantStatus: fiber.StatusPaymentRequired,
			wantText:   "Your card was declined.",
		},
		{
			name:       "gateway auth misconfigured",
			provider:   &scriptedProvider{name: "stripe", chargeErr: payment.ErrAuthenticationFailed},
			body:       `{"gateway":"stripe"}`,
			qty:        1,
			wantStatus: fiber.StatusBadGateway,
			wantText:   "gateway_unavailable",
		},
		{
			name:       "insufficient stock",
			provider:   &scriptedProvider{name: "stripe", chargeRes: &payment.ChargeResult{TransactionID: "ch_1"}},
			body:       `{"gateway":"stripe"}`,
			qty:        9,
			wantStatus: fiber.StatusConflict,
			wantText:   "insufficient_inventory",
		},
		{
			name:       "unknown gateway",
			provider:   &scriptedProvider{name: "stripe", chargeRes: &payment.ChargeResult{TransactionID: "ch_1"}},
			body:       `{"gateway":"worldpay"}`,
			qty:        1,
			wantStatus: fiber.StatusBadRequest,
			wantText:   "unknown_gateway",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := checkoutApp(t, tc.provider)

			var sid string
			do(t, app, "POST", "/cart", `{"product_id":"widget","qty":1}`, &sid)
			for i := 1; i < tc.qty; i++ {
				do(t, app, "POST", "/cart", `{"product_id":"widget","qty":1}`, &sid)
			}

			rec := do(t, app, "POST", "/checkout", tc.body, &sid)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tc.wantStatus, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tc.wantText) {
				t.Fatalf("body %s missing %q", rec.Body.String(), tc.wantText)
			}
		})
	}
}

func TestCheckoutHTTP_EmptyCart(t *testing.T) {
	app := checkoutApp(t, &scriptedProvider{name: "stripe", chargeRes: &payment.ChargeResult{TransactionID: "ch_1"}})

	var sid string
	rec := do(t, app, "POST", "/checkout", `{"gateway":"stripe"}`, &sid)
	if rec.Code != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "empty_cart") {
		t.Fatalf("body: %s", rec.Body.String())
	}
}
