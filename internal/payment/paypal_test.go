package payment_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidiwezulu/ecommerce/internal/payment"
)

// paypalStub answers the token endpoint plus whatever extra routes a test adds.
func paypalStub(t *testing.T, extra map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "cid" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"access_token":"tok_abc"}`))
	})
	for path, h := range extra {
		mux.HandleFunc(path, h)
	}
	return httptest.NewServer(mux)
}

func newPayPal(t *testing.T, srv *httptest.Server, clientID string) *payment.PayPal {
	t.Helper()
	p, err := payment.NewPayPal(payment.PayPalConfig{
		ClientID:  clientID,
		Secret:    "secret",
		BaseURL:   srv.URL,
		Currency:  "gbp",
		ReturnURL: "https://shop.test/checkout/return",
		CancelURL: "https://shop.test/checkout/cancel",
	}, srv.Client())
	require.NoError(t, err)
	return p
}

func TestPayPalCharge_ReturnsPendingRedirect(t *testing.T) {
	var payload map[string]any
	srv := paypalStub(t, map[string]http.HandlerFunc{
		"/v2/checkout/orders": func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "Bearer tok_abc", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			w.Write([]byte(`{"id":"EC-123","links":[
				{"rel":"self","href":"https://paypal.test/self"},
				{"rel":"approve","href":"https://paypal.test/approve/EC-123"}
			]}`))
		},
	})
	defer srv.Close()

	p := newPayPal(t, srv, "cid")
	res, err := p.Charge(context.Background(), decimal.RequireFromString("285.99"), nil)
	require.NoError(t, err)

	assert.True(t, res.Pending())
	assert.Equal(t, "EC-123", res.ExternalOrderID)
	assert.Equal(t, "https://paypal.test/approve/EC-123", res.RedirectURL)
	assert.Empty(t, res.TransactionID, "no funds captured on the first leg")

	// Amount goes over the wire as a major-unit decimal string.
	units := payload["purchase_units"].([]any)
	amount := units[0].(map[string]any)["amount"].(map[string]any)
	assert.Equal(t, "285.99", amount["value"])
	assert.Equal(t, "GBP", amount["currency_code"])
}

func TestPayPalExecute_CapturesAndReturnsCaptureID(t *testing.T) {
	srv := paypalStub(t, map[string]http.HandlerFunc{
		"/v2/checkout/orders/EC-123/capture": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"id":"EC-123","purchase_units":[
				{"payments":{"captures":[{"id":"CAP-9"}]}}
			]}`))
		},
	})
	defer srv.Close()

	p := newPayPal(t, srv, "cid")
	res, err := p.Execute(context.Background(), "EC-123")
	require.NoError(t, err)

	assert.Equal(t, "CAP-9", res.TransactionID)
	assert.False(t, res.Pending())
}

func TestPayPalCharge_BadCredentials(t *testing.T) {
	srv := paypalStub(t, nil)
	defer srv.Close()

	p := newPayPal(t, srv, "wrong-id")
	_, err := p.Charge(context.Background(), decimal.RequireFromString("10.00"), nil)
	assert.True(t, errors.Is(err, payment.ErrAuthenticationFailed))
}

func TestPayPalExecute_ErrorDetailPreserved(t *testing.T) {
	srv := paypalStub(t, map[string]http.HandlerFunc{
		"/v2/checkout/orders/EC-404/capture": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"message":"UNPROCESSABLE_ENTITY","details":[
				{"description":"The order has already been captured."}
			]}`))
		},
	})
	defer srv.Close()

	p := newPayPal(t, srv, "cid")
	_, err := p.Execute(context.Background(), "EC-404")

	var gw *payment.GatewayError
	require.True(t, errors.As(err, &gw))
	assert.Equal(t, "The order has already been captured.", gw.Message)
}

func TestPayPalRefund(t *testing.T) {
	srv := paypalStub(t, map[string]http.HandlerFunc{
		"/v2/payments/captures/CAP-9/refund": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"id":"RF-1"}`))
		},
	})
	defer srv.Close()

	p := newPayPal(t, srv, "cid")
	res, err := p.Refund(context.Background(), "CAP-9")
	require.NoError(t, err)
	assert.Equal(t, "RF-1", res.RefundID)
}

func TestNewPayPal_RequiresCredentials(t *testing.T) {
	_, err := payment.NewPayPal(payment.PayPalConfig{ClientID: "cid"}, nil)
	assert.Error(t, err)
}
