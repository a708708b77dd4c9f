package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Stripe is the synchronous card-style provider: a successful Charge means
// funds are captured now. Stripe's API takes minor-unit integer amounts, so
// conversion happens here, not in the workflow.
type Stripe struct {
	key      string
	baseURL  string
	currency string
	client   *http.Client
}

func NewStripe(secretKey, baseURL, currency string, client *http.Client) (*Stripe, error) {
	if secretKey == "" {
		return nil, errors.New("stripe: secret key is required")
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Stripe{
		key:      secretKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
		currency: strings.ToLower(currency),
		client:   client,
	}, nil
}

func (s *Stripe) Name() string { return "stripe" }

func (s *Stripe) Charge(ctx context.Context, amount decimal.Decimal, details Details) (*ChargeResult, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(MinorUnits(amount), 10))
	form.Set("currency", s.currency)
	if tok := details["card_token"]; tok != "" {
		form.Set("source", tok)
	}
	if desc := details["description"]; desc != "" {
		form.Set("description", desc)
	}

	var body struct {
		ID string `json:"id"`
	}
	if err := s.post(ctx, "/v1/charges", form, &body); err != nil {
		return nil, err
	}
	if body.ID == "" {
		return nil, &GatewayError{Gateway: s.Name(), Message: "charge response missing id"}
	}
	return &ChargeResult{TransactionID: body.ID}, nil
}

// Execute has no meaning for a synchronous provider; Charge already captured.
func (s *Stripe) Execute(ctx context.Context, externalOrderID string) (*ChargeResult, error) {
	return nil, ErrNotImplemented
}

func (s *Stripe) Refund(ctx context.Context, transactionID string) (*RefundResult, error) {
	form := url.Values{}
	form.Set("charge", transactionID)

	var body struct {
		ID string `json:"id"`
	}
	if err := s.post(ctx, "/v1/refunds", form, &body); err != nil {
		return nil, err
	}
	return &RefundResult{RefundID: body.ID, TransactionID: transactionID}, nil
}

func (s *Stripe) post(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return errors.Wrap(err, "stripe: build request")
	}
	req.Header.Set("Authorization", "Bearer "+s.key)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return &GatewayError{Gateway: s.Name(), Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &GatewayError{Gateway: s.Name(), Message: err.Error(), Status: resp.StatusCode}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrAuthenticationFailed
	case resp.StatusCode >= 300:
		return &GatewayError{Gateway: s.Name(), Message: stripeErrorMessage(raw, resp.StatusCode), Status: resp.StatusCode}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &GatewayError{Gateway: s.Name(), Message: "malformed response: " + err.Error(), Status: resp.StatusCode}
	}
	return nil
}

func stripeErrorMessage(raw []byte, status int) string {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error.Message != "" {
		return body.Error.Message
	}
	return fmt.Sprintf("unexpected status %d", status)
}
