package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// PayPal is the redirect/two-phase provider. Charge only creates an order on
// PayPal's side and returns the approval redirect; funds are captured by
// Execute after the shopper returns. Amounts stay in major units because
// PayPal's REST API takes decimal strings.
type PayPal struct {
	cfg    PayPalConfig
	client *http.Client
}

type PayPalConfig struct {
	ClientID  string
	Secret    string
	BaseURL   string
	Currency  string
	ReturnURL string
	CancelURL string
}

func NewPayPal(cfg PayPalConfig, client *http.Client) (*PayPal, error) {
	if cfg.ClientID == "" || cfg.Secret == "" {
		return nil, errors.New("paypal: client id and secret are required")
	}
	if client == nil {
		client = http.DefaultClient
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.Currency = strings.ToUpper(cfg.Currency)
	return &PayPal{cfg: cfg, client: client}, nil
}

func (p *PayPal) Name() string { return "paypal" }

func (p *PayPal) Charge(ctx context.Context, amount decimal.Decimal, details Details) (*ChargeResult, error) {
	token, err := p.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{{
			"amount": map[string]string{
				"currency_code": p.cfg.Currency,
				"value":         amount.StringFixed(2),
			},
		}},
		"application_context": map[string]string{
			"return_url": p.cfg.ReturnURL,
			"cancel_url": p.cfg.CancelURL,
		},
	}

	var body struct {
		ID    string `json:"id"`
		Links []struct {
			Rel  string `json:"rel"`
			Href string `json:"href"`
		} `json:"links"`
	}
	if err := p.postJSON(ctx, "/v2/checkout/orders", token, payload, &body); err != nil {
		return nil, err
	}
	if body.ID == "" {
		return nil, &GatewayError{Gateway: p.Name(), Message: "order response missing id"}
	}

	res := &ChargeResult{ExternalOrderID: body.ID}
	for _, l := range body.Links {
		if l.Rel == "approve" {
			res.RedirectURL = l.Href
			break
		}
	}
	if res.RedirectURL == "" {
		return nil, &GatewayError{Gateway: p.Name(), Message: "order response missing approval link"}
	}
	return res, nil
}

func (p *PayPal) Execute(ctx context.Context, externalOrderID string) (*ChargeResult, error) {
	if externalOrderID == "" {
		return nil, &GatewayError{Gateway: p.Name(), Message: "external order id is required"}
	}
	token, err := p.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	var body struct {
		ID            string `json:"id"`
		PurchaseUnits []struct {
			Payments struct {
				Captures []struct {
					ID string `json:"id"`
				} `json:"captures"`
			} `json:"payments"`
		} `json:"purchase_units"`
	}
	path := "/v2/checkout/orders/" + externalOrderID + "/capture"
	if err := p.postJSON(ctx, path, token, struct{}{}, &body); err != nil {
		return nil, err
	}

	res := &ChargeResult{ExternalOrderID: externalOrderID, TransactionID: body.ID}
	for _, u := range body.PurchaseUnits {
		if len(u.Payments.Captures) > 0 {
			res.TransactionID = u.Payments.Captures[0].ID
			break
		}
	}
	if res.TransactionID == "" {
		return nil, &GatewayError{Gateway: p.Name(), Message: "capture response missing capture id"}
	}
	return res, nil
}

func (p *PayPal) Refund(ctx context.Context, transactionID string) (*RefundResult, error) {
	token, err := p.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	var body struct {
		ID string `json:"id"`
	}
	path := "/v2/payments/captures/" + transactionID + "/refund"
	if err := p.postJSON(ctx, path, token, struct{}{}, &body); err != nil {
		return nil, err
	}
	return &RefundResult{RefundID: body.ID, TransactionID: transactionID}, nil
}

func (p *PayPal) accessToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.cfg.BaseURL+"/v1/oauth2/token", strings.NewReader("grant_type=client_credentials"))
	if err != nil {
		return "", errors.Wrap(err, "paypal: build token request")
	}
	req.SetBasicAuth(p.cfg.ClientID, p.cfg.Secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", &GatewayError{Gateway: p.Name(), Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", ErrAuthenticationFailed
	}
	if resp.StatusCode >= 300 {
		return "", &GatewayError{Gateway: p.Name(), Message: fmt.Sprintf("token endpoint status %d", resp.StatusCode), Status: resp.StatusCode}
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.AccessToken == "" {
		return "", &GatewayError{Gateway: p.Name(), Message: "malformed token response"}
	}
	return body.AccessToken, nil
}

func (p *PayPal) postJSON(ctx context.Context, path, token string, payload, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "paypal: encode payload")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+path, bytes.NewReader(raw))
	if err != nil {
		return errors.Wrap(err, "paypal: build request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return &GatewayError{Gateway: p.Name(), Message: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &GatewayError{Gateway: p.Name(), Message: err.Error(), Status: resp.StatusCode}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrAuthenticationFailed
	case resp.StatusCode >= 300:
		return &GatewayError{Gateway: p.Name(), Message: paypalErrorMessage(data, resp.StatusCode), Status: resp.StatusCode}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &GatewayError{Gateway: p.Name(), Message: "malformed response: " + err.Error(), Status: resp.StatusCode}
	}
	return nil
}

func paypalErrorMessage(raw []byte, status int) string {
	var body struct {
		Message string `json:"message"`
		Details []struct {
			Description string `json:"description"`
		} `json:"details"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if len(body.Details) > 0 && body.Details[0].Description != "" {
			return body.Details[0].Description
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return fmt.Sprintf("unexpected status %d", status)
}
