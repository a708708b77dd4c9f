// Package payment abstracts payment providers behind a single capability set:
// charge, execute, refund. Synchronous providers capture funds inside Charge;
// two-phase providers return a redirect from Charge and capture in Execute.
package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrAuthenticationFailed means the configured credentials were rejected.
	// Non-retryable; an operator problem, not a shopper problem.
	ErrAuthenticationFailed = errors.New("payment: authentication failed")

	// ErrNotImplemented is the expected answer when a provider legitimately
	// does not support an operation (typically Refund, or Execute on a
	// synchronous provider).
	ErrNotImplemented = errors.New("payment: operation not supported")

	ErrUnknownGateway = errors.New("payment: unknown gateway")
)

// GatewayError wraps any other provider-side failure (declined card, network
// fault, malformed response). The provider's message is preserved for display.
type GatewayError struct {
	Gateway string
	Message string
	Status  int
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s gateway error: %s", e.Gateway, e.Message)
}

// Details carries gateway-specific fields from the caller (card token,
// shopper email, ...). The workflow passes it through opaquely.
type Details map[string]string

// ChargeResult is the successful outcome of Charge or Execute. A non-empty
// RedirectURL means the transaction is pending shopper approval: no funds
// have been captured and the caller must retain ExternalOrderID to resume.
type ChargeResult struct {
	TransactionID   string
	ExternalOrderID string
	RedirectURL     string
}

func (r *ChargeResult) Pending() bool { return r.RedirectURL != "" }

type RefundResult struct {
	RefundID      string
	TransactionID string
}

// Provider is implemented once per gateway. Amounts are in the major currency
// unit; providers needing minor-unit integers convert at their own boundary.
// Calls are blocking network operations; timeout policy belongs to the
// http.Client the provider was built with.
type Provider interface {
	Name() string
	Charge(ctx context.Context, amount decimal.Decimal, details Details) (*ChargeResult, error)
	Execute(ctx context.Context, externalOrderID string) (*ChargeResult, error)
	Refund(ctx context.Context, transactionID string) (*RefundResult, error)
}

// MinorUnits converts a major-unit amount to minor units (x100, truncating).
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).IntPart()
}
