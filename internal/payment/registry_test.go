package payment_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidiwezulu/ecommerce/internal/config"
	"github.com/davidiwezulu/ecommerce/internal/payment"
)

func registryConfig() config.Config {
	return config.Config{
		Currency:        "GBP",
		Gateways:        []string{"stripe", "paypal"},
		StripeSecretKey: "sk_test_123",
		StripeBaseURL:   "https://api.stripe.test",
		PayPalClientID:  "cid",
		PayPalSecret:    "secret",
		PayPalBaseURL:   "https://api.paypal.test",
	}
}

func TestNewRegistry_BuildsConfiguredGateways(t *testing.T) {
	r, err := payment.NewRegistry(registryConfig(), nil)
	require.NoError(t, err)

	for _, name := range []string{"stripe", "paypal"} {
		p, err := r.Resolve(name)
		require.NoError(t, err)
		assert.Equal(t, name, p.Name())
	}
}

func TestNewRegistry_UnknownGatewayFailsStartup(t *testing.T) {
	cfg := registryConfig()
	cfg.Gateways = []string{"stripe", "worldpay"}

	_, err := payment.NewRegistry(cfg, nil)
	assert.True(t, errors.Is(err, payment.ErrUnknownGateway))
}

func TestNewRegistry_MissingCredentialsFailStartup(t *testing.T) {
	cfg := registryConfig()
	cfg.StripeSecretKey = ""

	_, err := payment.NewRegistry(cfg, nil)
	assert.Error(t, err)
}

func TestResolve_UnknownKey(t *testing.T) {
	r := payment.NewEmptyRegistry()
	_, err := r.Resolve("stripe")
	assert.True(t, errors.Is(err, payment.ErrUnknownGateway))
}
