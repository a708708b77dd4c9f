package config

import (
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port    string `envconfig:"PORT" default:"8080"`
	DBDSN   string `envconfig:"DB_DSN" default:"ecommerce.db"`
	LogFile string `envconfig:"LOG_FILE" default:""`

	// Tax and currency policy applied when a product carries no rate of its own.
	Currency       string          `envconfig:"CURRENCY" default:"GBP"`
	DefaultTaxRate decimal.Decimal `envconfig:"DEFAULT_TAX_RATE" default:"0.2"`
	TaxInclusive   bool            `envconfig:"TAX_INCLUSIVE" default:"false"`

	// Gateways enabled at startup. Unknown names fail fast when the payment
	// registry is built.
	Gateways []string `envconfig:"PAYMENT_GATEWAYS" default:"stripe,paypal"`

	StripeSecretKey string `envconfig:"STRIPE_SECRET_KEY" default:""`
	StripeBaseURL   string `envconfig:"STRIPE_BASE_URL" default:"https://api.stripe.com"`

	PayPalClientID  string `envconfig:"PAYPAL_CLIENT_ID" default:""`
	PayPalSecret    string `envconfig:"PAYPAL_SECRET" default:""`
	PayPalBaseURL   string `envconfig:"PAYPAL_BASE_URL" default:"https://api-m.paypal.com"`
	PayPalReturnURL string `envconfig:"PAYPAL_RETURN_URL" default:"http://localhost:8080/checkout/return"`
	PayPalCancelURL string `envconfig:"PAYPAL_CANCEL_URL" default:"http://localhost:8080/checkout/cancel"`
}

func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
