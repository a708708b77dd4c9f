package payment

import (
	"net/http"

	"github.com/pkg/errors"

	"github.com/davidiwezulu/ecommerce/internal/config"
)

// Registry maps gateway keys to constructed providers. It is built once at
// startup from configuration so that an unknown key or missing credentials
// fail the process early instead of surfacing mid-checkout.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry builds providers for every gateway named in cfg.Gateways.
// The http.Client is shared by all drivers; its timeout is the caller's
// timeout policy.
func NewRegistry(cfg config.Config, client *http.Client) (*Registry, error) {
	r := &Registry{providers: make(map[string]Provider)}
	for _, name := range cfg.Gateways {
		switch name {
		case "stripe":
			p, err := NewStripe(cfg.StripeSecretKey, cfg.StripeBaseURL, cfg.Currency, client)
			if err != nil {
				return nil, errors.Wrap(err, "gateway stripe")
			}
			r.Register(p)
		case "paypal":
			p, err := NewPayPal(PayPalConfig{
				ClientID:  cfg.PayPalClientID,
				Secret:    cfg.PayPalSecret,
				BaseURL:   cfg.PayPalBaseURL,
				Currency:  cfg.Currency,
				ReturnURL: cfg.PayPalReturnURL,
				CancelURL: cfg.PayPalCancelURL,
			}, client)
			if err != nil {
				return nil, errors.Wrap(err, "gateway paypal")
			}
			r.Register(p)
		default:
			return nil, errors.Wrapf(ErrUnknownGateway, "%q", name)
		}
	}
	return r, nil
}

// NewEmptyRegistry returns a registry with no providers; tests register fakes.
func NewEmptyRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

func (r *Registry) Register(p Provider) {
	r.providers[p.Name()] = p
}

func (r *Registry) Resolve(key string) (Provider, error) {
	p, ok := r.providers[key]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownGateway, "%q", key)
	}
	return p, nil
}
