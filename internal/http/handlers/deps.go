package handlers

import (
	"github.com/jmoiron/sqlx"

	"github.com/davidiwezulu/ecommerce/internal/config"
	"github.com/davidiwezulu/ecommerce/internal/payment"
	"github.com/davidiwezulu/ecommerce/internal/repos"
	"github.com/davidiwezulu/ecommerce/internal/services"
)

// Deps wires repos and services into the handler set once, at startup.
type Deps struct {
	ProductHandler *ProductHandler
	CartHandler    *CartHandler
	OrderHandler   *OrderHandler
	AdminHandler   *AdminHandler
	AuthHandler    *AuthHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, auth *services.AuthService, gateways *payment.Registry) *Deps {
	prodRepo := repos.NewProductRepo(db)
	invRepo := repos.NewInventoryRepo(db)
	cartRepo := repos.NewCartRepo(db)
	orderRepo := repos.NewOrderRepo(db)

	cartSvc := services.NewCartService(cartRepo, prodRepo, cfg.DefaultTaxRate, cfg.TaxInclusive)
	invSvc := services.NewInventoryService(invRepo)
	orderSvc := services.NewOrderService(prodRepo, invRepo, orderRepo, gateways, cfg.DefaultTaxRate, cfg.TaxInclusive)

	return &Deps{
		ProductHandler: &ProductHandler{Prods: prodRepo, Inv: invSvc},
		CartHandler:    &CartHandler{Cart: cartSvc},
		OrderHandler:   &OrderHandler{Cart: cartSvc, Order: orderSvc},
		AdminHandler:   &AdminHandler{Order: orderSvc, Inv: invSvc, Prods: prodRepo},
		AuthHandler:    &AuthHandler{Auth: auth},
	}
}
