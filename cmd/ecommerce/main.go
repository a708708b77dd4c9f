package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/davidiwezulu/ecommerce/internal/config"
	"github.com/davidiwezulu/ecommerce/internal/http/handlers"
	applog "github.com/davidiwezulu/ecommerce/internal/log"
	"github.com/davidiwezulu/ecommerce/internal/payment"
	"github.com/davidiwezulu/ecommerce/internal/repos"
	"github.com/davidiwezulu/ecommerce/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if err := applog.Setup(cfg.LogFile); err != nil {
		log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	gateways, err := payment.NewRegistry(cfg, &http.Client{Timeout: 15 * time.Second})
	if err != nil {
		// A misconfigured gateway must not serve traffic.
		log.Fatal(err)
	}

	userRepo := repos.NewUserRepo(db)
	authSvc := services.NewAuthService(userRepo)
	deps := handlers.NewDeps(db, cfg, authSvc, gateways)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "internal",
				"message": "Something went wrong. Please try again.",
			})
		},
	})
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(handlers.LoadUser(authSvc))
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
	}))

	// Products & availability
	app.Get("/products", deps.ProductHandler.List)
	app.Get("/products/:id", deps.ProductHandler.Get)
	app.Get("/products/:id/availability", deps.ProductHandler.Availability)

	// Cart
	app.Get("/cart", deps.CartHandler.View)
	app.Post("/cart", deps.CartHandler.Add)
	app.Put("/cart", deps.CartHandler.Update)
	app.Post("/cart/remove", deps.CartHandler.Remove)
	app.Post("/cart/clear", deps.CartHandler.Clear)

	// Checkout & orders
	app.Post("/checkout", deps.OrderHandler.Checkout)
	app.Post("/checkout/resume", deps.OrderHandler.Resume)
	app.Get("/orders/:id", deps.OrderHandler.View)
	app.Get("/orders", handlers.RequireUser(), deps.OrderHandler.History)

	// Auth (login throttled)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "rate_limited",
				"message": "Too many attempts. Please try again later.",
			})
		},
	}), deps.AuthHandler.Login)
	app.Post("/logout", deps.AuthHandler.Logout)
	app.Get("/me", deps.AuthHandler.Me)

	// Admin
	admin := app.Group("/admin", handlers.RequireAdmin())
	admin.Get("/orders", deps.AdminHandler.Orders)
	admin.Post("/products", deps.AdminHandler.CreateProduct)
	admin.Get("/inventory", deps.AdminHandler.Inventory)
	admin.Post("/inventory/restock", deps.AdminHandler.Restock)
	admin.Post("/orders/:id/status", deps.AdminHandler.SetStatus)
	admin.Post("/orders/:id/items", deps.AdminHandler.CorrectItemQty)
	admin.Post("/orders/:id/recalculate", deps.AdminHandler.Recalculate)
	admin.Post("/orders/:id/refund", deps.AdminHandler.Refund)

	// Ops
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })

	log.Fatal(app.Listen(":" + cfg.Port))
}
