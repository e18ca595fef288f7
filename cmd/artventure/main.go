package main

import (
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"artventure/internal/config"
	"artventure/internal/events"
	"artventure/internal/http/handlers"
	applog "artventure/internal/log"
	"artventure/internal/mail"
	"artventure/internal/repos"
	"artventure/internal/services"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			log.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	mailer, err := mail.New(cfg.MailAPIURL, cfg.MailAPIKey, cfg.MailFrom, cfg.ContactEmail, cfg.TemplatesDir)
	if err != nil {
		log.Fatal(err)
	}
	if !mailer.Configured() {
		log.Printf("[warn] mail API not configured; order emails will be skipped")
	}

	pub, err := events.Connect(cfg.AMQPURL)
	if err != nil {
		log.Printf("[warn] event broker unavailable: %v", err)
	}

	userRepo := repos.NewUserRepo(db)
	authSvc := services.NewAuthService(userRepo)
	authH := &handlers.AuthHandler{Auth: authSvc}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
		},
	})
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			// The processor's webhook retries must never be throttled.
			return strings.HasPrefix(c.Path(), "/api/webhooks/")
		},
	}))

	deps := handlers.NewDeps(db, cfg, authSvc, mailer, pub)

	api := app.Group("/api")

	api.Get("/products", deps.ProductHandler.List)
	api.Get("/products/:id", deps.ProductHandler.Get)

	api.Get("/cart", deps.CartHandler.View)
	api.Post("/cart", deps.CartHandler.Add)
	api.Put("/cart/:productId", deps.CartHandler.SetQuantity)
	api.Delete("/cart/:productId", deps.CartHandler.Remove)
	api.Delete("/cart", deps.CartHandler.Clear)

	checkoutLimiter := limiter.New(limiter.Config{
		Max:        10,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.checkout.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many requests, retry soon"})
		},
	})
	api.Post("/checkout", checkoutLimiter, deps.CheckoutHandler.Create)
	api.Post("/checkout/shipping", deps.CheckoutHandler.Shipping)

	api.Post("/webhooks/payment", deps.WebhookHandler.Receive)

	api.Get("/orders/lookup", deps.OrderHandler.Lookup)
	api.Get("/orders/:id", deps.OrderHandler.Get)
	api.Get("/orders", handlers.RequireUser(authSvc), deps.OrderHandler.History)

	api.Post("/contact", limiter.New(limiter.Config{Max: 5, Expiration: time.Minute}), deps.ContactHandler.Submit)

	loginLimiter := limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many attempts. Please try again later."})
		},
	})
	api.Post("/auth/login", loginLimiter, authH.Login)
	api.Post("/auth/register", authH.Register)
	api.Post("/auth/logout", authH.Logout)
	api.Get("/auth/me", authH.Me)

	admin := api.Group("/admin", handlers.RequireAdmin(authSvc))
	admin.Get("/products", deps.AdminHandler.ListProducts)
	admin.Post("/products", deps.AdminHandler.CreateProduct)
	admin.Put("/products/:id", deps.AdminHandler.UpdateProduct)
	admin.Delete("/products/:id", deps.AdminHandler.DeleteProduct)
	admin.Get("/orders", deps.AdminHandler.ListOrders)
	admin.Get("/orders/:id", deps.AdminHandler.GetOrder)
	admin.Put("/orders/:id/status", deps.AdminHandler.UpdateOrderStatus)

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	})

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		log.Println("shutting down")
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
	_ = pub.Close()
	_ = db.Close()
}
