package handlers

import (
	"github.com/jmoiron/sqlx"

	"artventure/internal/config"
	"artventure/internal/events"
	"artventure/internal/mail"
	"artventure/internal/payments"
	"artventure/internal/repos"
	"artventure/internal/services"
)

type Deps struct {
	ProductHandler  *ProductHandler
	CartHandler     *CartHandler
	CheckoutHandler *CheckoutHandler
	WebhookHandler  *WebhookHandler
	OrderHandler    *OrderHandler
	AdminHandler    *AdminHandler
	ContactHandler  *ContactHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, auth *services.AuthService, mailer *mail.Mailer, pub *events.Publisher) *Deps {
	prodRepo := repos.NewProductRepo(db)
	cartRepo := repos.NewCartRepo(db)
	orderRepo := repos.NewOrderRepo(db)

	catalogSvc := services.NewCatalogService(prodRepo)
	cartSvc := services.NewCartService(cartRepo, prodRepo)
	checkoutSvc := &services.CheckoutService{
		Prods:                 prodRepo,
		Gateway:               payments.NewClient(cfg.PaymentAPIURL, cfg.PaymentSecretKey),
		AppURL:                cfg.AppURL,
		ShippingFlatRate:      cfg.ShippingFlatRate,
		FreeShippingThreshold: cfg.FreeShippingThreshold,
	}
	orderSvc := services.NewOrderService(orderRepo, prodRepo, cartRepo, mailer, pub)

	return &Deps{
		ProductHandler:  &ProductHandler{Catalog: catalogSvc},
		CartHandler:     &CartHandler{Cart: cartSvc},
		CheckoutHandler: &CheckoutHandler{Checkout: checkoutSvc, Auth: auth},
		WebhookHandler:  &WebhookHandler{Orders: orderSvc, Secret: cfg.PaymentWebhookSecret},
		OrderHandler:    &OrderHandler{Orders: orderSvc, Auth: auth},
		AdminHandler:    &AdminHandler{Catalog: catalogSvc, Orders: orderSvc},
		ContactHandler:  &ContactHandler{Mail: mailer},
	}
}
