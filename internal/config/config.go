package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Port   string
	DBDSN  string
	AppURL string

	PaymentAPIURL        string
	PaymentSecretKey     string
	PaymentWebhookSecret string

	MailAPIURL   string
	MailAPIKey   string
	MailFrom     string
	ContactEmail string
	TemplatesDir string

	AMQPURL string

	ShippingFlatRate      float64
	FreeShippingThreshold float64

	LogFile string
}

// Load reads configuration from the environment with sane local-dev
// defaults. Payment and mail credentials have no defaults on purpose.
func Load() Config {
	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_DSN", "artventure.db")
	v.SetDefault("APP_URL", "http://localhost:8080")
	v.SetDefault("PAYMENT_API_URL", "https://api.payments.example.com")
	v.SetDefault("MAIL_FROM", "ArtVenture <orders@artventure.test>")
	v.SetDefault("CONTACT_EMAIL", "support@artventure.test")
	v.SetDefault("TEMPLATES_DIR", "./web/templates/email")
	v.SetDefault("SHIPPING_FLAT_RATE", 5.99)
	v.SetDefault("FREE_SHIPPING_THRESHOLD", 50.0)
	v.SetDefault("LOG_FILE", "")
	v.AutomaticEnv()

	cfg := Config{
		Port:                  v.GetString("PORT"),
		DBDSN:                 v.GetString("DB_DSN"),
		AppURL:                v.GetString("APP_URL"),
		PaymentAPIURL:         v.GetString("PAYMENT_API_URL"),
		PaymentSecretKey:      v.GetString("PAYMENT_SECRET_KEY"),
		PaymentWebhookSecret:  v.GetString("PAYMENT_WEBHOOK_SECRET"),
		MailAPIURL:            v.GetString("MAIL_API_URL"),
		MailAPIKey:            v.GetString("MAIL_API_KEY"),
		MailFrom:              v.GetString("MAIL_FROM"),
		ContactEmail:          v.GetString("CONTACT_EMAIL"),
		TemplatesDir:          v.GetString("TEMPLATES_DIR"),
		AMQPURL:               v.GetString("AMQP_URL"),
		ShippingFlatRate:      v.GetFloat64("SHIPPING_FLAT_RATE"),
		FreeShippingThreshold: v.GetFloat64("FREE_SHIPPING_THRESHOLD"),
		LogFile:               v.GetString("LOG_FILE"),
	}
	log.Printf("[config] PORT=%s DB_DSN=%s APP_URL=%s", cfg.Port, cfg.DBDSN, cfg.AppURL)
	return cfg
}
