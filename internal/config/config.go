package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

const (
	EnvProduction = "production"
	EnvDev        = "dev"
)

type PayPal struct {
	ClientID     string
	ClientSecret string
	WebhookID    string // server-held id used for signature verification
	Environment  string // sandbox | live
}

type Config struct {
	Env    string // dev | production
	Addr   string
	DBDSN  string
	PayPal PayPal
}

// Load reads the process configuration once at startup. A .env file is
// optional; production supplies real environment variables.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:   getenv("APP_ENV", EnvDev),
		Addr:  getenv("APP_ADDR", ":8080"),
		DBDSN: os.Getenv("DB_DSN"),
		PayPal: PayPal{
			ClientID:     os.Getenv("PAYPAL_CLIENT_ID"),
			ClientSecret: os.Getenv("PAYPAL_CLIENT_SECRET"),
			WebhookID:    os.Getenv("PAYPAL_WEBHOOK_ID"),
			Environment:  getenv("PAYPAL_ENV", "sandbox"),
		},
	}

	if cfg.DBDSN == "" {
		return Config{}, fmt.Errorf("config: DB_DSN is required")
	}
	if cfg.PayPal.ClientID == "" || cfg.PayPal.ClientSecret == "" {
		return Config{}, fmt.Errorf("config: PAYPAL_CLIENT_ID and PAYPAL_CLIENT_SECRET are required")
	}
	if cfg.PayPal.WebhookID == "" {
		return Config{}, fmt.Errorf("config: PAYPAL_WEBHOOK_ID is required")
	}
	return cfg, nil
}

func (c Config) IsProduction() bool { return c.Env == EnvProduction }

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
