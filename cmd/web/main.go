package main

import (
	"log"
	"os"

	"log/slog"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"learnport.com/app/internal/config"
	apphttp "learnport.com/app/internal/http"
	"learnport.com/app/internal/modules/catalog"
	"learnport.com/app/internal/modules/identity"
	"learnport.com/app/internal/modules/payments"
	"learnport.com/app/internal/modules/paypal"
	"learnport.com/app/internal/modules/purchases"
	"learnport.com/app/internal/modules/webhooks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	level := slog.LevelDebug
	if cfg.IsProduction() {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	db, err := gorm.Open(mysql.Open(cfg.DBDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	gateway := paypal.NewClient(paypal.Config{
		ClientID:     cfg.PayPal.ClientID,
		ClientSecret: cfg.PayPal.ClientSecret,
		Environment:  cfg.PayPal.Environment,
		Production:   cfg.IsProduction(),
	}, logger)

	// All accepted payment-method keys are registered here; a key that later
	// fails to resolve is a deployment bug.
	registry := payments.NewRegistry()
	registry.Register("paypal", gateway)
	logger.Info("payment gateways registered", "methods", registry.Keys())

	purchaseStore := purchases.NewRepo(db)
	purchaseSvc := purchases.NewService(purchaseStore, catalog.NewRepo(db), registry, logger)
	webhookSvc := webhooks.NewService(db, purchaseStore, gateway, cfg.PayPal.WebhookID, logger)
	identitySvc := identity.NewService(db)

	r := apphttp.NewRouter(apphttp.RouterDeps{
		Logger:     logger,
		DB:         db,
		Identity:   identitySvc,
		Purchases:  purchaseSvc,
		Webhooks:   webhookSvc,
		Production: cfg.IsProduction(),
	})

	logger.Info("listening", "addr", cfg.Addr, "env", cfg.Env)
	if err := r.Run(cfg.Addr); err != nil {
		log.Fatal(err)
	}
}
