package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"learnport.com/app/internal/http/handlers"
	"learnport.com/app/internal/http/middleware"
	"learnport.com/app/internal/modules/identity"
	"learnport.com/app/internal/modules/purchases"
	"learnport.com/app/internal/modules/webhooks"
)

type RouterDeps struct {
	Logger     *slog.Logger
	DB         *gorm.DB
	Identity   *identity.Service
	Purchases  *purchases.Service
	Webhooks   *webhooks.Service
	Production bool
}

func NewRouter(d RouterDeps) *gin.Engine {
	if d.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(d.Logger),
		middleware.Recovery(d.Logger),
		middleware.ErrorHandler(d.Logger),
	)

	r.GET("/healthz", func(c *gin.Context) {
		sqlDB, err := d.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "up"})
	})

	authH := handlers.NewAuthHandler(d.Identity)
	purchaseH := handlers.NewPurchaseHandler(d.Purchases)
	webhookH := handlers.NewWebhookHandler(d.Webhooks)

	api := r.Group("/api")
	api.Use(middleware.Auth(d.Identity))

	api.POST("/auth/login", authH.Login)

	p := api.Group("/purchases", middleware.RequireAuth())
	p.POST("", purchaseH.Create)
	p.GET("", purchaseH.List)
	p.GET("/:id", purchaseH.Get)
	p.PATCH("/:id/status", purchaseH.UpdateStatus)

	// The webhook route skips bearer auth on purpose: the guard's signature
	// verification is the sole gate.
	api.POST("/webhooks/paypal", middleware.WebhookGuard(d.Webhooks), webhookH.HandlePayPal)

	return r
}
