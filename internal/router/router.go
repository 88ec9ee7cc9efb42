package router

import (
	"net/http"
	"time"

	"farepay/config"
	"farepay/internal/handler"
	"farepay/internal/middleware"
	"farepay/internal/repository"
	"farepay/pkg/payment"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, provider payment.Provider) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS())

	txRepo := repository.NewTransactionRepository(db)

	paymentHandler := handler.NewPaymentHandler(cfg, txRepo, provider)
	webhookHandler := handler.NewPaymentWebhookHandler(txRepo)
	statusHandler := handler.NewPaymentStatusHandler(txRepo)
	watchHandler := handler.NewStatusWatchHandler(txRepo)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	// The provider retries on any non-2xx, so the webhook must never be
	// throttled; only client-facing endpoints sit behind the limiter.
	r.POST("/payment-callback", webhookHandler.Handle)

	client := r.Group("", middleware.RateLimit(middleware.NewIPLimiter(100, time.Minute)))
	{
		client.POST("/initiate-payment", paymentHandler.Initiate)
		client.GET("/payment-status/:reference", statusHandler.Status)
		client.GET("/payment-status/:reference/watch", watchHandler.Watch)
		client.GET("/transactions", statusHandler.List)
	}

	return r
}
