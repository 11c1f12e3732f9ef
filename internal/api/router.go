package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/jafarshop/ttsbridge/internal/api/handlers"
	"github.com/jafarshop/ttsbridge/internal/api/middleware"
	"github.com/jafarshop/ttsbridge/internal/config"
	"github.com/jafarshop/ttsbridge/internal/metrics"
	"github.com/jafarshop/ttsbridge/internal/repository"
)

// Services are the entry points the router exposes
type Services struct {
	Orders        handlers.OrderWebhookService
	Notifications handlers.NotificationQueue
	Shops         handlers.ShopTokenResolver
	Labels        handlers.LabelService
	// Verifier is nil when TikTok signature checks are disabled
	Verifier handlers.WebhookVerifier
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, repos *repository.Repositories, svc Services, logger *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	if cfg.Telemetry.Enabled {
		router.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	}
	router.Use(metrics.Middleware())
	router.Use(loggingMiddleware(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Inbound webhooks
	webhooks := router.Group("/webhooks")
	{
		webhooks.POST("/tiktok", handlers.HandleTikTokWebhook(svc.Orders, svc.Verifier, logger))

		notification := handlers.HandleVTEXNotification(svc.Shops, svc.Notifications, logger)
		webhooks.POST("/vtex/:token", notification)
		webhooks.POST("/vtex/:token/*action", notification)
	}

	// Admin routes
	v1 := router.Group("/v1")
	v1.Use(middleware.AdminAuthMiddleware(cfg.API.AdminKeyHash, logger))
	{
		v1.GET("/labels/:orderId", handlers.HandleGetLabel(svc.Labels, logger))
		v1.POST("/labels/:orderId", handlers.HandleGenerateLabel(svc.Labels, logger))
		v1.GET("/orders/:orderId", handlers.HandleGetOrderMapping(repos.OrderMapping, logger))
	}

	return router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", middleware.GetRequestID(c)),
		)
	}
}
