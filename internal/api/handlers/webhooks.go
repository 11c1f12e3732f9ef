package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/ttsbridge/internal/domain"
	"github.com/jafarshop/ttsbridge/internal/service"
)

// OrderWebhookService processes TikTok order events
type OrderWebhookService interface {
	HandleOrderWebhook(ctx context.Context, raw []byte) (*service.WebhookResult, error)
}

// NotificationQueue accepts VTEX notifications for background processing
type NotificationQueue interface {
	Enqueue(shop *domain.Shop, action string, raw []byte) error
}

// ShopTokenResolver authenticates VTEX callbacks
type ShopTokenResolver interface {
	ResolveByWebhookToken(ctx context.Context, token string) (*domain.Shop, error)
}

// WebhookVerifier checks TikTok webhook signatures
type WebhookVerifier interface {
	VerifyWebhook(body []byte, signature string) bool
}

// HandleTikTokWebhook handles POST /webhooks/tiktok. verifier may be nil to skip signature checks.
func HandleTikTokWebhook(orders OrderWebhookService, verifier WebhookVerifier, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
			return
		}

		if verifier != nil && !verifier.VerifyWebhook(body, c.GetHeader("Authorization")) {
			logger.Warn("TikTok webhook signature mismatch")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}

		result, err := orders.HandleOrderWebhook(c.Request.Context(), body)
		if err != nil {
			respondError(c, logger, "Failed to process TikTok webhook", err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// HandleVTEXNotification handles POST /webhooks/vtex/:token[/*action]. It answers before processing.
func HandleVTEXNotification(shops ShopTokenResolver, queue NotificationQueue, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		shop, err := shops.ResolveByWebhookToken(c.Request.Context(), c.Param("token"))
		if err != nil {
			respondError(c, logger, "Failed to resolve shop for VTEX notification", err)
			return
		}

		body, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
			return
		}

		if err := queue.Enqueue(shop, c.Param("action"), body); err != nil {
			if errors.Is(err, service.ErrQueueFull) || errors.Is(err, service.ErrDispatcherClosed) {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "busy, retry later"})
				return
			}
			respondError(c, logger, "Failed to enqueue VTEX notification", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "accepted"})
	}
}
