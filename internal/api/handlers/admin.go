package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/ttsbridge/internal/service"
)

// LabelService generates and reads shipping labels
type LabelService interface {
	GenerateLabel(ctx context.Context, shopID, orderID string, orderValue *int64, invoice *service.InvoiceMeta) (*service.LabelResult, error)
	GetLabel(ctx context.Context, orderID string) (*service.LabelResult, error)
}

// HandleGenerateLabel handles POST /v1/labels/:orderId
func HandleGenerateLabel(labels LabelService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID := c.Param("orderId")

		var req service.LabelRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusUnprocessableEntity, gin.H{
					"error":   "validation failed",
					"details": err.Error(),
				})
				return
			}
		}

		result, err := labels.GenerateLabel(c.Request.Context(), c.Query("shop_id"), orderID, req.OrderValue, req.Invoice)
		if err != nil {
			respondError(c, logger, "Failed to generate label", err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// HandleGetLabel handles GET /v1/labels/:orderId
func HandleGetLabel(labels LabelService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := labels.GetLabel(c.Request.Context(), c.Param("orderId"))
		if err != nil {
			respondError(c, logger, "Failed to get label", err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}
