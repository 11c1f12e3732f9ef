package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/ttsbridge/internal/domain"
	"github.com/jafarshop/ttsbridge/internal/repository"
)

// OrderMappingResponse represents an order mapping
type OrderMappingResponse struct {
	TTSOrderID  string               `json:"tts_order_id"`
	VTEXOrderID *string              `json:"vtex_order_id,omitempty"`
	ShopID      string               `json:"shop_id"`
	Status      domain.MappingStatus `json:"status"`
	LastError   *string              `json:"last_error,omitempty"`
	LabelURL    *string              `json:"label_url,omitempty"`
	CreatedAt   string               `json:"created_at"`
	UpdatedAt   string               `json:"updated_at"`
}

// HandleGetOrderMapping handles GET /v1/orders/:orderId
func HandleGetOrderMapping(mappings repository.OrderMappingRepository, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		mapping, err := mappings.GetByTTSOrderID(c.Request.Context(), c.Param("orderId"))
		if err != nil {
			respondError(c, logger, "Failed to get order mapping", err)
			return
		}

		c.JSON(http.StatusOK, OrderMappingResponse{
			TTSOrderID:  mapping.TTSOrderID,
			VTEXOrderID: mapping.VTEXOrderID,
			ShopID:      mapping.ShopID,
			Status:      mapping.Status,
			LastError:   mapping.LastError,
			LabelURL:    mapping.LabelURL,
			CreatedAt:   mapping.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			UpdatedAt:   mapping.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
}
