package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/ttsbridge/internal/service"
	apperrors "github.com/jafarshop/ttsbridge/pkg/errors"
)

// respondError maps service errors to HTTP responses
func respondError(c *gin.Context, logger *zap.Logger, msg string, err error) {
	var unprocessable *service.UnprocessableError
	var unauthorized *apperrors.ErrUnauthorized
	var transition *apperrors.ErrInvalidStateTransition

	switch {
	case errors.As(err, &unprocessable):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":    unprocessable.Reason,
			"order_id": unprocessable.OrderID,
		})
	case apperrors.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &unauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": unauthorized.Error()})
	case errors.Is(err, service.ErrInvalidPayload):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &transition):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrShopInactive):
		c.JSON(http.StatusForbidden, gin.H{"error": "shop is inactive"})
	default:
		logger.Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
