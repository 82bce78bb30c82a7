package ai

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"certverify/verification-backend/internal/certificates"
)

type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	ai := router.Group("/ai")
	{
		ai.GET("/status", h.Status)
		ai.POST("/predict/:certificate_id", h.Predict)
		ai.GET("/predictions/:certificate_id", h.Predictions)
	}
}

// Status handles GET /ai/status
func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Status(c.Request.Context()))
}

// Predict handles POST /ai/predict/:certificate_id
func (h *Handler) Predict(c *gin.Context) {
	certID, err := uuid.Parse(c.Param("certificate_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid certificate_id"})
		return
	}

	prediction, err := h.service.Predict(c.Request.Context(), certID)
	if err != nil {
		switch {
		case errors.Is(err, certificates.ErrCertificateNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, ErrModelUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		default:
			h.logger.Error("Failed to predict certificate authenticity", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to predict certificate authenticity"})
		}
		return
	}
	c.JSON(http.StatusOK, prediction)
}

// Predictions handles GET /ai/predictions/:certificate_id
func (h *Handler) Predictions(c *gin.Context) {
	certID, err := uuid.Parse(c.Param("certificate_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid certificate_id"})
		return
	}

	predictions, err := h.service.List(c.Request.Context(), certID)
	if err != nil {
		if errors.Is(err, certificates.ErrCertificateNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to list predictions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list predictions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"certificate_id": certID,
		"predictions":    predictions,
		"total":          len(predictions),
	})
}
