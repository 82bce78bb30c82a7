package dashboard

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"certverify/verification-backend/internal/auth"
)

type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes mounts the admin-only dashboard endpoints
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	d := router.Group("/dashboard", auth.RequireRole(auth.RoleAdmin))
	{
		d.GET("/stats", h.Stats)
		d.GET("/trends", h.Trends)
		d.GET("/institutions", h.Institutions)
		d.GET("/alerts", h.Alerts)
		d.GET("/ai-predictions", h.AIPredictions)
		d.GET("/users", h.Users)
	}
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		h.fail(c, "Error getting dashboard stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) Trends(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be an integer"})
		return
	}
	trends, err := h.service.Trends(c.Request.Context(), days)
	if err != nil {
		if errors.Is(err, ErrInvalidDays) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.fail(c, "Error getting trends", err)
		return
	}
	c.JSON(http.StatusOK, trends)
}

func (h *Handler) Institutions(c *gin.Context) {
	stats, err := h.service.Institutions(c.Request.Context())
	if err != nil {
		h.fail(c, "Error getting institution stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) Alerts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	recent, err := h.service.RecentAlerts(c.Request.Context(), limit, c.Query("level"))
	if err != nil {
		if errors.Is(err, ErrInvalidLevel) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.fail(c, "Error getting alerts", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": recent, "count": len(recent)})
}

func (h *Handler) AIPredictions(c *gin.Context) {
	stats, err := h.service.AIStats(c.Request.Context())
	if err != nil {
		h.fail(c, "Error getting AI predictions stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) Users(c *gin.Context) {
	stats, err := h.service.UserStats(c.Request.Context())
	if err != nil {
		h.fail(c, "Error getting user stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) fail(c *gin.Context, msg string, err error) {
	h.logger.Error(msg, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
