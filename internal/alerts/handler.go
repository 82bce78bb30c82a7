package alerts

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"certverify/verification-backend/internal/auth"
	"certverify/verification-backend/internal/certificates"
)

// CertificateLookup resolves the owner of a certificate for access checks
type CertificateLookup interface {
	Get(ctx context.Context, id uuid.UUID) (*certificates.Certificate, error)
}

// Handler handles HTTP requests for alerts
type Handler struct {
	service *Service
	certs   CertificateLookup
	hub     *Hub
	logger  *zap.Logger
}

func NewHandler(service *Service, certs CertificateLookup, hub *Hub, logger *zap.Logger) *Handler {
	return &Handler{service: service, certs: certs, hub: hub, logger: logger}
}

// RegisterRoutes registers alert routes on an authenticated group
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/alerts/certificate/:id", h.ForCertificate)

	admin := router.Group("/alerts", auth.RequireRole(auth.RoleAdmin))
	{
		admin.GET("", h.List)
		admin.POST("", h.Create)
		admin.GET("/stats/summary", h.Summary)
		admin.GET("/export", h.Export)
		admin.GET("/stream", h.Stream)
		admin.POST("/bulk-resolve", h.BulkResolve)
		admin.GET("/:id", h.Get)
		admin.POST("/:id/resolve", h.Resolve)
		admin.POST("/:id/unresolve", h.Unresolve)
		admin.DELETE("/:id", h.Delete)
	}
}

func parseFilter(c *gin.Context) (ListFilter, error) {
	var f ListFilter
	f.Skip, _ = strconv.Atoi(c.DefaultQuery("skip", "0"))
	f.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "100"))
	if lv := c.Query("level"); lv != "" {
		level := Level(lv)
		if !level.Valid() {
			return f, ErrInvalidLevel
		}
		f.Level = &level
	}
	if rv := c.Query("resolved"); rv != "" {
		resolved, err := strconv.ParseBool(rv)
		if err != nil {
			return f, errors.New("resolved must be true or false")
		}
		f.Resolved = &resolved
	}
	return f, nil
}

// List handles GET /alerts
func (h *Handler) List(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	alerts, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, "Failed to list alerts", err)
		return
	}
	c.JSON(http.StatusOK, alerts)
}

// Create handles POST /alerts
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := h.certs.Get(c.Request.Context(), req.CertID); err != nil {
		if errors.Is(err, certificates.ErrCertificateNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.respondError(c, "Failed to create alert", err)
		return
	}

	alert, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, "Failed to create alert", err)
		return
	}
	c.JSON(http.StatusCreated, alert)
}

// Get handles GET /alerts/:id
func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	alert, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "Failed to get alert", err)
		return
	}
	c.JSON(http.StatusOK, alert)
}

// Resolve handles POST /alerts/:id/resolve
func (h *Handler) Resolve(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	alert, err := h.service.Resolve(c.Request.Context(), id, auth.CurrentUserID(c))
	if err != nil {
		h.respondError(c, "Failed to resolve alert", err)
		return
	}
	c.JSON(http.StatusOK, alert)
}

// Unresolve handles POST /alerts/:id/unresolve
func (h *Handler) Unresolve(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	alert, err := h.service.Unresolve(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "Failed to unresolve alert", err)
		return
	}
	c.JSON(http.StatusOK, alert)
}

// Delete handles DELETE /alerts/:id
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, "Failed to delete alert", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Alert deleted successfully"})
}

// ForCertificate handles GET /alerts/certificate/:id for admins and the certificate's uploader
func (h *Handler) ForCertificate(c *gin.Context) {
	certID, ok := parseID(c, "id")
	if !ok {
		return
	}

	cert, err := h.certs.Get(c.Request.Context(), certID)
	if err != nil {
		if errors.Is(err, certificates.ErrCertificateNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.respondError(c, "Failed to get certificate alerts", err)
		return
	}
	if auth.CurrentRole(c) != auth.RoleAdmin && cert.UploaderID != auth.CurrentUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not enough permissions"})
		return
	}

	alerts, err := h.service.ForCertificate(c.Request.Context(), certID)
	if err != nil {
		h.respondError(c, "Failed to get certificate alerts", err)
		return
	}
	c.JSON(http.StatusOK, alerts)
}

// Summary handles GET /alerts/stats/summary
func (h *Handler) Summary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context())
	if err != nil {
		h.respondError(c, "Failed to get alert summary", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// BulkResolve handles POST /alerts/bulk-resolve
func (h *Handler) BulkResolve(c *gin.Context) {
	var ids []uuid.UUID
	if err := c.ShouldBindJSON(&ids); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.BulkResolve(c.Request.Context(), ids, auth.CurrentUserID(c))
	if err != nil {
		h.respondError(c, "Failed to resolve alerts", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Export handles GET /alerts/export
func (h *Handler) Export(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	data, err := h.service.Export(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, "Failed to export alerts", err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=alerts.xlsx")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// Stream handles GET /alerts/stream
func (h *Handler) Stream(c *gin.Context) {
	if h.hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "live alerts are disabled"})
		return
	}
	if _, err := h.hub.HandleConnection(c.Writer, c.Request, auth.CurrentUserID(c).String()); err != nil {
		h.logger.Warn("Failed to open alert stream", zap.Error(err))
	}
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + param})
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) respondError(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, ErrAlertNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrAlreadyResolved), errors.Is(err, ErrNotResolved),
		errors.Is(err, ErrInvalidLevel), errors.Is(err, ErrTooManyAlerts):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
