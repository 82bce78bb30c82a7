package verification

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"certverify/verification-backend/internal/auth"
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
	verify := router.Group("/verify")
	{
		verify.POST("/certificate/:id", h.Verify)
		verify.GET("/certificate/:id/status", h.Status)
		verify.GET("/certificate/:id/report", h.Report)
		verify.POST("/bulk", auth.RequireRole(auth.RoleInstitution, auth.RoleAdmin), h.BulkVerify)
	}
}

// Verify handles POST /verify/certificate/:id
func (h *Handler) Verify(c *gin.Context) {
	certID, ok := parseCertificateID(c)
	if !ok {
		return
	}

	var req Request
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	verdict, err := h.service.Verify(c.Request.Context(), certID, req)
	if err != nil {
		h.respondError(c, "Verification error", err)
		return
	}
	c.JSON(http.StatusOK, verdict)
}

// BulkVerify handles POST /verify/bulk
func (h *Handler) BulkVerify(c *gin.Context) {
	var ids []string
	if err := c.ShouldBindJSON(&ids); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.BulkVerify(c.Request.Context(), ids)
	if err != nil {
		if errors.Is(err, ErrTooManyCertificates) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.respondError(c, "Bulk verification error", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Status handles GET /verify/certificate/:id/status
func (h *Handler) Status(c *gin.Context) {
	certID, ok := parseCertificateID(c)
	if !ok {
		return
	}

	report, err := h.service.Status(c.Request.Context(), certID)
	if err != nil {
		h.respondError(c, "Error getting verification status", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Report handles GET /verify/certificate/:id/report
func (h *Handler) Report(c *gin.Context) {
	certID, ok := parseCertificateID(c)
	if !ok {
		return
	}

	data, err := h.service.Report(c.Request.Context(), certID)
	if err != nil {
		h.respondError(c, "Error generating verification report", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=verification-%s.pdf", certID))
	c.Data(http.StatusOK, "application/pdf", data)
}

func parseCertificateID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": certificates.ErrCertificateNotFound.Error()})
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) respondError(c *gin.Context, msg string, err error) {
	if errors.Is(err, certificates.ErrCertificateNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if errors.Is(err, ErrNoCertificateData) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	h.logger.Error(msg, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
