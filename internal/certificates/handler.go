package certificates

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"certverify/verification-backend/internal/auth"
)

// Handler handles HTTP requests for certificate uploads and extraction
type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers certificate routes on an authenticated group
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	upload := router.Group("/upload")
	{
		upload.POST("/certificate", h.Upload)
		upload.GET("/my-certificates", h.ListMine)
		upload.GET("/my-stats", h.Stats)
		upload.DELETE("/certificate/:id", h.Delete)
	}

	ocrGroup := router.Group("/ocr")
	{
		ocrGroup.POST("/extract-text", h.ExtractText)
		ocrGroup.POST("/extract-and-save/:certificate_id", h.ExtractAndSave)
		ocrGroup.POST("/certificate/:certificate_id/extract", h.ExtractStored)
	}

	router.GET("/certificates/:id", h.Get)
}

// Upload handles POST /upload/certificate
func (h *Handler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	content, ok := h.readFile(c)
	if !ok {
		return
	}

	cert, err := h.service.Upload(c.Request.Context(), UploadRequest{
		UploaderID:  auth.CurrentUserID(c),
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        int64(len(content)),
		Content:     content,
	})
	if err != nil {
		h.respondError(c, "Failed to upload certificate", err)
		return
	}
	c.JSON(http.StatusCreated, cert)
}

// ListMine handles GET /upload/my-certificates?skip=&limit=
func (h *Handler) ListMine(c *gin.Context) {
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	certs, err := h.service.ListMine(c.Request.Context(), auth.CurrentUserID(c), skip, limit)
	if err != nil {
		h.respondError(c, "Failed to list certificates", err)
		return
	}
	c.JSON(http.StatusOK, certs)
}

// Stats handles GET /upload/my-stats
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context(), auth.CurrentUserID(c))
	if err != nil {
		h.respondError(c, "Failed to get upload stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Delete handles DELETE /upload/certificate/:id
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid certificate id"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), id, auth.CurrentUserID(c)); err != nil {
		h.respondError(c, "Failed to delete certificate", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Certificate deleted successfully"})
}

// Get handles GET /certificates/:id
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid certificate id"})
		return
	}

	cert, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "Failed to get certificate", err)
		return
	}
	if auth.CurrentRole(c) != auth.RoleAdmin && cert.UploaderID != auth.CurrentUserID(c) {
		h.respondError(c, "Failed to get certificate", ErrForbidden)
		return
	}

	data, err := h.service.GetData(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "Failed to get certificate", err)
		return
	}
	url, err := h.service.FileURL(c.Request.Context(), cert)
	if err != nil {
		h.logger.Warn("Failed to build file URL", zap.String("certificate_id", id.String()), zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"certificate": cert, "data": data, "file_url": url})
}

// ExtractText handles POST /ocr/extract-text
func (h *Handler) ExtractText(c *gin.Context) {
	content, ok := h.readFile(c)
	if !ok {
		return
	}
	res, err := h.service.ExtractText(c.Request.Context(), content)
	if err != nil {
		h.respondError(c, "Failed to extract text", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ExtractAndSave handles POST /ocr/extract-and-save/:certificate_id
func (h *Handler) ExtractAndSave(c *gin.Context) {
	id, err := uuid.Parse(c.Param("certificate_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid certificate id"})
		return
	}
	content, ok := h.readFile(c)
	if !ok {
		return
	}

	res, err := h.service.ExtractAndSave(c.Request.Context(), id, content)
	if err != nil {
		h.respondError(c, "Failed to extract certificate data", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ExtractStored handles POST /ocr/certificate/:certificate_id/extract
func (h *Handler) ExtractStored(c *gin.Context) {
	id, err := uuid.Parse(c.Param("certificate_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid certificate id"})
		return
	}

	res, err := h.service.ExtractStored(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "Failed to extract certificate data", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// readFile reads the multipart "file" field, rejecting bodies over the upload limit
func (h *Handler) readFile(c *gin.Context) ([]byte, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return nil, false
	}
	if fileHeader.Size > h.service.policy.MaxFileSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": ErrFileTooLarge.Error()})
		return nil, false
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded file"})
		return nil, false
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, h.service.policy.MaxFileSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded file"})
		return nil, false
	}
	if int64(len(content)) > h.service.policy.MaxFileSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": ErrFileTooLarge.Error()})
		return nil, false
	}
	return content, true
}

func (h *Handler) respondError(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, ErrCertificateNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, ErrFileTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
	case errors.Is(err, ErrInvalidFileType), errors.Is(err, ErrEmptyFile):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrExtractionFailed):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		h.logger.Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
