package records

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"certverify/verification-backend/internal/auth"
)

// Handler handles HTTP requests for verified records
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new records handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers record routes on an authenticated group
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	upload := router.Group("/upload")
	{
		ingest := upload.Group("/verified-records", auth.RequireRole(auth.RoleInstitution, auth.RoleAdmin))
		ingest.POST("/bulk", h.BulkUpload)
		ingest.POST("/csv", h.UploadCSV)
		ingest.POST("/json", h.UploadJSON)
		ingest.POST("/xlsx", h.UploadXLSX)

		upload.GET("/templates/csv", h.CSVTemplate)
		upload.GET("/templates/json", h.JSONTemplate)
	}

	recs := router.Group("/records")
	{
		recs.GET("/search", h.Search)
		recs.GET("/:cert_number", h.Get)
	}
}

// BulkUpload handles POST /upload/verified-records/bulk
func (h *Handler) BulkUpload(c *gin.Context) {
	var inputs []RecordInput
	if err := c.ShouldBindJSON(&inputs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.Ingest(c.Request.Context(), inputs)
	h.respondIngest(c, result, err)
}

// UploadCSV handles POST /upload/verified-records/csv
func (h *Handler) UploadCSV(c *gin.Context) {
	h.uploadFile(c, ".csv", h.service.IngestCSV)
}

// UploadJSON handles POST /upload/verified-records/json
func (h *Handler) UploadJSON(c *gin.Context) {
	h.uploadFile(c, ".json", h.service.IngestJSON)
}

// UploadXLSX handles POST /upload/verified-records/xlsx
func (h *Handler) UploadXLSX(c *gin.Context) {
	h.uploadFile(c, ".xlsx", h.service.IngestXLSX)
}

func (h *Handler) uploadFile(c *gin.Context, ext string, ingest ingestFunc) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if !hasExtension(fileHeader.Filename, ext) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file must be a " + ext + " file"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded file"})
		return
	}
	defer file.Close()

	result, err := ingest(c.Request.Context(), file)
	h.respondIngest(c, result, err)
}

func (h *Handler) respondIngest(c *gin.Context, result *BulkUploadResult, err error) {
	if err != nil {
		if errors.Is(err, ErrTooManyRecords) || errors.Is(err, ErrInvalidFile) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to ingest verified records", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// CSVTemplate handles GET /upload/templates/csv
func (h *Handler) CSVTemplate(c *gin.Context) {
	c.Header("Content-Disposition", "attachment; filename=verified_records_template.csv")
	c.Data(http.StatusOK, "text/csv", []byte(CSVTemplate()))
}

// JSONTemplate handles GET /upload/templates/json
func (h *Handler) JSONTemplate(c *gin.Context) {
	c.JSON(http.StatusOK, JSONTemplate())
}

// Search handles GET /records/search?q=
func (h *Handler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}

	recs, err := h.service.Search(c.Request.Context(), q)
	if err != nil {
		h.logger.Error("Failed to search verified records", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": q, "results": recs, "total": len(recs)})
}

// Get handles GET /records/:cert_number
func (h *Handler) Get(c *gin.Context) {
	rec, err := h.service.Get(c.Request.Context(), c.Param("cert_number"))
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to get verified record", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rec)
}
