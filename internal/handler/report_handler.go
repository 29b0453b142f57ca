package handler

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"vidalaboral/internal/config"
	"vidalaboral/internal/domain"
	"vidalaboral/internal/middleware"
	"vidalaboral/internal/service"
)

// ReportHandler handles the vacation report endpoints.
type ReportHandler struct {
	reportService service.ReportService
	cfg           config.ServerConfig
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService service.ReportService, cfg config.ServerConfig) *ReportHandler {
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 16
	}
	if cfg.MaxImageCount <= 0 {
		cfg.MaxImageCount = 20
	}
	return &ReportHandler{reportService: reportService, cfg: cfg}
}

// PeriodsRequest is the body of POST /reports/periods.
type PeriodsRequest struct {
	Periods       []domain.Period `json:"periods"`
	ReferenceDate string          `json:"reference_date"`
}

// FromPDF handles POST /api/v1/reports/pdf
func (h *ReportHandler) FromPDF(c *gin.Context) {
	name, data, ok := h.readFormFile(c, "file", domain.FileTypePDF)
	if !ok {
		return
	}
	opts, ok := h.processOptions(c)
	if !ok {
		return
	}
	opts.Pages = c.PostForm("pages")

	result, err := h.reportService.FromPDF(c.Request.Context(), name, data, opts)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, result)
}

// FromImages handles POST /api/v1/reports/images
// The start-date filters need the raw report rows, which OCR does not return,
// so filter_before and filter_2008 are rejected here.
func (h *ReportHandler) FromImages(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_FORM", "multipart form is required")
		return
	}
	if c.PostForm("filter_before") != "" || c.PostForm("filter_2008") == "true" {
		RespondError(c, http.StatusBadRequest, "FILTER_NOT_SUPPORTED",
			"filter_before and filter_2008 apply to pdf and grid input only")
		return
	}
	headers := form.File["images"]
	if len(headers) == 0 {
		headers = form.File["images[]"]
	}
	if len(headers) == 0 {
		HandleError(c, domain.ErrNoImages)
		return
	}
	if len(headers) > h.cfg.MaxImageCount {
		RespondError(c, http.StatusBadRequest, "TOO_MANY_IMAGES",
			fmt.Sprintf("at most %d images per request", h.cfg.MaxImageCount))
		return
	}

	// Pages are scanned in file-name order.
	sort.SliceStable(headers, func(i, j int) bool { return headers[i].Filename < headers[j].Filename })

	images := make([]service.ImageFile, 0, len(headers))
	for _, fh := range headers {
		ft := fileType(fh.Filename)
		contentType, isImage := domain.ImageContentTypes[ft]
		if !isImage {
			HandleError(c, fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, fh.Filename))
			return
		}
		data, err := h.readHeader(fh)
		if err != nil {
			HandleError(c, err)
			return
		}
		images = append(images, service.ImageFile{Name: fh.Filename, Data: data, ContentType: contentType})
	}

	opts, ok := h.processOptions(c)
	if !ok {
		return
	}
	result, err := h.reportService.FromImages(c.Request.Context(), images, opts)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, result)
}

// FromGrid handles POST /api/v1/reports/grid
func (h *ReportHandler) FromGrid(c *gin.Context) {
	name, data, ok := h.readFormFile(c, "file", domain.FileTypeJSON, domain.FileTypeCSV, domain.FileTypeXLSX)
	if !ok {
		return
	}
	opts, ok := h.processOptions(c)
	if !ok {
		return
	}

	result, err := h.reportService.FromGrid(c.Request.Context(), name, data, opts)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, result)
}

// FromPeriods handles POST /api/v1/reports/periods
func (h *ReportHandler) FromPeriods(c *gin.Context) {
	var req PeriodsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	result, err := h.reportService.FromPeriods(c.Request.Context(), req.Periods, service.ProcessOptions{
		ReferenceDate: req.ReferenceDate,
		CreatedBy:     middleware.GetSubject(c),
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, result)
}

// Process handles POST /process, the endpoint behind the upload page form.
// It answers with the bare result object, or {"error": "..."}.
func (h *ReportHandler) Process(c *gin.Context) {
	fh, err := c.FormFile("pdf")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	if fh.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file selected"})
		return
	}
	if fileType(fh.Filename) != domain.FileTypePDF {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File must be a PDF"})
		return
	}
	data, err := h.readHeader(fh)
	if err != nil {
		status, _, msg := MapDomainError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	result, err := h.reportService.FromPDF(c.Request.Context(), fh.Filename, data, service.ProcessOptions{
		CreatedBy: middleware.GetSubject(c),
	})
	if err != nil {
		status, _, msg := MapDomainError(err)
		if status >= 500 {
			HandleError(c, err)
			return
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusOK, result)
}

// List handles GET /api/v1/reports
func (h *ReportHandler) List(c *gin.Context) {
	offset, limit := parsePagination(c)

	reports, total, err := h.reportService.List(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, reports, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/reports/:id
func (h *ReportHandler) GetByID(c *gin.Context) {
	id, ok := parseReportID(c)
	if !ok {
		return
	}
	report, err := h.reportService.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, report)
}

// Download handles GET /api/v1/reports/:id/download
func (h *ReportHandler) Download(c *gin.Context) {
	id, ok := parseReportID(c)
	if !ok {
		return
	}
	url, err := h.reportService.GetDownloadURL(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"url": url})
}

// ExportCSV handles GET /api/v1/reports/:id/csv
func (h *ReportHandler) ExportCSV(c *gin.Context) {
	id, ok := parseReportID(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	filename, err := h.reportService.ExportCSV(c.Request.Context(), id, &buf)
	if err != nil {
		HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// Delete handles DELETE /api/v1/reports/:id
func (h *ReportHandler) Delete(c *gin.Context) {
	id, ok := parseReportID(c)
	if !ok {
		return
	}
	if err := h.reportService.Delete(c.Request.Context(), id); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": "report deleted"})
}

// processOptions reads the optional form fields shared by the upload endpoints.
func (h *ReportHandler) processOptions(c *gin.Context) (service.ProcessOptions, bool) {
	opts := service.ProcessOptions{
		ReferenceDate: c.PostForm("reference_date"),
		CreatedBy:     middleware.GetSubject(c),
	}
	if raw := c.PostForm("filter_before"); raw != "" {
		d := domain.ParseDisplayDate(raw)
		if !d.Valid {
			RespondError(c, http.StatusBadRequest, "INVALID_FILTER_DATE", "filter_before must be DD/MM/YYYY")
			return opts, false
		}
		opts.StartedBefore = d.Time
	}
	if c.PostForm("filter_2008") == "true" {
		opts.StartedBefore = time.Date(2008, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return opts, true
}

// readFormFile reads a single uploaded file, checking its extension against allowed.
func (h *ReportHandler) readFormFile(c *gin.Context, field string, allowed ...domain.FileType) (string, []byte, bool) {
	fh, err := c.FormFile(field)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", field+" field is required")
		return "", nil, false
	}
	ft := fileType(fh.Filename)
	accepted := false
	for _, a := range allowed {
		if ft == a {
			accepted = true
			break
		}
	}
	if !accepted {
		HandleError(c, fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, fh.Filename))
		return "", nil, false
	}
	data, err := h.readHeader(fh)
	if err != nil {
		HandleError(c, err)
		return "", nil, false
	}
	return fh.Filename, data, true
}

func (h *ReportHandler) readHeader(fh *multipart.FileHeader) ([]byte, error) {
	maxBytes := h.cfg.MaxUploadMB * 1024 * 1024
	if fh.Size > maxBytes {
		return nil, domain.ErrFileTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", fh.Filename, err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", fh.Filename, err)
	}
	if int64(len(data)) > maxBytes {
		return nil, domain.ErrFileTooLarge
	}
	return data, nil
}

func fileType(name string) domain.FileType {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	return domain.AllowedExtensions[ext]
}

func parseReportID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid report ID")
		return uuid.Nil, false
	}
	return id, true
}
