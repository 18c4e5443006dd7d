package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"cvbatch/internal/csvexport"
	"cvbatch/internal/domain"
	"cvbatch/internal/logger"
	"cvbatch/internal/service"
)

// multipartOverhead is allowed on top of the archive limit for form framing.
const multipartOverhead = 1 << 20

// BatchHandlerConfig holds upload and report settings.
type BatchHandlerConfig struct {
	MaxUploadBytes int64
	ReportFilename string
	CSVBOM         bool
}

// BatchHandler handles archive upload and report endpoints.
type BatchHandler struct {
	batches service.BatchService
	cfg     BatchHandlerConfig
}

// NewBatchHandler creates a new BatchHandler.
func NewBatchHandler(batches service.BatchService, cfg BatchHandlerConfig) *BatchHandler {
	return &BatchHandler{batches: batches, cfg: cfg}
}

// Report handles POST /api/v1/batches/report
// @Summary Extract a resume archive into a report
// @Description Upload a zip of PDF/DOCX resumes and download a numbered CSV (or XLSX) report
// @Tags batches
// @Accept multipart/form-data
// @Produce text/csv
// @Param file formData file true "Zip archive of resumes"
// @Param format query string false "Report format: csv (default) or xlsx"
// @Success 200 {file} file "Report"
// @Failure 400 {object} APIResponse "Missing file, invalid archive or no supported files"
// @Failure 413 {object} APIResponse "Archive too large"
// @Failure 500 {object} APIResponse "Internal error"
// @Router /batches/report [post]
func (h *BatchHandler) Report(c *gin.Context) {
	format, ok := domain.ParseReportFormat(strings.ToLower(c.Query("format")))
	if !ok {
		HandleError(c, domain.ErrInvalidReportFormat)
		return
	}

	archive, err := h.readArchive(c)
	if err != nil {
		HandleError(c, err)
		return
	}

	result, err := h.batches.Process(c.Request.Context(), archive)
	if err != nil {
		HandleError(c, err)
		return
	}

	c.Header("Content-Type", csvexport.ContentType(format))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", csvexport.BuildFilename(h.cfg.ReportFilename, format)))
	c.Header("X-Batch-ID", result.ID.String())
	c.Header("X-Report-Rows", strconv.Itoa(len(result.Report.Rows)))
	c.Header("X-Report-Skipped", strconv.Itoa(len(result.Report.Skipped)))
	c.Header("X-Extraction-LLM", strconv.Itoa(result.Stats.LLM))
	c.Header("X-Extraction-Fallback", strconv.Itoa(result.Stats.Fallback))
	if result.ReportPath != "" {
		c.Header("X-Report-Location", result.ReportPath)
	}
	c.Status(http.StatusOK)

	if format == domain.ReportXLSX {
		err = csvexport.WriteXLSX(c.Writer, result.Report)
	} else {
		var opts []csvexport.Option
		if h.cfg.CSVBOM {
			opts = append(opts, csvexport.WithBOM())
		}
		err = csvexport.NewWriter(c.Writer, opts...).WriteReport(result.Report)
	}
	if err != nil {
		// headers are already sent; the client sees a truncated body
		logger.FromContext(c.Request.Context()).WithError(err).Error("batchHandler.Report: writing report")
	}
}

// ExtractResponse is the JSON view of one processed batch.
type ExtractResponse struct {
	BatchID    string            `json:"batch_id"`
	Stats      domain.BatchStats `json:"stats"`
	Total      int               `json:"total_entries"`
	Rows       []domain.Row      `json:"rows"`
	Outcomes   []domain.Outcome  `json:"outcomes"`
	ReportPath string            `json:"report_path,omitempty"`
	DurationMS int64             `json:"duration_ms"`
}

// Extract handles POST /api/v1/batches/extract
// @Summary Extract a resume archive into JSON
// @Description Upload a zip of PDF/DOCX resumes and receive per-entry outcomes and numbered rows
// @Tags batches
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Zip archive of resumes"
// @Success 200 {object} APIResponse{data=ExtractResponse} "Batch result"
// @Failure 400 {object} APIResponse "Missing file, invalid archive or no supported files"
// @Failure 413 {object} APIResponse "Archive too large"
// @Router /batches/extract [post]
func (h *BatchHandler) Extract(c *gin.Context) {
	archive, err := h.readArchive(c)
	if err != nil {
		HandleError(c, err)
		return
	}

	result, err := h.batches.Process(c.Request.Context(), archive)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, ExtractResponse{
		BatchID:    result.ID.String(),
		Stats:      result.Stats,
		Total:      result.Report.TotalEntries,
		Rows:       result.Report.Rows,
		Outcomes:   result.Outcomes,
		ReportPath: result.ReportPath,
		DurationMS: result.Duration.Milliseconds(),
	})
}

// readArchive reads the "file" form field, enforcing the .zip extension and
// the upload size limit.
func (h *BatchHandler) readArchive(c *gin.Context) ([]byte, error) {
	if h.cfg.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxUploadBytes+multipartOverhead)
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("upload body: %w", domain.ErrSizeExceeded)
		}
		return nil, domain.ErrMissingFile
	}
	defer func() { _ = file.Close() }()

	if !strings.EqualFold(path.Ext(header.Filename), ".zip") {
		return nil, domain.ErrUnsupportedFileType
	}
	if h.cfg.MaxUploadBytes > 0 && header.Size > h.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("upload is %d bytes: %w", header.Size, domain.ErrSizeExceeded)
	}

	limit := h.cfg.MaxUploadBytes
	var r io.Reader = file
	if limit > 0 {
		r = io.LimitReader(file, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, domain.ErrSizeExceeded
	}
	return data, nil
}
