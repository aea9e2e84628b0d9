package api

import (
	"encoding/csv"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/newsroom-comments-api/internal/config"
	"github.com/newsroom-comments-api/internal/models"
	"github.com/newsroom-comments-api/internal/service"
	"github.com/rs/zerolog"
)

// importFormat is the upload a resource import accepts
type importFormat struct {
	extensions []string
	mismatch   string
}

var importFormats = map[string]importFormat{
	models.ResourceArticles: {
		extensions: []string{".ndjson", ".json"},
		mismatch:   "articles import requires NDJSON file",
	},
	models.ResourceComments: {
		extensions: []string{".csv"},
		mismatch:   "comments import requires the legacy CSV export",
	},
}

func (f importFormat) accepts(filename string) bool {
	return slices.Contains(f.extensions, strings.ToLower(filepath.Ext(filename)))
}

var jobErrorsCSVHeader = []string{"line", "field", "message", "value"}

// ImportHandler serves the historical import jobs
type ImportHandler struct {
	services *service.Services
	cfg      *config.Config
	log      zerolog.Logger
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *ImportHandler {
	return &ImportHandler{
		services: services,
		cfg:      cfg,
		log:      log.With().Str("handler", "import").Logger(),
	}
}

// CreateImport handles POST /v1/imports. The upload is staged on disk and a
// pending job is queued; a repeated Idempotency-Key returns the first job.
func (h *ImportHandler) CreateImport(c *gin.Context) {
	idempotencyKey := c.GetHeader("Idempotency-Key")
	if h.replayJob(c, idempotencyKey) {
		return
	}

	resource := c.PostForm("resource")
	if resource == "" {
		resource = c.Query("resource")
	}
	if resource == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "resource parameter is required (articles, comments)"})
		return
	}
	format, ok := importFormats[resource]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "resource must be one of: articles, comments"})
		return
	}

	upload, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file upload is required"})
		return
	}
	defer upload.Close()

	if limit := h.cfg.Import.MaxUploadSize; header.Size > limit {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("file too large, max size is %d MB", limit/(1024*1024))})
		return
	}
	if !format.accepts(header.Filename) {
		c.JSON(http.StatusBadRequest, gin.H{"error": format.mismatch})
		return
	}

	path, err := h.stageUpload(resource, header.Filename, upload)
	if err != nil {
		h.log.Error().Err(err).Str("file", header.Filename).Msg("Failed to stage upload")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save file"})
		return
	}

	job, err := h.services.Import.CreateImportJob(c.Request.Context(), &models.ImportRequest{
		Resource:       resource,
		IdempotencyKey: idempotencyKey,
	}, path)
	if err != nil {
		os.Remove(path)
		h.log.Error().Err(err).Msg("Failed to create import job")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create import job"})
		return
	}

	h.log.Info().
		Str("job_id", job.ID).
		Str("resource", resource).
		Str("file", header.Filename).
		Int64("size_bytes", header.Size).
		Msg("Import queued")

	c.JSON(http.StatusAccepted, gin.H{
		"job_id":     job.ID,
		"status":     job.Status,
		"resource":   job.Resource,
		"status_url": "/v1/imports/" + job.ID,
		"message":    "Import job created and queued for processing",
	})
}

// replayJob answers with the job already created for key, if there is one
func (h *ImportHandler) replayJob(c *gin.Context, key string) bool {
	if key == "" {
		return false
	}
	existing, err := h.services.Job.GetJobByIdempotencyKey(c.Request.Context(), key)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to check idempotency key")
		return false
	}
	if existing == nil {
		return false
	}
	h.log.Info().Str("job_id", existing.ID).Msg("Replaying import for idempotency key")
	c.JSON(http.StatusOK, existing)
	return true
}

// stageUpload copies an upload into the upload directory, keeping its
// extension so the processor can tell the format.
func (h *ImportHandler) stageUpload(resource, filename string, src multipart.File) (string, error) {
	dir := h.cfg.Import.UploadDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	dst, err := os.CreateTemp(dir, resource+"-*"+strings.ToLower(filepath.Ext(filename)))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dst.Name())
		return "", err
	}
	return dst.Name(), nil
}

// GetImportStatus handles GET /v1/imports/:job_id
func (h *ImportHandler) GetImportStatus(c *gin.Context) {
	jobID := c.Param("job_id")

	job, err := h.services.Job.GetJob(c.Request.Context(), jobID)
	switch {
	case err != nil:
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get job status"})
	case job == nil:
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
	default:
		c.JSON(http.StatusOK, job)
	}
}

// GetImportErrors handles GET /v1/imports/:job_id/errors[?format=csv]
func (h *ImportHandler) GetImportErrors(c *gin.Context) {
	jobID := c.Param("job_id")

	rowErrors, err := h.services.Job.GetJobErrors(c.Request.Context(), jobID)
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job errors")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get errors"})
		return
	}

	if c.Query("format") == service.FormatCSV {
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", "attachment; filename=errors_"+jobID+".csv")
		if err := writeJobErrorsCSV(c.Writer, rowErrors); err != nil {
			h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to write errors CSV")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"job_id":      jobID,
		"error_count": len(rowErrors),
		"errors":      rowErrors,
	})
}

// writeJobErrorsCSV writes one row per rejected line
func writeJobErrorsCSV(w io.Writer, rowErrors []models.ValidationError) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(jobErrorsCSVHeader); err != nil {
		return err
	}
	for _, e := range rowErrors {
		value := ""
		if e.Value != nil {
			value = fmt.Sprint(e.Value)
		}
		if err := writer.Write([]string{strconv.Itoa(e.Line), e.Field, e.Message, value}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
