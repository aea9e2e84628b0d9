package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newsroom-comments-api/internal/models"
	"github.com/newsroom-comments-api/internal/repository"
	"github.com/newsroom-comments-api/internal/service"
	"github.com/newsroom-comments-api/internal/validation"
	"github.com/rs/zerolog"
)

// ExportHandler handles export endpoints
type ExportHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(services *service.Services, log zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		services: services,
		log:      log.With().Str("handler", "export").Logger(),
	}
}

// StreamExport handles GET /v1/exports?resource=...&format=...&status=...
// Streams the export directly to the response
func (h *ExportHandler) StreamExport(c *gin.Context) {
	ctx := c.Request.Context()

	var req models.ExportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters"})
		return
	}

	if req.Resource == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "resource parameter is required (articles, comments)"})
		return
	}
	if req.Resource != models.ResourceArticles && req.Resource != models.ResourceComments {
		c.JSON(http.StatusBadRequest, gin.H{"error": "resource must be one of: articles, comments"})
		return
	}

	if req.Format == "" {
		req.Format = service.FormatNDJSON
	}
	if req.Format != service.FormatNDJSON && req.Format != service.FormatJSON && req.Format != service.FormatCSV {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be one of: ndjson, json, csv"})
		return
	}
	if req.Format == service.FormatCSV && req.Resource != models.ResourceComments {
		c.JSON(http.StatusBadRequest, gin.H{"error": "CSV format only supported for comments export"})
		return
	}

	if req.Status == "" {
		req.Status = models.CommentStatusAll
	}
	switch req.Status {
	case models.CommentStatusAll, models.CommentStatusVisible, models.CommentStatusQuarantined:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be one of: all, visible, quarantined"})
		return
	}
	if req.ArticleID != "" && !validation.IsValidID(req.ArticleID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "article_id must be a UUID"})
		return
	}

	h.log.Info().
		Str("resource", req.Resource).
		Str("format", req.Format).
		Str("status", string(req.Status)).
		Msg("Starting streaming export")

	var err error
	switch req.Resource {
	case models.ResourceArticles:
		err = h.services.Export.StreamArticles(ctx, c.Writer, req.Format)
	case models.ResourceComments:
		err = h.services.Export.StreamComments(ctx, c.Writer, req.Format, repository.CommentFilter{
			ArticleID: req.ArticleID,
			Status:    req.Status,
		})
	}

	if err != nil {
		h.log.Error().Err(err).Str("resource", req.Resource).Msg("Export failed")
		// Can't return error JSON after streaming has started
		return
	}
}
