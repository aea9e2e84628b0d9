package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newsroom-comments-api/internal/models"
	"github.com/newsroom-comments-api/internal/service"
	"github.com/newsroom-comments-api/internal/validation"
	"github.com/rs/zerolog"
)

const commentRequestTimeout = 10 * time.Second

// Submission messages shown to the commenter
const (
	messageApproved = "Comment submitted and approved successfully!"
	messageFlagged  = "Comment submitted but flagged for moderation due to spam detection."
)

// CommentHandler handles comment submission and retrieval
type CommentHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(services *service.Services, log zerolog.Logger) *CommentHandler {
	return &CommentHandler{
		services: services,
		log:      log.With().Str("handler", "comment").Logger(),
	}
}

// SubmitComment handles POST /v1/comments
func (h *CommentHandler) SubmitComment(c *gin.Context) {
	var req models.SubmitCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx, cancel := contextWithTimeout(c, commentRequestTimeout)
	defer cancel()

	result, err := h.services.Comment.SubmitComment(ctx, &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	message := messageApproved
	if result.Outcome == models.OutcomePendingModeration {
		message = messageFlagged
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": message,
		"status":  result.Outcome,
		"comment": gin.H{
			"id":       result.CommentID,
			"approved": result.Approved,
			"spam":     result.Spam,
		},
	})
}

// ListComments handles GET /v1/comments?article_id=...
func (h *CommentHandler) ListComments(c *gin.Context) {
	h.listComments(c, c.Query("article_id"))
}

// ListArticleComments handles GET /v1/articles/:article_id/comments
func (h *CommentHandler) ListArticleComments(c *gin.Context) {
	h.listComments(c, c.Param("article_id"))
}

func (h *CommentHandler) listComments(c *gin.Context, articleID string) {
	if articleID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "article_id is required"})
		return
	}

	ctx, cancel := contextWithTimeout(c, commentRequestTimeout)
	defer cancel()

	tree, err := h.services.Comment.ListComments(ctx, articleID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, tree)
}

// writeError maps service errors onto status codes. Store failures never
// leak their cause to the client.
func (h *CommentHandler) writeError(c *gin.Context, err error) {
	var vErr *validation.ValidationError
	var refErr *service.ReferentialError

	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Message, "field": vErr.Field})
	case errors.As(err, &refErr):
		c.JSON(http.StatusNotFound, gin.H{"error": refErr.Message, "field": refErr.Field})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Comment request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
