package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/newsroom-comments-api/internal/cache"
	"github.com/newsroom-comments-api/internal/metrics"
	"github.com/newsroom-comments-api/internal/models"
	"github.com/newsroom-comments-api/internal/repository"
	"github.com/newsroom-comments-api/internal/spam"
	"github.com/newsroom-comments-api/internal/validation"
	"github.com/rs/zerolog"
)

const logContentPreview = 100

// commentService is the concrete implementation of CommentService
type commentService struct {
	repos     *repository.Repositories
	validator *validation.Validator
	cache     cache.TreeCache
	log       zerolog.Logger
	now       func() time.Time
}

// newCommentService creates a new CommentService
func newCommentService(repos *repository.Repositories, treeCache cache.TreeCache, log zerolog.Logger) *commentService {
	if treeCache == nil {
		treeCache = cache.Noop{}
	}
	return &commentService{
		repos:     repos,
		validator: validation.NewValidator(),
		cache:     treeCache,
		log:       log.With().Str("service", "comment").Logger(),
		now:       time.Now,
	}
}

// SubmitComment validates, scores and stores a new comment. A spam verdict is
// a successful outcome; only validation, referential and store failures are
// returned as errors.
func (s *commentService) SubmitComment(ctx context.Context, req *models.SubmitCommentRequest) (*models.SubmitCommentResult, error) {
	if err := s.validator.ValidateSubmission(req); err != nil {
		metrics.CommentsRejected.WithLabelValues("validation").Inc()
		return nil, err
	}

	author := strings.TrimSpace(req.Author)
	content := strings.TrimSpace(req.Content)

	if err := s.checkReferences(ctx, req.ArticleID, req.ParentID); err != nil {
		return nil, err
	}

	verdict := spam.Detect(content, author)
	metrics.SpamScore.Observe(float64(verdict.Score))

	comment := &models.Comment{
		ID:        uuid.New().String(),
		ArticleID: req.ArticleID,
		Author:    author,
		Content:   content,
		Approved:  !verdict.IsSpam,
		Spam:      verdict.IsSpam,
		CreatedAt: s.now(),
	}
	if req.ParentID != "" {
		parentID := req.ParentID
		comment.ParentID = &parentID
	}

	if err := s.repos.Comment.Create(ctx, comment); err != nil {
		metrics.CommentsRejected.WithLabelValues("internal").Inc()
		s.log.Error().Err(err).Str("article_id", req.ArticleID).Msg("Failed to store comment")
		return nil, persistenceError("create comment", err)
	}

	result := &models.SubmitCommentResult{
		CommentID: comment.ID,
		Approved:  comment.Approved,
		Spam:      comment.Spam,
	}

	if verdict.IsSpam {
		result.Outcome = models.OutcomePendingModeration
		s.log.Warn().
			Str("comment_id", comment.ID).
			Str("article_id", comment.ArticleID).
			Str("author", author).
			Str("content", preview(content)).
			Int("score", verdict.Score).
			Strs("reasons", verdict.Reasons).
			Msg("Comment quarantined as spam")
	} else {
		result.Outcome = models.OutcomeApproved
		s.cache.Invalidate(ctx, comment.ArticleID)
		s.log.Info().
			Str("comment_id", comment.ID).
			Str("article_id", comment.ArticleID).
			Int("score", verdict.Score).
			Msg("Comment published")
	}

	metrics.CommentsSubmitted.WithLabelValues(result.Outcome).Inc()
	return result, nil
}

// checkReferences verifies the article exists and that a parent, when given,
// is a stored comment of the same article.
func (s *commentService) checkReferences(ctx context.Context, articleID, parentID string) error {
	exists, err := s.repos.Article.Exists(ctx, articleID)
	if err != nil {
		metrics.CommentsRejected.WithLabelValues("internal").Inc()
		return persistenceError("look up article", err)
	}
	if !exists {
		metrics.CommentsRejected.WithLabelValues("not_found").Inc()
		return &ReferentialError{Field: "article_id", Message: "Article not found"}
	}

	if parentID == "" {
		return nil
	}

	parent, err := s.repos.Comment.GetByID(ctx, parentID)
	if err != nil {
		metrics.CommentsRejected.WithLabelValues("internal").Inc()
		return persistenceError("look up parent comment", err)
	}
	if parent == nil {
		metrics.CommentsRejected.WithLabelValues("not_found").Inc()
		return &ReferentialError{Field: "parent_id", Message: "Parent comment not found"}
	}
	if parent.ArticleID != articleID {
		metrics.CommentsRejected.WithLabelValues("not_found").Inc()
		return &ReferentialError{Field: "parent_id", Message: "Parent comment belongs to a different article"}
	}
	return nil
}

// ListComments returns the visible comment tree of an article, newest root
// first, with replies oldest first, at most three levels deep.
func (s *commentService) ListComments(ctx context.Context, articleID string) ([]models.CommentNode, error) {
	if !validation.IsValidID(articleID) {
		return nil, &validation.ValidationError{Field: "article_id", Message: "Valid article ID is required", Value: articleID}
	}

	tree, generation, ok := s.cache.Get(ctx, articleID)
	if ok {
		return tree, nil
	}

	roots, err := s.repos.Comment.ListVisibleRoots(ctx, articleID)
	if err != nil {
		return nil, persistenceError("list comments", err)
	}

	levels := [][]*models.Comment{roots}
	parents := roots
	for depth := 1; depth < models.MaxTreeDepth && len(parents) > 0; depth++ {
		replies, err := s.repos.Comment.ListVisibleReplies(ctx, commentIDs(parents))
		if err != nil {
			return nil, persistenceError("list replies", err)
		}
		levels = append(levels, replies)
		parents = replies
	}

	tree = BuildCommentTree(levels)
	s.cache.Set(ctx, articleID, generation, tree)
	return tree, nil
}

// BuildCommentTree assembles nodes from per-depth comment slices, where
// levels[0] holds the roots and levels[n] the replies to levels[n-1]. The
// order within each slice is kept among siblings. Comments whose parent is
// absent from the previous level are dropped.
func BuildCommentTree(levels [][]*models.Comment) []models.CommentNode {
	var below map[string][]models.CommentNode
	nodes := []models.CommentNode{}

	for depth := len(levels) - 1; depth >= 0; depth-- {
		byParent := make(map[string][]models.CommentNode)
		nodes = make([]models.CommentNode, 0, len(levels[depth]))

		for _, c := range levels[depth] {
			node := models.NewCommentNode(c)
			if children, ok := below[c.ID]; ok {
				node.Replies = children
			}
			nodes = append(nodes, node)
			if c.ParentID != nil {
				byParent[*c.ParentID] = append(byParent[*c.ParentID], node)
			}
		}
		below = byParent
	}

	return nodes
}

func commentIDs(comments []*models.Comment) []string {
	ids := make([]string, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
	}
	return ids
}

func preview(s string) string {
	runes := []rune(s)
	if len(runes) <= logContentPreview {
		return s
	}
	return string(runes[:logContentPreview]) + "..."
}
