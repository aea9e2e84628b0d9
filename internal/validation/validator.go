package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/newsroom-comments-api/internal/models"
)

var slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Legacy comment limits, applied to the cleaned body
const (
	MinLegacyContentLength = 3
	MaxLegacyContentLength = 5000
)

// LegacyDateLayout is the timestamp layout of the legacy comment export
const LegacyDateLayout = "2006-01-02 15:04:05"

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validator provides validation methods
type Validator struct {
	articleSlugCache map[string]bool
	articleIDCache   map[string]bool
	legacyIDCache    map[string]bool
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		articleSlugCache: make(map[string]bool),
		articleIDCache:   make(map[string]bool),
		legacyIDCache:    make(map[string]bool),
	}
}

// AddArticleSlug adds a slug to the uniqueness cache
func (v *Validator) AddArticleSlug(slug string) {
	v.articleSlugCache[slug] = true
}

// AddArticleID adds an article ID to the uniqueness cache
func (v *Validator) AddArticleID(id string) {
	v.articleIDCache[id] = true
}

// AddLegacyID marks a legacy comment id as imported by the current file
func (v *Validator) AddLegacyID(id string) {
	v.legacyIDCache[id] = true
}

// ValidateSubmission checks the shape of a comment submission and returns the
// first violation found. Lengths are measured after trimming.
func (v *Validator) ValidateSubmission(req *models.SubmitCommentRequest) error {
	if strings.TrimSpace(req.ArticleID) == "" || !IsValidID(req.ArticleID) {
		return &ValidationError{Field: "article_id", Message: "Valid article ID is required", Value: req.ArticleID}
	}

	author := strings.TrimSpace(req.Author)
	if author == "" {
		return &ValidationError{Field: "author", Message: "Author name cannot be empty"}
	}
	if utf8.RuneCountInString(author) > models.MaxAuthorLength {
		return &ValidationError{
			Field:   "author",
			Message: fmt.Sprintf("Author name is too long (max %d characters)", models.MaxAuthorLength),
		}
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return &ValidationError{Field: "content", Message: "Comment content cannot be empty"}
	}
	if utf8.RuneCountInString(content) > models.MaxContentLength {
		return &ValidationError{Field: "content", Message: "Comment is too long (max 10,000 characters)"}
	}

	if req.ParentID != "" && !IsValidID(req.ParentID) {
		return &ValidationError{Field: "parent_id", Message: "Invalid parent comment ID", Value: req.ParentID}
	}

	return nil
}

// ValidateArticle validates an article record
func (v *Validator) ValidateArticle(article *models.ArticleNDJSON, lineNum int) []ValidationError {
	var errors []ValidationError

	// Validate ID
	if article.ID == "" {
		errors = append(errors, ValidationError{Field: "id", Message: "id is required"})
	} else if !IsValidID(article.ID) {
		errors = append(errors, ValidationError{Field: "id", Message: "invalid UUID format", Value: article.ID})
	} else if v.articleIDCache[article.ID] {
		errors = append(errors, ValidationError{Field: "id", Message: "duplicate id", Value: article.ID})
	}

	// Validate slug
	if article.Slug == "" {
		errors = append(errors, ValidationError{Field: "slug", Message: "slug is required"})
	} else if !slugRegex.MatchString(article.Slug) {
		errors = append(errors, ValidationError{Field: "slug", Message: "slug must be kebab-case (lowercase letters, numbers, hyphens)", Value: article.Slug})
	} else if v.articleSlugCache[article.Slug] {
		errors = append(errors, ValidationError{Field: "slug", Message: "duplicate slug", Value: article.Slug})
	}

	// Validate title
	if strings.TrimSpace(article.Title) == "" {
		errors = append(errors, ValidationError{Field: "title", Message: "title is required"})
	}

	// Unpublished articles must not have published_at
	if article.Published != nil && !*article.Published && article.PublishedAt != "" {
		errors = append(errors, ValidationError{Field: "published_at", Message: "unpublished articles must not have published_at"})
	}

	if article.PublishedAt != "" {
		if _, err := time.Parse(time.RFC3339, article.PublishedAt); err != nil {
			errors = append(errors, ValidationError{Field: "published_at", Message: "invalid ISO 8601 date format", Value: article.PublishedAt})
		}
	}

	return errors
}

// ValidateLegacyComment validates a row of the legacy comment export. The
// content is expected to be cleaned already.
func (v *Validator) ValidateLegacyComment(comment *models.LegacyCommentCSV, lineNum int) []ValidationError {
	var errors []ValidationError

	if comment.LegacyID == "" {
		errors = append(errors, ValidationError{Field: "comment_ID", Message: "comment_ID is required"})
	} else if _, err := strconv.ParseInt(comment.LegacyID, 10, 64); err != nil {
		errors = append(errors, ValidationError{Field: "comment_ID", Message: "comment_ID must be numeric", Value: comment.LegacyID})
	} else if v.legacyIDCache[comment.LegacyID] {
		errors = append(errors, ValidationError{Field: "comment_ID", Message: "duplicate comment_ID", Value: comment.LegacyID})
	}

	if comment.PostSlug == "" {
		errors = append(errors, ValidationError{Field: "comment_post_name", Message: "comment_post_name is required"})
	}

	length := utf8.RuneCountInString(comment.Content)
	if length < MinLegacyContentLength {
		errors = append(errors, ValidationError{Field: "comment_content", Message: "content is empty or too short"})
	} else if length > MaxLegacyContentLength {
		errors = append(errors, ValidationError{
			Field:   "comment_content",
			Message: fmt.Sprintf("content exceeds maximum of %d characters (has %d)", MaxLegacyContentLength, length),
		})
	}

	if utf8.RuneCountInString(comment.Author) > models.MaxAuthorLength {
		errors = append(errors, ValidationError{Field: "comment_author", Message: "author name is too long", Value: comment.Author})
	}

	if comment.Date == "" {
		errors = append(errors, ValidationError{Field: "comment_date", Message: "comment_date is required"})
	} else if _, err := ParseLegacyDate(comment.Date); err != nil {
		errors = append(errors, ValidationError{Field: "comment_date", Message: "invalid date format", Value: comment.Date})
	}

	if comment.ParentID != "" {
		if _, err := strconv.ParseInt(comment.ParentID, 10, 64); err != nil {
			errors = append(errors, ValidationError{Field: "comment_parent", Message: "comment_parent must be numeric", Value: comment.ParentID})
		}
	}

	return errors
}

// ParseLegacyDate parses a legacy export timestamp, accepting RFC 3339 as well
func ParseLegacyDate(s string) (time.Time, error) {
	if t, err := time.Parse(LegacyDateLayout, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.RFC3339, s)
}

// IsValidID checks if a string is a valid UUID
func IsValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
