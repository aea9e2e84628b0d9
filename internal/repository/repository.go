package repository

import (
	"context"

	"github.com/newsroom-comments-api/internal/database"
	"github.com/newsroom-comments-api/internal/models"
)

// ArticleRepository defines the interface for article data operations
type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article) error
	BatchInsert(ctx context.Context, articles []*models.Article) (int, error)
	GetByID(ctx context.Context, id string) (*models.Article, error)
	Exists(ctx context.Context, id string) (bool, error)
	GetSlugIndex(ctx context.Context) (map[string]string, error)
	Count(ctx context.Context) (int, error)
	StreamAll(ctx context.Context, callback func(*models.Article) error) error
}

// CommentFilter narrows a comment export
type CommentFilter struct {
	ArticleID string
	Status    models.CommentStatus
}

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	BatchInsert(ctx context.Context, comments []*models.Comment) (int, error)
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error)
	// ListVisibleRoots returns visible top-level comments, newest first
	ListVisibleRoots(ctx context.Context, articleID string) ([]*models.Comment, error)
	// ListVisibleReplies returns visible direct replies of the given parents, oldest first
	ListVisibleReplies(ctx context.Context, parentIDs []string) ([]*models.Comment, error)
	Count(ctx context.Context) (int, error)
	CountQuarantined(ctx context.Context) (int, error)
	StreamAll(ctx context.Context, filter CommentFilter, callback func(*models.Comment) error) error
}

// JobRepository defines the interface for job data operations
type JobRepository interface {
	Create(ctx context.Context, job *models.Job) error
	Update(ctx context.Context, job *models.Job) error
	GetByID(ctx context.Context, id string) (*models.Job, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*models.Job, error)
	GetPendingJobs(ctx context.Context) ([]*models.Job, error)
	MarkJobAsProcessing(ctx context.Context, jobID string) (bool, error)
	AddError(ctx context.Context, jobID string, err *models.ValidationError) error
	AddErrors(ctx context.Context, jobID string, errors []models.ValidationError) error
	GetErrors(ctx context.Context, jobID string, limit int) ([]models.ValidationError, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	Article ArticleRepository
	Comment CommentRepository
	Job     JobRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		Article: NewArticleRepo(db),
		Comment: NewCommentRepo(db),
		Job:     NewJobRepo(db),
	}
}
