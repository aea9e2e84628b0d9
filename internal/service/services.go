package service

import (
	"context"
	"net/http"

	"github.com/newsroom-comments-api/internal/cache"
	"github.com/newsroom-comments-api/internal/config"
	"github.com/newsroom-comments-api/internal/models"
	"github.com/newsroom-comments-api/internal/repository"
	"github.com/rs/zerolog"
)

// CommentService defines the comment ingestion and retrieval operations
type CommentService interface {
	SubmitComment(ctx context.Context, req *models.SubmitCommentRequest) (*models.SubmitCommentResult, error)
	ListComments(ctx context.Context, articleID string) ([]models.CommentNode, error)
}

// ImportService defines the interface for import operations
type ImportService interface {
	CreateImportJob(ctx context.Context, req *models.ImportRequest, filePath string) (*models.Job, error)
	ProcessImport(ctx context.Context, job *models.Job) error
}

// ExportService defines the interface for export operations
type ExportService interface {
	StreamArticles(ctx context.Context, w http.ResponseWriter, format string) error
	StreamComments(ctx context.Context, w http.ResponseWriter, format string, filter repository.CommentFilter) error
	GetStats(ctx context.Context) (*models.Stats, error)
}

// JobService defines the interface for job management
type JobService interface {
	StartProcessor(ctx context.Context)
	StopProcessor()
	GetJob(ctx context.Context, id string) (*models.JobResponse, error)
	GetJobByIdempotencyKey(ctx context.Context, key string) (*models.Job, error)
	GetJobErrors(ctx context.Context, id string) ([]models.ValidationError, error)
	SetImportService(importService ImportService)
}

// Services holds all service interfaces
type Services struct {
	Comment CommentService
	Import  ImportService
	Export  ExportService
	Job     JobService
}

// NewServices creates all services. treeCache may be nil to run without a cache.
func NewServices(repos *repository.Repositories, treeCache cache.TreeCache, cfg *config.Config, log zerolog.Logger) *Services {
	jobSvc := newJobService(repos.Job, &cfg.Import, log)
	importSvc := newImportService(repos, jobSvc, treeCache, cfg, log)
	exportSvc := newExportService(repos, log)
	commentSvc := newCommentService(repos, treeCache, log)

	jobSvc.SetImportService(importSvc)

	return &Services{
		Comment: commentSvc,
		Import:  importSvc,
		Export:  exportSvc,
		Job:     jobSvc,
	}
}
