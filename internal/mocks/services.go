package mocks

import (
	"context"
	"net/http"

	"github.com/newsroom-comments-api/internal/models"
	"github.com/newsroom-comments-api/internal/repository"
	"github.com/newsroom-comments-api/internal/service"
)

// MockCommentService is a mock implementation of CommentService
type MockCommentService struct {
	SubmitFunc func(ctx context.Context, req *models.SubmitCommentRequest) (*models.SubmitCommentResult, error)
	ListFunc   func(ctx context.Context, articleID string) ([]models.CommentNode, error)
	Submitted  []*models.SubmitCommentRequest
}

// Verify interface compliance
var _ service.CommentService = (*MockCommentService)(nil)

func NewMockCommentService() *MockCommentService {
	return &MockCommentService{}
}

func (m *MockCommentService) SubmitComment(ctx context.Context, req *models.SubmitCommentRequest) (*models.SubmitCommentResult, error) {
	m.Submitted = append(m.Submitted, req)
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, req)
	}
	return &models.SubmitCommentResult{
		Outcome:   models.OutcomeApproved,
		CommentID: "test-comment-id",
		Approved:  true,
	}, nil
}

func (m *MockCommentService) ListComments(ctx context.Context, articleID string) ([]models.CommentNode, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, articleID)
	}
	return []models.CommentNode{}, nil
}

// MockImportService is a mock implementation of ImportService
type MockImportService struct {
	CreateJobFunc func(ctx context.Context, req *models.ImportRequest, filePath string) (*models.Job, error)
	ProcessFunc   func(ctx context.Context, job *models.Job) error
	ProcessedJobs []*models.Job
	CreatedJobs   []*models.Job
}

// Verify interface compliance
var _ service.ImportService = (*MockImportService)(nil)

func NewMockImportService() *MockImportService {
	return &MockImportService{
		ProcessedJobs: make([]*models.Job, 0),
		CreatedJobs:   make([]*models.Job, 0),
	}
}

func (m *MockImportService) CreateImportJob(ctx context.Context, req *models.ImportRequest, filePath string) (*models.Job, error) {
	if m.CreateJobFunc != nil {
		return m.CreateJobFunc(ctx, req, filePath)
	}
	job := &models.Job{
		ID:             "test-job-id",
		Type:           models.JobTypeImport,
		Resource:       req.Resource,
		Status:         models.JobStatusPending,
		IdempotencyKey: req.IdempotencyKey,
		FilePath:       filePath,
	}
	m.CreatedJobs = append(m.CreatedJobs, job)
	return job, nil
}

func (m *MockImportService) ProcessImport(ctx context.Context, job *models.Job) error {
	if m.ProcessFunc != nil {
		return m.ProcessFunc(ctx, job)
	}
	m.ProcessedJobs = append(m.ProcessedJobs, job)
	job.Status = models.JobStatusCompleted
	return nil
}

// MockExportService is a mock implementation of ExportService
type MockExportService struct {
	StreamArticlesFunc func(ctx context.Context, w http.ResponseWriter, format string) error
	StreamCommentsFunc func(ctx context.Context, w http.ResponseWriter, format string, filter repository.CommentFilter) error
	Stats              *models.Stats
	StatsError         error
	LastFilter         repository.CommentFilter
}

// Verify interface compliance
var _ service.ExportService = (*MockExportService)(nil)

func NewMockExportService() *MockExportService {
	return &MockExportService{Stats: &models.Stats{}}
}

func (m *MockExportService) StreamArticles(ctx context.Context, w http.ResponseWriter, format string) error {
	if m.StreamArticlesFunc != nil {
		return m.StreamArticlesFunc(ctx, w, format)
	}
	return nil
}

func (m *MockExportService) StreamComments(ctx context.Context, w http.ResponseWriter, format string, filter repository.CommentFilter) error {
	m.LastFilter = filter
	if m.StreamCommentsFunc != nil {
		return m.StreamCommentsFunc(ctx, w, format, filter)
	}
	return nil
}

func (m *MockExportService) GetStats(ctx context.Context) (*models.Stats, error) {
	if m.StatsError != nil {
		return nil, m.StatsError
	}
	return m.Stats, nil
}

// MockJobService is a mock implementation of JobService
type MockJobService struct {
	Jobs          map[string]*models.JobResponse
	Errors        map[string][]models.ValidationError
	ImportService service.ImportService
}

// Verify interface compliance
var _ service.JobService = (*MockJobService)(nil)

func NewMockJobService() *MockJobService {
	return &MockJobService{
		Jobs:   make(map[string]*models.JobResponse),
		Errors: make(map[string][]models.ValidationError),
	}
}

func (m *MockJobService) StartProcessor(ctx context.Context) {}

func (m *MockJobService) StopProcessor() {}

func (m *MockJobService) GetJob(ctx context.Context, id string) (*models.JobResponse, error) {
	return m.Jobs[id], nil
}

func (m *MockJobService) GetJobByIdempotencyKey(ctx context.Context, key string) (*models.Job, error) {
	for _, job := range m.Jobs {
		if job.IdempotencyKey == key {
			return &job.Job, nil
		}
	}
	return nil, nil
}

func (m *MockJobService) GetJobErrors(ctx context.Context, id string) ([]models.ValidationError, error) {
	return m.Errors[id], nil
}

func (m *MockJobService) SetImportService(importService service.ImportService) {
	m.ImportService = importService
}
