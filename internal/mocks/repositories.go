package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/newsroom-comments-api/internal/models"
	"github.com/newsroom-comments-api/internal/repository"
)

// MockArticleRepository is a mock implementation of ArticleRepository
type MockArticleRepository struct {
	Articles         map[string]*models.Article
	SlugToArticle    map[string]*models.Article
	InsertError      error
	ExistsError      error
	InsertedCount    int
	BatchInsertFunc  func(ctx context.Context, articles []*models.Article) (int, error)
	BatchInsertCalls int
}

var _ repository.ArticleRepository = (*MockArticleRepository)(nil)

func NewMockArticleRepository() *MockArticleRepository {
	return &MockArticleRepository{
		Articles:      make(map[string]*models.Article),
		SlugToArticle: make(map[string]*models.Article),
	}
}

func (m *MockArticleRepository) Create(ctx context.Context, article *models.Article) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	m.Articles[article.ID] = article
	m.SlugToArticle[article.Slug] = article
	return nil
}

func (m *MockArticleRepository) BatchInsert(ctx context.Context, articles []*models.Article) (int, error) {
	m.BatchInsertCalls++
	if m.BatchInsertFunc != nil {
		return m.BatchInsertFunc(ctx, articles)
	}
	if m.InsertError != nil {
		return 0, m.InsertError
	}
	for _, a := range articles {
		m.Articles[a.ID] = a
		m.SlugToArticle[a.Slug] = a
	}
	m.InsertedCount += len(articles)
	return len(articles), nil
}

func (m *MockArticleRepository) GetByID(ctx context.Context, id string) (*models.Article, error) {
	return m.Articles[id], nil
}

func (m *MockArticleRepository) Exists(ctx context.Context, id string) (bool, error) {
	if m.ExistsError != nil {
		return false, m.ExistsError
	}
	_, exists := m.Articles[id]
	return exists, nil
}

func (m *MockArticleRepository) GetSlugIndex(ctx context.Context) (map[string]string, error) {
	index := make(map[string]string, len(m.SlugToArticle))
	for slug, a := range m.SlugToArticle {
		index[slug] = a.ID
	}
	return index, nil
}

func (m *MockArticleRepository) Count(ctx context.Context) (int, error) {
	return len(m.Articles), nil
}

func (m *MockArticleRepository) StreamAll(ctx context.Context, callback func(*models.Article) error) error {
	for _, article := range m.Articles {
		if err := callback(article); err != nil {
			return err
		}
	}
	return nil
}

// MockCommentRepository is a mock implementation of CommentRepository.
// It is safe for concurrent use.
type MockCommentRepository struct {
	mu               sync.Mutex
	Comments         map[string]*models.Comment
	InsertError      error
	GetError         error
	ListError        error
	InsertedCount    int
	BatchInsertFunc  func(ctx context.Context, comments []*models.Comment) (int, error)
	BatchInsertCalls int
	ListRootsCalls   int
}

var _ repository.CommentRepository = (*MockCommentRepository)(nil)

func NewMockCommentRepository() *MockCommentRepository {
	return &MockCommentRepository{
		Comments: make(map[string]*models.Comment),
	}
}

func (m *MockCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertError != nil {
		return m.InsertError
	}
	m.Comments[comment.ID] = comment
	return nil
}

func (m *MockCommentRepository) BatchInsert(ctx context.Context, comments []*models.Comment) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BatchInsertCalls++
	if m.BatchInsertFunc != nil {
		return m.BatchInsertFunc(ctx, comments)
	}
	if m.InsertError != nil {
		return 0, m.InsertError
	}
	// the whole batch fails on a repeated primary key, like COPY does
	seen := make(map[string]bool, len(comments))
	for _, c := range comments {
		if _, exists := m.Comments[c.ID]; exists || seen[c.ID] {
			return 0, fmt.Errorf("duplicate key value violates unique constraint \"comments_pkey\": %s", c.ID)
		}
		seen[c.ID] = true
	}
	for _, c := range comments {
		m.Comments[c.ID] = c
	}
	m.InsertedCount += len(comments)
	return len(comments), nil
}

func (m *MockCommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetError != nil {
		return nil, m.GetError
	}
	return m.Comments[id], nil
}

func (m *MockCommentRepository) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing := make(map[string]bool)
	for _, id := range ids {
		if _, ok := m.Comments[id]; ok {
			existing[id] = true
		}
	}
	return existing, nil
}

func (m *MockCommentRepository) ListVisibleRoots(ctx context.Context, articleID string) ([]*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListRootsCalls++
	if m.ListError != nil {
		return nil, m.ListError
	}
	var roots []*models.Comment
	for _, c := range m.Comments {
		if c.ArticleID == articleID && c.ParentID == nil && c.Visible() {
			roots = append(roots, c)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].CreatedAt.After(roots[j].CreatedAt) })
	return roots, nil
}

func (m *MockCommentRepository) ListVisibleReplies(ctx context.Context, parentIDs []string) ([]*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListError != nil {
		return nil, m.ListError
	}
	parents := make(map[string]bool, len(parentIDs))
	for _, id := range parentIDs {
		parents[id] = true
	}
	var replies []*models.Comment
	for _, c := range m.Comments {
		if c.ParentID != nil && parents[*c.ParentID] && c.Visible() {
			replies = append(replies, c)
		}
	}
	sort.Slice(replies, func(i, j int) bool { return replies[i].CreatedAt.Before(replies[j].CreatedAt) })
	return replies, nil
}

func (m *MockCommentRepository) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Comments), nil
}

func (m *MockCommentRepository) CountQuarantined(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.Comments {
		if !c.Visible() {
			count++
		}
	}
	return count, nil
}

func (m *MockCommentRepository) StreamAll(ctx context.Context, filter repository.CommentFilter, callback func(*models.Comment) error) error {
	m.mu.Lock()
	var matched []*models.Comment
	for _, c := range m.Comments {
		if filter.ArticleID != "" && c.ArticleID != filter.ArticleID {
			continue
		}
		if filter.Status == models.CommentStatusVisible && !c.Visible() {
			continue
		}
		if filter.Status == models.CommentStatusQuarantined && c.Visible() {
			continue
		}
		matched = append(matched, c)
	}
	m.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.Before(matched[j].CreatedAt) })
	for _, comment := range matched {
		if err := callback(comment); err != nil {
			return err
		}
	}
	return nil
}

// MockJobRepository is a mock implementation of JobRepository
type MockJobRepository struct {
	mu              sync.Mutex
	Jobs            map[string]*models.Job
	IdempotencyJobs map[string]*models.Job
	Errors          map[string][]models.ValidationError
	CreateError     error
	UpdateError     error
}

var _ repository.JobRepository = (*MockJobRepository)(nil)

func NewMockJobRepository() *MockJobRepository {
	return &MockJobRepository{
		Jobs:            make(map[string]*models.Job),
		IdempotencyJobs: make(map[string]*models.Job),
		Errors:          make(map[string][]models.ValidationError),
	}
}

func (m *MockJobRepository) Create(ctx context.Context, job *models.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateError != nil {
		return m.CreateError
	}
	stored := *job
	m.Jobs[job.ID] = &stored
	if job.IdempotencyKey != "" {
		m.IdempotencyJobs[job.IdempotencyKey] = &stored
	}
	return nil
}

func (m *MockJobRepository) Update(ctx context.Context, job *models.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateError != nil {
		return m.UpdateError
	}
	stored, ok := m.Jobs[job.ID]
	if !ok {
		stored = &models.Job{}
		m.Jobs[job.ID] = stored
	}
	*stored = *job
	return nil
}

func (m *MockJobRepository) GetByID(ctx context.Context, id string) (*models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyJob(m.Jobs[id]), nil
}

func (m *MockJobRepository) GetByIdempotencyKey(ctx context.Context, key string) (*models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyJob(m.IdempotencyJobs[key]), nil
}

// Jobs are handed out as copies so a running import never shares memory
// with the test reading it.
func copyJob(job *models.Job) *models.Job {
	if job == nil {
		return nil
	}
	c := *job
	return &c
}

func (m *MockJobRepository) GetPendingJobs(ctx context.Context) ([]*models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var pending []*models.Job
	for _, job := range m.Jobs {
		if job.Status == models.JobStatusPending {
			pending = append(pending, copyJob(job))
		}
	}
	return pending, nil
}

func (m *MockJobRepository) MarkJobAsProcessing(ctx context.Context, jobID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, exists := m.Jobs[jobID]
	if !exists || job.Status != models.JobStatusPending {
		return false, nil
	}
	job.Status = models.JobStatusProcessing
	return true, nil
}

func (m *MockJobRepository) AddError(ctx context.Context, jobID string, err *models.ValidationError) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors[jobID] = append(m.Errors[jobID], *err)
	return nil
}

func (m *MockJobRepository) AddErrors(ctx context.Context, jobID string, errors []models.ValidationError) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors[jobID] = append(m.Errors[jobID], errors...)
	return nil
}

func (m *MockJobRepository) GetErrors(ctx context.Context, jobID string, limit int) ([]models.ValidationError, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	errors := m.Errors[jobID]
	if limit > 0 && len(errors) > limit {
		return errors[:limit], nil
	}
	return errors, nil
}

// NewMockRepositories bundles fresh mocks into a Repositories value
func NewMockRepositories() (*repository.Repositories, *MockArticleRepository, *MockCommentRepository, *MockJobRepository) {
	articles := NewMockArticleRepository()
	comments := NewMockCommentRepository()
	jobs := NewMockJobRepository()
	return &repository.Repositories{Article: articles, Comment: comments, Job: jobs}, articles, comments, jobs
}
