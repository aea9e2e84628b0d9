package service

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/newsroom-comments-api/internal/cache"
	"github.com/newsroom-comments-api/internal/config"
	"github.com/newsroom-comments-api/internal/metrics"
	"github.com/newsroom-comments-api/internal/models"
	"github.com/newsroom-comments-api/internal/repository"
	"github.com/newsroom-comments-api/internal/spam"
	"github.com/newsroom-comments-api/internal/validation"
	"github.com/rs/zerolog"
)

// importService is the concrete implementation of ImportService
type importService struct {
	repos      *repository.Repositories
	jobService JobService
	cache      cache.TreeCache
	cfg        *config.Config
	log        zerolog.Logger
}

// newImportService creates a new ImportService
func newImportService(repos *repository.Repositories, jobService JobService, treeCache cache.TreeCache, cfg *config.Config, log zerolog.Logger) *importService {
	if treeCache == nil {
		treeCache = cache.Noop{}
	}
	return &importService{
		repos:      repos,
		jobService: jobService,
		cache:      treeCache,
		cfg:        cfg,
		log:        log.With().Str("service", "import").Logger(),
	}
}

// CreateImportJob creates a new import job
func (s *importService) CreateImportJob(ctx context.Context, req *models.ImportRequest, filePath string) (*models.Job, error) {
	job := &models.Job{
		ID:             uuid.New().String(),
		Type:           models.JobTypeImport,
		Resource:       req.Resource,
		Status:         models.JobStatusPending,
		IdempotencyKey: req.IdempotencyKey,
		FilePath:       filePath,
		CreatedAt:      time.Now(),
	}

	if err := s.repos.Job.Create(ctx, job); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("job_id", job.ID).
		Str("resource", job.Resource).
		Str("file", filePath).
		Msg("Import job created")

	return job, nil
}

// ProcessImport processes an import job
func (s *importService) ProcessImport(ctx context.Context, job *models.Job) error {
	startTime := time.Now()
	now := startTime
	job.Status = models.JobStatusProcessing
	job.StartedAt = &now
	s.repos.Job.Update(ctx, job)

	s.log.Info().
		Str("job_id", job.ID).
		Str("resource", job.Resource).
		Msg("Starting import processing")

	var err error
	switch job.Resource {
	case models.ResourceArticles:
		err = s.processArticlesNDJSON(ctx, job)
	case models.ResourceComments:
		err = s.processLegacyCommentsCSV(ctx, job)
	default:
		err = fmt.Errorf("unknown resource type: %s", job.Resource)
	}

	duration := time.Since(startTime)
	job.DurationMs = duration.Milliseconds()
	if job.ProcessedCount > 0 && duration.Seconds() > 0 {
		job.RowsPerSec = float64(job.ProcessedCount) / duration.Seconds()
	}

	completedAt := time.Now()
	job.CompletedAt = &completedAt

	if err != nil {
		job.Status = models.JobStatusFailed
		s.log.Error().Err(err).Str("job_id", job.ID).Msg("Import failed")
	} else {
		job.Status = models.JobStatusCompleted
		s.log.Info().
			Str("job_id", job.ID).
			Int("total", job.TotalRecords).
			Int("successful", job.SuccessfulCount).
			Int("quarantined", job.QuarantineCount).
			Int("failed", job.FailedCount).
			Int64("duration_ms", job.DurationMs).
			Float64("rows_per_sec", job.RowsPerSec).
			Msg("Import completed")
	}

	s.repos.Job.Update(ctx, job)

	return err
}

// processArticlesNDJSON processes an articles NDJSON file
func (s *importService) processArticlesNDJSON(ctx context.Context, job *models.Job) error {
	file, err := os.Open(job.FilePath)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	validator := validation.NewValidator()
	batchSize := s.cfg.Import.BatchSize

	// Existing articles count as duplicates
	slugIndex, err := s.repos.Article.GetSlugIndex(ctx)
	if err != nil {
		return fmt.Errorf("failed to load article index: %w", err)
	}
	for slug, id := range slugIndex {
		validator.AddArticleSlug(slug)
		validator.AddArticleID(id)
	}

	var batch []*models.Article
	var validationErrors []models.ValidationError
	lineNum := 0

	flush := func() {
		inserted, err := s.repos.Article.BatchInsert(ctx, batch)
		if err != nil {
			s.log.Error().Err(err).Int("batch_size", len(batch)).Msg("Batch insert failed")
			job.FailedCount += len(batch)
		} else {
			job.SuccessfulCount += inserted
		}
		job.ProcessedCount += len(batch)
		batch = batch[:0]
	}

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		if strings.TrimSpace(line) == "" {
			continue
		}

		job.TotalRecords++

		if lineNum%10000 == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}

		var article models.ArticleNDJSON
		if err := json.Unmarshal([]byte(line), &article); err != nil {
			s.rejectRow(ctx, job, &validationErrors, lineNum, []validation.ValidationError{
				{Field: "json", Message: fmt.Sprintf("invalid JSON: %v", err)},
			})
			continue
		}

		if errors := validator.ValidateArticle(&article, lineNum); len(errors) > 0 {
			s.rejectRow(ctx, job, &validationErrors, lineNum, errors)
			continue
		}

		batch = append(batch, convertNDJSONToArticle(&article))
		validator.AddArticleSlug(article.Slug)
		validator.AddArticleID(article.ID)

		if len(batch) >= batchSize {
			flush()
		}
	}

	if len(batch) > 0 {
		flush()
	}

	if len(validationErrors) > 0 {
		s.repos.Job.AddErrors(ctx, job.ID, validationErrors)
	}

	return scanner.Err()
}

// pendingReply is an imported reply whose legacy parent was not seen yet
type pendingReply struct {
	comment      *models.Comment
	legacyParent string
}

// importedRef remembers where an imported legacy comment landed
type importedRef struct {
	id        string
	articleID string
}

// processLegacyCommentsCSV imports the legacy comment export. Every row is
// cleaned, attached to its article by slug and scored before it is stored.
func (s *importService) processLegacyCommentsCSV(ctx context.Context, job *models.Job) error {
	file, err := os.Open(job.FilePath)
	if err != nil {
		return err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	validator := validation.NewValidator()
	batchSize := s.cfg.Import.BatchSize

	slugIndex, err := s.repos.Article.GetSlugIndex(ctx)
	if err != nil {
		return fmt.Errorf("failed to load article index: %w", err)
	}
	articles := newArticleResolver(slugIndex)

	header, err := reader.Read()
	if err != nil {
		return err
	}
	headerMap := make(map[string]int)
	for i, h := range header {
		headerMap[strings.TrimSpace(h)] = i
	}

	imported := make(map[string]importedRef)
	touched := make(map[string]bool)
	var pending []pendingReply
	var batch []*models.Comment
	var validationErrors []models.ValidationError
	lineNum := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		lineNum++
		if err != nil {
			job.TotalRecords++
			s.rejectRow(ctx, job, &validationErrors, lineNum, []validation.ValidationError{
				{Field: "csv", Message: fmt.Sprintf("malformed row: %v", err)},
			})
			continue
		}
		job.TotalRecords++

		if lineNum%10000 == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}

		row := &models.LegacyCommentCSV{
			LegacyID:    getField(record, headerMap, "comment_ID"),
			PostSlug:    getField(record, headerMap, "comment_post_name"),
			PostTitle:   getField(record, headerMap, "comment_post_title"),
			Author:      getField(record, headerMap, "comment_author"),
			AuthorEmail: getField(record, headerMap, "comment_author_email"),
			Content:     getField(record, headerMap, "comment_content"),
			Date:        getField(record, headerMap, "comment_date"),
			ParentID:    getField(record, headerMap, "comment_parent"),
			Approved:    getField(record, headerMap, "comment_approved"),
		}

		// Rows held back at the source are not carried over
		if row.Approved != "1" {
			job.ProcessedCount++
			metrics.ImportRows.WithLabelValues("skipped").Inc()
			continue
		}

		row.Content = CleanLegacyContent(row.Content)
		row.Author = strings.TrimSpace(row.Author)

		if errors := validator.ValidateLegacyComment(row, lineNum); len(errors) > 0 {
			s.rejectRow(ctx, job, &validationErrors, lineNum, errors)
			continue
		}

		articleID, ok := articles.resolve(row.PostSlug)
		if !ok {
			s.rejectRow(ctx, job, &validationErrors, lineNum, []validation.ValidationError{
				{Field: "comment_post_name", Message: "article not found", Value: row.PostSlug},
			})
			continue
		}

		comment := convertLegacyComment(row, articleID)
		validator.AddLegacyID(row.LegacyID)
		imported[row.LegacyID] = importedRef{id: comment.ID, articleID: articleID}
		touched[articleID] = true

		if parent := legacyParent(row); parent != "" {
			if ref, ok := imported[parent]; ok {
				if ref.articleID == articleID {
					parentID := ref.id
					comment.ParentID = &parentID
				}
			} else {
				// held back until the whole file has been seen
				pending = append(pending, pendingReply{comment: comment, legacyParent: parent})
				continue
			}
		}

		batch = append(batch, comment)
		if len(batch) >= batchSize {
			s.flushComments(ctx, job, batch)
			batch = batch[:0]
		}
	}

	// Replies that appeared before their parent
	for _, p := range pending {
		if ref, ok := imported[p.legacyParent]; ok {
			if ref.articleID == p.comment.ArticleID {
				parentID := ref.id
				p.comment.ParentID = &parentID
			}
			continue
		}
		// Parent may come from an earlier import
		parentID := legacyCommentID(p.legacyParent)
		parent, err := s.repos.Comment.GetByID(ctx, parentID)
		if err == nil && parent != nil && parent.ArticleID == p.comment.ArticleID {
			p.comment.ParentID = &parentID
		}
	}

	for _, p := range pending {
		batch = append(batch, p.comment)
		if len(batch) >= batchSize {
			s.flushComments(ctx, job, batch)
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		s.flushComments(ctx, job, batch)
	}

	if len(validationErrors) > 0 {
		s.repos.Job.AddErrors(ctx, job.ID, validationErrors)
	}

	for articleID := range touched {
		s.cache.Invalidate(ctx, articleID)
	}

	return nil
}

// flushComments stores a batch of imported comments, skipping rows an earlier
// run already stored.
func (s *importService) flushComments(ctx context.Context, job *models.Job, batch []*models.Comment) {
	job.ProcessedCount += len(batch)

	existing, err := s.repos.Comment.ExistingIDs(ctx, commentIDs(batch))
	if err != nil {
		s.log.Error().Err(err).Int("batch_size", len(batch)).Msg("Duplicate check failed")
		job.FailedCount += len(batch)
		metrics.ImportRows.WithLabelValues("failed").Add(float64(len(batch)))
		return
	}

	fresh := make([]*models.Comment, 0, len(batch))
	for _, c := range batch {
		if existing[c.ID] {
			metrics.ImportRows.WithLabelValues("skipped").Inc()
			continue
		}
		fresh = append(fresh, c)
	}
	if len(fresh) == 0 {
		return
	}

	inserted, err := s.repos.Comment.BatchInsert(ctx, fresh)
	if err != nil {
		s.log.Error().Err(err).Int("batch_size", len(fresh)).Msg("Batch insert failed")
		job.FailedCount += len(fresh)
		metrics.ImportRows.WithLabelValues("failed").Add(float64(len(fresh)))
		return
	}

	job.SuccessfulCount += inserted
	for _, c := range fresh {
		if c.Spam {
			job.QuarantineCount++
			metrics.ImportRows.WithLabelValues("quarantined").Inc()
		} else {
			metrics.ImportRows.WithLabelValues("imported").Inc()
		}
	}

	s.log.Debug().
		Str("job_id", job.ID).
		Int("processed", job.ProcessedCount).
		Int("inserted", inserted).
		Msg("Batch processed")
}

// rejectRow records a failed row and its validation errors
func (s *importService) rejectRow(ctx context.Context, job *models.Job, acc *[]models.ValidationError, lineNum int, errors []validation.ValidationError) {
	job.FailedCount++
	job.ProcessedCount++
	metrics.ImportRows.WithLabelValues("failed").Inc()

	for _, e := range errors {
		*acc = append(*acc, models.ValidationError{
			Line:    lineNum,
			Field:   e.Field,
			Message: e.Message,
			Value:   e.Value,
		})
	}
	if len(*acc) >= errorFlushThreshold {
		s.flushValidationErrors(ctx, job.ID, acc)
	}
}

// flushValidationErrors writes accumulated errors to the database and resets
// the slice so memory stays bounded on large files.
const errorFlushThreshold = 1000

func (s *importService) flushValidationErrors(ctx context.Context, jobID string, errors *[]models.ValidationError) {
	if len(*errors) == 0 {
		return
	}
	if err := s.repos.Job.AddErrors(ctx, jobID, *errors); err != nil {
		s.log.Error().Err(err).Int("count", len(*errors)).Msg("Failed to flush validation errors")
	}
	*errors = (*errors)[:0]
}

// Helper functions

func getField(record []string, headerMap map[string]int, field string) string {
	if idx, ok := headerMap[field]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}

func convertNDJSONToArticle(ndjson *models.ArticleNDJSON) *models.Article {
	article := &models.Article{
		ID:       ndjson.ID,
		Slug:     ndjson.Slug,
		Title:    strings.TrimSpace(ndjson.Title),
		Category: ndjson.Category,
	}
	if ndjson.Published != nil {
		article.Published = *ndjson.Published
	}
	if ndjson.PublishedAt != "" {
		t, _ := time.Parse(time.RFC3339, ndjson.PublishedAt)
		article.PublishedAt = &t
		if ndjson.Published == nil {
			article.Published = true
		}
	}
	article.CreatedAt = time.Now()
	return article
}

func convertLegacyComment(row *models.LegacyCommentCSV, articleID string) *models.Comment {
	createdAt, _ := validation.ParseLegacyDate(row.Date)

	author := row.Author
	var verdict spam.Result
	if author == "" {
		author = models.AnonymousAuthor
		verdict = spam.DetectContent(row.Content)
	} else {
		verdict = spam.Detect(row.Content, author)
	}

	return &models.Comment{
		ID:        legacyCommentID(row.LegacyID),
		ArticleID: articleID,
		Author:    author,
		Content:   row.Content,
		Approved:  !verdict.IsSpam,
		Spam:      verdict.IsSpam,
		CreatedAt: createdAt,
	}
}

func legacyParent(row *models.LegacyCommentCSV) string {
	if row.ParentID == "" || row.ParentID == "0" {
		return ""
	}
	return row.ParentID
}
