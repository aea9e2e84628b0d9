package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/newsroom-comments-api/internal/mocks"
	"github.com/newsroom-comments-api/internal/models"
	"github.com/newsroom-comments-api/internal/repository"
)

func TestMockCommentRepository_VisibleOrdering(t *testing.T) {
	repo := mocks.NewMockCommentRepository()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	root := "root-1"

	comments := []*models.Comment{
		{ID: "root-1", ArticleID: "a1", Approved: true, CreatedAt: base},
		{ID: "root-2", ArticleID: "a1", Approved: true, CreatedAt: base.Add(time.Hour)},
		{ID: "root-spam", ArticleID: "a1", Approved: false, Spam: true, CreatedAt: base.Add(2 * time.Hour)},
		{ID: "root-other", ArticleID: "a2", Approved: true, CreatedAt: base},
		{ID: "reply-late", ArticleID: "a1", ParentID: &root, Approved: true, CreatedAt: base.Add(3 * time.Hour)},
		{ID: "reply-early", ArticleID: "a1", ParentID: &root, Approved: true, CreatedAt: base.Add(time.Minute)},
	}
	if _, err := repo.BatchInsert(ctx, comments); err != nil {
		t.Fatalf("BatchInsert failed: %v", err)
	}

	roots, _ := repo.ListVisibleRoots(ctx, "a1")
	if len(roots) != 2 || roots[0].ID != "root-2" || roots[1].ID != "root-1" {
		t.Errorf("Expected visible roots newest first, got %v", ids(roots))
	}

	replies, _ := repo.ListVisibleReplies(ctx, []string{"root-1", "root-2"})
	if len(replies) != 2 || replies[0].ID != "reply-early" || replies[1].ID != "reply-late" {
		t.Errorf("Expected replies oldest first, got %v", ids(replies))
	}

	quarantined, _ := repo.CountQuarantined(ctx)
	if quarantined != 1 {
		t.Errorf("Expected 1 quarantined comment, got %d", quarantined)
	}
}

func TestMockCommentRepository_StreamFilter(t *testing.T) {
	repo := mocks.NewMockCommentRepository()
	ctx := context.Background()

	repo.Create(ctx, &models.Comment{ID: "c1", ArticleID: "a1", Approved: true})
	repo.Create(ctx, &models.Comment{ID: "c2", ArticleID: "a1", Spam: true})
	repo.Create(ctx, &models.Comment{ID: "c3", ArticleID: "a2", Approved: true})

	tests := []struct {
		name   string
		filter repository.CommentFilter
		want   int
	}{
		{"all", repository.CommentFilter{}, 3},
		{"visible", repository.CommentFilter{Status: models.CommentStatusVisible}, 2},
		{"quarantined", repository.CommentFilter{Status: models.CommentStatusQuarantined}, 1},
		{"article", repository.CommentFilter{ArticleID: "a1"}, 2},
		{"article visible", repository.CommentFilter{ArticleID: "a1", Status: models.CommentStatusVisible}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count := 0
			err := repo.StreamAll(ctx, tt.filter, func(*models.Comment) error {
				count++
				return nil
			})
			if err != nil {
				t.Fatalf("StreamAll failed: %v", err)
			}
			if count != tt.want {
				t.Errorf("Expected %d comments, got %d", tt.want, count)
			}
		})
	}
}

func TestMockCommentRepository_ExistingIDs(t *testing.T) {
	repo := mocks.NewMockCommentRepository()
	ctx := context.Background()
	repo.Create(ctx, &models.Comment{ID: "c1"})

	existing, err := repo.ExistingIDs(ctx, []string{"c1", "c2"})
	if err != nil {
		t.Fatalf("ExistingIDs failed: %v", err)
	}
	if !existing["c1"] || existing["c2"] {
		t.Errorf("Unexpected result %v", existing)
	}
}

func TestMockArticleRepository_SlugIndex(t *testing.T) {
	repo := mocks.NewMockArticleRepository()
	ctx := context.Background()

	repo.BatchInsert(ctx, []*models.Article{
		{ID: "a1", Slug: "city-council-votes"},
		{ID: "a2", Slug: "harbour-bridge-repairs"},
	})

	index, _ := repo.GetSlugIndex(ctx)
	if index["city-council-votes"] != "a1" || index["harbour-bridge-repairs"] != "a2" {
		t.Errorf("Unexpected index %v", index)
	}

	exists, _ := repo.Exists(ctx, "a1")
	if !exists {
		t.Error("a1 should exist")
	}
	exists, _ = repo.Exists(ctx, "a3")
	if exists {
		t.Error("a3 should not exist")
	}
}

func ids(comments []*models.Comment) []string {
	out := make([]string, len(comments))
	for i, c := range comments {
		out[i] = c.ID
	}
	return out
}

func TestMockJobRepository_PendingJobs(t *testing.T) {
	repo := mocks.NewMockJobRepository()
	ctx := context.Background()

	// Create jobs with different statuses
	jobs := []*models.Job{
		{ID: "job-1", Status: models.JobStatusPending, Resource: models.ResourceArticles},
		{ID: "job-2", Status: models.JobStatusProcessing, Resource: models.ResourceArticles},
		{ID: "job-3", Status: models.JobStatusPending, Resource: models.ResourceComments},
		{ID: "job-4", Status: models.JobStatusCompleted, Resource: models.ResourceArticles},
	}

	for _, job := range jobs {
		repo.Create(ctx, job)
	}

	// Get pending jobs
	pending, err := repo.GetPendingJobs(ctx)
	if err != nil {
		t.Fatalf("GetPendingJobs failed: %v", err)
	}

	if len(pending) != 2 {
		t.Errorf("Expected 2 pending jobs, got %d", len(pending))
	}
}

func TestMockJobRepository_MarkAsProcessing(t *testing.T) {
	repo := mocks.NewMockJobRepository()
	ctx := context.Background()

	job := &models.Job{ID: "job-1", Status: models.JobStatusPending, Resource: models.ResourceArticles}
	repo.Create(ctx, job)

	// Mark as processing
	marked, err := repo.MarkJobAsProcessing(ctx, "job-1")
	if err != nil {
		t.Fatalf("MarkJobAsProcessing failed: %v", err)
	}
	if !marked {
		t.Error("Job should be marked as processing")
	}

	// Try to mark again (should fail - already processing)
	marked, _ = repo.MarkJobAsProcessing(ctx, "job-1")
	if marked {
		t.Error("Job should not be marked again")
	}
}

func TestMockJobRepository_ValidationErrors(t *testing.T) {
	repo := mocks.NewMockJobRepository()
	ctx := context.Background()

	job := &models.Job{ID: "job-1", Status: models.JobStatusPending, Resource: models.ResourceArticles}
	repo.Create(ctx, job)

	// Add errors
	errors := []models.ValidationError{
		{Line: 2, Field: "comment_ID", Message: "comment_ID must be numeric", Value: "abc"},
		{Line: 3, Field: "comment_content", Message: "content is empty or too short"},
		{Line: 5, Field: "comment_post_name", Message: "article not found", Value: "old-story"},
	}
	repo.AddErrors(ctx, "job-1", errors)

	// Retrieve errors
	retrieved, err := repo.GetErrors(ctx, "job-1", 0)
	if err != nil {
		t.Fatalf("GetErrors failed: %v", err)
	}

	if len(retrieved) != 3 {
		t.Errorf("Expected 3 errors, got %d", len(retrieved))
	}

	// Test limit
	retrieved, _ = repo.GetErrors(ctx, "job-1", 2)
	if len(retrieved) != 2 {
		t.Errorf("Expected 2 errors with limit, got %d", len(retrieved))
	}
}

func TestMockJobRepository_IdempotencyKey(t *testing.T) {
	repo := mocks.NewMockJobRepository()
	ctx := context.Background()

	job := &models.Job{
		ID:             "job-1",
		Status:         models.JobStatusPending,
		Resource:       models.ResourceComments,
		IdempotencyKey: "unique-key-123",
	}
	repo.Create(ctx, job)

	// Retrieve by idempotency key
	retrieved, err := repo.GetByIdempotencyKey(ctx, "unique-key-123")
	if err != nil {
		t.Fatalf("GetByIdempotencyKey failed: %v", err)
	}
	if retrieved == nil {
		t.Fatal("Job should be found by idempotency key")
	}
	if retrieved.ID != "job-1" {
		t.Errorf("Expected job-1, got %s", retrieved.ID)
	}

	// Non-existent key
	retrieved, _ = repo.GetByIdempotencyKey(ctx, "non-existent")
	if retrieved != nil {
		t.Error("Should not find job with non-existent key")
	}
}

func TestMockCommentRepository_BatchInsertRejectsRepeatedKey(t *testing.T) {
	repo := mocks.NewMockCommentRepository()
	ctx := context.Background()

	batch := []*models.Comment{
		{ID: "c-1", ArticleID: "a1", Approved: true},
		{ID: "c-2", ArticleID: "a1", Approved: true},
		{ID: "c-1", ArticleID: "a1", Approved: true},
	}
	if _, err := repo.BatchInsert(ctx, batch); err == nil {
		t.Fatal("Expected a repeated id to fail the batch")
	}
	if len(repo.Comments) != 0 {
		t.Errorf("A failed batch must store nothing, got %d", len(repo.Comments))
	}
}
