package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/newsroom-comments-api/internal/database"
	"github.com/newsroom-comments-api/internal/models"
)

var commentCols = []string{"id", "article_id", "parent_id", "author", "content", "approved", "spam", "created_at", "updated_at"}

func newMockDB(t *testing.T) (*database.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &database.DB{DB: db}, mock
}

func TestCommentRepo_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCommentRepo(db)
	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM comments WHERE id = $1")).
		WithArgs("c-1").
		WillReturnRows(sqlmock.NewRows(commentCols).
			AddRow("c-1", "a-1", "p-1", "Jane", "Hello", true, false, now, now))

	comment, err := repo.GetByID(ctx, "c-1")
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if comment == nil || comment.ParentID == nil || *comment.ParentID != "p-1" {
		t.Fatalf("Unexpected comment %+v", comment)
	}

	mock.ExpectQuery(regexp.QuoteMeta("FROM comments WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	comment, err = repo.GetByID(ctx, "missing")
	if err != nil || comment != nil {
		t.Errorf("GetByID(missing) = %v, %v; want nil, nil", comment, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCommentRepo_ListVisibleRoots(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCommentRepo(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE article_id = $1 AND parent_id IS NULL AND approved AND NOT spam ORDER BY created_at DESC")).
		WithArgs("a-1").
		WillReturnRows(sqlmock.NewRows(commentCols).
			AddRow("c-2", "a-1", nil, "Tom", "Second", true, false, now, now).
			AddRow("c-1", "a-1", nil, "Jane", "First", true, false, now.Add(-time.Hour), now))

	roots, err := repo.ListVisibleRoots(context.Background(), "a-1")
	if err != nil {
		t.Fatalf("ListVisibleRoots() error: %v", err)
	}
	if len(roots) != 2 {
		t.Fatalf("Expected 2 roots, got %d", len(roots))
	}
	if roots[0].ID != "c-2" || roots[0].ParentID != nil {
		t.Errorf("Unexpected first root %+v", roots[0])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCommentRepo_ListVisibleReplies(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCommentRepo(db)
	now := time.Now()

	replies, err := repo.ListVisibleReplies(context.Background(), nil)
	if err != nil || replies != nil {
		t.Fatalf("Expected no query for empty parents, got %v, %v", replies, err)
	}

	mock.ExpectQuery(regexp.QuoteMeta("WHERE parent_id = ANY($1) AND approved AND NOT spam ORDER BY created_at ASC")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(commentCols).
			AddRow("r-1", "a-1", "c-1", "Ann", "Reply", true, false, now, now))

	replies, err = repo.ListVisibleReplies(context.Background(), []string{"c-1", "c-2"})
	if err != nil {
		t.Fatalf("ListVisibleReplies() error: %v", err)
	}
	if len(replies) != 1 || *replies[0].ParentID != "c-1" {
		t.Errorf("Unexpected replies %+v", replies)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCommentRepo_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCommentRepo(db)
	now := time.Now()

	comment := &models.Comment{
		ID:        "c-1",
		ArticleID: "a-1",
		Author:    "Jane",
		Content:   "Hello",
		Approved:  true,
		CreatedAt: now,
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO comments")).
		WithArgs("c-1", "a-1", nil, "Jane", "Hello", true, false, now, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), comment); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCommentRepo_BatchInsert(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCommentRepo(db)
	parent := "c-1"

	comments := []*models.Comment{
		{ID: "c-1", ArticleID: "a-1", Author: "Jane", Content: "Root", Approved: true},
		{ID: "c-2", ArticleID: "a-1", ParentID: &parent, Author: "Tom", Content: "Reply", Approved: true},
	}

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("COPY")
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	inserted, err := repo.BatchInsert(context.Background(), comments)
	if err != nil {
		t.Fatalf("BatchInsert() error: %v", err)
	}
	if inserted != 2 {
		t.Errorf("Expected 2 inserted, got %d", inserted)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCommentRepo_StreamAllFilters(t *testing.T) {
	tests := []struct {
		name   string
		filter CommentFilter
		query  string
		args   int
	}{
		{"no filter", CommentFilter{}, "SELECT " + commentColumns + " FROM comments ORDER BY created_at", 0},
		{"visible", CommentFilter{Status: models.CommentStatusVisible}, "FROM comments WHERE approved AND NOT spam ORDER BY", 0},
		{"quarantined for article", CommentFilter{ArticleID: "a-1", Status: models.CommentStatusQuarantined},
			"FROM comments WHERE article_id = $1 AND (NOT approved OR spam) ORDER BY", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewCommentRepo(db)
			now := time.Now()

			expect := mock.ExpectQuery(regexp.QuoteMeta(tt.query))
			if tt.args > 0 {
				expect = expect.WithArgs("a-1")
			}
			expect.WillReturnRows(sqlmock.NewRows(commentCols).
				AddRow("c-1", "a-1", nil, "Jane", "Hello", false, true, now, now))

			var seen int
			err := repo.StreamAll(context.Background(), tt.filter, func(*models.Comment) error {
				seen++
				return nil
			})
			if err != nil {
				t.Fatalf("StreamAll() error: %v", err)
			}
			if seen != 1 {
				t.Errorf("Expected 1 streamed comment, got %d", seen)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestCommentRepo_ExistingIDs(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCommentRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM comments WHERE id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("c-2"))

	existing, err := repo.ExistingIDs(context.Background(), []string{"c-1", "c-2"})
	if err != nil {
		t.Fatalf("ExistingIDs() error: %v", err)
	}
	if existing["c-1"] || !existing["c-2"] {
		t.Errorf("Unexpected existing set %v", existing)
	}
}

func TestArticleRepo_GetSlugIndex(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewArticleRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT slug, id FROM articles")).
		WillReturnRows(sqlmock.NewRows([]string{"slug", "id"}).
			AddRow("city-council-votes", "a-1").
			AddRow("harbour-bridge-repairs", "a-2"))

	index, err := repo.GetSlugIndex(context.Background())
	if err != nil {
		t.Fatalf("GetSlugIndex() error: %v", err)
	}
	if len(index) != 2 || index["harbour-bridge-repairs"] != "a-2" {
		t.Errorf("Unexpected index %v", index)
	}
}

func TestArticleRepo_Exists(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewArticleRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM articles WHERE id = $1)")).
		WithArgs("a-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.Exists(context.Background(), "a-1")
	if err != nil || !exists {
		t.Errorf("Exists() = %v, %v; want true, nil", exists, err)
	}
}

func TestJobRepo_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewJobRepo(db)
	now := time.Now()

	cols := []string{"id", "type", "resource", "status", "idempotency_key", "total_records", "processed_count",
		"successful_count", "failed_count", "quarantine_count", "duration_ms", "rows_per_sec", "file_path",
		"created_at", "started_at", "completed_at"}

	mock.ExpectQuery(regexp.QuoteMeta("FROM jobs WHERE id = $1")).
		WithArgs("job-1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("job-1", "import", "comments", "completed", nil, 10, 10, 7, 1, 2, 120, 83.3, "/tmp/x.csv", now, now, now))

	job, err := repo.GetByID(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if job.QuarantineCount != 2 || job.IdempotencyKey != "" || job.CompletedAt == nil {
		t.Errorf("Unexpected job %+v", job)
	}
}

func TestJobRepo_MarkJobAsProcessing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewJobRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE jobs SET status = 'processing'")).
		WithArgs(sqlmock.AnyArg(), "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE jobs SET status = 'processing'")).
		WithArgs(sqlmock.AnyArg(), "job-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	marked, err := repo.MarkJobAsProcessing(context.Background(), "job-1")
	if err != nil || !marked {
		t.Fatalf("first MarkJobAsProcessing() = %v, %v", marked, err)
	}
	marked, _ = repo.MarkJobAsProcessing(context.Background(), "job-1")
	if marked {
		t.Error("second claim must fail")
	}
}
