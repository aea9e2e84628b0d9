package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/newsroom-comments-api/internal/database"
	"github.com/newsroom-comments-api/internal/models"
)

const commentColumns = `id, article_id, parent_id, author, content, approved, spam, created_at, updated_at`

// commentRepo is the concrete implementation of CommentRepository
type commentRepo struct {
	db *database.DB
}

// NewCommentRepo creates a new comment repository
func NewCommentRepo(db *database.DB) CommentRepository {
	return &commentRepo{db: db}
}

// Create inserts a new comment
func (r *commentRepo) Create(ctx context.Context, comment *models.Comment) error {
	query := `
		INSERT INTO comments (id, article_id, parent_id, author, content, approved, spam, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		comment.ID, comment.ArticleID, nullStringPtr(comment.ParentID), comment.Author, comment.Content,
		comment.Approved, comment.Spam, comment.CreatedAt, time.Now(),
	)
	return err
}

// BatchInsert inserts multiple comments using PostgreSQL COPY
func (r *commentRepo) BatchInsert(ctx context.Context, comments []*models.Comment) (int, error) {
	if len(comments) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("comments",
		"id", "article_id", "parent_id", "author", "content", "approved", "spam", "created_at", "updated_at",
	))
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	now := time.Now()
	inserted := 0

	for _, comment := range comments {
		_, err := stmt.ExecContext(ctx,
			comment.ID, comment.ArticleID, nullStringPtr(comment.ParentID), comment.Author, comment.Content,
			comment.Approved, comment.Spam, comment.CreatedAt, now,
		)
		if err != nil {
			continue
		}
		inserted++
	}

	if _, err := stmt.ExecContext(ctx); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return inserted, nil
}

// GetByID retrieves a comment by ID regardless of its moderation state
func (r *commentRepo) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`

	comment, err := scanComment(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// ExistingIDs reports which of the given IDs are already stored
func (r *commentRepo) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	existing := make(map[string]bool)
	if len(ids) == 0 {
		return existing, nil
	}

	rows, err := r.db.QueryContext(ctx, "SELECT id FROM comments WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		existing[id] = true
	}
	return existing, rows.Err()
}

// ListVisibleRoots returns the visible top-level comments of an article
func (r *commentRepo) ListVisibleRoots(ctx context.Context, articleID string) ([]*models.Comment, error) {
	query := `
		SELECT ` + commentColumns + ` FROM comments
		WHERE article_id = $1 AND parent_id IS NULL AND approved AND NOT spam
		ORDER BY created_at DESC
	`
	return r.queryComments(ctx, query, articleID)
}

// ListVisibleReplies returns the visible direct replies of any of the parents
func (r *commentRepo) ListVisibleReplies(ctx context.Context, parentIDs []string) ([]*models.Comment, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + commentColumns + ` FROM comments
		WHERE parent_id = ANY($1) AND approved AND NOT spam
		ORDER BY created_at ASC
	`
	return r.queryComments(ctx, query, pq.Array(parentIDs))
}

// Count returns the total number of comments
func (r *commentRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM comments").Scan(&count)
	return count, err
}

// CountQuarantined returns the number of comments hidden from the public
func (r *commentRepo) CountQuarantined(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM comments WHERE NOT approved OR spam").Scan(&count)
	return count, err
}

// StreamAll streams comments for export
func (r *commentRepo) StreamAll(ctx context.Context, filter CommentFilter, callback func(*models.Comment) error) error {
	var conditions []string
	var args []interface{}

	if filter.ArticleID != "" {
		args = append(args, filter.ArticleID)
		conditions = append(conditions, fmt.Sprintf("article_id = $%d", len(args)))
	}

	switch filter.Status {
	case models.CommentStatusVisible:
		conditions = append(conditions, "approved AND NOT spam")
	case models.CommentStatusQuarantined:
		conditions = append(conditions, "(NOT approved OR spam)")
	}

	query := `SELECT ` + commentColumns + ` FROM comments`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return err
		}
		if err := callback(comment); err != nil {
			return err
		}
	}

	return rows.Err()
}

func (r *commentRepo) queryComments(ctx context.Context, query string, args ...interface{}) ([]*models.Comment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	return comments, rows.Err()
}

func scanComment(row rowScanner) (*models.Comment, error) {
	var comment models.Comment
	var parentID sql.NullString

	err := row.Scan(
		&comment.ID, &comment.ArticleID, &parentID, &comment.Author, &comment.Content,
		&comment.Approved, &comment.Spam, &comment.CreatedAt, &comment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if parentID.Valid {
		comment.ParentID = &parentID.String
	}
	return &comment, nil
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return nullString(*s)
}
