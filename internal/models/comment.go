package models

import (
	"time"
)

// Comment limits, measured in characters after trimming
const (
	MaxAuthorLength  = 100
	MaxContentLength = 10000
)

// AnonymousAuthor is stored for imported comments that carry no author name
const AnonymousAuthor = "Anonymous"

// MaxTreeDepth is the number of comment levels materialized for display:
// root, reply and reply-of-reply.
const MaxTreeDepth = 3

// Comment represents a reader comment on an article
type Comment struct {
	ID        string    `json:"id" db:"id"`
	ArticleID string    `json:"article_id" db:"article_id"`
	ParentID  *string   `json:"parent_id,omitempty" db:"parent_id"`
	Author    string    `json:"author" db:"author"`
	Content   string    `json:"content" db:"content"`
	Approved  bool      `json:"approved" db:"approved"`
	Spam      bool      `json:"spam" db:"spam"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Visible reports whether the comment may be shown to the public
func (c *Comment) Visible() bool {
	return c.Approved && !c.Spam
}

// CommentNode is a visible comment with its visible replies
type CommentNode struct {
	ID        string        `json:"id"`
	Author    string        `json:"author"`
	Content   string        `json:"content"`
	CreatedAt time.Time     `json:"created_at"`
	Approved  bool          `json:"approved"`
	Replies   []CommentNode `json:"replies"`
}

// NewCommentNode builds a childless node from a stored comment
func NewCommentNode(c *Comment) CommentNode {
	return CommentNode{
		ID:        c.ID,
		Author:    c.Author,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		Approved:  c.Approved,
		Replies:   []CommentNode{},
	}
}

// SubmitCommentRequest is the payload of a new comment submission
type SubmitCommentRequest struct {
	ArticleID string `json:"article_id"`
	ParentID  string `json:"parent_id,omitempty"`
	Author    string `json:"author"`
	Content   string `json:"content"`
}

// Submission outcomes
const (
	OutcomeApproved          = "approved"
	OutcomePendingModeration = "pending_moderation"
)

// SubmitCommentResult describes what happened to an accepted submission.
// Both outcomes are successes for the caller.
type SubmitCommentResult struct {
	Outcome   string `json:"status"`
	CommentID string `json:"id"`
	Approved  bool   `json:"approved"`
	Spam      bool   `json:"spam"`
}

// CommentStatus filters comments by moderation state
type CommentStatus string

const (
	CommentStatusVisible     CommentStatus = "visible"
	CommentStatusQuarantined CommentStatus = "quarantined"
	CommentStatusAll         CommentStatus = "all"
)

// LegacyCommentCSV represents a row of the legacy comment export
type LegacyCommentCSV struct {
	LegacyID    string `csv:"comment_ID"`
	PostSlug    string `csv:"comment_post_name"`
	PostTitle   string `csv:"comment_post_title"`
	Author      string `csv:"comment_author"`
	AuthorEmail string `csv:"comment_author_email"`
	Content     string `csv:"comment_content"`
	Date        string `csv:"comment_date"`
	ParentID    string `csv:"comment_parent"`
	Approved    string `csv:"comment_approved"`
}
