package models

import (
	"time"
)

// Article is the content item comments attach to. The moderation core only
// needs to know that an article exists; slugs are used to attach legacy
// comments during import.
type Article struct {
	ID          string     `json:"id" db:"id"`
	Slug        string     `json:"slug" db:"slug"`
	Title       string     `json:"title" db:"title"`
	Category    string     `json:"category" db:"category"`
	Published   bool       `json:"published" db:"published"`
	PublishedAt *time.Time `json:"published_at,omitempty" db:"published_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// ArticleNDJSON represents an article record from NDJSON import
type ArticleNDJSON struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	Published   *bool  `json:"published,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}
