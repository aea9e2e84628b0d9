package models

import (
	"time"
)

// JobStatus represents the status of an import job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// JobType represents the type of job
type JobType string

const (
	JobTypeImport JobType = "import"
)

// Job represents a bulk import job
type Job struct {
	ID              string     `json:"job_id" db:"id"`
	Type            JobType    `json:"type" db:"type"`
	Resource        string     `json:"resource" db:"resource"`
	Status          JobStatus  `json:"status" db:"status"`
	IdempotencyKey  string     `json:"idempotency_key,omitempty" db:"idempotency_key"`
	TotalRecords    int        `json:"total_records" db:"total_records"`
	ProcessedCount  int        `json:"processed" db:"processed_count"`
	SuccessfulCount int        `json:"successful" db:"successful_count"`
	FailedCount     int        `json:"failed" db:"failed_count"`
	QuarantineCount int        `json:"quarantined" db:"quarantine_count"`
	DurationMs      int64      `json:"duration_ms,omitempty" db:"duration_ms"`
	RowsPerSec      float64    `json:"rows_per_sec,omitempty" db:"rows_per_sec"`
	FilePath        string     `json:"-" db:"file_path"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	StartedAt       *time.Time `json:"started_at,omitempty" db:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Line    int         `json:"line"`
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// JobResponse is the API response for job status
type JobResponse struct {
	Job
	Errors     []ValidationError `json:"errors,omitempty"`
	ErrorCount int               `json:"error_count,omitempty"`
}

// Importable resources
const (
	ResourceArticles = "articles"
	ResourceComments = "comments"
)

// ImportRequest represents an import job request
type ImportRequest struct {
	Resource       string `json:"resource" form:"resource"` // articles, comments
	IdempotencyKey string `json:"-"`                        // From header
}

// ExportRequest represents a streaming export request
type ExportRequest struct {
	Resource  string        `json:"resource" form:"resource"` // articles, comments
	Format    string        `json:"format" form:"format"`     // json, ndjson, csv
	ArticleID string        `json:"article_id,omitempty" form:"article_id"`
	Status    CommentStatus `json:"status,omitempty" form:"status"`
}
