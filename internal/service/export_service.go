package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/newsroom-comments-api/internal/models"
	"github.com/newsroom-comments-api/internal/repository"
	"github.com/rs/zerolog"
)

// Export formats
const (
	FormatNDJSON = "ndjson"
	FormatJSON   = "json"
	FormatCSV    = "csv"
)

const flushEvery = 100

var commentCSVHeader = []string{"id", "article_id", "parent_id", "author", "content", "approved", "spam", "created_at"}

// exportService is the concrete implementation of ExportService
type exportService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

// newExportService creates a new ExportService
func newExportService(repos *repository.Repositories, log zerolog.Logger) *exportService {
	return &exportService{
		repos: repos,
		log:   log.With().Str("service", "export").Logger(),
	}
}

// StreamArticles streams articles as NDJSON or a JSON array
func (s *exportService) StreamArticles(ctx context.Context, w http.ResponseWriter, format string) error {
	s.log.Info().Str("format", format).Msg("Starting articles export")

	enc, err := newRecordEncoder(w, "articles", format, nil)
	if err != nil {
		return err
	}

	err = s.repos.Article.StreamAll(ctx, func(article *models.Article) error {
		return enc.encode(article, nil)
	})
	enc.close()

	s.log.Info().Int("count", enc.count).Msg("Articles export completed")
	return err
}

// StreamComments streams comments matching the filter. CSV is supported so
// an external moderation tool can load the quarantine into a spreadsheet.
func (s *exportService) StreamComments(ctx context.Context, w http.ResponseWriter, format string, filter repository.CommentFilter) error {
	s.log.Info().
		Str("format", format).
		Str("status", string(filter.Status)).
		Str("article_id", filter.ArticleID).
		Msg("Starting comments export")

	enc, err := newRecordEncoder(w, "comments", format, commentCSVHeader)
	if err != nil {
		return err
	}

	err = s.repos.Comment.StreamAll(ctx, filter, func(comment *models.Comment) error {
		return enc.encode(comment, commentCSVRow(comment))
	})
	enc.close()

	s.log.Info().Int("count", enc.count).Msg("Comments export completed")
	return err
}

// GetStats returns store-wide counters
func (s *exportService) GetStats(ctx context.Context) (*models.Stats, error) {
	articles, err := s.repos.Article.Count(ctx)
	if err != nil {
		return nil, err
	}
	comments, err := s.repos.Comment.Count(ctx)
	if err != nil {
		return nil, err
	}
	quarantined, err := s.repos.Comment.CountQuarantined(ctx)
	if err != nil {
		return nil, err
	}

	return &models.Stats{
		Articles:            articles,
		Comments:            comments,
		VisibleComments:     comments - quarantined,
		QuarantinedComments: quarantined,
	}, nil
}

// recordEncoder writes one export stream in a single format
type recordEncoder struct {
	w       http.ResponseWriter
	format  string
	flusher http.Flusher
	csv     *csv.Writer
	count   int
}

func newRecordEncoder(w http.ResponseWriter, resource, format string, csvHeader []string) (*recordEncoder, error) {
	enc := &recordEncoder{w: w, format: format}
	enc.flusher, _ = w.(http.Flusher)

	switch format {
	case FormatNDJSON:
		w.Header().Set("Content-Type", "application/x-ndjson")
	case FormatJSON:
		w.Header().Set("Content-Type", "application/json")
	case FormatCSV:
		if csvHeader == nil {
			return nil, fmt.Errorf("unsupported format for %s: %s", resource, format)
		}
		w.Header().Set("Content-Type", "text/csv")
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	w.Header().Set("Content-Disposition", "attachment; filename="+resource+"."+format)

	switch format {
	case FormatJSON:
		w.Write([]byte("["))
	case FormatCSV:
		enc.csv = csv.NewWriter(w)
		if err := enc.csv.Write(csvHeader); err != nil {
			return nil, err
		}
	}
	return enc, nil
}

func (e *recordEncoder) encode(record interface{}, csvRow []string) error {
	switch e.format {
	case FormatCSV:
		if err := e.csv.Write(csvRow); err != nil {
			return err
		}
	default:
		data, err := json.Marshal(record)
		if err != nil {
			return err
		}
		if e.format == FormatJSON && e.count > 0 {
			e.w.Write([]byte(","))
		}
		e.w.Write(data)
		if e.format == FormatNDJSON {
			e.w.Write([]byte("\n"))
		}
	}
	e.count++

	if e.count%flushEvery == 0 {
		if e.csv != nil {
			e.csv.Flush()
		}
		if e.flusher != nil {
			e.flusher.Flush()
		}
	}
	return nil
}

func (e *recordEncoder) close() {
	switch e.format {
	case FormatJSON:
		e.w.Write([]byte("]"))
	case FormatCSV:
		e.csv.Flush()
	}
}

func commentCSVRow(c *models.Comment) []string {
	parentID := ""
	if c.ParentID != nil {
		parentID = *c.ParentID
	}
	return []string{
		c.ID,
		c.ArticleID,
		parentID,
		c.Author,
		c.Content,
		strconv.FormatBool(c.Approved),
		strconv.FormatBool(c.Spam),
		c.CreatedAt.UTC().Format(time.RFC3339),
	}
}
