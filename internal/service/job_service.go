package service

import (
	"context"
	"sync"
	"time"

	"github.com/newsroom-comments-api/internal/config"
	"github.com/newsroom-comments-api/internal/models"
	"github.com/newsroom-comments-api/internal/repository"
	"github.com/rs/zerolog"
)

// jobErrorPreview caps the errors embedded in a job status response
const jobErrorPreview = 100

// jobService is the concrete implementation of JobService
type jobService struct {
	jobRepo       repository.JobRepository
	importService ImportService
	pollInterval  time.Duration
	log           zerolog.Logger
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	running       bool
	mu            sync.Mutex
	// bounds concurrently running imports
	sem chan struct{}
}

// newJobService creates a new JobService with a bounded worker pool
func newJobService(jobRepo repository.JobRepository, cfg *config.ImportConfig, log zerolog.Logger) *jobService {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}

	log.Info().Int("max_workers", workers).Dur("poll_interval", pollInterval).Msg("Initializing import worker pool")

	return &jobService{
		jobRepo:      jobRepo,
		pollInterval: pollInterval,
		log:          log.With().Str("service", "job").Logger(),
		sem:          make(chan struct{}, workers),
	}
}

// SetImportService sets the import service for job processing
func (s *jobService) SetImportService(importService ImportService) {
	s.importService = importService
}

// StartProcessor polls for pending jobs until ctx is cancelled or
// StopProcessor is called. It blocks.
func (s *jobService) StartProcessor(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.log.Info().Msg("Job processor started")

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			s.log.Info().Msg("Job processor stopping")
			return
		case <-ticker.C:
			s.processPendingJobs()
		}
	}
}

// StopProcessor stops the background job processor and waits for running jobs
func (s *jobService) StopProcessor() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.cancel()
	s.wg.Wait()
	s.running = false
	s.log.Info().Msg("Job processor stopped")
}

// processPendingJobs claims and runs pending jobs
func (s *jobService) processPendingJobs() {
	jobs, err := s.jobRepo.GetPendingJobs(s.ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to get pending jobs")
		return
	}

	for _, job := range jobs {
		// blocks while every worker is busy
		select {
		case s.sem <- struct{}{}:
		case <-s.ctx.Done():
			return
		}

		marked, err := s.jobRepo.MarkJobAsProcessing(s.ctx, job.ID)
		if err != nil || !marked {
			<-s.sem
			continue // claimed elsewhere
		}

		s.wg.Add(1)
		go func(j *models.Job) {
			defer s.wg.Done()
			defer func() { <-s.sem }()

			defer func() {
				if r := recover(); r != nil {
					s.log.Error().
						Interface("panic", r).
						Str("job_id", j.ID).
						Msg("Job processing panicked - recovered")
					j.Status = models.JobStatusFailed
					s.jobRepo.Update(s.ctx, j)
				}
			}()
			s.processJob(j)
		}(job)
	}
}

// processJob runs a single claimed job
func (s *jobService) processJob(job *models.Job) {
	select {
	case <-s.ctx.Done():
		s.log.Warn().Str("job_id", job.ID).Msg("Job processing cancelled due to shutdown")
		return
	default:
	}

	s.log.Info().Str("job_id", job.ID).Str("resource", job.Resource).Msg("Processing job")

	if job.Type != models.JobTypeImport || s.importService == nil {
		s.log.Warn().Str("job_id", job.ID).Str("type", string(job.Type)).Msg("No processor for job")
		return
	}
	if err := s.importService.ProcessImport(s.ctx, job); err != nil {
		s.log.Error().Err(err).Str("job_id", job.ID).Msg("Import processing failed")
	}
}

// GetJob retrieves a job with a preview of its errors
func (s *jobService) GetJob(ctx context.Context, id string) (*models.JobResponse, error) {
	job, err := s.jobRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, nil
	}

	errors, err := s.jobRepo.GetErrors(ctx, id, jobErrorPreview)
	if err != nil {
		s.log.Error().Err(err).Str("job_id", id).Msg("Failed to get job errors")
	}

	return &models.JobResponse{
		Job:        *job,
		Errors:     errors,
		ErrorCount: job.FailedCount,
	}, nil
}

// GetJobByIdempotencyKey retrieves a job by idempotency key
func (s *jobService) GetJobByIdempotencyKey(ctx context.Context, key string) (*models.Job, error) {
	return s.jobRepo.GetByIdempotencyKey(ctx, key)
}

// GetJobErrors retrieves all validation errors for a job
func (s *jobService) GetJobErrors(ctx context.Context, id string) ([]models.ValidationError, error) {
	return s.jobRepo.GetErrors(ctx, id, 0)
}
