// Package ingest accepts media submissions and drives them through decoding,
// chunking, and indexing on the worker pool.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/silodex/silodex/internal/domain"
	dommedia "github.com/silodex/silodex/internal/domain/media"
	"github.com/silodex/silodex/internal/metrics"
)

// UploadItem is one entry of a batch upload request.
type UploadItem struct {
	Name       string
	SourceType dommedia.SourceType
	SourceURL  string
	Language   string
	Duration   float64
	FolderID   string
}

// FailedFile reports one rejected batch entry.
type FailedFile struct {
	Name   string
	Reason string
}

// UploadResult carries accepted media and per-item failures of one batch.
type UploadResult struct {
	Created []dommedia.Media
	Failed  []FailedFile
}

// Service orchestrates media submission and background ingestion.
type Service struct {
	media        MediaRepository
	silos        SiloReader
	decoder      Decoder
	indexer      Indexer
	status       StatusTracker
	pool         Submitter
	maxBatchSize int
	jobTimeout   time.Duration
	logger       *zap.Logger
}

// New creates an ingest service.
func New(
	media MediaRepository, silos SiloReader, decoder Decoder, indexer Indexer,
	status StatusTracker, pool Submitter, maxBatchSize int, jobTimeout time.Duration,
	logger *zap.Logger,
) *Service {
	return &Service{
		media:        media,
		silos:        silos,
		decoder:      decoder,
		indexer:      indexer,
		status:       status,
		pool:         pool,
		maxBatchSize: maxBatchSize,
		jobTimeout:   jobTimeout,
		logger:       logger,
	}
}

// Upload accepts a batch of media submissions. Each item is validated and
// queued independently; a bad or unqueueable item lands in Failed without
// affecting its siblings.
func (s *Service) Upload(ctx context.Context, siloID string, items []UploadItem) (UploadResult, error) {
	if _, err := s.silos.Get(ctx, siloID); err != nil {
		return UploadResult{}, fmt.Errorf("get silo: %w", err)
	}
	if len(items) == 0 {
		return UploadResult{}, fmt.Errorf("empty batch: %w", domain.ErrInvalidInput)
	}
	if len(items) > s.maxBatchSize {
		return UploadResult{}, fmt.Errorf(
			"batch of %d exceeds limit %d: %w", len(items), s.maxBatchSize, domain.ErrInvalidInput)
	}

	var res UploadResult
	for _, item := range items {
		m, err := s.accept(ctx, siloID, item)
		if err != nil {
			res.Failed = append(res.Failed, FailedFile{Name: item.Name, Reason: err.Error()})
			continue
		}
		res.Created = append(res.Created, m)
	}
	return res, nil
}

// accept validates, persists, and queues one submission.
func (s *Service) accept(ctx context.Context, siloID string, item UploadItem) (dommedia.Media, error) {
	m, err := dommedia.New(
		uuid.NewString(), siloID, item.Name, item.SourceType,
		item.SourceURL, item.Language, item.Duration, item.FolderID,
	)
	if err != nil {
		return dommedia.Media{}, err
	}

	if err := s.media.Create(ctx, m); err != nil {
		return dommedia.Media{}, fmt.Errorf("persist media: %w", err)
	}

	if err := s.enqueue(m); err != nil {
		return dommedia.Media{}, err
	}
	return m, nil
}

// Reindex queues re-ingestion of an existing media item. Re-entrant: the
// item may already be done or failed.
func (s *Service) Reindex(ctx context.Context, siloID, mediaID string) error {
	m, err := s.media.Get(ctx, siloID, mediaID)
	if err != nil {
		return fmt.Errorf("get media: %w", err)
	}
	return s.enqueue(m)
}

func (s *Service) enqueue(m dommedia.Media) error {
	if err := s.pool.Submit(func() { s.process(m) }); err != nil {
		return fmt.Errorf("queue ingestion: %w", err)
	}
	return nil
}

// process is the job body run on the worker pool. It owns the full lifecycle
// of one ingestion attempt, including the final status transition.
func (s *Service) process(m dommedia.Media) {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	start := time.Now()

	if _, err := s.status.BeginProcessing(ctx, m.SiloID(), m.ID()); err != nil {
		s.logger.Error("Failed to begin processing",
			zap.String("media_id", m.ID()), zap.Error(err))
		return
	}

	err := s.ingest(ctx, m)

	switch {
	case err == nil, errors.Is(err, domain.ErrNoContent):
		// Empty source is a valid outcome; the media is done with zero chunks.
		if _, stErr := s.status.Complete(ctx, m.SiloID(), m.ID()); stErr != nil {
			s.logger.Error("Failed to mark media done",
				zap.String("media_id", m.ID()), zap.Error(stErr))
			return
		}
		metrics.IngestJobsTotal.WithLabelValues("done").Inc()
		metrics.IngestDuration.Observe(time.Since(start).Seconds())

	case errors.Is(err, domain.ErrIngestBusy):
		// Another ingestion of this media is in flight; it owns the status.
		s.logger.Warn("Ingestion already in flight",
			zap.String("media_id", m.ID()))
		metrics.IngestJobsTotal.WithLabelValues("busy").Inc()

	default:
		if _, stErr := s.status.Fail(ctx, m.SiloID(), m.ID(), err.Error()); stErr != nil {
			s.logger.Error("Failed to mark media failed",
				zap.String("media_id", m.ID()), zap.Error(stErr))
		}
		metrics.IngestJobsTotal.WithLabelValues("failed").Inc()
		s.logger.Error("Ingestion failed",
			zap.String("silo_id", m.SiloID()),
			zap.String("media_id", m.ID()),
			zap.Error(err))
	}
}

func (s *Service) ingest(ctx context.Context, m dommedia.Media) error {
	src, err := s.decoder.Decode(ctx, m)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrDecodeFailed, err)
	}

	// Source metadata becomes chunk hash fields. Keys must match the silo's
	// declared schema and must not shadow engine-owned fields.
	silo, err := s.silos.Get(ctx, m.SiloID())
	if err != nil {
		return fmt.Errorf("get silo: %w", err)
	}
	if err := silo.ValidateMetadata(src.Tags, src.Numerics); err != nil {
		return fmt.Errorf("validate source metadata: %w", err)
	}

	if _, err := s.indexer.Index(ctx, m, src); err != nil {
		return err
	}
	return nil
}
