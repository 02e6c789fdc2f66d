// Package indexer turns decoded media sources into committed chunk sets.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/silodex/silodex/internal/db"
	"github.com/silodex/silodex/internal/domain"
	domchunk "github.com/silodex/silodex/internal/domain/chunk"
	dommedia "github.com/silodex/silodex/internal/domain/media"
	"github.com/silodex/silodex/internal/metrics"
)

// Service chunks, embeds, and commits media content. A per-media NX lock
// serializes concurrent ingestion of the same item.
type Service struct {
	chunks    ChunkStore
	locks     LockStore
	embedder  Embedder
	policy    Policy
	lockTTL   time.Duration
	keyPrefix string
	logger    *zap.Logger
	now       func() time.Time
}

// New creates an indexer service.
func New(
	chunks ChunkStore, locks LockStore, embedder Embedder,
	policy Policy, lockTTL time.Duration, keyPrefix string, logger *zap.Logger,
) *Service {
	return &Service{
		chunks:    chunks,
		locks:     locks,
		embedder:  embedder,
		policy:    policy,
		lockTTL:   lockTTL,
		keyPrefix: keyPrefix,
		logger:    logger,
		now:       time.Now,
	}
}

// Index builds and commits the full chunk set of one media item, replacing
// any previous set atomically. Returns the committed chunk count. An empty
// source commits an empty set and returns domain.ErrNoContent; the caller
// still marks the media done. A concurrent ingestion of the same media
// yields an ingest-busy error.
func (s *Service) Index(ctx context.Context, m dommedia.Media, src dommedia.Source) (int, error) {
	lockKey := s.lockKey(m.SiloID(), m.ID())

	acquired, err := s.locks.SetNX(ctx, lockKey, []byte("1"), s.lockTTL)
	if err != nil {
		return 0, fmt.Errorf("acquire ingest lock: %w", err)
	}
	if !acquired {
		return 0, domain.NewBusy(m.ID())
	}
	defer s.releaseLock(ctx, lockKey)

	chunks, err := BuildChunks(m.ID(), src, s.policy, s.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("chunk media %s: %w", m.ID(), err)
	}

	for i := range chunks {
		res, embErr := s.embedder.Embed(ctx, chunks[i].Text())
		if embErr != nil {
			return 0, fmt.Errorf("embed chunk %d of media %s: %w", i, m.ID(), embErr)
		}
		chunks[i].SetVector(res.Embedding)
	}

	if err := s.replaceWithRetry(ctx, m.SiloID(), m.ID(), chunks); err != nil {
		return 0, fmt.Errorf("commit chunk set of media %s: %w", m.ID(), err)
	}

	metrics.IngestChunksPerMedia.Observe(float64(len(chunks)))
	s.logger.Info("Chunk set committed",
		zap.String("silo_id", m.SiloID()),
		zap.String("media_id", m.ID()),
		zap.Int("chunks", len(chunks)),
	)

	if len(chunks) == 0 {
		return 0, domain.ErrNoContent
	}
	return len(chunks), nil
}

// replaceWithRetry retries the commit once on a storage-level failure.
// Validation failures propagate immediately.
func (s *Service) replaceWithRetry(ctx context.Context, siloID, mediaID string, chunks []domchunk.Chunk) error {
	err := s.chunks.Replace(ctx, siloID, mediaID, chunks)
	if err == nil || !isTransient(err) {
		return err
	}

	s.logger.Warn("Chunk set commit failed, retrying once",
		zap.String("silo_id", siloID),
		zap.String("media_id", mediaID),
		zap.Error(err),
	)
	return s.chunks.Replace(ctx, siloID, mediaID, chunks)
}

func (s *Service) lockKey(siloID, mediaID string) string {
	return s.keyPrefix + "ingest_lock:" + siloID + ":" + mediaID
}

// releaseLock uses a detached context so cancellation of the job still
// frees the lock.
func (s *Service) releaseLock(ctx context.Context, key string) {
	if err := s.locks.Del(context.WithoutCancel(ctx), key); err != nil {
		s.logger.Warn("Failed to release ingest lock", zap.String("key", key), zap.Error(err))
	}
}

func isTransient(err error) bool {
	var dbErr *db.Error
	if !errors.As(err, &dbErr) {
		return false
	}
	return !errors.Is(err, domain.ErrChunkSetInvalid)
}
