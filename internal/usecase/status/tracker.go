// Package status owns the media processing state machine. All status
// mutations go through the Tracker; nothing else writes media status.
package status

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	dommedia "github.com/silodex/silodex/internal/domain/media"
)

// Tracker applies status transitions and persists the updated record.
type Tracker struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

// New creates a status tracker.
func New(repo Repository, logger *zap.Logger) *Tracker {
	return &Tracker{repo: repo, logger: logger, now: time.Now}
}

// BeginProcessing moves a media item into processing. Re-entrant from done
// and failed (re-ingestion); the previous error message is cleared.
func (t *Tracker) BeginProcessing(ctx context.Context, siloID, mediaID string) (dommedia.Media, error) {
	return t.transition(ctx, siloID, mediaID, func(m dommedia.Media) (dommedia.Media, error) {
		return m.BeginProcessing()
	})
}

// Complete moves a processing media item to done and stamps processedAt.
func (t *Tracker) Complete(ctx context.Context, siloID, mediaID string) (dommedia.Media, error) {
	return t.transition(ctx, siloID, mediaID, func(m dommedia.Media) (dommedia.Media, error) {
		return m.Complete(t.now())
	})
}

// Fail moves a processing media item to failed with the given message.
func (t *Tracker) Fail(ctx context.Context, siloID, mediaID, message string) (dommedia.Media, error) {
	return t.transition(ctx, siloID, mediaID, func(m dommedia.Media) (dommedia.Media, error) {
		return m.Fail(message, t.now())
	})
}

// Status reads the current processing status without mutation.
func (t *Tracker) Status(ctx context.Context, siloID, mediaID string) (dommedia.Media, error) {
	m, err := t.repo.Get(ctx, siloID, mediaID)
	if err != nil {
		return dommedia.Media{}, fmt.Errorf("get media: %w", err)
	}
	return m, nil
}

func (t *Tracker) transition(
	ctx context.Context, siloID, mediaID string,
	apply func(dommedia.Media) (dommedia.Media, error),
) (dommedia.Media, error) {
	m, err := t.repo.Get(ctx, siloID, mediaID)
	if err != nil {
		return dommedia.Media{}, fmt.Errorf("get media: %w", err)
	}

	updated, err := apply(m)
	if err != nil {
		return dommedia.Media{}, fmt.Errorf("transition media %s: %w", mediaID, err)
	}

	if err := t.repo.Update(ctx, updated); err != nil {
		return dommedia.Media{}, fmt.Errorf("persist media status: %w", err)
	}

	t.logger.Info("Media status changed",
		zap.String("silo_id", siloID),
		zap.String("media_id", mediaID),
		zap.String("from", string(m.Status())),
		zap.String("to", string(updated.Status())),
	)
	return updated, nil
}
