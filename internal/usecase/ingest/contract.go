package ingest

import (
	"context"

	dommedia "github.com/silodex/silodex/internal/domain/media"
	domsilo "github.com/silodex/silodex/internal/domain/silo"
)

// MediaRepository defines the storage contract for media records.
type MediaRepository interface {
	Create(ctx context.Context, m dommedia.Media) error
	Get(ctx context.Context, siloID, id string) (dommedia.Media, error)
}

// SiloReader checks silo existence before accepting work.
type SiloReader interface {
	Get(ctx context.Context, id string) (domsilo.Silo, error)
}

// Decoder turns a media record into ordered source segments. Implementations
// fetch and parse the underlying upload, URL, or live capture.
type Decoder interface {
	Decode(ctx context.Context, m dommedia.Media) (dommedia.Source, error)
}

// Indexer commits the chunk set of one decoded media item.
type Indexer interface {
	Index(ctx context.Context, m dommedia.Media, src dommedia.Source) (int, error)
}

// StatusTracker drives the media processing state machine.
type StatusTracker interface {
	BeginProcessing(ctx context.Context, siloID, mediaID string) (dommedia.Media, error)
	Complete(ctx context.Context, siloID, mediaID string) (dommedia.Media, error)
	Fail(ctx context.Context, siloID, mediaID, message string) (dommedia.Media, error)
}

// Submitter queues background ingestion jobs.
type Submitter interface {
	Submit(task func()) error
}
