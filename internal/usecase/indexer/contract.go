package indexer

import (
	"context"
	"time"

	"github.com/silodex/silodex/internal/domain"
	domchunk "github.com/silodex/silodex/internal/domain/chunk"
)

// ChunkStore replaces a media's chunk set atomically.
type ChunkStore interface {
	Replace(ctx context.Context, siloID, mediaID string, chunks []domchunk.Chunk) error
}

// LockStore serializes per-media ingestion via NX locks.
type LockStore interface {
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Del(ctx context.Context, key string) error
}

// Embedder vectorizes chunk text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
