package media

import (
	"context"

	domchunk "github.com/silodex/silodex/internal/domain/chunk"
	dommedia "github.com/silodex/silodex/internal/domain/media"
	domsilo "github.com/silodex/silodex/internal/domain/silo"
)

// Repository defines the storage contract for media records.
type Repository interface {
	Get(ctx context.Context, siloID, id string) (dommedia.Media, error)
	List(ctx context.Context, siloID string) ([]dommedia.Media, error)
	Delete(ctx context.Context, siloID, id string) error
}

// SiloReader checks silo existence.
type SiloReader interface {
	Get(ctx context.Context, id string) (domsilo.Silo, error)
}

// ChunkStore reads and removes the chunk sets of media items. Reads take the
// silo so metadata hydration follows the declared schema.
type ChunkStore interface {
	Get(ctx context.Context, s domsilo.Silo, mediaID string) ([]domchunk.Chunk, error)
	Delete(ctx context.Context, siloID, mediaID string) error
	Count(ctx context.Context, siloID string) (int, error)
}
