package search

import (
	"context"

	"github.com/silodex/silodex/internal/domain"
	"github.com/silodex/silodex/internal/domain/search/filter"
	"github.com/silodex/silodex/internal/domain/search/result"
	domsilo "github.com/silodex/silodex/internal/domain/silo"
)

// Repository defines the storage contract for search operations. SearchKNN
// takes the silo so hit metadata hydration follows the declared schema.
type Repository interface {
	SearchKNN(
		ctx context.Context, s domsilo.Silo,
		vector []float32, filters filter.Expression, topK int,
	) ([]result.Hit, error)

	Count(ctx context.Context, siloID string, filters filter.Expression) (int, error)
}

// SiloReader reads silos for existence and metadata schema checks.
type SiloReader interface {
	Get(ctx context.Context, id string) (domsilo.Silo, error)
}

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
