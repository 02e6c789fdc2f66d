package silo

import (
	"context"

	dommedia "github.com/silodex/silodex/internal/domain/media"
	domsilo "github.com/silodex/silodex/internal/domain/silo"
)

// Repository defines the storage contract for silos and their domains.
type Repository interface {
	Create(ctx context.Context, s domsilo.Silo) error
	Get(ctx context.Context, id string) (domsilo.Silo, error)
	List(ctx context.Context) ([]domsilo.Silo, error)
	Delete(ctx context.Context, id string) error

	CreateDomain(ctx context.Context, d domsilo.Domain) error
	ListDomains(ctx context.Context, siloID string) ([]domsilo.Domain, error)
	DeleteDomain(ctx context.Context, siloID, id string) error
}

// ChunkIndex manages the per-silo search index and chunk sets.
type ChunkIndex interface {
	EnsureIndex(ctx context.Context, s domsilo.Silo) error
	DropIndex(ctx context.Context, siloID string) error
	Delete(ctx context.Context, siloID, mediaID string) error
}

// MediaStore reads and removes media records during silo cascade.
type MediaStore interface {
	List(ctx context.Context, siloID string) ([]dommedia.Media, error)
	Delete(ctx context.Context, siloID, id string) error
}
