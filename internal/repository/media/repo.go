// Package media persists media aggregates as Redis hashes.
package media

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/silodex/silodex/internal/domain"
	dommedia "github.com/silodex/silodex/internal/domain/media"
)

// store is the consumer interface for media persistence (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements the media repository used by the ingest and status services.
type Repo struct {
	store  store
	prefix string
}

// New creates a media repository.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix}
}

// Create persists a new media item. Fails if the ID is taken.
func (r *Repo) Create(ctx context.Context, m dommedia.Media) error {
	key := r.mediaKey(m.SiloID(), m.ID())

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if exists {
		return domain.ErrAlreadyExists
	}

	if err := r.store.HSet(ctx, key, mediaToFields(m)); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// Update overwrites a media hash. The item must exist.
func (r *Repo) Update(ctx context.Context, m dommedia.Media) error {
	key := r.mediaKey(m.SiloID(), m.ID())

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrMediaNotFound
	}

	if err := r.store.HSet(ctx, key, mediaToFields(m)); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// Get returns a media item by silo and ID.
func (r *Repo) Get(ctx context.Context, siloID, id string) (dommedia.Media, error) {
	key := r.mediaKey(siloID, id)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return dommedia.Media{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(m) == 0 {
		return dommedia.Media{}, domain.ErrMediaNotFound
	}
	return fieldsToMedia(id, siloID, m), nil
}

// List returns the media of a silo, newest first.
func (r *Repo) List(ctx context.Context, siloID string) ([]dommedia.Media, error) {
	keys, err := r.store.Scan(ctx, r.prefix+"media:"+siloID+":*")
	if err != nil {
		return nil, fmt.Errorf("scan media: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	maps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch media: %w", err)
	}

	items := make([]dommedia.Media, 0, len(maps))
	for i, m := range maps {
		if len(m) == 0 {
			continue
		}
		id := strings.TrimPrefix(keys[i], r.prefix+"media:"+siloID+":")
		items = append(items, fieldsToMedia(id, siloID, m))
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt() != items[j].CreatedAt() {
			return items[i].CreatedAt() > items[j].CreatedAt()
		}
		return items[i].ID() < items[j].ID()
	})
	return items, nil
}

// Delete removes a media hash. Chunk cascade is the caller's responsibility.
func (r *Repo) Delete(ctx context.Context, siloID, id string) error {
	key := r.mediaKey(siloID, id)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrMediaNotFound
	}

	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

func (r *Repo) mediaKey(siloID, id string) string {
	return r.prefix + "media:" + siloID + ":" + id
}
