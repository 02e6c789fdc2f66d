// Package chunk persists chunk sets as Redis hashes that double as search
// documents in the per-silo FT index.
package chunk

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/silodex/silodex/internal/db"
	"github.com/silodex/silodex/internal/domain"
	domchunk "github.com/silodex/silodex/internal/domain/chunk"
	domsilo "github.com/silodex/silodex/internal/domain/silo"
)

// store is the consumer interface for chunk persistence (ISP).
type store interface {
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	Replace(ctx context.Context, delKeys []string, sets []db.HashSetItem) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// IndexParams holds vector index tuning taken from configuration.
type IndexParams struct {
	Dimensions  int
	HNSWM       int
	EFConstruct int
}

// Repo implements the chunk store used by the indexer and search services.
type Repo struct {
	store  store
	prefix string
	params IndexParams
}

// New creates a chunk repository.
func New(s store, keyPrefix string, params IndexParams) *Repo {
	return &Repo{store: s, prefix: keyPrefix, params: params}
}

// EnsureIndex creates the silo's chunk FT index if it does not exist yet.
// The schema covers the engine fields plus the silo's declared metadata.
func (r *Repo) EnsureIndex(ctx context.Context, s domsilo.Silo) error {
	b := db.NewIndex(r.IndexName(s.ID())).
		Prefix(r.chunkPrefix(s.ID())).
		Text("__content").
		VectorHNSW("__vector", r.params.Dimensions, db.DistanceCosine, r.params.HNSWM, r.params.EFConstruct).
		Tag("media_id").
		Numeric("chunk_index").
		Numeric("start_time").
		Numeric("end_time").
		Numeric("created_at")

	for _, f := range s.TagFields() {
		b = b.Tag(f)
	}
	for _, f := range s.NumericFields() {
		b = b.Numeric(f)
	}

	def, err := b.Build()
	if err != nil {
		return fmt.Errorf("build index definition: %w", err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index %s: %w", def.Name, err)
	}
	return nil
}

// DropIndex removes the silo's chunk FT index.
func (r *Repo) DropIndex(ctx context.Context, siloID string) error {
	if err := r.store.DropIndex(ctx, r.IndexName(siloID)); err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil
		}
		return fmt.Errorf("drop index: %w", err)
	}
	return nil
}

// Replace atomically swaps the media's chunk set for the given one.
// The set must satisfy the contiguity invariant. An empty set clears all
// chunks of the media.
func (r *Repo) Replace(ctx context.Context, siloID, mediaID string, chunks []domchunk.Chunk) error {
	if err := domchunk.ValidateSet(chunks); err != nil {
		return err
	}

	oldKeys, err := r.store.Scan(ctx, r.mediaChunkPattern(siloID, mediaID))
	if err != nil {
		return fmt.Errorf("scan old chunks: %w", err)
	}

	sets := make([]db.HashSetItem, 0, len(chunks))
	for i := range chunks {
		sets = append(sets, db.HashSetItem{
			Key:    r.chunkKey(siloID, mediaID, chunks[i].Index()),
			Fields: chunkToFields(&chunks[i]),
		})
	}

	if err := r.store.Replace(ctx, oldKeys, sets); err != nil {
		return fmt.Errorf("replace chunks %s/%s: %w", siloID, mediaID, err)
	}
	return nil
}

// Get returns the media's chunks ordered by index. The silo supplies the
// metadata schema for hydration. The contiguity invariant is verified after
// read.
func (r *Repo) Get(ctx context.Context, s domsilo.Silo, mediaID string) ([]domchunk.Chunk, error) {
	siloID := s.ID()
	keys, err := r.store.Scan(ctx, r.mediaChunkPattern(siloID, mediaID))
	if err != nil {
		return nil, fmt.Errorf("scan chunks: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	maps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch chunks: %w", err)
	}

	chunks := make([]domchunk.Chunk, 0, len(maps))
	for i, m := range maps {
		if len(m) == 0 {
			continue
		}
		idx, err := r.chunkIndexFromKey(keys[i], siloID, mediaID)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, fieldsToChunk(mediaID, idx, m, s))
	}

	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Index() < chunks[j].Index() })

	if err := domchunk.ValidateSet(chunks); err != nil {
		return nil, fmt.Errorf("stored chunk set for %s/%s corrupt: %w", siloID, mediaID, err)
	}
	return chunks, nil
}

// Delete removes all chunks of a media in one transaction.
func (r *Repo) Delete(ctx context.Context, siloID, mediaID string) error {
	keys, err := r.store.Scan(ctx, r.mediaChunkPattern(siloID, mediaID))
	if err != nil {
		return fmt.Errorf("scan chunks: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.store.Replace(ctx, keys, nil); err != nil {
		return fmt.Errorf("delete chunks %s/%s: %w", siloID, mediaID, err)
	}
	return nil
}

// Count returns the total chunk count of a silo via the FT index.
func (r *Repo) Count(ctx context.Context, siloID string) (int, error) {
	n, err := r.store.SearchCount(ctx, r.IndexName(siloID), "*")
	if err != nil {
		return 0, fmt.Errorf("count chunks %s: %w", siloID, err)
	}
	return n, nil
}

// IndexName returns the FT index name for a silo's chunks.
func (r *Repo) IndexName(siloID string) string {
	return r.prefix + siloID + ":chunk-idx"
}

func (r *Repo) chunkPrefix(siloID string) string {
	return r.prefix + siloID + ":chunk:"
}

func (r *Repo) chunkKey(siloID, mediaID string, index int) string {
	return fmt.Sprintf("%s%s:%d", r.chunkPrefix(siloID), mediaID, index)
}

func (r *Repo) mediaChunkPattern(siloID, mediaID string) string {
	return r.chunkPrefix(siloID) + mediaID + ":*"
}

func (r *Repo) chunkIndexFromKey(key, siloID, mediaID string) (int, error) {
	suffix := strings.TrimPrefix(key, r.chunkPrefix(siloID)+mediaID+":")
	idx, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, fmt.Errorf("malformed chunk key %q: %w", key, domain.ErrChunkSetInvalid)
	}
	return idx, nil
}
