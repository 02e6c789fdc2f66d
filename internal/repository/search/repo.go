// Package search runs KNN queries against per-silo chunk indexes and maps
// the hits back into domain results.
package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/silodex/silodex/internal/db"
	"github.com/silodex/silodex/internal/domain/search/filter"
	"github.com/silodex/silodex/internal/domain/search/result"
	domsilo "github.com/silodex/silodex/internal/domain/silo"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchCountFiltered(ctx context.Context, index string, filters filter.Expression) (int, error)
}

// Repo implements usecase/search.Repository.
type Repo struct {
	store  store
	prefix string
}

// New creates a search repository.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix}
}

// SearchKNN performs a vector similarity search over a silo's chunk index
// with metadata pre-filtering. Hits carry cosine similarity scores; the silo
// supplies the metadata schema for hydrating hit fields.
func (r *Repo) SearchKNN(
	ctx context.Context, s domsilo.Silo,
	vector []float32, filters filter.Expression, topK int,
) ([]result.Hit, error) {
	q := &db.KNNQuery{
		IndexName: r.indexName(s.ID()),
		Filters:   filters,
		Vector:    vector,
		K:         topK,
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search knn %s: %w", s.ID(), err)
	}

	return r.parseHits(sr, s), nil
}

// Count returns the pre-pagination total of chunks matching the filter.
func (r *Repo) Count(ctx context.Context, siloID string, filters filter.Expression) (int, error) {
	n, err := r.store.SearchCountFiltered(ctx, r.indexName(siloID), filters)
	if err != nil {
		return 0, fmt.Errorf("count matches %s: %w", siloID, err)
	}
	return n, nil
}

func (r *Repo) parseHits(sr *db.SearchResult, s domsilo.Silo) []result.Hit {
	if sr == nil || sr.Total == 0 {
		return nil
	}

	keyPrefix := r.prefix + s.ID() + ":chunk:"
	hits := make([]result.Hit, 0, len(sr.Entries))

	for _, entry := range sr.Entries {
		mediaID, chunkIndex, ok := splitChunkKey(entry.Key, keyPrefix)
		if !ok {
			continue
		}
		hits = append(hits, parseEntryFields(mediaID, chunkIndex, entry, s))
	}

	return hits
}

// splitChunkKey extracts (mediaID, chunkIndex) from a chunk document key.
func splitChunkKey(key, prefix string) (string, int, bool) {
	rest := strings.TrimPrefix(key, prefix)
	if rest == key {
		return "", 0, false
	}
	sep := strings.LastIndexByte(rest, ':')
	if sep < 0 {
		return "", 0, false
	}
	idx, err := strconv.Atoi(rest[sep+1:])
	if err != nil {
		return "", 0, false
	}
	return rest[:sep], idx, true
}

// parseEntryFields parses a KNN entry from flat hash fields into a Hit. The
// silo's declared schema decides which metadata fields are numeric.
func parseEntryFields(mediaID string, chunkIndex int, entry db.SearchEntry, s domsilo.Silo) result.Hit {
	var content string
	var start, end float64
	var createdAt int64
	tags := make(map[string]string)
	numerics := make(map[string]float64)

	for k, v := range entry.Fields {
		switch k {
		case "__content":
			content = v
		case "__vector":
			// not returned to callers
		case "media_id", "chunk_index":
			// carried in the key
		case "start_time":
			start, _ = strconv.ParseFloat(v, 64)
		case "end_time":
			end, _ = strconv.ParseFloat(v, 64)
		case "created_at":
			createdAt, _ = strconv.ParseInt(v, 10, 64)
		default:
			if s.IsNumericField(k) {
				f, _ := strconv.ParseFloat(v, 64)
				numerics[k] = f
			} else {
				tags[k] = v
			}
		}
	}

	if len(tags) == 0 {
		tags = nil
	}
	if len(numerics) == 0 {
		numerics = nil
	}

	hit, _ := result.NewHit(mediaID, chunkIndex, content, start, end,
		tags, numerics, time.UnixMilli(createdAt), entry.Score)
	return hit
}

func (r *Repo) indexName(siloID string) string {
	return r.prefix + siloID + ":chunk-idx"
}
