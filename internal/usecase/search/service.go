// Package search ranks silo-scoped chunk matches for client queries.
package search

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/silodex/silodex/internal/domain"
	"github.com/silodex/silodex/internal/domain/search/filter"
	"github.com/silodex/silodex/internal/domain/search/request"
	"github.com/silodex/silodex/internal/domain/search/result"
	domsilo "github.com/silodex/silodex/internal/domain/silo"
)

// maxResultWindow caps how deep pagination can reach into a result set.
// KNN fetches page*per_page candidates, so the window bounds the query size.
const maxResultWindow = 10000

// Config holds pagination and ranking settings.
type Config struct {
	DefaultPageSize      int
	MaxPageSize          int
	RecencyBoost         float64 // 0 disables the boost
	RecencyHalfLifeHours float64
}

// engineTagFields are filterable TAG fields present on every chunk document.
var engineTagFields = map[string]bool{
	"media_id": true,
}

// engineNumericFields are filterable NUMERIC fields present on every chunk document.
var engineNumericFields = map[string]bool{
	"chunk_index": true,
	"start_time":  true,
	"end_time":    true,
	"created_at":  true,
}

// Service executes silo-scoped metadata-filtered vector search.
type Service struct {
	repo  Repository
	silos SiloReader
	embed Embedder
	cfg   Config
	now   func() time.Time
}

// New creates a search service.
func New(repo Repository, silos SiloReader, embed Embedder, cfg Config) *Service {
	return &Service{repo: repo, silos: silos, embed: embed, cfg: cfg, now: time.Now}
}

// Search embeds the query, runs filtered KNN over the silo's index, applies
// the recency boost, and returns one page with the pre-pagination total.
// A page beyond the result range returns empty hits, not an error.
func (s *Service) Search(ctx context.Context, req request.Request) (result.Page, error) {
	sl, err := s.silos.Get(ctx, req.SiloID())
	if err != nil {
		return result.Page{}, fmt.Errorf("get silo: %w", err)
	}

	if err := validateFilters(req.Filters(), sl); err != nil {
		return result.Page{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	page := req.Page()
	if page < 1 {
		page = 1
	}
	perPage := req.PerPage()
	if perPage <= 0 {
		perPage = s.cfg.DefaultPageSize
	}
	if perPage > s.cfg.MaxPageSize {
		perPage = s.cfg.MaxPageSize
	}

	// topK grows with the page, so the page depth is bounded too.
	topK := page * perPage
	if topK > maxResultWindow {
		return result.Page{}, fmt.Errorf(
			"page %d with per_page %d exceeds the result window of %d: %w",
			page, perPage, maxResultWindow, domain.ErrInvalidInput)
	}

	embResult, err := s.embed.Embed(ctx, req.Query())
	if err != nil {
		return result.Page{}, fmt.Errorf("vectorize query: %w", err)
	}

	hits, err := s.repo.SearchKNN(ctx, sl, embResult.Embedding, req.Filters(), topK)
	if err != nil {
		return result.Page{}, fmt.Errorf("search knn: %w", err)
	}

	hits = s.rank(hits)

	total, err := s.repo.Count(ctx, req.SiloID(), req.Filters())
	if err != nil {
		return result.Page{}, fmt.Errorf("count matches: %w", err)
	}

	from := (page - 1) * perPage
	if from > len(hits) {
		from = len(hits)
	}
	to := from + perPage
	if to > len(hits) {
		to = len(hits)
	}

	return result.NewPage(hits[from:to], int64(total), page, perPage), nil
}

// rank applies the recency boost and sorts with deterministic tie-breaks:
// score descending, then chunk index and creation time ascending.
func (s *Service) rank(hits []result.Hit) []result.Hit {
	if s.cfg.RecencyBoost > 0 {
		halfLife := s.cfg.RecencyHalfLifeHours
		if halfLife <= 0 {
			halfLife = 168
		}
		now := s.now()
		for i, h := range hits {
			ageHours := now.Sub(h.CreatedAt()).Hours()
			if ageHours < 0 {
				ageHours = 0
			}
			boost := s.cfg.RecencyBoost * math.Exp(-math.Ln2*ageHours/halfLife)
			hits[i] = h.WithScore(h.Score() + boost)
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score() != hits[j].Score() {
			return hits[i].Score() > hits[j].Score()
		}
		if hits[i].ChunkIndex() != hits[j].ChunkIndex() {
			return hits[i].ChunkIndex() < hits[j].ChunkIndex()
		}
		if !hits[i].CreatedAt().Equal(hits[j].CreatedAt()) {
			return hits[i].CreatedAt().Before(hits[j].CreatedAt())
		}
		return hits[i].MediaID() < hits[j].MediaID()
	})
	return hits
}

// validateFilters ensures every filter key is a filterable field of the silo
// and that the filter kind matches the field kind.
func validateFilters(expr filter.Expression, sl domsilo.Silo) error {
	if expr.IsEmpty() {
		return nil
	}

	tagFields := make(map[string]bool, len(engineTagFields)+len(sl.TagFields()))
	for f := range engineTagFields {
		tagFields[f] = true
	}
	for _, f := range sl.TagFields() {
		tagFields[f] = true
	}
	numFields := make(map[string]bool, len(engineNumericFields)+len(sl.NumericFields()))
	for f := range engineNumericFields {
		numFields[f] = true
	}
	for _, f := range sl.NumericFields() {
		numFields[f] = true
	}

	for _, c := range expr.Conditions() {
		switch {
		case c.IsMatch():
			if !tagFields[c.Key()] {
				return fmt.Errorf("unknown tag filter field %q", c.Key())
			}
		case c.IsRange():
			if !numFields[c.Key()] {
				return fmt.Errorf("unknown numeric filter field %q", c.Key())
			}
		}
	}
	return nil
}
