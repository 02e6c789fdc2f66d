// Package result models ranked search hits and result pages.
package result

import (
	"fmt"
	"time"
)

// Hit is a single ranked search result.
type Hit struct {
	mediaID    string
	chunkIndex int
	text       string
	start      float64
	end        float64
	tags       map[string]string
	numerics   map[string]float64
	createdAt  time.Time
	score      float64
}

// NewHit validates and creates a Hit.
func NewHit(mediaID string, chunkIndex int, text string, start, end float64, tags map[string]string, numerics map[string]float64, createdAt time.Time, score float64) (Hit, error) {
	if mediaID == "" {
		return Hit{}, fmt.Errorf("media id is required")
	}
	if chunkIndex < 0 {
		return Hit{}, fmt.Errorf("chunk index must not be negative")
	}
	return Hit{
		mediaID:    mediaID,
		chunkIndex: chunkIndex,
		text:       text,
		start:      start,
		end:        end,
		tags:       tags,
		numerics:   numerics,
		createdAt:  createdAt,
		score:      score,
	}, nil
}

// MediaID returns the parent media id.
func (h Hit) MediaID() string { return h.mediaID }

// ChunkIndex returns the chunk's position within its media.
func (h Hit) ChunkIndex() int { return h.chunkIndex }

// Text returns the chunk text.
func (h Hit) Text() string { return h.text }

// Start returns the chunk start offset in seconds.
func (h Hit) Start() float64 { return h.start }

// End returns the chunk end offset in seconds.
func (h Hit) End() float64 { return h.end }

// Tags returns the string metadata.
func (h Hit) Tags() map[string]string { return h.tags }

// Numerics returns the numeric metadata.
func (h Hit) Numerics() map[string]float64 { return h.numerics }

// CreatedAt returns the chunk indexing timestamp.
func (h Hit) CreatedAt() time.Time { return h.createdAt }

// Score returns the final ranking score, higher is better.
func (h Hit) Score() float64 { return h.score }

// WithScore returns a copy of the hit with the score replaced.
func (h Hit) WithScore(score float64) Hit {
	h.score = score
	return h
}

// Page is one page of ranked hits together with pagination metadata.
// Total counts all matches before pagination.
type Page struct {
	hits    []Hit
	total   int64
	page    int
	perPage int
}

// NewPage creates a result Page.
func NewPage(hits []Hit, total int64, page, perPage int) Page {
	return Page{hits: hits, total: total, page: page, perPage: perPage}
}

// Hits returns the hits on this page.
func (p Page) Hits() []Hit { return p.hits }

// Total returns the full match count before pagination.
func (p Page) Total() int64 { return p.total }

// Page returns the 1-based page number.
func (p Page) Page() int { return p.page }

// PerPage returns the page size.
func (p Page) PerPage() int { return p.perPage }

// HasNext reports whether a later page exists.
func (p Page) HasNext() bool {
	return int64(p.page)*int64(p.perPage) < p.total
}

// HasPrev reports whether an earlier page exists.
func (p Page) HasPrev() bool { return p.page > 1 }
