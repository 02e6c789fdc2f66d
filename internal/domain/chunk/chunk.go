// Package chunk holds the chunk aggregate: the smallest addressable unit of
// indexed content, ordered within its parent media.
package chunk

import (
	"fmt"

	"github.com/silodex/silodex/internal/domain"
)

// MaxTextSize is the maximum chunk text size in bytes.
const MaxTextSize = 163840 // 160KB

// Chunk is an immutable value object addressed by (media_id, index).
type Chunk struct {
	mediaID   string
	index     int
	text      string
	start     float64 // seconds
	end       float64
	tags      map[string]string
	numerics  map[string]float64
	vector    []float32
	createdAt int64 // unix millis
}

// New validates and creates a Chunk.
func New(mediaID string, index int, text string, start, end float64,
	tags map[string]string, numerics map[string]float64, createdAt int64,
) (Chunk, error) {
	if mediaID == "" {
		return Chunk{}, fmt.Errorf("media ID is required: %w", domain.ErrInvalidInput)
	}
	if index < 0 {
		return Chunk{}, fmt.Errorf("chunk index must be >= 0, got %d: %w", index, domain.ErrInvalidInput)
	}
	if text == "" {
		return Chunk{}, fmt.Errorf("chunk text is required: %w", domain.ErrInvalidInput)
	}
	if len(text) > MaxTextSize {
		return Chunk{}, fmt.Errorf("chunk text too large (max %d bytes): %w", MaxTextSize, domain.ErrInvalidInput)
	}
	if start < 0 {
		return Chunk{}, fmt.Errorf("start time must be >= 0, got %g: %w", start, domain.ErrInvalidInput)
	}
	if end < start {
		return Chunk{}, fmt.Errorf("end time %g before start %g: %w", end, start, domain.ErrInvalidInput)
	}

	return Chunk{
		mediaID:   mediaID,
		index:     index,
		text:      text,
		start:     start,
		end:       end,
		tags:      cloneStringMap(tags),
		numerics:  cloneFloat64Map(numerics),
		createdAt: createdAt,
	}, nil
}

// Reconstruct creates a Chunk without validation (storage hydration).
func Reconstruct(mediaID string, index int, text string, start, end float64,
	tags map[string]string, numerics map[string]float64, vector []float32, createdAt int64,
) Chunk {
	return Chunk{
		mediaID: mediaID, index: index, text: text, start: start, end: end,
		tags: tags, numerics: numerics, vector: vector, createdAt: createdAt,
	}
}

// MediaID returns the owning media identifier.
func (c *Chunk) MediaID() string { return c.mediaID }

// Index returns the 0-based position within the media.
func (c *Chunk) Index() int { return c.index }

// Text returns the chunk text.
func (c *Chunk) Text() string { return c.text }

// Start returns the start offset in seconds.
func (c *Chunk) Start() float64 { return c.start }

// End returns the end offset in seconds.
func (c *Chunk) End() float64 { return c.end }

// Tags returns the tag metadata fields.
func (c *Chunk) Tags() map[string]string { return c.tags }

// Numerics returns the numeric metadata fields.
func (c *Chunk) Numerics() map[string]float64 { return c.numerics }

// Vector returns the embedding vector.
func (c *Chunk) Vector() []float32 { return c.vector }

// CreatedAt returns the creation timestamp (unix millis).
func (c *Chunk) CreatedAt() int64 { return c.createdAt }

// SetVector sets the vector in place (mutation).
func (c *Chunk) SetVector(v []float32) { c.vector = v }

// ValidateSet checks the storage-level invariant over a full chunk set:
// indices form the contiguous range [0, n) in order, and start times are
// non-decreasing across indices.
func ValidateSet(chunks []Chunk) error {
	prevStart := 0.0
	for i := range chunks {
		if chunks[i].index != i {
			return fmt.Errorf(
				"chunk at position %d has index %d: %w",
				i, chunks[i].index, domain.ErrChunkSetInvalid,
			)
		}
		if chunks[i].start < prevStart {
			return fmt.Errorf(
				"chunk %d starts at %g before previous start %g: %w",
				i, chunks[i].start, prevStart, domain.ErrChunkSetInvalid,
			)
		}
		prevStart = chunks[i].start
	}
	return nil
}

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

func cloneFloat64Map(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	c := make(map[string]float64, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
