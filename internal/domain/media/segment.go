package media

import (
	"fmt"

	"github.com/silodex/silodex/internal/domain"
)

// Segment is one unit of decoded source output (a transcript line, an OCR
// block, a document paragraph). Segments arrive ordered; time offsets are
// zero for untimed sources.
type Segment struct {
	Text  string
	Start float64 // seconds from media start
	End   float64
}

// Source is the decoded output of one media item: ordered segments plus
// source-level metadata copied onto every produced chunk.
type Source struct {
	Segments []Segment
	Tags     map[string]string
	Numerics map[string]float64
}

// Validate checks a single segment.
func (s Segment) Validate() error {
	if s.Start < 0 {
		return fmt.Errorf("segment start must be >= 0, got %g: %w", s.Start, domain.ErrInvalidInput)
	}
	if s.End < s.Start {
		return fmt.Errorf("segment end %g before start %g: %w", s.End, s.Start, domain.ErrInvalidInput)
	}
	return nil
}

// ValidateSegments checks an ordered segment sequence: each segment valid,
// start times non-decreasing. Segments with empty text are tolerated here
// and skipped by the indexer.
func ValidateSegments(segments []Segment) error {
	prevStart := 0.0
	for i, seg := range segments {
		if err := seg.Validate(); err != nil {
			return fmt.Errorf("segment %d: %w", i, err)
		}
		if seg.Start < prevStart {
			return fmt.Errorf(
				"segment %d starts at %g before previous start %g: %w",
				i, seg.Start, prevStart, domain.ErrInvalidInput,
			)
		}
		prevStart = seg.Start
	}
	return nil
}
