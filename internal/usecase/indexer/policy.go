package indexer

import (
	"fmt"
	"strings"

	domchunk "github.com/silodex/silodex/internal/domain/chunk"
	dommedia "github.com/silodex/silodex/internal/domain/media"
)

// Policy caps chunk size. A chunk closes when adding the next segment would
// exceed either cap. MaxDurationSec of 0 disables the duration cap.
type Policy struct {
	MaxChars       int
	MaxDurationSec float64
}

// piece is a segment after trimming and oversized-segment splitting.
type piece struct {
	text  string
	start float64
	end   float64
}

// BuildChunks folds ordered segments into chunks under the policy. Segments
// with empty text are skipped. A single segment exceeding MaxChars is split
// at sentence boundaries, falling back to word boundaries; the split parts
// share the segment's time range. Chunk indices are sequential from 0 and
// each chunk spans the min start to max end of its folded segments.
func BuildChunks(mediaID string, src dommedia.Source, p Policy, createdAt int64) ([]domchunk.Chunk, error) {
	if p.MaxChars <= 0 {
		return nil, fmt.Errorf("chunking max_chars must be positive, got %d", p.MaxChars)
	}
	if err := dommedia.ValidateSegments(src.Segments); err != nil {
		return nil, fmt.Errorf("validate segments: %w", err)
	}

	var pieces []piece
	for _, seg := range src.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		if len(text) <= p.MaxChars {
			pieces = append(pieces, piece{text: text, start: seg.Start, end: seg.End})
			continue
		}
		for _, part := range splitText(text, p.MaxChars) {
			pieces = append(pieces, piece{text: part, start: seg.Start, end: seg.End})
		}
	}

	var chunks []domchunk.Chunk
	var cur piece
	open := false

	flush := func() error {
		if !open {
			return nil
		}
		c, err := domchunk.New(mediaID, len(chunks), cur.text, cur.start, cur.end,
			src.Tags, src.Numerics, createdAt)
		if err != nil {
			return fmt.Errorf("build chunk %d: %w", len(chunks), err)
		}
		chunks = append(chunks, c)
		open = false
		return nil
	}

	for _, pc := range pieces {
		if !open {
			cur = pc
			open = true
			continue
		}
		fitsChars := len(cur.text)+1+len(pc.text) <= p.MaxChars
		fitsTime := p.MaxDurationSec <= 0 || pc.end-cur.start <= p.MaxDurationSec
		if fitsChars && fitsTime {
			cur.text = cur.text + " " + pc.text
			if pc.end > cur.end {
				cur.end = pc.end
			}
			continue
		}
		if err := flush(); err != nil {
			return nil, err
		}
		cur = pc
		open = true
	}
	if err := flush(); err != nil {
		return nil, err
	}

	return chunks, nil
}

// splitText breaks oversized text into parts of at most max bytes, preferring
// sentence boundaries, then word boundaries, then hard byte cuts.
func splitText(text string, max int) []string {
	return packUnits(splitSentences(text), max)
}

func packUnits(units []string, max int) []string {
	var out []string
	cur := ""
	for _, u := range units {
		if len(u) > max {
			if cur != "" {
				out = append(out, cur)
				cur = ""
			}
			out = append(out, packWords(u, max)...)
			continue
		}
		switch {
		case cur == "":
			cur = u
		case len(cur)+1+len(u) <= max:
			cur = cur + " " + u
		default:
			out = append(out, cur)
			cur = u
		}
	}
	if cur != "" {
		out = append(out, cur)
	}
	return out
}

func packWords(s string, max int) []string {
	var out []string
	cur := ""
	for _, w := range strings.Fields(s) {
		for len(w) > max {
			if cur != "" {
				out = append(out, cur)
				cur = ""
			}
			out = append(out, w[:max])
			w = w[max:]
		}
		if w == "" {
			continue
		}
		switch {
		case cur == "":
			cur = w
		case len(cur)+1+len(w) <= max:
			cur = cur + " " + w
		default:
			out = append(out, cur)
			cur = w
		}
	}
	if cur != "" {
		out = append(out, cur)
	}
	return out
}

// splitSentences splits on '.', '!' or '?' followed by a space or end of
// text, keeping the terminator with its sentence.
func splitSentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			if i+1 == len(text) || text[i+1] == ' ' {
				if s := strings.TrimSpace(text[start : i+1]); s != "" {
					out = append(out, s)
				}
				start = i + 1
			}
		}
	}
	if rest := strings.TrimSpace(text[start:]); rest != "" {
		out = append(out, rest)
	}
	return out
}
