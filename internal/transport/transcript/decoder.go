// Package transcript decodes media sources into ordered segments. Uploads
// are read from the local transcript store, URL sources are fetched over
// HTTP. Both carry the same JSON transcript format.
package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	dommedia "github.com/silodex/silodex/internal/domain/media"
)

// MaxDocumentSize bounds a transcript document (64 MiB).
const MaxDocumentSize = 64 << 20

// document is the transcript wire format.
type document struct {
	Segments []segment          `json:"segments"`
	Tags     map[string]string  `json:"tags,omitempty"`
	Numerics map[string]float64 `json:"numerics,omitempty"`
}

type segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Config holds decoder settings.
type Config struct {
	// DataDir is where uploaded transcripts live, one <media-id>.json each.
	DataDir string
	// FetchTimeout bounds a single URL fetch. Defaults to 30s.
	FetchTimeout time.Duration
	Logger       *zap.Logger
}

// Decoder resolves a media record to its transcript segments.
type Decoder struct {
	client  *http.Client
	dataDir string
	logger  *zap.Logger
}

// New creates a transcript decoder.
func New(cfg Config) *Decoder {
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Decoder{
		client:  &http.Client{Timeout: timeout},
		dataDir: cfg.DataDir,
		logger:  logger,
	}
}

// Decode reads and parses the transcript of one media item.
func (d *Decoder) Decode(ctx context.Context, m dommedia.Media) (dommedia.Source, error) {
	var (
		raw []byte
		err error
	)

	switch m.SourceType() {
	case dommedia.SourceUpload:
		raw, err = d.readUpload(m.ID())
	case dommedia.SourceURL:
		raw, err = d.fetch(ctx, m.SourceURL())
	default:
		return dommedia.Source{}, fmt.Errorf("source type %q has no transcript decoder", m.SourceType())
	}
	if err != nil {
		return dommedia.Source{}, err
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return dommedia.Source{}, fmt.Errorf("parse transcript: %w", err)
	}

	src := dommedia.Source{
		Segments: make([]dommedia.Segment, len(doc.Segments)),
		Tags:     doc.Tags,
		Numerics: doc.Numerics,
	}
	for i, s := range doc.Segments {
		src.Segments[i] = dommedia.Segment{Text: s.Text, Start: s.Start, End: s.End}
	}

	if err := dommedia.ValidateSegments(src.Segments); err != nil {
		return dommedia.Source{}, fmt.Errorf("validate transcript: %w", err)
	}

	d.logger.Debug("Transcript decoded",
		zap.String("media_id", m.ID()),
		zap.Int("segments", len(src.Segments)))
	return src, nil
}

func (d *Decoder) readUpload(mediaID string) ([]byte, error) {
	path := filepath.Join(d.dataDir, mediaID+".json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript upload: %w", err)
	}
	if len(raw) > MaxDocumentSize {
		return nil, fmt.Errorf("transcript exceeds %d bytes", MaxDocumentSize)
	}
	return raw, nil
}

func (d *Decoder) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build transcript request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch transcript: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch transcript: unexpected status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("read transcript body: %w", err)
	}
	if len(raw) > MaxDocumentSize {
		return nil, fmt.Errorf("transcript exceeds %d bytes", MaxDocumentSize)
	}
	return raw, nil
}
