package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput signals malformed input (empty name, negative duration, bad metadata).
	ErrInvalidInput = errors.New("invalid input")
	// ErrSiloNotFound signals a missing silo.
	ErrSiloNotFound = errors.New("silo not found")
	// ErrMediaNotFound signals a missing media item.
	ErrMediaNotFound = errors.New("media not found")
	// ErrDomainNotFound signals a missing crawl domain.
	ErrDomainNotFound = errors.New("domain not found")
	// ErrAlreadyExists signals a duplicate resource.
	ErrAlreadyExists = errors.New("already exists")

	// ErrIngestBusy signals a concurrent re-index of the same media already in flight.
	// The caller may retry once the in-flight ingestion completes.
	ErrIngestBusy = errors.New("ingest already in flight")
	// ErrNoContent signals an empty source: a valid outcome, distinct from failure.
	ErrNoContent = errors.New("no content")

	// ErrChunkSetInvalid signals a chunk set violating ordering invariants
	// (index gaps, duplicates, or decreasing start times).
	ErrChunkSetInvalid = errors.New("invalid chunk set")

	// ErrDecodeFailed signals that the decoding collaborator could not produce segments.
	ErrDecodeFailed = errors.New("decode failed")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingQuotaExceeded signals an exhausted embedding budget.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)

// IsUpstream reports whether err originated in an external collaborator
// (decoder or embedding provider). Upstream failures transition the media
// to failed with the message recorded, never to a partial chunk set.
func IsUpstream(err error) bool {
	return errors.Is(err, ErrDecodeFailed) ||
		errors.Is(err, ErrEmbeddingProviderError) ||
		errors.Is(err, ErrEmbeddingQuotaExceeded) ||
		errors.Is(err, ErrRateLimited)
}

// BusyError wraps ErrIngestBusy with the media that holds the lock.
type BusyError struct {
	MediaID string
}

func (e *BusyError) Error() string {
	return fmt.Sprintf("%s: media %s", ErrIngestBusy.Error(), e.MediaID)
}

func (e *BusyError) Unwrap() error { return ErrIngestBusy }

// NewBusy creates an ingest-busy error for the given media.
func NewBusy(mediaID string) error {
	return &BusyError{MediaID: mediaID}
}
