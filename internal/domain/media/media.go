// Package media holds the media aggregate and its processing state machine.
package media

import (
	"fmt"
	"time"

	"github.com/silodex/silodex/internal/domain"
)

// SourceType identifies where a media item came from.
type SourceType string

const (
	// SourceUpload is a direct file upload.
	SourceUpload SourceType = "upload"
	// SourceURL is a remote resource fetched by URL.
	SourceURL SourceType = "url"
	// SourceLive is a live capture.
	SourceLive SourceType = "live"
)

// IsValid checks if the source type is supported.
func (t SourceType) IsValid() bool {
	return t == SourceUpload || t == SourceURL || t == SourceLive
}

// MaxNameLen is the maximum media name length.
const MaxNameLen = 256

// Media is the media aggregate (immutable value object).
// Only the status tracker mutates processing state, via the transition methods.
type Media struct {
	id           string
	siloID       string
	name         string
	sourceType   SourceType
	sourceURL    string
	duration     float64 // seconds, 0 = unknown
	language     string
	status       Status
	errorMessage string
	folderID     string
	createdAt    int64 // unix millis
	processedAt  int64 // unix millis, 0 = not yet processed
}

// New validates and creates a Media in the pending state.
func New(id, siloID, name string, sourceType SourceType, sourceURL, language string,
	duration float64, folderID string,
) (Media, error) {
	if id == "" {
		return Media{}, fmt.Errorf("media ID is required: %w", domain.ErrInvalidInput)
	}
	if siloID == "" {
		return Media{}, fmt.Errorf("silo ID is required: %w", domain.ErrInvalidInput)
	}
	if name == "" {
		return Media{}, fmt.Errorf("media name is required: %w", domain.ErrInvalidInput)
	}
	if len(name) > MaxNameLen {
		return Media{}, fmt.Errorf("media name too long (max %d): %w", MaxNameLen, domain.ErrInvalidInput)
	}
	if !sourceType.IsValid() {
		return Media{}, fmt.Errorf("invalid source type %q: %w", sourceType, domain.ErrInvalidInput)
	}
	if sourceType == SourceURL && sourceURL == "" {
		return Media{}, fmt.Errorf("source URL is required for url media: %w", domain.ErrInvalidInput)
	}
	if duration < 0 {
		return Media{}, fmt.Errorf("duration must be >= 0, got %g: %w", duration, domain.ErrInvalidInput)
	}

	return Media{
		id:         id,
		siloID:     siloID,
		name:       name,
		sourceType: sourceType,
		sourceURL:  sourceURL,
		duration:   duration,
		language:   language,
		status:     StatusPending,
		folderID:   folderID,
		createdAt:  time.Now().UnixMilli(),
	}, nil
}

// Reconstruct creates a Media without validation (storage hydration).
func Reconstruct(id, siloID, name string, sourceType SourceType, sourceURL, language string,
	duration float64, status Status, errorMessage, folderID string, createdAt, processedAt int64,
) Media {
	return Media{
		id:           id,
		siloID:       siloID,
		name:         name,
		sourceType:   sourceType,
		sourceURL:    sourceURL,
		duration:     duration,
		language:     language,
		status:       status,
		errorMessage: errorMessage,
		folderID:     folderID,
		createdAt:    createdAt,
		processedAt:  processedAt,
	}
}

// ID returns the media identifier.
func (m Media) ID() string { return m.id }

// SiloID returns the owning silo.
func (m Media) SiloID() string { return m.siloID }

// Name returns the media name.
func (m Media) Name() string { return m.name }

// SourceType returns the source type.
func (m Media) SourceType() SourceType { return m.sourceType }

// SourceURL returns the source URL, empty for uploads.
func (m Media) SourceURL() string { return m.sourceURL }

// Duration returns the media duration in seconds, 0 if unknown.
func (m Media) Duration() float64 { return m.duration }

// Language returns the media language tag.
func (m Media) Language() string { return m.language }

// Status returns the processing status.
func (m Media) Status() Status { return m.status }

// ErrorMessage returns the failure message, empty unless status is failed.
func (m Media) ErrorMessage() string { return m.errorMessage }

// FolderID returns the optional folder grouping.
func (m Media) FolderID() string { return m.folderID }

// CreatedAt returns the creation timestamp (unix millis).
func (m Media) CreatedAt() int64 { return m.createdAt }

// ProcessedAt returns the completion timestamp (unix millis), 0 until done/failed.
func (m Media) ProcessedAt() int64 { return m.processedAt }

// BeginProcessing transitions to processing. Allowed from pending and,
// re-entrantly, from done or failed (re-ingestion). The previous error
// message is cleared.
func (m Media) BeginProcessing() (Media, error) {
	if !m.status.canTransition(StatusProcessing) {
		return Media{}, transitionError(m.status, StatusProcessing)
	}
	m.status = StatusProcessing
	m.errorMessage = ""
	m.processedAt = 0
	return m, nil
}

// Complete transitions processing -> done and stamps processedAt.
func (m Media) Complete(at time.Time) (Media, error) {
	if !m.status.canTransition(StatusDone) {
		return Media{}, transitionError(m.status, StatusDone)
	}
	m.status = StatusDone
	m.processedAt = at.UnixMilli()
	return m, nil
}

// Fail transitions processing -> failed with a non-empty message and stamps processedAt.
func (m Media) Fail(message string, at time.Time) (Media, error) {
	if !m.status.canTransition(StatusFailed) {
		return Media{}, transitionError(m.status, StatusFailed)
	}
	if message == "" {
		return Media{}, fmt.Errorf("failure message is required: %w", domain.ErrInvalidInput)
	}
	m.status = StatusFailed
	m.errorMessage = message
	m.processedAt = at.UnixMilli()
	return m, nil
}
