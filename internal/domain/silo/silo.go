// Package silo holds the silo aggregate: the isolation boundary for search
// scope, grouping crawl domains and ingested media per application.
package silo

import (
	"fmt"
	"regexp"
	"time"

	"github.com/silodex/silodex/internal/domain"
)

var (
	idRegex    = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	fieldRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)
)

// reservedFields are chunk hash fields owned by the engine. User metadata
// fields must not collide with them.
var reservedFields = map[string]bool{
	"__content":   true,
	"__vector":    true,
	"media_id":    true,
	"chunk_index": true,
	"start_time":  true,
	"end_time":    true,
	"created_at":  true,
}

// IsReservedField reports whether name is an engine-owned chunk field.
func IsReservedField(name string) bool { return reservedFields[name] }

// Silo is an immutable value object. Queries never cross silo boundaries.
type Silo struct {
	id           string
	name         string
	baseURL      string
	contentTag   string
	contentClass string
	contentID    string
	appID        string
	tagFields    []string
	numFields    []string
	createdAt    int64 // unix millis
}

// New validates and creates a Silo.
// ID: ^[a-zA-Z0-9_-]+$, 1-64 chars (it becomes part of index names and keys).
// tagFields and numFields declare the searchable user metadata schema for the
// silo's chunk index.
func New(id, name, baseURL, contentTag, contentClass, contentID, appID string,
	tagFields, numFields []string,
) (Silo, error) {
	if id == "" {
		return Silo{}, fmt.Errorf("silo ID is required: %w", domain.ErrInvalidInput)
	}
	if len(id) > 64 {
		return Silo{}, fmt.Errorf("silo ID too long (max 64): %w", domain.ErrInvalidInput)
	}
	if !idRegex.MatchString(id) {
		return Silo{}, fmt.Errorf(
			"silo ID must be alphanumeric with underscores and hyphens: %w", domain.ErrInvalidInput,
		)
	}
	if name == "" {
		return Silo{}, fmt.Errorf("silo name is required: %w", domain.ErrInvalidInput)
	}
	if err := validateFields(tagFields, numFields); err != nil {
		return Silo{}, err
	}

	return Silo{
		id:           id,
		name:         name,
		baseURL:      baseURL,
		contentTag:   contentTag,
		contentClass: contentClass,
		contentID:    contentID,
		appID:        appID,
		tagFields:    tagFields,
		numFields:    numFields,
		createdAt:    time.Now().UnixMilli(),
	}, nil
}

func validateFields(tagFields, numFields []string) error {
	seen := make(map[string]bool, len(tagFields)+len(numFields))
	for _, f := range append(append([]string{}, tagFields...), numFields...) {
		if !fieldRegex.MatchString(f) {
			return fmt.Errorf("invalid metadata field name %q: %w", f, domain.ErrInvalidInput)
		}
		if IsReservedField(f) {
			return fmt.Errorf("metadata field %q is reserved: %w", f, domain.ErrInvalidInput)
		}
		if seen[f] {
			return fmt.Errorf("duplicate metadata field %q: %w", f, domain.ErrInvalidInput)
		}
		seen[f] = true
	}
	return nil
}

// ValidateMetadata checks source-supplied chunk metadata against the silo's
// declared schema. Keys colliding with engine-owned fields or absent from the
// declaration never reach the chunk index.
func (s Silo) ValidateMetadata(tags map[string]string, numerics map[string]float64) error {
	declared := make(map[string]bool, len(s.tagFields))
	for _, f := range s.tagFields {
		declared[f] = true
	}
	for k := range tags {
		if IsReservedField(k) {
			return fmt.Errorf("tag field %q is reserved: %w", k, domain.ErrInvalidInput)
		}
		if !declared[k] {
			return fmt.Errorf("tag field %q is not declared on silo %s: %w", k, s.id, domain.ErrInvalidInput)
		}
	}

	declaredNum := make(map[string]bool, len(s.numFields))
	for _, f := range s.numFields {
		declaredNum[f] = true
	}
	for k := range numerics {
		if IsReservedField(k) {
			return fmt.Errorf("numeric field %q is reserved: %w", k, domain.ErrInvalidInput)
		}
		if !declaredNum[k] {
			return fmt.Errorf("numeric field %q is not declared on silo %s: %w", k, s.id, domain.ErrInvalidInput)
		}
	}
	return nil
}

// Reconstruct creates a Silo without validation (storage hydration).
func Reconstruct(id, name, baseURL, contentTag, contentClass, contentID, appID string,
	tagFields, numFields []string, createdAt int64,
) Silo {
	return Silo{
		id: id, name: name, baseURL: baseURL,
		contentTag: contentTag, contentClass: contentClass, contentID: contentID,
		appID: appID, tagFields: tagFields, numFields: numFields, createdAt: createdAt,
	}
}

// ID returns the silo identifier.
func (s Silo) ID() string { return s.id }

// Name returns the silo name.
func (s Silo) Name() string { return s.name }

// BaseURL returns the silo base URL.
func (s Silo) BaseURL() string { return s.baseURL }

// ContentTag returns the content-extraction tag selector.
func (s Silo) ContentTag() string { return s.contentTag }

// ContentClass returns the content-extraction class selector.
func (s Silo) ContentClass() string { return s.contentClass }

// ContentID returns the content-extraction id selector.
func (s Silo) ContentID() string { return s.contentID }

// AppID returns the owning application.
func (s Silo) AppID() string { return s.appID }

// TagFields returns the declared user TAG metadata fields.
func (s Silo) TagFields() []string { return s.tagFields }

// NumericFields returns the declared user NUMERIC metadata fields.
func (s Silo) NumericFields() []string { return s.numFields }

// IsNumericField reports whether name is a declared NUMERIC metadata field.
func (s Silo) IsNumericField(name string) bool {
	for _, f := range s.numFields {
		if f == name {
			return true
		}
	}
	return false
}

// CreatedAt returns the creation timestamp (unix millis).
func (s Silo) CreatedAt() int64 { return s.createdAt }
