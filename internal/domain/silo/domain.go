package silo

import (
	"fmt"
	"net/url"
	"time"

	"github.com/silodex/silodex/internal/domain"
)

// Domain is a crawl/source domain within a silo. One silo has many domains;
// one domain produces many ingested documents.
type Domain struct {
	id        string
	siloID    string
	name      string
	url       string
	createdAt int64 // unix millis
}

// NewDomain validates and creates a Domain.
func NewDomain(id, siloID, name, rawURL string) (Domain, error) {
	if id == "" {
		return Domain{}, fmt.Errorf("domain ID is required: %w", domain.ErrInvalidInput)
	}
	if siloID == "" {
		return Domain{}, fmt.Errorf("silo ID is required: %w", domain.ErrInvalidInput)
	}
	if name == "" {
		return Domain{}, fmt.Errorf("domain name is required: %w", domain.ErrInvalidInput)
	}
	if rawURL != "" {
		if _, err := url.ParseRequestURI(rawURL); err != nil {
			return Domain{}, fmt.Errorf("invalid domain URL %q: %w", rawURL, domain.ErrInvalidInput)
		}
	}

	return Domain{
		id:        id,
		siloID:    siloID,
		name:      name,
		url:       rawURL,
		createdAt: time.Now().UnixMilli(),
	}, nil
}

// ReconstructDomain creates a Domain without validation (storage hydration).
func ReconstructDomain(id, siloID, name, rawURL string, createdAt int64) Domain {
	return Domain{id: id, siloID: siloID, name: name, url: rawURL, createdAt: createdAt}
}

// ID returns the domain identifier.
func (d Domain) ID() string { return d.id }

// SiloID returns the owning silo.
func (d Domain) SiloID() string { return d.siloID }

// Name returns the domain name.
func (d Domain) Name() string { return d.name }

// URL returns the domain URL.
func (d Domain) URL() string { return d.url }

// CreatedAt returns the creation timestamp (unix millis).
func (d Domain) CreatedAt() int64 { return d.createdAt }
