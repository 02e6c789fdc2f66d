// Package silo handles silo and crawl-domain lifecycle.
package silo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domsilo "github.com/silodex/silodex/internal/domain/silo"
)

// CreateParams carries the client-supplied silo attributes.
type CreateParams struct {
	Name          string
	BaseURL       string
	ContentTag    string
	ContentClass  string
	ContentID     string
	AppID         string
	TagFields     []string
	NumericFields []string
}

// DomainParams carries the client-supplied crawl-domain attributes.
type DomainParams struct {
	Name string
	URL  string
}

// Service handles silo CRUD and the per-silo search index lifecycle.
type Service struct {
	repo   Repository
	chunks ChunkIndex
	media  MediaStore
	logger *zap.Logger
}

// New creates a silo service.
func New(repo Repository, chunks ChunkIndex, media MediaStore, logger *zap.Logger) *Service {
	return &Service{repo: repo, chunks: chunks, media: media, logger: logger}
}

// Create validates and stores a new silo and creates its chunk index.
// The silo record is rolled back when index creation fails.
func (s *Service) Create(ctx context.Context, p CreateParams) (domsilo.Silo, error) {
	sl, err := domsilo.New(
		uuid.NewString(), p.Name, p.BaseURL,
		p.ContentTag, p.ContentClass, p.ContentID, p.AppID,
		p.TagFields, p.NumericFields,
	)
	if err != nil {
		return domsilo.Silo{}, fmt.Errorf("validate silo: %w", err)
	}

	if err := s.repo.Create(ctx, sl); err != nil {
		return domsilo.Silo{}, fmt.Errorf("create silo: %w", err)
	}

	if err := s.chunks.EnsureIndex(ctx, sl); err != nil {
		if delErr := s.repo.Delete(ctx, sl.ID()); delErr != nil {
			s.logger.Error("Failed to roll back silo after index creation failure",
				zap.String("silo_id", sl.ID()), zap.Error(delErr))
		}
		return domsilo.Silo{}, fmt.Errorf("create silo index: %w", err)
	}

	return sl, nil
}

// Get retrieves a silo by ID.
func (s *Service) Get(ctx context.Context, id string) (domsilo.Silo, error) {
	sl, err := s.repo.Get(ctx, id)
	if err != nil {
		return domsilo.Silo{}, fmt.Errorf("get silo: %w", err)
	}
	return sl, nil
}

// List returns all silos.
func (s *Service) List(ctx context.Context) ([]domsilo.Silo, error) {
	silos, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list silos: %w", err)
	}
	return silos, nil
}

// Delete removes a silo with all its media, chunks, domains, and the
// search index.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return fmt.Errorf("get silo: %w", err)
	}

	items, err := s.media.List(ctx, id)
	if err != nil {
		return fmt.Errorf("list silo media: %w", err)
	}
	for _, m := range items {
		if err := s.chunks.Delete(ctx, id, m.ID()); err != nil {
			return fmt.Errorf("delete chunks of media %s: %w", m.ID(), err)
		}
		if err := s.media.Delete(ctx, id, m.ID()); err != nil {
			return fmt.Errorf("delete media %s: %w", m.ID(), err)
		}
	}

	domains, err := s.repo.ListDomains(ctx, id)
	if err != nil {
		return fmt.Errorf("list silo domains: %w", err)
	}
	for _, d := range domains {
		if err := s.repo.DeleteDomain(ctx, id, d.ID()); err != nil {
			return fmt.Errorf("delete domain %s: %w", d.ID(), err)
		}
	}

	if err := s.chunks.DropIndex(ctx, id); err != nil {
		return fmt.Errorf("drop silo index: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete silo: %w", err)
	}
	return nil
}

// CreateDomain registers a crawl domain under an existing silo.
func (s *Service) CreateDomain(ctx context.Context, siloID string, p DomainParams) (domsilo.Domain, error) {
	if _, err := s.repo.Get(ctx, siloID); err != nil {
		return domsilo.Domain{}, fmt.Errorf("get silo: %w", err)
	}

	d, err := domsilo.NewDomain(uuid.NewString(), siloID, p.Name, p.URL)
	if err != nil {
		return domsilo.Domain{}, fmt.Errorf("validate domain: %w", err)
	}

	if err := s.repo.CreateDomain(ctx, d); err != nil {
		return domsilo.Domain{}, fmt.Errorf("create domain: %w", err)
	}
	return d, nil
}

// ListDomains returns the crawl domains of a silo.
func (s *Service) ListDomains(ctx context.Context, siloID string) ([]domsilo.Domain, error) {
	if _, err := s.repo.Get(ctx, siloID); err != nil {
		return nil, fmt.Errorf("get silo: %w", err)
	}

	domains, err := s.repo.ListDomains(ctx, siloID)
	if err != nil {
		return nil, fmt.Errorf("list domains: %w", err)
	}
	return domains, nil
}

// DeleteDomain removes a crawl domain.
func (s *Service) DeleteDomain(ctx context.Context, siloID, id string) error {
	if err := s.repo.DeleteDomain(ctx, siloID, id); err != nil {
		return fmt.Errorf("delete domain: %w", err)
	}
	return nil
}
