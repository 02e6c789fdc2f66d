// Package media serves media record queries and removal with chunk cascade.
package media

import (
	"context"
	"fmt"

	domchunk "github.com/silodex/silodex/internal/domain/chunk"
	dommedia "github.com/silodex/silodex/internal/domain/media"
)

// ListFilter narrows media listings. Zero values match everything.
type ListFilter struct {
	Status   dommedia.Status
	FolderID string
}

// Page is one page of media records with the pre-pagination total.
type Page struct {
	Items   []dommedia.Media
	Total   int
	Page    int
	PerPage int
}

// Service handles media queries, listing, and deletion.
type Service struct {
	repo            Repository
	silos           SiloReader
	chunks          ChunkStore
	defaultPageSize int
	maxPageSize     int
}

// New creates a media service.
func New(repo Repository, silos SiloReader, chunks ChunkStore, defaultPageSize, maxPageSize int) *Service {
	return &Service{
		repo:            repo,
		silos:           silos,
		chunks:          chunks,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// Get retrieves one media record.
func (s *Service) Get(ctx context.Context, siloID, id string) (dommedia.Media, error) {
	if _, err := s.silos.Get(ctx, siloID); err != nil {
		return dommedia.Media{}, fmt.Errorf("get silo: %w", err)
	}

	m, err := s.repo.Get(ctx, siloID, id)
	if err != nil {
		return dommedia.Media{}, fmt.Errorf("get media: %w", err)
	}
	return m, nil
}

// List returns a filtered page of media, newest first.
func (s *Service) List(ctx context.Context, siloID string, f ListFilter, page, perPage int) (Page, error) {
	if _, err := s.silos.Get(ctx, siloID); err != nil {
		return Page{}, fmt.Errorf("get silo: %w", err)
	}

	items, err := s.repo.List(ctx, siloID)
	if err != nil {
		return Page{}, fmt.Errorf("list media: %w", err)
	}

	filtered := items[:0]
	for _, m := range items {
		if f.Status != "" && m.Status() != f.Status {
			continue
		}
		if f.FolderID != "" && m.FolderID() != f.FolderID {
			continue
		}
		filtered = append(filtered, m)
	}

	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = s.defaultPageSize
	}
	if perPage > s.maxPageSize {
		perPage = s.maxPageSize
	}

	total := len(filtered)
	from := (page - 1) * perPage
	if from > total {
		from = total
	}
	to := from + perPage
	if to > total {
		to = total
	}

	return Page{Items: filtered[from:to], Total: total, Page: page, PerPage: perPage}, nil
}

// Chunks returns the media's chunk set ordered by chunk index.
func (s *Service) Chunks(ctx context.Context, siloID, mediaID string) ([]domchunk.Chunk, error) {
	sl, err := s.silos.Get(ctx, siloID)
	if err != nil {
		return nil, fmt.Errorf("get silo: %w", err)
	}
	if _, err := s.repo.Get(ctx, siloID, mediaID); err != nil {
		return nil, fmt.Errorf("get media: %w", err)
	}

	chunks, err := s.chunks.Get(ctx, sl, mediaID)
	if err != nil {
		return nil, fmt.Errorf("get chunks: %w", err)
	}
	return chunks, nil
}

// Delete removes a media record together with its chunk set.
func (s *Service) Delete(ctx context.Context, siloID, id string) error {
	if _, err := s.repo.Get(ctx, siloID, id); err != nil {
		return fmt.Errorf("get media: %w", err)
	}

	if err := s.chunks.Delete(ctx, siloID, id); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	if err := s.repo.Delete(ctx, siloID, id); err != nil {
		return fmt.Errorf("delete media: %w", err)
	}
	return nil
}

// Count returns the number of indexed chunks in a silo.
func (s *Service) Count(ctx context.Context, siloID string) (int, error) {
	if _, err := s.silos.Get(ctx, siloID); err != nil {
		return 0, fmt.Errorf("get silo: %w", err)
	}

	count, err := s.chunks.Count(ctx, siloID)
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return count, nil
}
