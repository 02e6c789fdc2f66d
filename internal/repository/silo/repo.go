// Package silo persists silos and their crawl domains as Redis hashes.
package silo

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/silodex/silodex/internal/domain"
	domsilo "github.com/silodex/silodex/internal/domain/silo"
)

// store is the consumer interface for silo persistence (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements usecase/silo.Repository.
type Repo struct {
	store  store
	prefix string
}

// New creates a silo repository.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix}
}

// Create persists a new silo. Fails if the ID is taken.
func (r *Repo) Create(ctx context.Context, s domsilo.Silo) error {
	key := r.siloKey(s.ID())

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if exists {
		return domain.ErrAlreadyExists
	}

	if err := r.store.HSet(ctx, key, siloToFields(s)); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// Get returns a silo by ID.
func (r *Repo) Get(ctx context.Context, id string) (domsilo.Silo, error) {
	key := r.siloKey(id)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return domsilo.Silo{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(m) == 0 {
		return domsilo.Silo{}, domain.ErrSiloNotFound
	}
	return fieldsToSilo(id, m), nil
}

// List returns all silos sorted by ID.
func (r *Repo) List(ctx context.Context) ([]domsilo.Silo, error) {
	keys, err := r.store.Scan(ctx, r.prefix+"silo:*")
	if err != nil {
		return nil, fmt.Errorf("scan silos: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}
	sort.Strings(keys)

	maps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch silos: %w", err)
	}

	silos := make([]domsilo.Silo, 0, len(maps))
	for i, m := range maps {
		if len(m) == 0 {
			continue
		}
		id := strings.TrimPrefix(keys[i], r.prefix+"silo:")
		silos = append(silos, fieldsToSilo(id, m))
	}
	return silos, nil
}

// Delete removes a silo hash. Cascading media and chunk removal is the
// caller's responsibility.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := r.siloKey(id)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrSiloNotFound
	}

	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// CreateDomain persists a crawl domain under its silo.
func (r *Repo) CreateDomain(ctx context.Context, d domsilo.Domain) error {
	key := r.domainKey(d.SiloID(), d.ID())
	if err := r.store.HSet(ctx, key, domainToFields(d)); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// ListDomains returns the crawl domains of a silo sorted by ID.
func (r *Repo) ListDomains(ctx context.Context, siloID string) ([]domsilo.Domain, error) {
	keys, err := r.store.Scan(ctx, r.prefix+"domain:"+siloID+":*")
	if err != nil {
		return nil, fmt.Errorf("scan domains: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}
	sort.Strings(keys)

	maps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch domains: %w", err)
	}

	domains := make([]domsilo.Domain, 0, len(maps))
	for i, m := range maps {
		if len(m) == 0 {
			continue
		}
		id := strings.TrimPrefix(keys[i], r.prefix+"domain:"+siloID+":")
		domains = append(domains, fieldsToDomain(id, siloID, m))
	}
	return domains, nil
}

// DeleteDomain removes a crawl domain.
func (r *Repo) DeleteDomain(ctx context.Context, siloID, id string) error {
	key := r.domainKey(siloID, id)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrDomainNotFound
	}

	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

func (r *Repo) siloKey(id string) string {
	return r.prefix + "silo:" + id
}

func (r *Repo) domainKey(siloID, id string) string {
	return r.prefix + "domain:" + siloID + ":" + id
}
