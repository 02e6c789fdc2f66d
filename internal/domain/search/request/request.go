// Package request models a validated search request.
package request

import (
	"fmt"

	"github.com/silodex/silodex/internal/domain/search/filter"
)

// MaxQuerySize is the maximum query length in bytes.
const MaxQuerySize = 8192

// Request is a silo-scoped search request.
type Request struct {
	siloID  string
	query   string
	filters filter.Expression
	page    int
	perPage int
}

// New validates and creates a search Request. Page and perPage carry raw
// client values; clamping to configured limits happens in the search engine.
func New(siloID, query string, filters filter.Expression, page, perPage int) (Request, error) {
	if siloID == "" {
		return Request{}, fmt.Errorf("silo id is required")
	}
	if query == "" {
		return Request{}, fmt.Errorf("query is required")
	}
	if len(query) > MaxQuerySize {
		return Request{}, fmt.Errorf("query exceeds maximum size of %d bytes", MaxQuerySize)
	}
	if page < 0 {
		return Request{}, fmt.Errorf("page must not be negative")
	}
	if perPage < 0 {
		return Request{}, fmt.Errorf("per_page must not be negative")
	}
	return Request{siloID: siloID, query: query, filters: filters, page: page, perPage: perPage}, nil
}

// SiloID returns the silo scope.
func (r Request) SiloID() string { return r.siloID }

// Query returns the query text.
func (r Request) Query() string { return r.query }

// Filters returns the metadata filter expression.
func (r Request) Filters() filter.Expression { return r.filters }

// Page returns the requested page number.
func (r Request) Page() int { return r.page }

// PerPage returns the requested page size.
func (r Request) PerPage() int { return r.perPage }
