package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/silodex/silodex/internal/domain"
	dommedia "github.com/silodex/silodex/internal/domain/media"
	"github.com/silodex/silodex/internal/domain/search/filter"
	"github.com/silodex/silodex/internal/domain/search/request"
	healthuc "github.com/silodex/silodex/internal/usecase/health"
	ingestuc "github.com/silodex/silodex/internal/usecase/ingest"
	mediauc "github.com/silodex/silodex/internal/usecase/media"
	searchuc "github.com/silodex/silodex/internal/usecase/search"
	silouc "github.com/silodex/silodex/internal/usecase/silo"
	statusuc "github.com/silodex/silodex/internal/usecase/status"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server is the HTTP API surface over the usecase services.
type Server struct {
	silos         *silouc.Service
	media         *mediauc.Service
	ingest        *ingestuc.Service
	status        *statusuc.Tracker
	search        *searchuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	silos *silouc.Service,
	media *mediauc.Service,
	ingest *ingestuc.Service,
	status *statusuc.Tracker,
	search *searchuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		silos:  silos,
		media:  media,
		ingest: ingest,
		status: status,
		search: search,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		busyHandler,
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrSiloNotFound, http.StatusNotFound, codeSiloNotFound),
		sentinelHandler(domain.ErrMediaNotFound, http.StatusNotFound, codeMediaNotFound),
		sentinelHandler(domain.ErrDomainNotFound, http.StatusNotFound, codeDomainNotFound),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, codeAlreadyExists),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited),
		sentinelHandler(domain.ErrEmbeddingQuotaExceeded, http.StatusPaymentRequired, codeEmbeddingQuota),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProviderError),
	}
	return s
}

// RegisterRoutes mounts all API routes on the given router.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/silos", func(r chi.Router) {
		r.Post("/", s.CreateSilo)
		r.Get("/", s.ListSilos)

		r.Route("/{silo}", func(r chi.Router) {
			r.Get("/", s.GetSilo)
			r.Delete("/", s.DeleteSilo)
			r.Get("/count", s.CountMedia)
			r.Post("/search", s.SearchChunks)

			r.Route("/domains", func(r chi.Router) {
				r.Post("/", s.CreateDomain)
				r.Get("/", s.ListDomains)
				r.Delete("/{domain}", s.DeleteDomain)
			})

			r.Route("/media", func(r chi.Router) {
				r.Post("/", s.UploadMedia)
				r.Get("/", s.ListMedia)

				r.Route("/{media}", func(r chi.Router) {
					r.Get("/", s.GetMedia)
					r.Delete("/", s.DeleteMedia)
					r.Get("/status", s.MediaStatus)
					r.Post("/reindex", s.ReindexMedia)
					r.Get("/chunks", s.ListChunks)
				})
			})
		})
	})
}

// CreateSilo handles POST /silos.
func (s *Server) CreateSilo(w http.ResponseWriter, r *http.Request) {
	var req SiloRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Silo name is required")
		return
	}

	sl, err := s.silos.Create(r.Context(), silouc.CreateParams{
		Name:          req.Name,
		BaseURL:       req.BaseURL,
		ContentTag:    req.ContentTag,
		ContentClass:  req.ContentClass,
		ContentID:     req.ContentID,
		AppID:         req.AppID,
		TagFields:     req.TagFields,
		NumericFields: req.NumericFields,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, siloToDTO(sl))
}

// ListSilos handles GET /silos.
func (s *Server) ListSilos(w http.ResponseWriter, r *http.Request) {
	sls, err := s.silos.List(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]SiloResponse, len(sls))
	for i, sl := range sls {
		items[i] = siloToDTO(sl)
	}
	writeJSON(w, http.StatusOK, SiloListResponse{Items: items, Total: len(items)})
}

// GetSilo handles GET /silos/{silo}.
func (s *Server) GetSilo(w http.ResponseWriter, r *http.Request) {
	sl, err := s.silos.Get(r.Context(), chi.URLParam(r, "silo"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, siloToDTO(sl))
}

// DeleteSilo handles DELETE /silos/{silo}. Cascades media, chunks, domains,
// and the search index.
func (s *Server) DeleteSilo(w http.ResponseWriter, r *http.Request) {
	if err := s.silos.Delete(r.Context(), chi.URLParam(r, "silo")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateDomain handles POST /silos/{silo}/domains.
func (s *Server) CreateDomain(w http.ResponseWriter, r *http.Request) {
	var req DomainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	d, err := s.silos.CreateDomain(r.Context(), chi.URLParam(r, "silo"), silouc.DomainParams{
		Name: req.Name,
		URL:  req.URL,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, domainToDTO(d))
}

// ListDomains handles GET /silos/{silo}/domains.
func (s *Server) ListDomains(w http.ResponseWriter, r *http.Request) {
	ds, err := s.silos.ListDomains(r.Context(), chi.URLParam(r, "silo"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]DomainResponse, len(ds))
	for i, d := range ds {
		items[i] = domainToDTO(d)
	}
	writeJSON(w, http.StatusOK, DomainListResponse{Items: items, Total: len(items)})
}

// DeleteDomain handles DELETE /silos/{silo}/domains/{domain}.
func (s *Server) DeleteDomain(w http.ResponseWriter, r *http.Request) {
	err := s.silos.DeleteDomain(r.Context(), chi.URLParam(r, "silo"), chi.URLParam(r, "domain"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadMedia handles POST /silos/{silo}/media. Items are accepted and
// queued independently; the response reports both outcomes per item.
func (s *Server) UploadMedia(w http.ResponseWriter, r *http.Request) {
	var req MediaUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	items := make([]ingestuc.UploadItem, len(req.Files))
	for i, f := range req.Files {
		items[i] = ingestuc.UploadItem{
			Name:       f.Name,
			SourceType: dommedia.SourceType(f.SourceType),
			SourceURL:  f.SourceURL,
			Language:   f.Language,
			Duration:   f.Duration,
			FolderID:   f.FolderID,
		}
	}

	res, err := s.ingest.Upload(r.Context(), chi.URLParam(r, "silo"), items)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, uploadResultToDTO(res))
}

// ListMedia handles GET /silos/{silo}/media.
func (s *Server) ListMedia(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var f mediauc.ListFilter
	if v := q.Get("status"); v != "" {
		st := dommedia.Status(v)
		if !st.IsValid() {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "unknown status "+strconv.Quote(v))
			return
		}
		f.Status = st
	}
	f.FolderID = q.Get("folder_id")

	page, err := queryInt(q.Get("page"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "page must be an integer")
		return
	}
	perPage, err := queryInt(q.Get("per_page"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "per_page must be an integer")
		return
	}

	p, err := s.media.List(r.Context(), chi.URLParam(r, "silo"), f, page, perPage)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, mediaPageToDTO(p))
}

// GetMedia handles GET /silos/{silo}/media/{media}.
func (s *Server) GetMedia(w http.ResponseWriter, r *http.Request) {
	m, err := s.media.Get(r.Context(), chi.URLParam(r, "silo"), chi.URLParam(r, "media"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mediaToDTO(m))
}

// DeleteMedia handles DELETE /silos/{silo}/media/{media}.
func (s *Server) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	err := s.media.Delete(r.Context(), chi.URLParam(r, "silo"), chi.URLParam(r, "media"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MediaStatus handles GET /silos/{silo}/media/{media}/status.
func (s *Server) MediaStatus(w http.ResponseWriter, r *http.Request) {
	m, err := s.status.Status(r.Context(), chi.URLParam(r, "silo"), chi.URLParam(r, "media"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp := MediaStatusResponse{
		MediaID:      m.ID(),
		Status:       string(m.Status()),
		ErrorMessage: m.ErrorMessage(),
	}
	if m.ProcessedAt() > 0 {
		at := time.UnixMilli(m.ProcessedAt()).UTC()
		resp.ProcessedAt = &at
	}
	writeJSON(w, http.StatusOK, resp)
}

// ReindexMedia handles POST /silos/{silo}/media/{media}/reindex.
func (s *Server) ReindexMedia(w http.ResponseWriter, r *http.Request) {
	err := s.ingest.Reindex(r.Context(), chi.URLParam(r, "silo"), chi.URLParam(r, "media"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// ListChunks handles GET /silos/{silo}/media/{media}/chunks.
func (s *Server) ListChunks(w http.ResponseWriter, r *http.Request) {
	chunks, err := s.media.Chunks(r.Context(), chi.URLParam(r, "silo"), chi.URLParam(r, "media"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]ChunkResponse, len(chunks))
	for i := range chunks {
		items[i] = chunkToDTO(chunks[i])
	}
	writeJSON(w, http.StatusOK, ChunkListResponse{Items: items, Total: len(items)})
}

// SearchChunks handles POST /silos/{silo}/search.
func (s *Server) SearchChunks(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	filters, err := filtersFromDTO(req.Filters)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	sr, err := request.New(chi.URLParam(r, "silo"), req.Query, filters, req.Page, req.PerPage)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	page, err := s.search.Search(r.Context(), sr)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchPageToDTO(page))
}

// CountMedia handles GET /silos/{silo}/count.
func (s *Server) CountMedia(w http.ResponseWriter, r *http.Request) {
	count, err := s.media.Count(r.Context(), chi.URLParam(r, "silo"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: count})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

func filtersFromDTO(conds []FilterCondition) (filter.Expression, error) {
	if len(conds) == 0 {
		return filter.Expression{}, nil
	}

	out := make([]filter.Condition, 0, len(conds))
	for _, c := range conds {
		cond, err := conditionFromDTO(c)
		if err != nil {
			return filter.Expression{}, err
		}
		out = append(out, cond)
	}

	expr, err := filter.NewExpression(out)
	if err != nil {
		return filter.Expression{}, fmt.Errorf("new expression: %w", err)
	}
	return expr, nil
}

func conditionFromDTO(c FilterCondition) (filter.Condition, error) {
	if c.Match != nil && c.Range != nil {
		return filter.Condition{},
			fmt.Errorf("filter condition for %q must have match or range, not both", c.Key)
	}
	if c.Match != nil {
		cond, err := filter.NewMatch(c.Key, *c.Match)
		if err != nil {
			return filter.Condition{}, fmt.Errorf("match filter: %w", err)
		}
		return cond, nil
	}
	if c.Range != nil {
		rf, err := filter.NewRangeFilter(c.Range.Gt, c.Range.Gte, c.Range.Lt, c.Range.Lte)
		if err != nil {
			return filter.Condition{}, fmt.Errorf("range filter: %w", err)
		}
		cond, err := filter.NewRange(c.Key, rf)
		if err != nil {
			return filter.Condition{}, fmt.Errorf("range condition: %w", err)
		}
		return cond, nil
	}
	return filter.Condition{},
		errors.New("filter condition must have either match or range")
}

func queryInt(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidInput,
		domain.ErrSiloNotFound,
		domain.ErrMediaNotFound,
		domain.ErrDomainNotFound,
		domain.ErrAlreadyExists,
		domain.ErrIngestBusy,
		domain.ErrRateLimited,
		domain.ErrEmbeddingQuotaExceeded,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// busyHandler handles ErrIngestBusy with a Retry-After hint and the media id.
func busyHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrIngestBusy) {
		return false
	}
	w.Header().Set("Retry-After", "5")
	var be *domain.BusyError
	if errors.As(err, &be) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"code":     codeIngestBusy,
			"message":  msg,
			"media_id": be.MediaID,
		})
		return true
	}
	writeError(w, http.StatusConflict, codeIngestBusy, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
