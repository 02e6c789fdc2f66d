package chi

import (
	"time"

	domchunk "github.com/silodex/silodex/internal/domain/chunk"
	dommedia "github.com/silodex/silodex/internal/domain/media"
	"github.com/silodex/silodex/internal/domain/search/result"
	domsilo "github.com/silodex/silodex/internal/domain/silo"
	ingestuc "github.com/silodex/silodex/internal/usecase/ingest"
	mediauc "github.com/silodex/silodex/internal/usecase/media"
)

// ErrorResponse is the JSON error envelope for all non-2xx responses.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error response codes.
const (
	codeBadRequest             = "bad_request"
	codeValidationFailed       = "validation_failed"
	codeSiloNotFound           = "silo_not_found"
	codeMediaNotFound          = "media_not_found"
	codeDomainNotFound         = "domain_not_found"
	codeAlreadyExists          = "already_exists"
	codeIngestBusy             = "ingest_busy"
	codeRateLimited            = "rate_limited"
	codeEmbeddingQuota         = "embedding_quota_exceeded"
	codeEmbeddingProviderError = "embedding_provider_error"
	codeInternalError          = "internal_error"
)

// SiloRequest is the POST /silos payload.
type SiloRequest struct {
	Name          string   `json:"name"`
	BaseURL       string   `json:"base_url,omitempty"`
	ContentTag    string   `json:"content_tag,omitempty"`
	ContentClass  string   `json:"content_class,omitempty"`
	ContentID     string   `json:"content_id,omitempty"`
	AppID         string   `json:"app_id,omitempty"`
	TagFields     []string `json:"tag_fields,omitempty"`
	NumericFields []string `json:"numeric_fields,omitempty"`
}

// SiloResponse is one silo record.
type SiloResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	BaseURL       string    `json:"base_url,omitempty"`
	ContentTag    string    `json:"content_tag,omitempty"`
	ContentClass  string    `json:"content_class,omitempty"`
	ContentID     string    `json:"content_id,omitempty"`
	AppID         string    `json:"app_id,omitempty"`
	TagFields     []string  `json:"tag_fields,omitempty"`
	NumericFields []string  `json:"numeric_fields,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// SiloListResponse wraps GET /silos.
type SiloListResponse struct {
	Items []SiloResponse `json:"items"`
	Total int            `json:"total"`
}

// DomainRequest is the POST /silos/{silo}/domains payload.
type DomainRequest struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// DomainResponse is one crawl-domain record.
type DomainResponse struct {
	ID        string    `json:"id"`
	SiloID    string    `json:"silo_id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// DomainListResponse wraps GET /silos/{silo}/domains.
type DomainListResponse struct {
	Items []DomainResponse `json:"items"`
	Total int              `json:"total"`
}

// MediaUploadItem is one entry of the batch upload payload.
type MediaUploadItem struct {
	Name       string  `json:"name"`
	SourceType string  `json:"source_type"`
	SourceURL  string  `json:"source_url,omitempty"`
	Language   string  `json:"language,omitempty"`
	Duration   float64 `json:"duration,omitempty"`
	FolderID   string  `json:"folder_id,omitempty"`
}

// MediaUploadRequest is the POST /silos/{silo}/media payload.
type MediaUploadRequest struct {
	Files []MediaUploadItem `json:"files"`
}

// FailedFileResponse reports one rejected upload entry.
type FailedFileResponse struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// MediaUploadResponse reports per-item batch upload outcomes.
type MediaUploadResponse struct {
	CreatedMedia []MediaResponse      `json:"created_media"`
	FailedFiles  []FailedFileResponse `json:"failed_files"`
}

// MediaResponse is one media record.
type MediaResponse struct {
	ID           string     `json:"id"`
	SiloID       string     `json:"silo_id"`
	Name         string     `json:"name"`
	SourceType   string     `json:"source_type"`
	SourceURL    string     `json:"source_url,omitempty"`
	Language     string     `json:"language,omitempty"`
	Duration     float64    `json:"duration,omitempty"`
	Status       string     `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
	FolderID     string     `json:"folder_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`
}

// MediaListResponse wraps GET /silos/{silo}/media.
type MediaListResponse struct {
	Items   []MediaResponse `json:"items"`
	Total   int             `json:"total"`
	Page    int             `json:"page"`
	PerPage int             `json:"per_page"`
}

// MediaStatusResponse is the GET /silos/{silo}/media/{media}/status payload.
type MediaStatusResponse struct {
	MediaID      string     `json:"media_id"`
	Status       string     `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`
}

// ChunkResponse is one stored chunk.
type ChunkResponse struct {
	MediaID    string             `json:"media_id"`
	ChunkIndex int                `json:"chunk_index"`
	Text       string             `json:"text"`
	StartTime  float64            `json:"start_time"`
	EndTime    float64            `json:"end_time"`
	Tags       map[string]string  `json:"tags,omitempty"`
	Numerics   map[string]float64 `json:"numerics,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

// ChunkListResponse wraps GET /silos/{silo}/media/{media}/chunks.
type ChunkListResponse struct {
	Items []ChunkResponse `json:"items"`
	Total int             `json:"total"`
}

// RangeFilter bounds a numeric field. gt/gte and lt/lte are mutually exclusive.
type RangeFilter struct {
	Gt  *float64 `json:"gt,omitempty"`
	Gte *float64 `json:"gte,omitempty"`
	Lt  *float64 `json:"lt,omitempty"`
	Lte *float64 `json:"lte,omitempty"`
}

// FilterCondition is one metadata filter. Exactly one of Match or Range is set.
type FilterCondition struct {
	Key   string       `json:"key"`
	Match *string      `json:"match,omitempty"`
	Range *RangeFilter `json:"range,omitempty"`
}

// SearchRequest is the POST /silos/{silo}/search payload.
type SearchRequest struct {
	Query   string            `json:"query"`
	Filters []FilterCondition `json:"filters,omitempty"`
	Page    int               `json:"page,omitempty"`
	PerPage int               `json:"per_page,omitempty"`
}

// Doc is one ranked search hit with its metadata flattened for clients.
type Doc struct {
	PageContent string         `json:"page_content"`
	Metadata    map[string]any `json:"metadata"`
	Score       float64        `json:"score"`
}

// SearchResponse is one result page.
type SearchResponse struct {
	Docs    []Doc `json:"docs"`
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	HasNext bool  `json:"has_next"`
	HasPrev bool  `json:"has_prev"`
}

// CountResponse is the GET /silos/{silo}/count payload.
type CountResponse struct {
	Count int `json:"count"`
}

// HealthResponse is the GET /health payload.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func siloToDTO(s domsilo.Silo) SiloResponse {
	return SiloResponse{
		ID:            s.ID(),
		Name:          s.Name(),
		BaseURL:       s.BaseURL(),
		ContentTag:    s.ContentTag(),
		ContentClass:  s.ContentClass(),
		ContentID:     s.ContentID(),
		AppID:         s.AppID(),
		TagFields:     s.TagFields(),
		NumericFields: s.NumericFields(),
		CreatedAt:     time.UnixMilli(s.CreatedAt()).UTC(),
	}
}

func domainToDTO(d domsilo.Domain) DomainResponse {
	return DomainResponse{
		ID:        d.ID(),
		SiloID:    d.SiloID(),
		Name:      d.Name(),
		URL:       d.URL(),
		CreatedAt: time.UnixMilli(d.CreatedAt()).UTC(),
	}
}

func mediaToDTO(m dommedia.Media) MediaResponse {
	resp := MediaResponse{
		ID:           m.ID(),
		SiloID:       m.SiloID(),
		Name:         m.Name(),
		SourceType:   string(m.SourceType()),
		SourceURL:    m.SourceURL(),
		Language:     m.Language(),
		Duration:     m.Duration(),
		Status:       string(m.Status()),
		ErrorMessage: m.ErrorMessage(),
		FolderID:     m.FolderID(),
		CreatedAt:    time.UnixMilli(m.CreatedAt()).UTC(),
	}
	if m.ProcessedAt() > 0 {
		at := time.UnixMilli(m.ProcessedAt()).UTC()
		resp.ProcessedAt = &at
	}
	return resp
}

func mediaPageToDTO(p mediauc.Page) MediaListResponse {
	items := make([]MediaResponse, len(p.Items))
	for i, m := range p.Items {
		items[i] = mediaToDTO(m)
	}
	return MediaListResponse{Items: items, Total: p.Total, Page: p.Page, PerPage: p.PerPage}
}

func uploadResultToDTO(res ingestuc.UploadResult) MediaUploadResponse {
	resp := MediaUploadResponse{
		CreatedMedia: make([]MediaResponse, len(res.Created)),
		FailedFiles:  make([]FailedFileResponse, len(res.Failed)),
	}
	for i, m := range res.Created {
		resp.CreatedMedia[i] = mediaToDTO(m)
	}
	for i, f := range res.Failed {
		resp.FailedFiles[i] = FailedFileResponse{Name: f.Name, Reason: f.Reason}
	}
	return resp
}

func chunkToDTO(c domchunk.Chunk) ChunkResponse {
	return ChunkResponse{
		MediaID:    c.MediaID(),
		ChunkIndex: c.Index(),
		Text:       c.Text(),
		StartTime:  c.Start(),
		EndTime:    c.End(),
		Tags:       c.Tags(),
		Numerics:   c.Numerics(),
		CreatedAt:  time.UnixMilli(c.CreatedAt()).UTC(),
	}
}

func hitToDoc(h result.Hit) Doc {
	meta := map[string]any{
		"media_id":    h.MediaID(),
		"chunk_index": h.ChunkIndex(),
		"start_time":  h.Start(),
		"end_time":    h.End(),
		"created_at":  h.CreatedAt().UTC().Format(time.RFC3339),
	}
	for k, v := range h.Tags() {
		meta[k] = v
	}
	for k, v := range h.Numerics() {
		meta[k] = v
	}
	return Doc{PageContent: h.Text(), Metadata: meta, Score: h.Score()}
}

func searchPageToDTO(p result.Page) SearchResponse {
	docs := make([]Doc, len(p.Hits()))
	for i, h := range p.Hits() {
		docs[i] = hitToDoc(h)
	}
	return SearchResponse{
		Docs:    docs,
		Total:   p.Total(),
		Page:    p.Page(),
		PerPage: p.PerPage(),
		HasNext: p.HasNext(),
		HasPrev: p.HasPrev(),
	}
}
