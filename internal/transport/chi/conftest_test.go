package chi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/silodex/silodex/internal/domain"
	domchunk "github.com/silodex/silodex/internal/domain/chunk"
	dommedia "github.com/silodex/silodex/internal/domain/media"
	"github.com/silodex/silodex/internal/domain/search/filter"
	"github.com/silodex/silodex/internal/domain/search/result"
	domsilo "github.com/silodex/silodex/internal/domain/silo"
	healthuc "github.com/silodex/silodex/internal/usecase/health"
	ingestuc "github.com/silodex/silodex/internal/usecase/ingest"
	mediauc "github.com/silodex/silodex/internal/usecase/media"
	searchuc "github.com/silodex/silodex/internal/usecase/search"
	silouc "github.com/silodex/silodex/internal/usecase/silo"
	statusuc "github.com/silodex/silodex/internal/usecase/status"
)

// backend is an in-memory store behind all usecase services in server tests.
type backend struct {
	silos   map[string]domsilo.Silo
	domains map[string]domsilo.Domain
	media   map[string]dommedia.Media
	chunks  map[string][]domchunk.Chunk

	hits     []result.Hit
	hitTotal int

	dbErr error
}

func newBackend() *backend {
	return &backend{
		silos:   make(map[string]domsilo.Silo),
		domains: make(map[string]domsilo.Domain),
		media:   make(map[string]dommedia.Media),
		chunks:  make(map[string][]domchunk.Chunk),
	}
}

func (b *backend) addSilo(t *testing.T, name string, tagFields, numFields []string) domsilo.Silo {
	t.Helper()
	s, err := domsilo.New("silo-"+name, name, "", "", "", "", "", tagFields, numFields)
	if err != nil {
		t.Fatalf("build silo: %v", err)
	}
	b.silos[s.ID()] = s
	return s
}

func (b *backend) addMedia(t *testing.T, siloID, name string, status dommedia.Status) dommedia.Media {
	t.Helper()
	m := dommedia.Reconstruct("media-"+name, siloID, name, dommedia.SourceUpload,
		"", "en", 60, status, "", "", 1700000000000, 0)
	b.media[m.ID()] = m
	return m
}

// Silo repository.

func (b *backend) Create(_ context.Context, s domsilo.Silo) error {
	if b.dbErr != nil {
		return b.dbErr
	}
	b.silos[s.ID()] = s
	return nil
}

func (b *backend) Get(_ context.Context, id string) (domsilo.Silo, error) {
	if b.dbErr != nil {
		return domsilo.Silo{}, b.dbErr
	}
	s, ok := b.silos[id]
	if !ok {
		return domsilo.Silo{}, domain.ErrSiloNotFound
	}
	return s, nil
}

func (b *backend) List(_ context.Context) ([]domsilo.Silo, error) {
	out := make([]domsilo.Silo, 0, len(b.silos))
	for _, s := range b.silos {
		out = append(out, s)
	}
	return out, nil
}

func (b *backend) Delete(_ context.Context, id string) error {
	delete(b.silos, id)
	return nil
}

func (b *backend) CreateDomain(_ context.Context, d domsilo.Domain) error {
	b.domains[d.ID()] = d
	return nil
}

func (b *backend) ListDomains(_ context.Context, siloID string) ([]domsilo.Domain, error) {
	out := make([]domsilo.Domain, 0, len(b.domains))
	for _, d := range b.domains {
		if d.SiloID() == siloID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (b *backend) DeleteDomain(_ context.Context, siloID, id string) error {
	d, ok := b.domains[id]
	if !ok || d.SiloID() != siloID {
		return domain.ErrDomainNotFound
	}
	delete(b.domains, id)
	return nil
}

// mediaBackend exposes the media-scoped contracts over the shared backend.
type mediaBackend struct{ b *backend }

func (m mediaBackend) Create(_ context.Context, md dommedia.Media) error {
	m.b.media[md.ID()] = md
	return nil
}

func (m mediaBackend) Get(_ context.Context, siloID, id string) (dommedia.Media, error) {
	md, ok := m.b.media[id]
	if !ok || md.SiloID() != siloID {
		return dommedia.Media{}, domain.ErrMediaNotFound
	}
	return md, nil
}

func (m mediaBackend) List(_ context.Context, siloID string) ([]dommedia.Media, error) {
	out := make([]dommedia.Media, 0, len(m.b.media))
	for _, md := range m.b.media {
		if md.SiloID() == siloID {
			out = append(out, md)
		}
	}
	return out, nil
}

func (m mediaBackend) Delete(_ context.Context, siloID, id string) error {
	md, ok := m.b.media[id]
	if !ok || md.SiloID() != siloID {
		return domain.ErrMediaNotFound
	}
	delete(m.b.media, id)
	return nil
}

func (m mediaBackend) Update(_ context.Context, md dommedia.Media) error {
	m.b.media[md.ID()] = md
	return nil
}

// chunkBackend implements the chunk index and chunk store contracts.
type chunkBackend struct{ b *backend }

func (c chunkBackend) EnsureIndex(_ context.Context, _ domsilo.Silo) error { return c.b.dbErr }
func (c chunkBackend) DropIndex(_ context.Context, _ string) error         { return nil }

func (c chunkBackend) Get(_ context.Context, _ domsilo.Silo, mediaID string) ([]domchunk.Chunk, error) {
	return c.b.chunks[mediaID], nil
}

func (c chunkBackend) Delete(_ context.Context, _, mediaID string) error {
	delete(c.b.chunks, mediaID)
	return nil
}

func (c chunkBackend) Count(_ context.Context, siloID string) (int, error) {
	n := 0
	for _, md := range c.b.media {
		if md.SiloID() == siloID {
			n += len(c.b.chunks[md.ID()])
		}
	}
	return n, nil
}

// searchBackend returns canned hits.
type searchBackend struct{ b *backend }

func (s searchBackend) SearchKNN(
	_ context.Context, _ domsilo.Silo, _ []float32, _ filter.Expression, topK int,
) ([]result.Hit, error) {
	if topK < len(s.b.hits) {
		return s.b.hits[:topK], nil
	}
	return s.b.hits, nil
}

func (s searchBackend) Count(_ context.Context, _ string, _ filter.Expression) (int, error) {
	return s.b.hitTotal, nil
}

type stubEmbedder struct{ err error }

func (e stubEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if e.err != nil {
		return domain.EmbeddingResult{}, e.err
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}}, nil
}

type stubDecoder struct{}

func (stubDecoder) Decode(_ context.Context, _ dommedia.Media) (dommedia.Source, error) {
	return dommedia.Source{Segments: []dommedia.Segment{{Text: "hello", Start: 0, End: 2}}}, nil
}

type stubIndexer struct{ err error }

func (i stubIndexer) Index(_ context.Context, _ dommedia.Media, _ dommedia.Source) (int, error) {
	return 1, i.err
}

type inlinePool struct{ submitErr error }

func (p inlinePool) Submit(task func()) error {
	if p.submitErr != nil {
		return p.submitErr
	}
	task()
	return nil
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(_ context.Context) error { return p.err }

type testServer struct {
	b      *backend
	router chi.Router
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	b := newBackend()
	mb := mediaBackend{b: b}
	cb := chunkBackend{b: b}

	siloSvc := silouc.New(b, cb, mb, zap.NewNop())
	mediaSvc := mediauc.New(mb, b, cb, 20, 100)
	tracker := statusuc.New(mb, zap.NewNop())
	ingestSvc := ingestuc.New(mb, b, stubDecoder{}, stubIndexer{}, tracker, inlinePool{},
		10, time.Minute, zap.NewNop())
	searchSvc := searchuc.New(searchBackend{b: b}, b, stubEmbedder{}, searchuc.Config{
		DefaultPageSize: 20,
		MaxPageSize:     100,
	})
	healthSvc := healthuc.New(stubPinger{}, nil)

	srv := NewServer(siloSvc, mediaSvc, ingestSvc, tracker, searchSvc, healthSvc, zap.NewNop())
	r := chi.NewRouter()
	srv.RegisterRoutes(r)

	return &testServer{b: b, router: r}
}

func (ts *testServer) request(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	ts.router.ServeHTTP(rr, req)
	return rr
}
