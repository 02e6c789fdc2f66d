package ingest

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	dommedia "github.com/silodex/silodex/internal/domain/media"
	domsilo "github.com/silodex/silodex/internal/domain/silo"
)

type mockMediaRepo struct {
	created   []dommedia.Media
	createErr error
	getResult dommedia.Media
	getErr    error
}

func (m *mockMediaRepo) Create(_ context.Context, md dommedia.Media) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, md)
	return nil
}

func (m *mockMediaRepo) Get(_ context.Context, _, _ string) (dommedia.Media, error) {
	return m.getResult, m.getErr
}

type mockSilos struct {
	getErr    error
	tagFields []string
	numFields []string
}

func (m *mockSilos) Get(_ context.Context, id string) (domsilo.Silo, error) {
	if m.getErr != nil {
		return domsilo.Silo{}, m.getErr
	}
	return domsilo.Reconstruct(id, "Podcasts", "", "", "", "", "", m.tagFields, m.numFields, 0), nil
}

type mockDecoder struct {
	source dommedia.Source
	err    error
}

func (m *mockDecoder) Decode(_ context.Context, _ dommedia.Media) (dommedia.Source, error) {
	return m.source, m.err
}

type mockIndexer struct {
	count   int
	err     error
	indexed []string
}

func (m *mockIndexer) Index(_ context.Context, md dommedia.Media, _ dommedia.Source) (int, error) {
	m.indexed = append(m.indexed, md.ID())
	return m.count, m.err
}

type mockTracker struct {
	began     []string
	completed []string
	failed    []string
	failMsg   string
	beginErr  error
}

func (m *mockTracker) BeginProcessing(_ context.Context, _, mediaID string) (dommedia.Media, error) {
	if m.beginErr != nil {
		return dommedia.Media{}, m.beginErr
	}
	m.began = append(m.began, mediaID)
	return dommedia.Media{}, nil
}

func (m *mockTracker) Complete(_ context.Context, _, mediaID string) (dommedia.Media, error) {
	m.completed = append(m.completed, mediaID)
	return dommedia.Media{}, nil
}

func (m *mockTracker) Fail(_ context.Context, _, mediaID, message string) (dommedia.Media, error) {
	m.failed = append(m.failed, mediaID)
	m.failMsg = message
	return dommedia.Media{}, nil
}

// mockPool runs submitted tasks inline so tests observe the full job lifecycle.
type mockPool struct {
	submitErr error
	submitted int
}

func (m *mockPool) Submit(task func()) error {
	if m.submitErr != nil {
		return m.submitErr
	}
	m.submitted++
	task()
	return nil
}

type testEnv struct {
	svc     *Service
	media   *mockMediaRepo
	silos   *mockSilos
	decoder *mockDecoder
	indexer *mockIndexer
	tracker *mockTracker
	pool    *mockPool
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		media:   &mockMediaRepo{},
		silos:   &mockSilos{},
		decoder: &mockDecoder{source: dommedia.Source{Segments: []dommedia.Segment{{Text: "hello", Start: 0, End: 5}}}},
		indexer: &mockIndexer{count: 1},
		tracker: &mockTracker{},
		pool:    &mockPool{},
	}
	env.svc = New(env.media, env.silos, env.decoder, env.indexer, env.tracker, env.pool,
		10, time.Minute, zap.NewNop())
	return env
}
