package indexer

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/silodex/silodex/internal/domain"
	domchunk "github.com/silodex/silodex/internal/domain/chunk"
	dommedia "github.com/silodex/silodex/internal/domain/media"
)

type mockChunkStore struct {
	replaceFn    func(ctx context.Context, siloID, mediaID string, chunks []domchunk.Chunk) error
	replaceCalls int
	lastChunks   []domchunk.Chunk
}

func (m *mockChunkStore) Replace(ctx context.Context, siloID, mediaID string, chunks []domchunk.Chunk) error {
	m.replaceCalls++
	m.lastChunks = chunks
	if m.replaceFn != nil {
		return m.replaceFn(ctx, siloID, mediaID, chunks)
	}
	return nil
}

type mockLockStore struct {
	setNXFn  func(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	delCalls []string
}

func (m *mockLockStore) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if m.setNXFn != nil {
		return m.setNXFn(ctx, key, value, ttl)
	}
	return true, nil
}

func (m *mockLockStore) Del(_ context.Context, key string) error {
	m.delCalls = append(m.delCalls, key)
	return nil
}

type mockEmbedder struct {
	embedFn func(ctx context.Context, text string) (domain.EmbeddingResult, error)
	calls   int
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.embedFn != nil {
		return m.embedFn(ctx, text)
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}, TotalTokens: 1}, nil
}

func makeMedia(t *testing.T) dommedia.Media {
	t.Helper()
	return dommedia.Reconstruct("m1", "s1", "episode", dommedia.SourceUpload, "", "en",
		0, dommedia.StatusProcessing, "", "", time.Now().UnixMilli(), 0)
}

func newTestService(cs *mockChunkStore, ls *mockLockStore, emb *mockEmbedder) *Service {
	return New(cs, ls, emb, Policy{MaxChars: 100}, time.Minute, "silodex:", zap.NewNop())
}
