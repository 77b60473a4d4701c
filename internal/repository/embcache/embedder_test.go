package embcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/cricketmind/cricketmind/internal/db"
	"github.com/cricketmind/cricketmind/internal/domain"
)

type fakeStore struct {
	data    map[string][]byte
	getErr  error
	setErr  error
	setTTLs []time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string][]byte)}
}

func (s *fakeStore) Get(_ context.Context, key string) ([]byte, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	data, ok := s.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return data, nil
}

func (s *fakeStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.data[key] = value
	s.setTTLs = append(s.setTTLs, ttl)
	return nil
}

type fakeEmbedder struct {
	result domain.EmbeddingResult
	err    error
	calls  int
}

func (e *fakeEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	e.calls++
	if e.err != nil {
		return domain.EmbeddingResult{}, e.err
	}
	return e.result, nil
}

func TestEmbed_MissThenHit(t *testing.T) {
	inner := &fakeEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.5, -1.25, 2},
		PromptTokens: 7,
		TotalTokens:  7,
	}}
	store := newFakeStore()
	cached := New(inner, store, "test-model", time.Hour, nil, zap.NewNop())

	first, err := cached.Embed(context.Background(), "who won the final")
	if err != nil {
		t.Fatalf("first Embed: %v", err)
	}
	if first.TotalTokens != 7 {
		t.Errorf("miss TotalTokens = %d, want 7", first.TotalTokens)
	}
	if inner.calls != 1 {
		t.Fatalf("inner calls = %d, want 1", inner.calls)
	}
	if len(store.setTTLs) != 1 || store.setTTLs[0] != time.Hour {
		t.Errorf("cache set TTLs = %v, want [1h]", store.setTTLs)
	}

	second, err := cached.Embed(context.Background(), "who won the final")
	if err != nil {
		t.Fatalf("second Embed: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("inner calls after hit = %d, want 1", inner.calls)
	}
	if second.TotalTokens != 0 {
		t.Errorf("hit TotalTokens = %d, want 0", second.TotalTokens)
	}
	if len(second.Embedding) != 3 {
		t.Fatalf("hit embedding len = %d, want 3", len(second.Embedding))
	}
	for i, want := range first.Embedding {
		if second.Embedding[i] != want {
			t.Errorf("hit embedding[%d] = %v, want %v", i, second.Embedding[i], want)
		}
	}
}

func TestEmbed_KeyIncludesModel(t *testing.T) {
	inner := &fakeEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	store := newFakeStore()

	a := New(inner, store, "model-a", time.Hour, nil, zap.NewNop())
	b := New(inner, store, "model-b", time.Hour, nil, zap.NewNop())

	if _, err := a.Embed(context.Background(), "same text"); err != nil {
		t.Fatalf("Embed model-a: %v", err)
	}
	if _, err := b.Embed(context.Background(), "same text"); err != nil {
		t.Fatalf("Embed model-b: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("inner calls = %d, want 2 (no cross-model cache sharing)", inner.calls)
	}
}

func TestEmbed_StoreFailuresFallThrough(t *testing.T) {
	inner := &fakeEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1, 2}}}
	store := newFakeStore()
	store.getErr = errors.New("connection refused")
	store.setErr = errors.New("connection refused")
	cached := New(inner, store, "test-model", time.Hour, nil, zap.NewNop())

	result, err := cached.Embed(context.Background(), "question")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(result.Embedding) != 2 {
		t.Errorf("embedding len = %d, want 2", len(result.Embedding))
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls)
	}
}

func TestEmbed_CorruptCacheEntryIgnored(t *testing.T) {
	inner := &fakeEmbedder{result: domain.EmbeddingResult{Embedding: []float32{3, 4}}}
	store := newFakeStore()
	cached := New(inner, store, "test-model", time.Hour, nil, zap.NewNop())

	store.data[cached.cacheKey("question")] = []byte{0x01, 0x02, 0x03}

	result, err := cached.Embed(context.Background(), "question")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1 (corrupt entry should miss)", inner.calls)
	}
	if len(result.Embedding) != 2 {
		t.Errorf("embedding len = %d, want 2", len(result.Embedding))
	}
}

func TestEmbed_InnerErrorPropagates(t *testing.T) {
	wantErr := errors.New("provider down")
	inner := &fakeEmbedder{err: wantErr}
	cached := New(inner, newFakeStore(), "test-model", time.Hour, nil, zap.NewNop())

	_, err := cached.Embed(context.Background(), "question")
	if !errors.Is(err, wantErr) {
		t.Fatalf("Embed error = %v, want wrapped %v", err, wantErr)
	}
}

func TestVectorRoundTrip(t *testing.T) {
	vec := []float32{0, 1.5, -2.25, 3e-7}
	got, err := bytesToVector(vectorToCacheBytes(vec))
	if err != nil {
		t.Fatalf("bytesToVector: %v", err)
	}
	if len(got) != len(vec) {
		t.Fatalf("len = %d, want %d", len(got), len(vec))
	}
	for i := range vec {
		if got[i] != vec[i] {
			t.Errorf("got[%d] = %v, want %v", i, got[i], vec[i])
		}
	}
}
