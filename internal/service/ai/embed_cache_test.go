package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
)

type memoryStore struct {
	data   map[string][]byte
	getErr error
	setErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string][]byte)}
}

func (m *memoryStore) GetBytes(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.data[key], nil
}

func (m *memoryStore) SetBytes(_ context.Context, key string, value []byte, _ time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

type countingEmbedder struct {
	calls int
	err   error
}

func (e *countingEmbedder) Model() string { return "test/model" }

func (e *countingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return []float32{float32(len(text)), 1}, nil
}

func newCounter() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_embedding_cache_total"}, []string{"result"})
}

func TestCachedEmbedderHitAndMiss(t *testing.T) {
	inner := &countingEmbedder{}
	counter := newCounter()
	cached := NewCachedEmbedder(inner, newMemoryStore(), "roast:emb_cache:", time.Hour, counter, zap.NewNop())

	first, err := cached.Embed(context.Background(), "abc")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	second, err := cached.Embed(context.Background(), "abc")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	if inner.calls != 1 {
		t.Fatalf("expected one inner call, got %d", inner.calls)
	}
	if first[0] != second[0] || first[1] != second[1] {
		t.Fatalf("cached vector differs: %v vs %v", first, second)
	}
	if testutil.ToFloat64(counter.WithLabelValues("hit")) != 1 || testutil.ToFloat64(counter.WithLabelValues("miss")) != 1 {
		t.Fatalf("expected one hit and one miss")
	}
}

func TestCachedEmbedderToleratesStoreErrors(t *testing.T) {
	inner := &countingEmbedder{}
	store := newMemoryStore()
	store.getErr = errors.New("redis down")
	store.setErr = errors.New("redis down")
	cached := NewCachedEmbedder(inner, store, "p:", time.Hour, nil, zap.NewNop())

	vec, err := cached.Embed(context.Background(), "abc")
	if err != nil {
		t.Fatalf("store errors must not fail Embed: %v", err)
	}
	if len(vec) != 2 || inner.calls != 1 {
		t.Fatalf("expected inner embedding, got %v calls=%d", vec, inner.calls)
	}
}

func TestCachedEmbedderPropagatesInnerError(t *testing.T) {
	boom := errors.New("boom")
	cached := NewCachedEmbedder(&countingEmbedder{err: boom}, newMemoryStore(), "p:", time.Hour, nil, zap.NewNop())

	if _, err := cached.Embed(context.Background(), "abc"); !errors.Is(err, boom) {
		t.Fatalf("expected inner error, got %v", err)
	}
}

func TestCachedEmbedderKeyIncludesModel(t *testing.T) {
	cached := NewCachedEmbedder(&countingEmbedder{}, newMemoryStore(), "p:", time.Hour, nil, zap.NewNop())
	key := cached.cacheKey("abc")
	if len(key) != len("p:")+64 {
		t.Fatalf("unexpected key %q", key)
	}
}
