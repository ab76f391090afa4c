package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/kapu/roast-rag-go/internal/vectorstore"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// embeddingStore is the slice of the cache service the embedder needs.
type embeddingStore interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedEmbedder caches embeddings keyed by model and text hash.
type CachedEmbedder struct {
	inner      Embedder
	store      embeddingStore
	prefix     string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// NewCachedEmbedder wraps inner. cacheTotal is a counter vec with label
// "result" ("hit"/"miss") and may be nil.
func NewCachedEmbedder(inner Embedder, store embeddingStore, prefix string, ttl time.Duration, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *CachedEmbedder {
	return &CachedEmbedder{
		inner:      inner,
		store:      store,
		prefix:     prefix,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

func (c *CachedEmbedder) Model() string {
	return c.inner.Model()
}

// Embed returns a cached vector or calls the inner embedder. Cache errors are
// logged and never fail the call.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.cacheKey(text)

	if vec, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return vec, nil
	}

	c.incCache("miss")

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}

	if err := c.store.SetBytes(ctx, key, vectorstore.PackEmbedding(vec), c.ttl); err != nil {
		c.logger.Warn("Failed to cache embedding", zap.String("key", key), zap.Error(err))
	}
	return vec, nil
}

func (c *CachedEmbedder) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedEmbedder) cacheKey(text string) string {
	h := sha256.Sum256([]byte(c.inner.Model() + "\x00" + text))
	return c.prefix + hex.EncodeToString(h[:])
}

func (c *CachedEmbedder) getFromCache(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.store.GetBytes(ctx, key)
	if err != nil {
		c.logger.Warn("Failed to get cached embedding", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}

	vec, err := vectorstore.UnpackEmbedding(data)
	if err != nil {
		c.logger.Warn("Failed to parse cached embedding", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return vec, true
}
