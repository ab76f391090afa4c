package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/kapu/roast-rag-go/internal/domain"
)

var (
	// ErrNoEmbedder is returned by text operations on a store opened without an embedder.
	ErrNoEmbedder = errors.New("vectorstore: no embedder configured")
	// ErrDimensionMismatch is returned when a query vector does not match stored vectors.
	ErrDimensionMismatch = errors.New("vectorstore: embedding dimension mismatch")
)

// Metric selects the distance function of a collection. Lower is closer for both.
type Metric string

const (
	MetricCosine Metric = "cosine"
	MetricL2     Metric = "l2"
)

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Record is one row to write. A record without Embedding is embedded from Text.
type Record struct {
	ID        string
	Text      string
	Metadata  domain.Metadata
	Embedding []float32
}

// Collection is a named set of records queried by nearest neighbour.
type Collection interface {
	Name() string
	Metric() Metric
	Upsert(ctx context.Context, records []Record) error
	QueryText(ctx context.Context, text string, k int) ([]domain.Match, error)
	QueryEmbedding(ctx context.Context, embedding []float32, k int) ([]domain.Match, error)
	Count(ctx context.Context) (int, error)
	Reset(ctx context.Context) error
}

// Store opens collections over one backend.
type Store interface {
	Collection(name string, metric Metric) Collection
	Backend() string
	Close() error
}

// embedMissing fills Embedding for records that carry only text.
func embedMissing(ctx context.Context, embedder Embedder, records []Record) error {
	for i := range records {
		if len(records[i].Embedding) > 0 {
			continue
		}
		if embedder == nil {
			return ErrNoEmbedder
		}
		vec, err := embedder.Embed(ctx, records[i].Text)
		if err != nil {
			return fmt.Errorf("embed record %s: %w", records[i].ID, err)
		}
		records[i].Embedding = vec
	}
	return nil
}
