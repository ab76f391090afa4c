package ingest

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/kapu/roast-rag-go/internal/constants"
	"github.com/kapu/roast-rag-go/internal/domain"
	"github.com/kapu/roast-rag-go/internal/metrics"
	"github.com/kapu/roast-rag-go/internal/vectorstore"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// Ingester writes records into one collection in fixed-size batches.
type Ingester struct {
	collection  vectorstore.Collection
	batchSize   int
	concurrency int
	logger      *zap.Logger
}

func NewIngester(collection vectorstore.Collection, batchSize, concurrency int, logger *zap.Logger) *Ingester {
	if batchSize <= 0 {
		batchSize = constants.IngestConfig.BatchSize
	}
	if concurrency <= 0 {
		concurrency = constants.IngestConfig.Concurrency
	}
	return &Ingester{
		collection:  collection,
		batchSize:   batchSize,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Reset empties the collection before a fresh load.
func (in *Ingester) Reset(ctx context.Context) error {
	if err := in.collection.Reset(ctx); err != nil {
		return fmt.Errorf("reset %s: %w", in.collection.Name(), err)
	}
	in.logger.Info("Collection reset", zap.String("collection", in.collection.Name()))
	return nil
}

// IngestEntries upserts corpus entries; the collection embeds their text.
func (in *Ingester) IngestEntries(ctx context.Context, entries []domain.CorpusEntry) (int, error) {
	records := make([]vectorstore.Record, 0, len(entries))
	for _, e := range entries {
		records = append(records, vectorstore.Record{ID: e.ID, Text: e.Text, Metadata: e.Metadata})
	}
	return in.Upsert(ctx, records)
}

// IngestFaces upserts face references with their precomputed encodings.
func (in *Ingester) IngestFaces(ctx context.Context, refs []domain.FaceReference) (int, error) {
	records := make([]vectorstore.Record, 0, len(refs))
	for _, r := range refs {
		records = append(records, vectorstore.Record{
			ID:        r.ID,
			Text:      r.AssociatedText,
			Metadata:  r.Metadata,
			Embedding: r.Embedding,
		})
	}
	return in.Upsert(ctx, records)
}

// Upsert splits records into batches and writes them with bounded concurrency.
// The first failing batch cancels the rest.
func (in *Ingester) Upsert(ctx context.Context, records []vectorstore.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	name := in.collection.Name()
	var written atomic.Int64

	p := pool.New().WithContext(ctx).WithCancelOnError().WithMaxGoroutines(in.concurrency)
	for start := 0; start < len(records); start += in.batchSize {
		end := min(start+in.batchSize, len(records))
		batch := records[start:end]
		first := start

		p.Go(func(ctx context.Context) error {
			in.logger.Info("Processing batch",
				zap.String("collection", name),
				zap.Int("from", first),
				zap.Int("to", first+len(batch)),
			)
			if err := in.collection.Upsert(ctx, batch); err != nil {
				return fmt.Errorf("batch %d-%d: %w", first, first+len(batch), err)
			}
			written.Add(int64(len(batch)))
			metrics.IngestedEntriesTotal.WithLabelValues(name).Add(float64(len(batch)))
			return nil
		})
	}

	err := p.Wait()
	n := int(written.Load())
	if err != nil {
		in.logger.Error("Ingestion failed", zap.String("collection", name), zap.Int("written", n), zap.Error(err))
		return n, err
	}

	in.logger.Info("Ingestion complete", zap.String("collection", name), zap.Int("written", n))
	return n, nil
}
