package main

import (
	"fmt"

	"github.com/kapu/roast-rag-go/internal/constants"
	"github.com/kapu/roast-rag-go/internal/ingest"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	ingestFile    string
	ingestLimit   int
	ingestSeed    int64
	ingestBatch   int
	ingestWorkers int
	ingestReset   bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load a roast dataset (.parquet or .jsonl) into the text corpus",
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestFile, "file", "", "dataset file (.parquet or .jsonl)")
	ingestCmd.Flags().IntVar(&ingestLimit, "limit", constants.IngestConfig.SampleSize, "rows to sample before filtering")
	ingestCmd.Flags().Int64Var(&ingestSeed, "seed", constants.IngestConfig.Seed, "shuffle seed")
	ingestCmd.Flags().IntVar(&ingestBatch, "batch", constants.IngestConfig.BatchSize, "records per upsert")
	ingestCmd.Flags().IntVar(&ingestWorkers, "workers", constants.IngestConfig.Concurrency, "concurrent batches")
	ingestCmd.Flags().BoolVar(&ingestReset, "reset", false, "empty the collection first")
	_ = ingestCmd.MarkFlagRequired("file")
}

func runIngest(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	texts, err := ingest.ReadTexts(ingestFile)
	if err != nil {
		return fmt.Errorf("read dataset: %w", err)
	}

	opts := ingest.DefaultSampleOptions()
	opts.Seed = ingestSeed
	opts.Limit = ingestLimit
	entries := ingest.Sample(texts, opts)

	s.logger.Info("Dataset sampled",
		zap.String("file", ingestFile),
		zap.Int("rows", len(texts)),
		zap.Int("usable", len(entries)),
	)

	in := ingest.NewIngester(s.corpus.Roasts, ingestBatch, ingestWorkers, s.logger)
	if ingestReset {
		if err := in.Reset(ctx); err != nil {
			return err
		}
	}

	n, err := in.IngestEntries(ctx, entries)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d roasts into %s\n", n, s.corpus.Roasts.Name())
	return nil
}
