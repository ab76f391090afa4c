package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/kapu/roast-rag-go/internal/constants"
	"github.com/kapu/roast-rag-go/internal/vectorstore"
	"github.com/spf13/cobra"
)

var statsJSONOutput bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show entry counts per collection",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSONOutput, "json", false, "output as JSON")
}

type corpusStats struct {
	Backend          string         `json:"backend"`
	Collections      map[string]int `json:"collections"`
	CachedEmbeddings *int           `json:"cached_embeddings,omitempty"`
}

func runStats(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	stats := corpusStats{
		Backend:     s.corpus.Store.Backend(),
		Collections: map[string]int{},
	}
	for _, coll := range []vectorstore.Collection{s.corpus.Roasts, s.corpus.Faces} {
		n, err := coll.Count(ctx)
		if err != nil {
			return fmt.Errorf("count %s: %w", coll.Name(), err)
		}
		stats.Collections[coll.Name()] = n
	}

	if s.corpus.Cache != nil {
		n, err := s.corpus.Cache.CountKeys(ctx, constants.RedisConfig.EmbeddingScope+"*")
		if err == nil {
			stats.CachedEmbeddings = &n
		}
	}

	return printStats(cmd.OutOrStdout(), stats, statsJSONOutput)
}

func printStats(out io.Writer, stats corpusStats, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	fmt.Fprintf(out, "Backend:            %s\n", stats.Backend)
	for _, name := range []string{constants.Collections.Roasts, constants.Collections.Faces} {
		fmt.Fprintf(out, "%-19s %d\n", name+":", stats.Collections[name])
	}
	if stats.CachedEmbeddings != nil {
		fmt.Fprintf(out, "Cached embeddings:  %d\n", *stats.CachedEmbeddings)
	}
	return nil
}
