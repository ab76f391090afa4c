package ingest

import (
	"math/rand"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/kapu/roast-rag-go/internal/constants"
	"github.com/kapu/roast-rag-go/internal/domain"
)

type SampleOptions struct {
	Seed          int64
	Limit         int
	MinTextLength int
	Source        string
}

func DefaultSampleOptions() SampleOptions {
	return SampleOptions{
		Seed:          constants.IngestConfig.Seed,
		Limit:         constants.IngestConfig.SampleSize,
		MinTextLength: constants.IngestConfig.MinTextLength,
		Source:        constants.IngestConfig.Source,
	}
}

// Sample shuffles texts with a fixed seed, takes the first Limit rows and drops
// unusable ones. IDs are roast_<i> where i is the position in the shuffled
// sample, so skipped rows leave gaps.
func Sample(texts []string, opts SampleOptions) []domain.CorpusEntry {
	order := rand.New(rand.NewSource(opts.Seed)).Perm(len(texts))

	limit := opts.Limit
	if limit <= 0 || limit > len(order) {
		limit = len(order)
	}

	entries := make([]domain.CorpusEntry, 0, limit)
	for i, idx := range order[:limit] {
		text := texts[idx]
		if !Usable(text, opts.MinTextLength) {
			continue
		}
		entries = append(entries, domain.CorpusEntry{
			ID:       "roast_" + strconv.Itoa(i),
			Text:     text,
			Metadata: domain.Metadata{Source: opts.Source},
		})
	}
	return entries
}

// Usable rejects empty, deleted and too-short comments.
func Usable(text string, minLength int) bool {
	if text == "" || strings.Contains(text, constants.IngestConfig.DeletedMarker) {
		return false
	}
	return utf8.RuneCountInString(text) >= minLength
}
