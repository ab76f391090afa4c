package roast

import (
	"context"

	"github.com/kapu/roast-rag-go/internal/constants"
	"github.com/kapu/roast-rag-go/internal/domain"
	"github.com/kapu/roast-rag-go/internal/vectorstore"
	"github.com/kapu/roast-rag-go/internal/vision"
	"go.uber.org/zap"
)

// RetrievalStatus names how a retrieval call ended. Only StatusOK carries data.
type RetrievalStatus string

const (
	StatusOK               RetrievalStatus = "ok"
	StatusStoreUnavailable RetrievalStatus = "store_unavailable"
	StatusEmptyCorpus      RetrievalStatus = "empty_corpus"
	StatusQueryFailed      RetrievalStatus = "query_failed"
	StatusFiltered         RetrievalStatus = "filtered"
	StatusEmptyQuery       RetrievalStatus = "empty_query"
	StatusNoImage          RetrievalStatus = "no_image"
	StatusNoEncoder        RetrievalStatus = "no_encoder"
	StatusEncoderFailed    RetrievalStatus = "encoder_failed"
	StatusNoFace           RetrievalStatus = "no_face"
)

// TextRetriever finds reference roasts close to a query string. It never fails;
// an unusable store degrades to no examples.
type TextRetriever struct {
	collection  vectorstore.Collection
	maxDistance float64
	logger      *zap.Logger
}

// NewTextRetriever accepts a nil collection as the explicit "no corpus" mode.
// maxDistance <= 0 keeps every match.
func NewTextRetriever(collection vectorstore.Collection, maxDistance float64, logger *zap.Logger) *TextRetriever {
	return &TextRetriever{collection: collection, maxDistance: maxDistance, logger: logger}
}

// Retrieve returns up to k texts, closest first.
func (r *TextRetriever) Retrieve(ctx context.Context, query string, k int) []string {
	matches, _ := r.RetrieveMatches(ctx, query, k)
	return domain.Texts(matches)
}

func (r *TextRetriever) RetrieveMatches(ctx context.Context, query string, k int) ([]domain.Match, RetrievalStatus) {
	if r == nil || r.collection == nil {
		return nil, StatusStoreUnavailable
	}
	if query == "" {
		return nil, StatusEmptyQuery
	}

	matches, err := r.collection.QueryText(ctx, query, k)
	if err != nil {
		r.logger.Warn("Text retrieval failed",
			zap.String("collection", r.collection.Name()),
			zap.String("reason", string(StatusQueryFailed)),
			zap.Error(err),
		)
		return nil, StatusQueryFailed
	}
	if len(matches) == 0 {
		r.logger.Debug("Text retrieval found nothing",
			zap.String("collection", r.collection.Name()),
			zap.String("reason", string(StatusEmptyCorpus)),
		)
		return nil, StatusEmptyCorpus
	}

	kept := filterByDistance(matches, r.maxDistance)
	if len(kept) == 0 {
		return nil, StatusFiltered
	}
	return kept, StatusOK
}

// VisualRetriever maps a face in the upload to the roast of its closest lookalike.
type VisualRetriever struct {
	encoder     vision.FaceEncoder
	collection  vectorstore.Collection
	maxDistance float64
	logger      *zap.Logger
}

// NewVisualRetriever accepts nil encoder or collection; either one disables the lookup.
func NewVisualRetriever(encoder vision.FaceEncoder, collection vectorstore.Collection, maxDistance float64, logger *zap.Logger) *VisualRetriever {
	return &VisualRetriever{encoder: encoder, collection: collection, maxDistance: maxDistance, logger: logger}
}

// Retrieve returns the associated text of the nearest face and whether one was found.
func (r *VisualRetriever) Retrieve(ctx context.Context, img *vision.Image) (string, bool) {
	text, status := r.RetrieveWithStatus(ctx, img)
	return text, status == StatusOK
}

func (r *VisualRetriever) RetrieveWithStatus(ctx context.Context, img *vision.Image) (string, RetrievalStatus) {
	if img == nil || len(img.Data) == 0 {
		return "", StatusNoImage
	}
	if r == nil || r.encoder == nil {
		return "", StatusNoEncoder
	}
	if r.collection == nil {
		return "", StatusStoreUnavailable
	}

	encodings, err := r.encoder.Encode(ctx, img.Data)
	if err != nil {
		r.logger.Warn("Face encoding failed", zap.String("reason", string(StatusEncoderFailed)), zap.Error(err))
		return "", StatusEncoderFailed
	}
	if len(encodings) == 0 {
		r.logger.Debug("No face found in image")
		return "", StatusNoFace
	}

	matches, err := r.collection.QueryEmbedding(ctx, encodings[0], constants.RetrievalConfig.FaceResults)
	if err != nil {
		r.logger.Warn("Face lookup failed",
			zap.String("collection", r.collection.Name()),
			zap.String("reason", string(StatusQueryFailed)),
			zap.Error(err),
		)
		return "", StatusQueryFailed
	}
	if len(matches) == 0 {
		return "", StatusEmptyCorpus
	}

	kept := filterByDistance(matches, r.maxDistance)
	if len(kept) == 0 {
		r.logger.Debug("Nearest face beyond cutoff", zap.Float64("distance", matches[0].Distance))
		return "", StatusFiltered
	}
	if kept[0].Text == "" {
		return "", StatusEmptyCorpus
	}
	return kept[0].Text, StatusOK
}

func filterByDistance(matches []domain.Match, maxDistance float64) []domain.Match {
	if maxDistance <= 0 {
		return matches
	}
	kept := matches[:0:0]
	for _, m := range matches {
		if m.Distance <= maxDistance {
			kept = append(kept, m)
		}
	}
	return kept
}

// MergeExamples concatenates result lists and drops repeats, keeping the first occurrence.
func MergeExamples(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var merged []string
	for _, list := range lists {
		for _, text := range list {
			if _, ok := seen[text]; ok {
				continue
			}
			seen[text] = struct{}{}
			merged = append(merged, text)
		}
	}
	return merged
}
