package roast

import (
	"context"
	"sync"

	"github.com/kapu/roast-rag-go/internal/domain"
	"github.com/kapu/roast-rag-go/internal/service/ai"
	"github.com/kapu/roast-rag-go/internal/vectorstore"
	"github.com/kapu/roast-rag-go/internal/vision"
)

// fakeCollection answers text queries from a map and embedding queries from a fixed list.
type fakeCollection struct {
	name       string
	byQuery    map[string][]domain.Match
	byVector   []domain.Match
	err        error
	mu         sync.Mutex
	queries    []string
	lastVector []float32
	lastK      int
}

func (f *fakeCollection) Name() string                { return f.name }
func (f *fakeCollection) Metric() vectorstore.Metric { return vectorstore.MetricCosine }

func (f *fakeCollection) Upsert(context.Context, []vectorstore.Record) error { return nil }

func (f *fakeCollection) QueryText(_ context.Context, text string, k int) ([]domain.Match, error) {
	f.mu.Lock()
	f.queries = append(f.queries, text)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	matches := f.byQuery[text]
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func (f *fakeCollection) QueryEmbedding(_ context.Context, embedding []float32, k int) ([]domain.Match, error) {
	f.mu.Lock()
	f.lastVector = embedding
	f.lastK = k
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	matches := f.byVector
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func (f *fakeCollection) Count(context.Context) (int, error) {
	return len(f.byVector), f.err
}

func (f *fakeCollection) Reset(context.Context) error { return nil }

type fakeEncoder struct {
	faces [][]float32
	err   error
	calls int
}

func (f *fakeEncoder) Encode(context.Context, []byte) ([][]float32, error) {
	f.calls++
	return f.faces, f.err
}

type fakePreparer struct {
	err error
}

func (f *fakePreparer) Prepare(raw []byte) (*vision.Image, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &vision.Image{Data: append([]byte("jpeg:"), raw...), MIMEType: "image/jpeg"}, nil
}

type fakeGenerator struct {
	text       string
	err        error
	panicWith  any
	prompt     string
	attachment *ai.Attachment
	calls      int
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string, image *ai.Attachment) (string, *ai.GenerateMetadata, error) {
	f.calls++
	f.prompt = prompt
	f.attachment = image
	if f.panicWith != nil {
		panic(f.panicWith)
	}
	if f.err != nil {
		return "", nil, f.err
	}
	return f.text, &ai.GenerateMetadata{Provider: "fake", Model: "fake-1"}, nil
}

func matches(texts ...string) []domain.Match {
	out := make([]domain.Match, len(texts))
	for i, t := range texts {
		out[i] = domain.Match{ID: t, Text: t, Distance: float64(i) * 0.1}
	}
	return out
}

const validOutput = `{
  "user_profile": {"display_name": "Alex", "archetype": "Crocs Evangelist"},
  "roast": {
    "headline": "Your taste peaked in 2004.",
    "music_roast": "Nickelback is not a personality.",
    "movie_roast": "Marvel is a lifestyle, apparently.",
    "visual_roast": "",
    "overall_verdict": "Basic, but loudly."
  },
  "stats": {"basic_score": 92, "red_flag_score": 40},
  "verdict": {"verdict_1": "Basic", "verdict_2": "Loud", "verdict_3": "Comfy", "verdict_4": "Cursed"}
}`
