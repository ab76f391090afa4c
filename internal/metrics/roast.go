package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "roast"

// Roast pipeline metrics.
var (
	RoastRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Roast requests by outcome and fallback reason",
		},
		[]string{"outcome", "reason"},
	)

	RetrievalTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieval_total",
			Help:      "Retrieval calls by kind and result",
		},
		[]string{"kind", "result"}, // kind: topical/style/visual
	)

	GenerationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Generative model call duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80},
		},
		[]string{"provider", "status"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	IngestedEntriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingested_entries_total",
			Help:      "Corpus entries written by collection",
		},
		[]string{"collection"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(RoastRequestsTotal)
	prometheus.MustRegister(RetrievalTotal)
	prometheus.MustRegister(GenerationDuration)
	prometheus.MustRegister(EmbeddingCacheTotal)
	prometheus.MustRegister(IngestedEntriesTotal)
}
