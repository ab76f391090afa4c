package app

import (
	"context"
	"fmt"

	"github.com/kapu/roast-rag-go/internal/config"
	"github.com/kapu/roast-rag-go/internal/constants"
	"github.com/kapu/roast-rag-go/internal/metrics"
	"github.com/kapu/roast-rag-go/internal/service/ai"
	"github.com/kapu/roast-rag-go/internal/service/cache"
	"github.com/kapu/roast-rag-go/internal/service/database"
	"github.com/kapu/roast-rag-go/internal/vectorstore"
	"github.com/kapu/roast-rag-go/internal/vision"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Corpus bundles the vector store, its two collections and the helpers needed
// to fill them. Both the HTTP server and roastctl build one.
type Corpus struct {
	Store    vectorstore.Store
	Roasts   vectorstore.Collection
	Faces    vectorstore.Collection
	Cache    *cache.CacheService
	Encoder  vision.FaceEncoder
	Preparer *vision.Preparer

	closers []func()
}

// Close releases resources in reverse order of acquisition.
func (c *Corpus) Close() {
	if c == nil {
		return
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// BuildCorpus opens the configured backend. geminiClient may be nil, in which
// case a client is created when a Gemini key is configured.
func BuildCorpus(ctx context.Context, cfg *config.Config, geminiClient *genai.Client, logger *zap.Logger) (_ *Corpus, err error) {
	corpus := &Corpus{
		Preparer: vision.NewPreparer(constants.ImageLimits.MaxEdge, constants.ImageLimits.JPEGQuality),
	}
	defer func() {
		if err != nil {
			corpus.Close()
		}
	}()

	if cfg.Redis.Enabled {
		cacheSvc, cacheErr := cache.NewCacheService(cache.CacheConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if cacheErr != nil {
			logger.Warn("Redis unavailable, embedding cache disabled", zap.Error(cacheErr))
		} else {
			corpus.Cache = cacheSvc
			corpus.closers = append(corpus.closers, func() {
				_ = cacheSvc.Close()
			})
		}
	}

	embedder, err := buildEmbedder(ctx, cfg, geminiClient, corpus.Cache, logger)
	if err != nil {
		return nil, err
	}

	store, err := openStore(cfg, embedder, logger, &corpus.closers)
	if err != nil {
		return nil, err
	}
	corpus.Store = store
	corpus.Roasts = store.Collection(constants.Collections.Roasts, vectorstore.MetricCosine)
	corpus.Faces = store.Collection(constants.Collections.Faces, vectorstore.MetricL2)

	if cfg.FaceEncoder.URL != "" {
		corpus.Encoder = vision.NewHTTPFaceEncoder(
			cfg.FaceEncoder.URL,
			constants.RetrievalConfig.FaceDimension,
			constants.HTTPConfig.FaceEncoderTime,
			logger,
		)
		logger.Info("Face encoder configured", zap.String("url", cfg.FaceEncoder.URL))
	} else {
		logger.Info("FACE_ENCODER_URL not set, visual lookalike retrieval disabled")
	}

	return corpus, nil
}

// buildEmbedder prefers Gemini embeddings and falls back to OpenAI. Returning
// nil is allowed; text queries then fail and retrieval degrades to empty.
func buildEmbedder(ctx context.Context, cfg *config.Config, geminiClient *genai.Client, cacheSvc *cache.CacheService, logger *zap.Logger) (vectorstore.Embedder, error) {
	var inner ai.Embedder

	switch {
	case cfg.Gemini.APIKey != "":
		client := geminiClient
		if client == nil {
			var err error
			client, err = genai.NewClient(ctx, &genai.ClientConfig{
				APIKey:  cfg.Gemini.APIKey,
				Backend: genai.BackendGeminiAPI,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to create Gemini client: %w", err)
			}
		}
		inner = ai.NewGeminiEmbedder(client, cfg.Gemini.EmbeddingModel, logger)
	case cfg.OpenAI.APIKey != "":
		inner = ai.NewOpenAIEmbedder(cfg.OpenAI.APIKey, cfg.OpenAI.EmbeddingModel, logger)
	default:
		logger.Warn("No embedding provider configured, text retrieval disabled")
		return nil, nil
	}

	logger.Info("Embedder configured", zap.String("model", inner.Model()))

	if cacheSvc == nil {
		return inner, nil
	}
	return ai.NewCachedEmbedder(
		inner,
		cacheSvc,
		constants.RedisConfig.EmbeddingScope,
		constants.RedisConfig.EmbeddingTTL,
		metrics.EmbeddingCacheTotal,
		logger,
	), nil
}

func openStore(cfg *config.Config, embedder vectorstore.Embedder, logger *zap.Logger, closers *[]func()) (vectorstore.Store, error) {
	switch cfg.Vector.Backend {
	case "postgres":
		pg, err := database.NewPostgresService(database.PostgresConfig{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			Database: cfg.Postgres.Database,
			SSLMode:  cfg.Postgres.SSLMode,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		*closers = append(*closers, func() {
			_ = pg.Close()
		})

		store, err := vectorstore.NewPostgresStore(pg.GetDB(), embedder, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open pgvector store: %w", err)
		}
		return store, nil
	default:
		store, err := vectorstore.NewSQLiteStore(cfg.Vector.Path, embedder, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		*closers = append(*closers, func() {
			_ = store.Close()
		})
		return store, nil
	}
}
