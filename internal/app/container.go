package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kapu/roast-rag-go/internal/config"
	"github.com/kapu/roast-rag-go/internal/constants"
	"github.com/kapu/roast-rag-go/internal/prompt"
	"github.com/kapu/roast-rag-go/internal/server"
	"github.com/kapu/roast-rag-go/internal/service/ai"
	"github.com/kapu/roast-rag-go/internal/service/roast"
	"github.com/kapu/roast-rag-go/internal/vectorstore"
	"github.com/kapu/roast-rag-go/internal/vision"
	"go.uber.org/zap"
)

// Container bundles assembled services for the HTTP server.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	ModelManager *ai.ModelManager
	Corpus       *Corpus
	Roast        *roast.Service
	Handler      http.Handler

	closers []func()
}

// Close releases everything Build acquired.
func (c *Container) Close() {
	if c == nil {
		return
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// Build assembles all infrastructure services. A vector store that cannot be
// opened is not fatal: the server runs without retrieval and every roast is
// generated from the prompt alone.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	modelManager, err := ai.NewModelManager(ctx, ai.ModelManagerConfig{
		GeminiAPIKey:       cfg.Gemini.APIKey,
		OpenAIAPIKey:       cfg.OpenAI.APIKey,
		DefaultGeminiModel: cfg.Gemini.Model,
		DefaultOpenAIModel: cfg.OpenAI.Model,
		EnableFallback:     cfg.OpenAI.EnableFallback,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create model manager: %w", err)
	}

	var (
		roastsColl vectorstore.Collection
		facesColl  vectorstore.Collection
		encoder    vision.FaceEncoder
		preparer   = vision.NewPreparer(constants.ImageLimits.MaxEdge, constants.ImageLimits.JPEGQuality)
	)

	corpus, corpusErr := BuildCorpus(ctx, cfg, modelManager.GetGeminiClient(), logger)
	if corpusErr != nil {
		logger.Warn("Vector store unavailable, serving roasts without retrieval", zap.Error(corpusErr))
	} else {
		closers = append(closers, corpus.Close)
		roastsColl = corpus.Roasts
		facesColl = corpus.Faces
		encoder = corpus.Encoder
		preparer = corpus.Preparer
		logCorpusCounts(ctx, corpus, logger)
	}

	roastSvc := roast.NewService(roast.ServiceConfig{
		TextRetriever:   roast.NewTextRetriever(roastsColl, cfg.Retrieval.TextMaxDistance, logger),
		VisualRetriever: roast.NewVisualRetriever(encoder, facesColl, cfg.Retrieval.FaceMaxDistance, logger),
		Preparer:        preparer,
		Composer:        prompt.NewComposer(prompt.NewPromptBuilder(), logger),
		Generator:       modelManager,
		Normalizer:      roast.NewNormalizer(logger),
	}, logger)

	handler := server.NewRouter(
		server.NewHandler(roastSvc, server.HandlerConfig{
			MaxUploadBytes:    cfg.Server.MaxUploadBytes,
			GenerationTimeout: cfg.Server.GenerationTimeout,
		}, logger),
		cfg.Server.AllowedOrigins,
	)

	container = &Container{
		Config:       cfg,
		Logger:       logger,
		ModelManager: modelManager,
		Corpus:       corpus,
		Roast:        roastSvc,
		Handler:      handler,
		closers:      closers,
	}

	return container, nil
}

func logCorpusCounts(ctx context.Context, corpus *Corpus, logger *zap.Logger) {
	for _, coll := range []vectorstore.Collection{corpus.Roasts, corpus.Faces} {
		n, err := coll.Count(ctx)
		if err != nil {
			logger.Warn("Failed to count collection", zap.String("collection", coll.Name()), zap.Error(err))
			continue
		}
		if n == 0 {
			logger.Warn("Collection is empty, run roastctl to ingest", zap.String("collection", coll.Name()))
			continue
		}
		logger.Info("Collection ready", zap.String("collection", coll.Name()), zap.Int("entries", n))
	}
}
