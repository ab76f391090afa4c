package roast

import (
	"context"
	"errors"
	"time"

	"github.com/kapu/roast-rag-go/internal/constants"
	"github.com/kapu/roast-rag-go/internal/domain"
	"github.com/kapu/roast-rag-go/internal/metrics"
	"github.com/kapu/roast-rag-go/internal/prompt"
	"github.com/kapu/roast-rag-go/internal/service/ai"
	"github.com/kapu/roast-rag-go/internal/vision"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

// Generator is the single model call the service depends on.
type Generator interface {
	Generate(ctx context.Context, prompt string, image *ai.Attachment) (string, *ai.GenerateMetadata, error)
}

// ImagePreparer normalizes uploads before they reach the encoder and the model.
type ImagePreparer interface {
	Prepare(raw []byte) (*vision.Image, error)
}

type ServiceConfig struct {
	TextRetriever   *TextRetriever
	VisualRetriever *VisualRetriever
	Preparer        ImagePreparer
	Composer        *prompt.Composer
	Generator       Generator
	Normalizer      *Normalizer
	TextResults     int
	StyleAnchor     string
}

// Service orchestrates one roast: retrieve, compose, generate, normalize.
type Service struct {
	text        *TextRetriever
	visual      *VisualRetriever
	preparer    ImagePreparer
	composer    *prompt.Composer
	generator   Generator
	normalizer  *Normalizer
	textResults int
	styleAnchor string
	logger      *zap.Logger
}

func NewService(cfg ServiceConfig, logger *zap.Logger) *Service {
	textResults := cfg.TextResults
	if textResults <= 0 {
		textResults = constants.RetrievalConfig.TextResults
	}
	styleAnchor := cfg.StyleAnchor
	if styleAnchor == "" {
		styleAnchor = constants.RetrievalConfig.StyleAnchor
	}
	composer := cfg.Composer
	if composer == nil {
		composer = prompt.NewComposer(nil, logger)
	}
	normalizer := cfg.Normalizer
	if normalizer == nil {
		normalizer = NewNormalizer(logger)
	}

	return &Service{
		text:        cfg.TextRetriever,
		visual:      cfg.VisualRetriever,
		preparer:    cfg.Preparer,
		composer:    composer,
		generator:   cfg.Generator,
		normalizer:  normalizer,
		textResults: textResults,
		styleAnchor: styleAnchor,
		logger:      logger,
	}
}

// Roast returns the record only; it is what HTTP callers see.
func (s *Service) Roast(ctx context.Context, req domain.RoastRequest) domain.RoastRecord {
	return s.GenerateRoast(ctx, req).Record
}

// GenerateRoast never fails: every error path ends in the fallback record.
func (s *Service) GenerateRoast(ctx context.Context, req domain.RoastRequest) (result domain.RoastResult) {
	start := time.Now()
	name := req.Name
	taste := ProcessTaste(req.Taste)

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Roast pipeline panicked", zap.Any("panic", r), zap.Stack("stack"))
			result = Fallback(name, domain.ReasonGenerationFailed)
		}
		metrics.RoastRequestsTotal.WithLabelValues(string(result.Outcome), string(result.Reason)).Inc()
		s.logger.Info("Roast completed",
			zap.String("outcome", string(result.Outcome)),
			zap.String("reason", string(result.Reason)),
			zap.Duration("elapsed", time.Since(start)),
		)
	}()

	img := s.prepareImage(req)

	var (
		topical, style []string
		visualContext  string
	)

	var wg conc.WaitGroup
	wg.Go(func() {
		topical = s.retrieveText(ctx, "topical", taste)
	})
	wg.Go(func() {
		style = s.retrieveText(ctx, "style", s.styleAnchor)
	})
	if img != nil {
		wg.Go(func() {
			visualContext = s.retrieveVisual(ctx, img)
		})
	}
	if recovered := wg.WaitAndRecover(); recovered != nil {
		s.logger.Error("Retrieval panicked", zap.String("panic", recovered.String()))
	}

	examples := MergeExamples(topical, style)
	roastPrompt := s.composer.Compose(name, taste, visualContext, examples, img != nil)

	s.logger.Debug("Prompt composed",
		zap.Int("examples", len(examples)),
		zap.Bool("visual_context", visualContext != ""),
		zap.Bool("with_image", img != nil),
		zap.Int("prompt_length", len(roastPrompt)),
	)

	if s.generator == nil {
		return Fallback(name, domain.ReasonGenerationFailed)
	}

	var attachment *ai.Attachment
	if img != nil {
		attachment = &ai.Attachment{Data: img.Data, MIMEType: img.MIMEType}
	}

	raw, meta, err := s.generator.Generate(ctx, roastPrompt, attachment)
	if err != nil {
		reason := domain.ReasonGenerationFailed
		if errors.Is(err, ai.ErrCircuitOpen) {
			reason = domain.ReasonCircuitOpen
		}
		s.logger.Warn("Generation failed, serving fallback", zap.String("reason", string(reason)), zap.Error(err))
		return Fallback(name, reason)
	}
	if meta != nil {
		s.logger.Debug("Generation succeeded",
			zap.String("provider", meta.Provider),
			zap.String("model", meta.Model),
			zap.Bool("used_fallback", meta.UsedFallback),
		)
	}

	return s.normalizer.Normalize(name, raw)
}

func (s *Service) prepareImage(req domain.RoastRequest) *vision.Image {
	if !req.HasImage() || s.preparer == nil {
		return nil
	}
	img, err := s.preparer.Prepare(req.Image)
	if err != nil {
		s.logger.Warn("Image could not be decoded, continuing without it",
			zap.Int("bytes", len(req.Image)),
			zap.Error(err),
		)
		return nil
	}
	return img
}

func (s *Service) retrieveText(ctx context.Context, kind, query string) []string {
	matches, status := s.text.RetrieveMatches(ctx, query, s.textResults)
	metrics.RetrievalTotal.WithLabelValues(kind, string(status)).Inc()
	return domain.Texts(matches)
}

func (s *Service) retrieveVisual(ctx context.Context, img *vision.Image) string {
	text, status := s.visual.RetrieveWithStatus(ctx, img)
	metrics.RetrievalTotal.WithLabelValues("visual", string(status)).Inc()
	return text
}
