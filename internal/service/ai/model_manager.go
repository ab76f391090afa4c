package ai

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kapu/roast-rag-go/internal/constants"
	"github.com/kapu/roast-rag-go/internal/metrics"
	"github.com/kapu/roast-rag-go/internal/util"
	apperrors "github.com/kapu/roast-rag-go/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// ErrCircuitOpen is returned without calling any provider while the breaker is open.
var ErrCircuitOpen = errors.New("generation service unavailable: circuit open")

var (
	statusCodeRegex = regexp.MustCompile(`\b(5\d{2})\b`)
	geminiCodeRegex = regexp.MustCompile(`"code":(\d{3})`)
	openaiCodeRegex = regexp.MustCompile(`^(\d{3})\s`)
)

type ModelManager struct {
	gemini         *GeminiProvider
	primary        Provider
	fallback       Provider
	logger         *zap.Logger
	enableFallback bool
	circuitBreaker *util.CircuitBreaker
}

type ModelManagerConfig struct {
	GeminiAPIKey       string
	OpenAIAPIKey       string
	DefaultGeminiModel string
	DefaultOpenAIModel string
	EnableFallback     bool
}

func NewModelManager(ctx context.Context, cfg ModelManagerConfig, logger *zap.Logger) (*ModelManager, error) {
	geminiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	defaultGemini := cfg.DefaultGeminiModel
	if defaultGemini == "" {
		defaultGemini = constants.ModelDefaults.GeminiModel
	}

	defaultOpenAI := cfg.DefaultOpenAIModel
	if defaultOpenAI == "" {
		defaultOpenAI = constants.ModelDefaults.OpenAIModel
	}

	geminiProvider := NewGeminiProvider(geminiClient, defaultGemini, logger)

	var fallback Provider
	openaiProvider := NewOpenAIProvider(cfg.OpenAIAPIKey, defaultOpenAI, logger)
	if openaiProvider != nil && cfg.EnableFallback {
		logger.Info("OpenAI fallback enabled", zap.String("model", defaultOpenAI))
		fallback = openaiProvider
	} else {
		logger.Info("OpenAI fallback disabled")
	}

	mm := newModelManager(geminiProvider, fallback, logger)
	mm.gemini = geminiProvider
	return mm, nil
}

func newModelManager(primary, fallback Provider, logger *zap.Logger) *ModelManager {
	mm := &ModelManager{
		primary:        primary,
		fallback:       fallback,
		enableFallback: fallback != nil,
		logger:         logger,
	}
	mm.circuitBreaker = util.NewCircuitBreaker(
		constants.CircuitBreakerConfig.FailureThreshold,
		constants.CircuitBreakerConfig.ResetTimeout,
		constants.CircuitBreakerConfig.HealthCheckInterval,
		mm.healthCheckPing,
		logger,
	)
	return mm
}

func (mm *ModelManager) GetGeminiClient() *genai.Client {
	if mm.gemini == nil {
		return nil
	}
	return mm.gemini.Client()
}

// Generate sends one prompt (plus optional image) and returns the raw model text.
// It never parses the text; callers own validation.
func (mm *ModelManager) Generate(ctx context.Context, prompt string, image *Attachment) (string, *GenerateMetadata, error) {
	if !mm.circuitBreaker.CanExecute() {
		status := mm.circuitBreaker.GetStatus()
		fields := []zap.Field{
			zap.String("state", status.State.String()),
			zap.Int("failure_count", status.FailureCount),
		}
		if status.NextRetryTime != nil {
			fields = append(fields, zap.Time("next_retry", *status.NextRetryTime))
		}
		mm.logger.Warn("Generation skipped (Circuit OPEN)", fields...)
		return "", nil, ErrCircuitOpen
	}

	options := &GenerateOptions{JSONMode: true}

	primaryResult, primaryErr := mm.invokeProvider(ctx, mm.primary, prompt, image, options)
	if primaryErr == nil {
		mm.circuitBreaker.RecordSuccess()
		return primaryResult.Text, &GenerateMetadata{
			Provider: mm.primary.Name(),
			Model:    primaryResult.Model,
		}, nil
	}

	if mm.enableFallback && mm.fallback != nil {
		mm.logger.Warn("Primary provider failed, trying fallback",
			zap.String("primary", mm.primary.Name()),
			zap.Error(primaryErr),
		)

		fallbackResult, fallbackErr := mm.invokeProvider(ctx, mm.fallback, prompt, image, options)
		if fallbackErr == nil {
			mm.circuitBreaker.RecordSuccess()
			return fallbackResult.Text, &GenerateMetadata{
				Provider:     mm.fallback.Name(),
				Model:        fallbackResult.Model,
				UsedFallback: true,
			}, nil
		}

		mm.recordFailure(primaryErr)
		mm.recordFailure(fallbackErr)
		return "", nil, apperrors.NewGenerationError("all providers failed", mm.fallback.Name(), "", errors.Join(primaryErr, fallbackErr))
	}

	mm.recordFailure(primaryErr)
	return "", nil, apperrors.NewGenerationError("generation failed", mm.primary.Name(), "", primaryErr)
}

func (mm *ModelManager) invokeProvider(ctx context.Context, provider Provider, prompt string, image *Attachment, opts *GenerateOptions) (ProviderResult, error) {
	if provider == nil {
		return ProviderResult{}, fmt.Errorf("model provider is not configured")
	}

	start := time.Now()
	result, err := provider.Generate(ctx, prompt, image, PresetCreative, opts)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.GenerationDuration.WithLabelValues(provider.Name(), status).Observe(time.Since(start).Seconds())

	return result, err
}

func (mm *ModelManager) recordFailure(err error) {
	if !isServiceFailure(err) {
		return
	}

	timeout := constants.CircuitBreakerConfig.ResetTimeout
	if isRateLimitError(err) {
		timeout = constants.CircuitBreakerConfig.RateLimitTimeout
	}

	mm.circuitBreaker.RecordFailure(timeout)
}

func (mm *ModelManager) healthCheckPing() bool {
	mm.logger.Info("Health Check: Testing AI services...")

	ctx, cancel := context.WithTimeout(context.Background(), constants.CircuitBreakerConfig.HealthCheckTimeout)
	defer cancel()

	primaryOK := mm.primary != nil && mm.primary.Ping(ctx)
	fallbackOK := mm.enableFallback && mm.fallback != nil && mm.fallback.Ping(ctx)
	isHealthy := primaryOK || fallbackOK

	mm.logger.Info("Health Check: Result",
		zap.Bool("primary", primaryOK),
		zap.Bool("fallback", fallbackOK),
		zap.Bool("healthy", isHealthy),
	)

	return isHealthy
}

// isServiceFailure reports upstream outages (timeouts, 5xx, rate limits).
// Client-side errors such as 400 do not count against the breaker.
func isServiceFailure(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	msg := err.Error()

	if strings.Contains(msg, "timeout") || strings.Contains(msg, "ETIMEDOUT") {
		return true
	}

	if isRateLimitError(err) {
		return true
	}

	if statusCodeRegex.MatchString(msg) {
		return true
	}

	if code, ok := extractStatusCode(msg); ok {
		return code >= 500 && code < 600
	}

	return false
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()

	if strings.Contains(msg, "429") || strings.Contains(msg, "Rate limit") || strings.Contains(msg, "quota") {
		return true
	}

	if code, ok := extractStatusCode(msg); ok {
		return code == 429
	}

	return false
}

func extractStatusCode(msg string) (int, bool) {
	for _, re := range []*regexp.Regexp{geminiCodeRegex, openaiCodeRegex} {
		if matches := re.FindStringSubmatch(msg); len(matches) > 1 {
			if code, err := strconv.Atoi(matches[1]); err == nil {
				return code, true
			}
		}
	}
	return 0, false
}

func (mm *ModelManager) GetCircuitStatus() util.CircuitBreakerStatus {
	return mm.circuitBreaker.GetStatus()
}

func (mm *ModelManager) ResetCircuit() {
	mm.circuitBreaker.Reset()
}
