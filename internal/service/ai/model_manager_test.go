package ai

import (
	"context"
	"errors"
	"testing"

	apperrors "github.com/kapu/roast-rag-go/pkg/errors"
	"go.uber.org/zap"
)

type fakeProvider struct {
	name      string
	text      string
	err       error
	calls     int
	lastImage *Attachment
	lastOpts  *GenerateOptions
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Generate(_ context.Context, _ string, image *Attachment, _ ModelPreset, opts *GenerateOptions) (ProviderResult, error) {
	f.calls++
	f.lastImage = image
	f.lastOpts = opts
	if f.err != nil {
		return ProviderResult{}, f.err
	}
	return ProviderResult{Text: f.text, Model: f.name + "-model"}, nil
}

func (f *fakeProvider) Ping(context.Context) bool { return f.err == nil }

func TestGenerateReturnsRawPrimaryText(t *testing.T) {
	primary := &fakeProvider{name: "Gemini", text: "```json\n{}\n```"}
	mm := newModelManager(primary, nil, zap.NewNop())

	image := &Attachment{Data: []byte{0xff}, MIMEType: "image/jpeg"}
	text, meta, err := mm.Generate(context.Background(), "prompt", image)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "```json\n{}\n```" {
		t.Fatalf("expected raw text untouched, got %q", text)
	}
	if meta.Provider != "Gemini" || meta.UsedFallback {
		t.Fatalf("unexpected metadata %+v", meta)
	}
	if primary.lastImage != image {
		t.Fatalf("image not forwarded to provider")
	}
	if primary.lastOpts == nil || !primary.lastOpts.JSONMode {
		t.Fatalf("expected JSON mode requested")
	}
}

func TestGenerateUsesFallbackProvider(t *testing.T) {
	primary := &fakeProvider{name: "Gemini", err: errors.New("googleapi: Error 503: overloaded")}
	fallback := &fakeProvider{name: "OpenAI", text: "{}"}
	mm := newModelManager(primary, fallback, zap.NewNop())

	text, meta, err := mm.Generate(context.Background(), "prompt", nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "{}" || !meta.UsedFallback || meta.Provider != "OpenAI" {
		t.Fatalf("unexpected fallback result %q %+v", text, meta)
	}
}

func TestGenerateWrapsProviderError(t *testing.T) {
	cause := errors.New("400 bad request")
	mm := newModelManager(&fakeProvider{name: "Gemini", err: cause}, nil, zap.NewNop())

	_, _, err := mm.Generate(context.Background(), "prompt", nil)
	var genErr *apperrors.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %T", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause preserved")
	}
	if mm.GetCircuitStatus().FailureCount != 0 {
		t.Fatalf("client errors must not count against the breaker")
	}
}

func TestGenerateOpensCircuitOnServiceFailures(t *testing.T) {
	primary := &fakeProvider{name: "Gemini", err: errors.New("googleapi: Error 500: internal")}
	mm := newModelManager(primary, nil, zap.NewNop())

	for i := 0; i < 3; i++ {
		if _, _, err := mm.Generate(context.Background(), "prompt", nil); err == nil {
			t.Fatalf("expected failure on attempt %d", i)
		}
	}

	_, _, err := mm.Generate(context.Background(), "prompt", nil)
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if primary.calls != 3 {
		t.Fatalf("provider must not be called while circuit is open, calls=%d", primary.calls)
	}

	mm.ResetCircuit()
	primary.err = nil
	primary.text = "{}"
	if _, _, err := mm.Generate(context.Background(), "prompt", nil); err != nil {
		t.Fatalf("expected success after reset, got %v", err)
	}
}

func TestIsServiceFailure(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{msg: "request timeout", want: true},
		{msg: `{"error":{"code":503,"message":"overloaded"}}`, want: true},
		{msg: "502 Bad Gateway", want: true},
		{msg: "429 Too Many Requests", want: true},
		{msg: "quota exceeded", want: true},
		{msg: "400 invalid argument", want: false},
		{msg: `{"error":{"code":400}}`, want: false},
	}

	for _, tt := range tests {
		if got := isServiceFailure(errors.New(tt.msg)); got != tt.want {
			t.Errorf("isServiceFailure(%q) = %v, want %v", tt.msg, got, tt.want)
		}
	}

	if !isServiceFailure(context.DeadlineExceeded) {
		t.Errorf("deadline exceeded should count as service failure")
	}
}

func TestIsRateLimitError(t *testing.T) {
	if !isRateLimitError(errors.New(`{"code":429}`)) {
		t.Fatalf("expected gemini 429 to be a rate limit")
	}
	if isRateLimitError(errors.New("500 internal")) {
		t.Fatalf("500 is not a rate limit")
	}
}

func TestDataURL(t *testing.T) {
	got := dataURL(&Attachment{Data: []byte("hi")})
	if got != "data:image/jpeg;base64,aGk=" {
		t.Fatalf("unexpected data url %q", got)
	}
}

func TestApplyOverrides(t *testing.T) {
	base := GetPresetConfig(PresetCreative)
	got := applyOverrides(base, &GenerateOptions{Overrides: &ModelConfig{Temperature: 0.2, MaxOutputTokens: 99}})
	if got.Temperature != 0.2 || got.MaxOutputTokens != 99 || got.TopK != base.TopK {
		t.Fatalf("unexpected overrides %+v", got)
	}
}
