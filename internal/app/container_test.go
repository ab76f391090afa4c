package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/kapu/roast-rag-go/internal/config"
	"go.uber.org/zap"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{Port: 8000, AllowedOrigins: []string{"*"}, MaxUploadBytes: 1 << 20},
		Gemini: config.GeminiConfig{APIKey: "test-key", Model: "gemini-2.5-flash", EmbeddingModel: "text-embedding-004"},
		Vector: config.VectorConfig{Backend: "sqlite", Path: filepath.Join(t.TempDir(), "roast.db")},
	}
}

func TestBuildRejectsNilInputs(t *testing.T) {
	if _, err := Build(context.Background(), nil, zap.NewNop()); err == nil {
		t.Fatalf("expected error for nil config")
	}
	if _, err := Build(context.Background(), testConfig(t), nil); err == nil {
		t.Fatalf("expected error for nil logger")
	}
}

func TestBuildWiresSQLiteCorpus(t *testing.T) {
	container, err := Build(context.Background(), testConfig(t), zap.NewNop())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer container.Close()

	if container.Corpus == nil || container.Corpus.Store.Backend() != "sqlite" {
		t.Fatalf("expected sqlite corpus, got %+v", container.Corpus)
	}
	if container.Corpus.Encoder != nil {
		t.Fatalf("face encoder must stay nil without FACE_ENCODER_URL")
	}
	if container.Corpus.Cache != nil {
		t.Fatalf("cache must stay nil when redis is disabled")
	}

	rec := httptest.NewRecorder()
	container.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from root, got %d", rec.Code)
	}
}

func TestBuildDegradesWhenStoreFails(t *testing.T) {
	cfg := testConfig(t)
	cfg.Vector.Backend = "postgres"
	cfg.Postgres = config.PostgresConfig{Host: "127.0.0.1", Port: 1, User: "x", Database: "x"}

	container, err := Build(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("store failure must not be fatal: %v", err)
	}
	defer container.Close()

	if container.Corpus != nil {
		t.Fatalf("expected no corpus in degraded mode")
	}
	if container.Roast == nil || container.Handler == nil {
		t.Fatalf("roast service and handler must still be built")
	}
}
