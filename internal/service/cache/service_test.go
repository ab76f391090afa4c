package cache

import (
	"errors"
	"testing"

	apperrors "github.com/kapu/roast-rag-go/pkg/errors"
	"go.uber.org/zap"
)

func TestNewCacheServiceUnreachable(t *testing.T) {
	svc, err := NewCacheService(CacheConfig{Host: "127.0.0.1", Port: 1}, zap.NewNop())
	if err == nil {
		_ = svc.Close()
		t.Fatalf("expected connection error")
	}

	var cacheErr *apperrors.CacheError
	if !errors.As(err, &cacheErr) {
		t.Fatalf("expected CacheError, got %T", err)
	}
	if cacheErr.Operation != "ping" {
		t.Fatalf("expected ping operation, got %q", cacheErr.Operation)
	}
}
