package vectorstore

import (
	"math"
	"testing"
)

func TestPackUnpackEmbedding(t *testing.T) {
	in := []float32{0.5, -1.25, 3}
	out, err := UnpackEmbedding(PackEmbedding(in))
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	for i := range in {
		if in[i] != out[i] {
			t.Fatalf("index %d: want %v got %v", i, in[i], out[i])
		}
	}

	if _, err := UnpackEmbedding([]byte{1, 2, 3}); err == nil {
		t.Fatalf("expected error for truncated data")
	}
}

func TestCosineDistance(t *testing.T) {
	if d := CosineDistance([]float32{1, 0}, []float32{1, 0}); math.Abs(d) > 1e-9 {
		t.Fatalf("identical vectors: want 0 got %v", d)
	}
	if d := CosineDistance([]float32{1, 0}, []float32{0, 1}); math.Abs(d-1) > 1e-9 {
		t.Fatalf("orthogonal vectors: want 1 got %v", d)
	}
	if d := CosineDistance([]float32{1, 0}, []float32{-1, 0}); math.Abs(d-2) > 1e-9 {
		t.Fatalf("opposite vectors: want 2 got %v", d)
	}
}

func TestL2Distance(t *testing.T) {
	if d := L2Distance([]float32{0, 0}, []float32{3, 4}); math.Abs(d-5) > 1e-9 {
		t.Fatalf("want 5 got %v", d)
	}
	if d := L2Distance([]float32{0}, []float32{3, 4}); !math.IsInf(d, 1) {
		t.Fatalf("mismatched dimensions should be +Inf, got %v", d)
	}
}

func TestMetricDistance(t *testing.T) {
	a, b := []float32{0, 0}, []float32{3, 4}
	if MetricL2.Distance(a, b) != 5 {
		t.Fatalf("l2 metric should dispatch to L2Distance")
	}
	if MetricCosine.Distance([]float32{1, 0}, []float32{2, 0}) > 1e-9 {
		t.Fatalf("cosine metric should ignore magnitude")
	}
}
