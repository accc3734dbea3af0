package engine

import (
	"math"
	"testing"
)

func TestCosineSimilarity_SelfIsOne(t *testing.T) {
	v := []float64{0.3, -0.2, 0.9}
	if got := CosineSimilarity(v, v); math.Abs(got-1.0) > 1e-9 {
		t.Fatalf("expected 1.0 for identical vectors, got %f", got)
	}
}

func TestCosineSimilarity_Symmetric(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{-1, 0.5, 2}
	if got, rev := CosineSimilarity(a, b), CosineSimilarity(b, a); math.Abs(got-rev) > 1e-12 {
		t.Fatalf("expected symmetry, got %f vs %f", got, rev)
	}
}

func TestCosineSimilarity_OrthogonalIsZero(t *testing.T) {
	a := []float64{1, 0}
	b := []float64{0, 1}
	if got := CosineSimilarity(a, b); math.Abs(got) > 1e-12 {
		t.Fatalf("expected 0 for orthogonal vectors, got %f", got)
	}
}

func TestCosineSimilarity_DegenerateInputs(t *testing.T) {
	if got := CosineSimilarity(nil, []float64{1}); got != 0.0 {
		t.Fatalf("empty vector should score 0, got %f", got)
	}
	if got := CosineSimilarity([]float64{1, 2}, []float64{1}); got != 0.0 {
		t.Fatalf("length mismatch should score 0, got %f", got)
	}
	if got := CosineSimilarity([]float64{0, 0}, []float64{1, 1}); got != 0.0 {
		t.Fatalf("zero-norm vector should score 0, got %f", got)
	}
}

func TestDetectStruggle_AboveThreshold(t *testing.T) {
	current := []float64{1, 0, 0}
	recent := [][]float64{
		{0, 1, 0},
		{0.95, 0.05, 0}, // ~0.999 similarity
	}
	if !DetectStruggle(current, recent, 0.70) {
		t.Fatalf("expected struggle with a near-duplicate in the window")
	}
}

func TestDetectStruggle_BelowThreshold(t *testing.T) {
	current := []float64{1, 0, 0}
	recent := [][]float64{
		{0, 1, 0},
		{0.1, 0.9, 0},
	}
	if DetectStruggle(current, recent, 0.70) {
		t.Fatalf("expected no struggle when nothing crosses the threshold")
	}
}

func TestDetectStruggle_NoSignal(t *testing.T) {
	if DetectStruggle(nil, [][]float64{{1, 0}}, 0.5) {
		t.Fatalf("empty current embedding should never flag struggle")
	}
	if DetectStruggle([]float64{1, 0}, nil, 0.5) {
		t.Fatalf("empty window should never flag struggle")
	}
}
