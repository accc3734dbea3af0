package engine

import "math"

// CosineSimilarity between two vectors. Pairs involving an empty or all-zero
// vector are defined as 0 (no signal).
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0.0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// DetectStruggle reports whether the current prompt embedding repeats any of
// the recent ones above the threshold. Scanning stops at the first match; the
// order does not change the boolean outcome.
func DetectStruggle(current []float64, recent [][]float64, threshold float64) bool {
	if len(current) == 0 {
		return false
	}
	for _, past := range recent {
		if CosineSimilarity(current, past) > threshold {
			return true
		}
	}
	return false
}
