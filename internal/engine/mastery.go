package engine

import (
	"context"
)

// MasteryObservation is one (skill, correctness) step of a learner's history.
type MasteryObservation struct {
	SkillTag string
	Correct  bool
}

// MasteryModel consumes a history of observations and emits a per-skill
// mastery probability vector. The model is pre-trained and opaque; only the
// interface is ours.
type MasteryModel interface {
	Predict(ctx context.Context, history []MasteryObservation) ([]float64, error)
}

// StaticMasteryModel emits a fixed vector. Deterministic stand-in for tests
// and for deployments without the sequence model.
type StaticMasteryModel struct {
	Vector []float64
}

func (m StaticMasteryModel) Predict(ctx context.Context, history []MasteryObservation) ([]float64, error) {
	out := make([]float64, len(m.Vector))
	copy(out, m.Vector)
	return out, nil
}
