package engine

import (
	"math"

	"github.com/skillloop/skillloop-backend/internal/types"
)

const (
	WeightRetention    = 0.4
	WeightIndependence = 0.3
	WeightQuality      = 0.3
)

const (
	bucketWeakBelow   = 40.0
	bucketStrongAbove = 70.0
)

// dependencyHighCutoff splits the policy state space on dependency.
const dependencyHighCutoff = 0.6

// promptLengthBaseline: a 200-char average prompt scores full engagement.
const promptLengthBaseline = 200.0

const defaultTerm = 50.0

// RetentionTerm averages (score/total)*100 over the given quiz records,
// skipping zero-total rows. Defaults to 50 with no records.
func RetentionTerm(scores []*types.QuizScore) float64 {
	if len(scores) == 0 {
		return defaultTerm
	}
	var sum float64
	var n int
	for _, s := range scores {
		if s.TotalQuestions <= 0 {
			continue
		}
		sum += s.Score / float64(s.TotalQuestions) * 100.0
		n++
	}
	if n == 0 {
		return 0.0
	}
	return sum / float64(n)
}

// IndependenceTerm inverts the dependency probability onto the 0-100 scale.
func IndependenceTerm(dependencyProb float64) float64 {
	return (1.0 - dependencyProb) * 100.0
}

// QualityTerm scores engagement from average prompt length over the given
// chat turns. Defaults to 50 with no turns.
func QualityTerm(turns []*types.ChatTurn) float64 {
	if len(turns) == 0 {
		return defaultTerm
	}
	var total float64
	for _, t := range turns {
		total += float64(len(t.Prompt))
	}
	avg := total / float64(len(turns))
	q := avg / promptLengthBaseline * 100.0
	if q < 0 {
		return 0
	}
	if q > 100 {
		return 100
	}
	return q
}

// CompositeSSI blends the three terms with fixed weights and rounds to two
// decimal places.
func CompositeSSI(retention, independence, quality float64) float64 {
	ssi := WeightRetention*retention + WeightIndependence*independence + WeightQuality*quality
	return math.Round(ssi*100) / 100
}

// BucketFor is the canonical step function over the skill index: <40 Weak,
// >70 Strong, else Moderate.
func BucketFor(ssi float64) string {
	if ssi < bucketWeakBelow {
		return types.BucketWeak
	}
	if ssi > bucketStrongAbove {
		return types.BucketStrong
	}
	return types.BucketModerate
}

// DifficultyFor derives the content difficulty tier from the bucket. Never
// settable independently.
func DifficultyFor(bucket string) int {
	switch bucket {
	case types.BucketWeak:
		return 1
	case types.BucketStrong:
		return 3
	default:
		return 2
	}
}

// DependencyLevel discretizes the dependency probability for the policy
// state key.
func DependencyLevel(dependencyProb float64) string {
	if dependencyProb > dependencyHighCutoff {
		return "High"
	}
	return "Low"
}
