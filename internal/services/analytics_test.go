package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/skillloop/skillloop-backend/internal/repos"
)

func TestWeaknesses_ClassifiesSeverity(t *testing.T) {
	scores := &fakeQuizScoreRepo{
		topics: []repos.TopicAverage{
			{TopicTag: "pointers", AvgScore: 25.0, Attempts: 4},
			{TopicTag: "slices", AvgScore: 55.0, Attempts: 6},
			{TopicTag: "maps", AvgScore: 90.0, Attempts: 3},
		},
	}
	svc := NewAnalyticsService(testLogger(t), scores)

	out, err := svc.Weaknesses(authedContext(uuid.New()))
	if err != nil {
		t.Fatalf("weaknesses failed: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 topics, got %d", len(out))
	}
	if out[0].Severity != "Critical" {
		t.Fatalf("25.0 should be Critical, got %q", out[0].Severity)
	}
	if out[1].Severity != "Weak" {
		t.Fatalf("55.0 should be Weak, got %q", out[1].Severity)
	}
	if out[2].Severity != "Strong" {
		t.Fatalf("90.0 should be Strong, got %q", out[2].Severity)
	}
}

func TestSeverityFor_Boundaries(t *testing.T) {
	if severityFor(39.99) != "Critical" {
		t.Fatalf("just below 40 should be Critical")
	}
	if severityFor(40.0) != "Weak" {
		t.Fatalf("exactly 40 should be Weak")
	}
	if severityFor(69.99) != "Weak" {
		t.Fatalf("just below 70 should be Weak")
	}
	if severityFor(70.0) != "Strong" {
		t.Fatalf("exactly 70 should be Strong")
	}
}

func TestWeaknesses_RequiresAuth(t *testing.T) {
	svc := NewAnalyticsService(testLogger(t), &fakeQuizScoreRepo{})
	if _, err := svc.Weaknesses(context.Background()); err == nil {
		t.Fatalf("expected error without request data")
	}
}

func TestRetention_RequiresAuth(t *testing.T) {
	svc := NewAnalyticsService(testLogger(t), &fakeQuizScoreRepo{})
	if _, err := svc.Retention(context.Background()); err == nil {
		t.Fatalf("expected error without request data")
	}
}
