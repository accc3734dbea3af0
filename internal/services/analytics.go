package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/skillloop/skillloop-backend/internal/logger"
	"github.com/skillloop/skillloop-backend/internal/repos"
	"github.com/skillloop/skillloop-backend/internal/requestdata"
)

const (
	weaknessCriticalBelow = 40.0
	weaknessWeakBelow     = 70.0
)

type TopicWeakness struct {
	TopicTag string  `json:"topic"`
	AvgScore float64 `json:"avg_score"`
	Attempts int     `json:"attempts"`
	Severity string  `json:"severity"`
}

type AnalyticsService interface {
	Retention(ctx context.Context) ([]repos.RetentionPoint, error)
	Weaknesses(ctx context.Context) ([]TopicWeakness, error)
}

type analyticsService struct {
	log           *logger.Logger
	quizScoreRepo repos.QuizScoreRepo
}

func NewAnalyticsService(log *logger.Logger, quizScoreRepo repos.QuizScoreRepo) AnalyticsService {
	return &analyticsService{
		log:           log.With("service", "AnalyticsService"),
		quizScoreRepo: quizScoreRepo,
	}
}

func (s *analyticsService) Retention(ctx context.Context) ([]repos.RetentionPoint, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("no authenticated user in context")
	}
	points, err := s.quizScoreRepo.RetentionByDay(ctx, nil, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load retention history: %w", err)
	}
	return points, nil
}

func (s *analyticsService) Weaknesses(ctx context.Context) ([]TopicWeakness, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("no authenticated user in context")
	}
	averages, err := s.quizScoreRepo.AveragesByTopic(ctx, nil, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load topic averages: %w", err)
	}
	out := make([]TopicWeakness, 0, len(averages))
	for _, avg := range averages {
		out = append(out, TopicWeakness{
			TopicTag: avg.TopicTag,
			AvgScore: avg.AvgScore,
			Attempts: avg.Attempts,
			Severity: severityFor(avg.AvgScore),
		})
	}
	return out, nil
}

func severityFor(avgScore float64) string {
	switch {
	case avgScore < weaknessCriticalBelow:
		return "Critical"
	case avgScore < weaknessWeakBelow:
		return "Weak"
	default:
		return "Strong"
	}
}
