package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillloop/skillloop-backend/internal/engine"
	"github.com/skillloop/skillloop-backend/internal/repos"
	"github.com/skillloop/skillloop-backend/internal/types"
)

type fakeQuizScoreRepo struct {
	created []*types.QuizScore
	recent  []*types.QuizScore
	topics  []repos.TopicAverage
}

func (f *fakeQuizScoreRepo) Create(ctx context.Context, tx *gorm.DB, scores []*types.QuizScore) ([]*types.QuizScore, error) {
	f.created = append(f.created, scores...)
	return scores, nil
}
func (f *fakeQuizScoreRepo) GetRecentByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.QuizScore, error) {
	return f.recent, nil
}
func (f *fakeQuizScoreRepo) RetentionByDay(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]repos.RetentionPoint, error) {
	return nil, nil
}
func (f *fakeQuizScoreRepo) AveragesByTopic(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]repos.TopicAverage, error) {
	return f.topics, nil
}

type quizFixture struct {
	service QuizService
	turns   *fakeChatTurnRepo
	scores  *fakeQuizScoreRepo
	ai      *fakeAIClient
	engine  *fakeEngine
}

func newQuizFixture(t *testing.T) *quizFixture {
	t.Helper()
	fx := &quizFixture{
		turns:  &fakeChatTurnRepo{},
		scores: &fakeQuizScoreRepo{},
		ai:     &fakeAIClient{},
		engine: &fakeEngine{},
	}
	fx.service = NewQuizService(testLogger(t), fx.turns, fx.scores, fx.ai, fx.engine)
	return fx
}

func TestGenerateQuiz_FailsWithoutHistory(t *testing.T) {
	fx := newQuizFixture(t)
	_, err := fx.service.GenerateQuiz(authedContext(uuid.New()))
	if !errors.Is(err, ErrNoChatHistory) {
		t.Fatalf("expected ErrNoChatHistory, got %v", err)
	}
}

func TestGenerateQuiz_ParsesModelPayload(t *testing.T) {
	fx := newQuizFixture(t)
	fx.turns.recent = []*types.ChatTurn{
		{Prompt: "what are slices?", Response: "Slices are views over arrays."},
	}
	fx.ai.jsonResult = map[string]any{
		"topic_tag": "slices",
		"questions": []any{
			map[string]any{
				"question":       "What backs a slice?",
				"options":        []any{"An array", "A map", "A channel", "A struct"},
				"correct_option": float64(0),
				"topic_tag":      "slices",
			},
		},
	}

	quiz, err := fx.service.GenerateQuiz(authedContext(uuid.New()))
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if quiz.TopicTag != "slices" {
		t.Fatalf("expected topic slices, got %q", quiz.TopicTag)
	}
	if len(quiz.Questions) != 1 || quiz.Questions[0].CorrectOption != 0 {
		t.Fatalf("unexpected questions payload: %+v", quiz.Questions)
	}
}

func TestGenerateQuiz_SurfacesModelFailure(t *testing.T) {
	fx := newQuizFixture(t)
	fx.turns.recent = []*types.ChatTurn{{Prompt: "p", Response: "r"}}
	fx.ai.jsonErr = fmt.Errorf("model down")

	if _, err := fx.service.GenerateQuiz(authedContext(uuid.New())); err == nil {
		t.Fatalf("expected generation failure to surface")
	}
}

func TestSubmitQuiz_ValidatesInput(t *testing.T) {
	fx := newQuizFixture(t)
	ctx := authedContext(uuid.New())

	if _, err := fx.service.SubmitQuiz(ctx, QuizSubmission{TopicTag: "x", Score: 1, TotalQuestions: 0}); err == nil {
		t.Fatalf("zero total must be rejected")
	}
	if _, err := fx.service.SubmitQuiz(ctx, QuizSubmission{TopicTag: "x", Score: 5, TotalQuestions: 3}); err == nil {
		t.Fatalf("score above total must be rejected")
	}
	if _, err := fx.service.SubmitQuiz(ctx, QuizSubmission{TopicTag: "x", Score: -1, TotalQuestions: 3}); err == nil {
		t.Fatalf("negative score must be rejected")
	}
}

func TestSubmitQuiz_SavesScoreAndRunsCycle(t *testing.T) {
	fx := newQuizFixture(t)
	fx.engine.result = &engine.UpdateResult{SSI: 61.5, Bucket: types.BucketModerate}

	result, err := fx.service.SubmitQuiz(authedContext(uuid.New()), QuizSubmission{TopicTag: "maps", Score: 2, TotalQuestions: 3})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if len(fx.scores.created) != 1 {
		t.Fatalf("expected one saved score, got %d", len(fx.scores.created))
	}
	if fx.scores.created[0].TopicTag != "maps" {
		t.Fatalf("unexpected topic %q", fx.scores.created[0].TopicTag)
	}
	if fx.engine.quizCalls != 1 {
		t.Fatalf("expected update cycle to run once, got %d", fx.engine.quizCalls)
	}
	if result.Profile == nil || result.Profile.SSI != 61.5 {
		t.Fatalf("expected the cycle result to be attached")
	}
}

func TestSubmitQuiz_CycleFailureDoesNotFailSubmission(t *testing.T) {
	fx := newQuizFixture(t)
	fx.engine.err = fmt.Errorf("classifier down")

	result, err := fx.service.SubmitQuiz(authedContext(uuid.New()), QuizSubmission{TopicTag: "maps", Score: 2, TotalQuestions: 3})
	if err != nil {
		t.Fatalf("cycle failure must not fail the submission: %v", err)
	}
	if result.Profile != nil {
		t.Fatalf("no profile should be attached when the cycle fails")
	}
	if len(fx.scores.created) != 1 {
		t.Fatalf("score must still be saved")
	}
}

func TestSubmitQuiz_CarriesAttempts(t *testing.T) {
	fx := newQuizFixture(t)

	if _, err := fx.service.SubmitQuiz(authedContext(uuid.New()), QuizSubmission{TopicTag: "maps", Score: 2, TotalQuestions: 3, Attempts: 3}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if fx.scores.created[0].Attempts != 3 {
		t.Fatalf("expected attempts 3, got %d", fx.scores.created[0].Attempts)
	}

	if _, err := fx.service.SubmitQuiz(authedContext(uuid.New()), QuizSubmission{TopicTag: "maps", Score: 2, TotalQuestions: 3}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if fx.scores.created[1].Attempts != 1 {
		t.Fatalf("absent attempts should default to 1, got %d", fx.scores.created[1].Attempts)
	}
}

func TestSubmitQuiz_DefaultsBlankTopic(t *testing.T) {
	fx := newQuizFixture(t)
	if _, err := fx.service.SubmitQuiz(authedContext(uuid.New()), QuizSubmission{Score: 1, TotalQuestions: 2}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if fx.scores.created[0].TopicTag != "general" {
		t.Fatalf("blank topic should default to general, got %q", fx.scores.created[0].TopicTag)
	}
}
