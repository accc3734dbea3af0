package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/skillloop/skillloop-backend/internal/engine"
	"github.com/skillloop/skillloop-backend/internal/logger"
	"github.com/skillloop/skillloop-backend/internal/repos"
	"github.com/skillloop/skillloop-backend/internal/requestdata"
	"github.com/skillloop/skillloop-backend/internal/types"
)

const (
	quizQuestionCount  = 3
	quizContextTurns   = 3
	quizOptionsPerItem = 4
)

// ErrNoChatHistory is returned when quiz generation has nothing to quiz on.
var ErrNoChatHistory = fmt.Errorf("no chat history to generate a quiz from")

type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correct_option"`
	TopicTag      string   `json:"topic_tag"`
}

type GeneratedQuiz struct {
	TopicTag  string         `json:"topic_tag"`
	Questions []QuizQuestion `json:"questions"`
}

type QuizSubmission struct {
	TopicTag       string  `json:"topic_tag"`
	Score          float64 `json:"score"`
	TotalQuestions int     `json:"total_questions"`
	Attempts       int     `json:"attempts"`
}

type QuizSubmitResult struct {
	ScoreID uuid.UUID            `json:"score_id"`
	Profile *engine.UpdateResult `json:"profile,omitempty"`
}

type QuizService interface {
	GenerateQuiz(ctx context.Context) (*GeneratedQuiz, error)
	SubmitQuiz(ctx context.Context, submission QuizSubmission) (*QuizSubmitResult, error)
}

type quizService struct {
	log           *logger.Logger
	chatTurnRepo  repos.ChatTurnRepo
	quizScoreRepo repos.QuizScoreRepo
	aiClient      AIClient
	engine        UpdateCycleRunner
}

func NewQuizService(
	log *logger.Logger,
	chatTurnRepo repos.ChatTurnRepo,
	quizScoreRepo repos.QuizScoreRepo,
	aiClient AIClient,
	eng UpdateCycleRunner,
) QuizService {
	return &quizService{
		log:           log.With("service", "QuizService"),
		chatTurnRepo:  chatTurnRepo,
		quizScoreRepo: quizScoreRepo,
		aiClient:      aiClient,
		engine:        eng,
	}
}

var quizSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []string{"topic_tag", "questions"},
	"properties": map[string]any{
		"topic_tag": map[string]any{"type": "string"},
		"questions": map[string]any{
			"type":     "array",
			"minItems": quizQuestionCount,
			"maxItems": quizQuestionCount,
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"required":             []string{"question", "options", "correct_option", "topic_tag"},
				"properties": map[string]any{
					"question": map[string]any{"type": "string"},
					"options": map[string]any{
						"type":     "array",
						"minItems": quizOptionsPerItem,
						"maxItems": quizOptionsPerItem,
						"items":    map[string]any{"type": "string"},
					},
					"correct_option": map[string]any{
						"type":    "integer",
						"minimum": 0,
						"maximum": quizOptionsPerItem - 1,
					},
					"topic_tag": map[string]any{"type": "string"},
				},
			},
		},
	},
}

func (qs *quizService) GenerateQuiz(ctx context.Context) (*GeneratedQuiz, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("no authenticated user in context")
	}

	turns, err := qs.chatTurnRepo.GetRecentByUser(ctx, nil, rd.UserID, quizContextTurns)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}
	if len(turns) == 0 {
		return nil, ErrNoChatHistory
	}

	var sb strings.Builder
	sb.WriteString("Recent tutoring exchanges, newest first:\n\n")
	for i, turn := range turns {
		sb.WriteString(fmt.Sprintf("Exchange %d:\nStudent: %s\nTutor: %s\n\n", i+1, turn.Prompt, turn.Response))
	}
	sb.WriteString(fmt.Sprintf(
		"Generate exactly %d multiple-choice questions testing what the student just studied. "+
			"Each question has %d options and one correct answer. "+
			"Use a short lowercase topic_tag naming the dominant topic.",
		quizQuestionCount, quizOptionsPerItem,
	))

	system := "You write short retention quizzes for a programming tutor. " +
		"Questions must be answerable from the supplied exchanges alone."

	obj, genErr := qs.aiClient.GenerateJSON(ctx, system, sb.String(), "retention_quiz", quizSchema)
	if genErr != nil {
		return nil, fmt.Errorf("quiz generation failed: %w", genErr)
	}

	raw, mErr := json.Marshal(obj)
	if mErr != nil {
		return nil, mErr
	}
	var quiz GeneratedQuiz
	if uErr := json.Unmarshal(raw, &quiz); uErr != nil {
		return nil, fmt.Errorf("malformed quiz payload: %w", uErr)
	}
	if len(quiz.Questions) == 0 {
		return nil, fmt.Errorf("model returned an empty quiz")
	}
	if quiz.TopicTag == "" {
		quiz.TopicTag = "general"
	}
	return &quiz, nil
}

func (qs *quizService) SubmitQuiz(ctx context.Context, submission QuizSubmission) (*QuizSubmitResult, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("no authenticated user in context")
	}
	if submission.TotalQuestions <= 0 {
		return nil, fmt.Errorf("total_questions must be positive")
	}
	if submission.Score < 0 || submission.Score > float64(submission.TotalQuestions) {
		return nil, fmt.Errorf("score out of range")
	}
	topic := strings.TrimSpace(submission.TopicTag)
	if topic == "" {
		topic = "general"
	}
	attempts := submission.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	score := &types.QuizScore{
		ID:             uuid.New(),
		UserID:         rd.UserID,
		TopicTag:       topic,
		Score:          submission.Score,
		TotalQuestions: submission.TotalQuestions,
		Attempts:       attempts,
	}
	if _, cErr := qs.quizScoreRepo.Create(ctx, nil, []*types.QuizScore{score}); cErr != nil {
		return nil, fmt.Errorf("failed to save quiz score: %w", cErr)
	}

	result := &QuizSubmitResult{ScoreID: score.ID}

	// Score persistence is the contract; a failed update cycle is logged
	// and the submission still succeeds.
	if qs.engine != nil {
		profile, uErr := qs.engine.OnQuizSubmitted(ctx, rd.UserID)
		if uErr != nil {
			qs.log.Warn("Update cycle failed after quiz submission", "user_id", rd.UserID, "error", uErr)
		} else {
			result.Profile = profile
		}
	}
	return result, nil
}
