package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/skillloop/skillloop-backend/internal/engine"
	"github.com/skillloop/skillloop-backend/internal/logger"
	"github.com/skillloop/skillloop-backend/internal/repos"
	"github.com/skillloop/skillloop-backend/internal/requestdata"
	"github.com/skillloop/skillloop-backend/internal/types"
)

const (
	// struggleWindow is how many recent session turns are compared against
	// the incoming prompt when looking for repeated confusion.
	struggleWindow = 5

	// historyWindow is how many prior exchanges the model sees as context.
	historyWindow = 5

	maxTitleLength = 60
)

const fallbackReply = "I'm having trouble generating a response right now. " +
	"Please try again in a moment - your message has been saved."

const defaultSessionTitle = "New Chat"

const titleSystemPrompt = "Generate a 3-5 word title for a tutoring session " +
	"that starts with the following student message. Reply with the title only, no quotes."

// UpdateCycleRunner triggers an engine update after learner activity.
type UpdateCycleRunner interface {
	OnChatTurnSaved(ctx context.Context, userID uuid.UUID, sessionID string) (*engine.UpdateResult, error)
	OnQuizSubmitted(ctx context.Context, userID uuid.UUID) (*engine.UpdateResult, error)
}

type ChatRequest struct {
	SessionID string          `json:"session_id"`
	Message   string          `json:"message"`
	Telemetry json.RawMessage `json:"telemetry,omitempty"`
}

type ChatReply struct {
	TurnID    uuid.UUID `json:"turn_id"`
	SessionID string    `json:"session_id"`
	Title     string    `json:"title,omitempty"`
	Response  string    `json:"response"`
	Persona   string    `json:"persona"`
	Struggle  bool      `json:"struggle_detected"`
}

type ChatService interface {
	SendMessage(ctx context.Context, req ChatRequest) (*ChatReply, error)
	GetHistory(ctx context.Context, sessionID string) ([]*types.ChatTurn, error)
	ListHistory(ctx context.Context, offset, limit int) ([]*types.ChatTurn, error)
	ListSessions(ctx context.Context) ([]repos.SessionSummary, error)
	DeleteSession(ctx context.Context, sessionID string) error
	DeleteTurn(ctx context.Context, turnID uuid.UUID) error
}

type chatService struct {
	db                *gorm.DB
	log               *logger.Logger
	chatTurnRepo      repos.ChatTurnRepo
	skillIndexRepo    repos.SkillIndexRepo
	learningPathRepo  repos.LearningPathRepo
	aiClient          AIClient
	engine            UpdateCycleRunner
	struggleThreshold float64
}

func NewChatService(
	db *gorm.DB,
	log *logger.Logger,
	chatTurnRepo repos.ChatTurnRepo,
	skillIndexRepo repos.SkillIndexRepo,
	learningPathRepo repos.LearningPathRepo,
	aiClient AIClient,
	eng UpdateCycleRunner,
	struggleThreshold float64,
) ChatService {
	return &chatService{
		db:                db,
		log:               log.With("service", "ChatService"),
		chatTurnRepo:      chatTurnRepo,
		skillIndexRepo:    skillIndexRepo,
		learningPathRepo:  learningPathRepo,
		aiClient:          aiClient,
		engine:            eng,
		struggleThreshold: struggleThreshold,
	}
}

func (cs *chatService) SendMessage(ctx context.Context, req ChatRequest) (*ChatReply, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("no authenticated user in context")
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, fmt.Errorf("message is required")
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	sessionTurns, err := cs.chatTurnRepo.GetRecentBySession(ctx, nil, rd.UserID, sessionID, struggleWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load session history: %w", err)
	}

	// Embedding failure is soft: the turn is stored without one and
	// struggle detection sees no signal.
	var embedding []float64
	if vectors, eErr := cs.aiClient.Embed(ctx, []string{message}); eErr != nil {
		cs.log.Warn("Prompt embedding failed", "user_id", rd.UserID, "error", eErr)
	} else if len(vectors) > 0 {
		embedding = vectors[0]
	}

	struggling := false
	if len(embedding) > 0 {
		recent := make([][]float64, 0, len(sessionTurns))
		for _, turn := range sessionTurns {
			if len(turn.Embedding) == 0 {
				continue
			}
			var v []float64
			if uErr := json.Unmarshal(turn.Embedding, &v); uErr != nil {
				continue
			}
			recent = append(recent, v)
		}
		struggling = engine.DetectStruggle(embedding, recent, cs.struggleThreshold)
	}

	title := ""
	if len(sessionTurns) == 0 {
		title = cs.generateTitle(ctx, message)
	}

	skill, path := cs.loadProfile(ctx, rd.UserID)
	persona := personaFor(path, struggling)
	system := buildSystemPrompt(persona, skill, path, struggling)

	history := historyFromTurns(sessionTurns, historyWindow)

	response, genErr := cs.aiClient.GenerateChat(ctx, system, history, message)
	if genErr != nil {
		cs.log.Warn("Chat generation failed, using canned reply", "user_id", rd.UserID, "error", genErr)
		response = fallbackReply
	}

	turn := &types.ChatTurn{
		ID:        uuid.New(),
		UserID:    rd.UserID,
		SessionID: sessionID,
		Title:     title,
		Prompt:    message,
		Response:  response,
	}
	if len(embedding) > 0 {
		if raw, mErr := json.Marshal(embedding); mErr == nil {
			turn.Embedding = datatypes.JSON(raw)
		}
	}
	if len(req.Telemetry) > 0 {
		turn.Telemetry = datatypes.JSON(req.Telemetry)
	}
	if _, cErr := cs.chatTurnRepo.Create(ctx, nil, []*types.ChatTurn{turn}); cErr != nil {
		return nil, fmt.Errorf("failed to save chat turn: %w", cErr)
	}

	// The update cycle must not fail the chat request; the learner keeps
	// their reply even when modeling is down.
	if cs.engine != nil {
		if _, uErr := cs.engine.OnChatTurnSaved(ctx, rd.UserID, sessionID); uErr != nil {
			cs.log.Warn("Update cycle failed after chat turn", "user_id", rd.UserID, "error", uErr)
		}
	}

	return &ChatReply{
		TurnID:    turn.ID,
		SessionID: sessionID,
		Title:     title,
		Response:  response,
		Persona:   persona,
		Struggle:  struggling,
	}, nil
}

func (cs *chatService) GetHistory(ctx context.Context, sessionID string) ([]*types.ChatTurn, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("no authenticated user in context")
	}
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("session id is required")
	}
	return cs.chatTurnRepo.ListBySession(ctx, nil, rd.UserID, sessionID)
}

func (cs *chatService) ListHistory(ctx context.Context, offset, limit int) ([]*types.ChatTurn, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("no authenticated user in context")
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return cs.chatTurnRepo.ListByUser(ctx, nil, rd.UserID, offset, limit)
}

func (cs *chatService) ListSessions(ctx context.Context) ([]repos.SessionSummary, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("no authenticated user in context")
	}
	return cs.chatTurnRepo.ListSessions(ctx, nil, rd.UserID)
}

func (cs *chatService) DeleteSession(ctx context.Context, sessionID string) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return fmt.Errorf("no authenticated user in context")
	}
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	return cs.chatTurnRepo.FullDeleteBySession(ctx, nil, rd.UserID, sessionID)
}

func (cs *chatService) DeleteTurn(ctx context.Context, turnID uuid.UUID) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return fmt.Errorf("no authenticated user in context")
	}
	affected, err := cs.chatTurnRepo.FullDeleteByID(ctx, nil, rd.UserID, turnID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("chat turn not found")
	}
	return nil
}

// loadProfile is tolerant of missing records; new users chat before their
// first update cycle creates skill and path rows.
func (cs *chatService) loadProfile(ctx context.Context, userID uuid.UUID) (*types.SkillIndex, *types.LearningPath) {
	skill, sErr := cs.skillIndexRepo.GetByUserID(ctx, nil, userID)
	if sErr != nil {
		cs.log.Warn("Failed to load skill record", "user_id", userID, "error", sErr)
	}
	path, pErr := cs.learningPathRepo.GetByUserID(ctx, nil, userID)
	if pErr != nil {
		cs.log.Warn("Failed to load learning path", "user_id", userID, "error", pErr)
	}
	return skill, path
}

const (
	PersonaSocratic      = "Socratic"
	PersonaReinforcement = "Reinforcement"
	PersonaAcceleration  = "Acceleration"
	PersonaBalanced      = "Balanced"
)

// personaFor picks the tutoring persona. A detected struggle overrides the
// learning-path persona unconditionally.
func personaFor(path *types.LearningPath, struggling bool) string {
	if struggling {
		return PersonaSocratic
	}
	if path == nil {
		return PersonaBalanced
	}
	switch path.PathType {
	case types.PathReinforcement:
		return PersonaReinforcement
	case types.PathAcceleration:
		return PersonaAcceleration
	default:
		return PersonaBalanced
	}
}

func buildSystemPrompt(persona string, skill *types.SkillIndex, path *types.LearningPath, struggling bool) string {
	var sb strings.Builder
	sb.WriteString("You are an adaptive programming tutor.\n")

	switch persona {
	case PersonaSocratic:
		sb.WriteString("The student appears to be stuck on the same concept. " +
			"Do not give the full answer. Ask guiding questions, break the problem " +
			"into smaller steps, and lead the student to discover the solution.\n")
	case PersonaReinforcement:
		sb.WriteString("Focus on fundamentals. Explain concepts slowly and " +
			"thoroughly, use simple examples, and check understanding before moving on.\n")
	case PersonaAcceleration:
		sb.WriteString("The student is progressing well. Be concise, introduce " +
			"advanced concepts, and challenge them with follow-up exercises.\n")
	default:
		sb.WriteString("Balance explanation with practice. Give clear answers " +
			"followed by a short exercise to apply the concept.\n")
	}

	if skill != nil {
		sb.WriteString(fmt.Sprintf("Student skill level: %s (index %.1f out of 100).\n", skill.Bucket, skill.IndexValue))
	}
	if path != nil {
		sb.WriteString(fmt.Sprintf("Current difficulty level: %d of 3.\n", path.CurrentDifficulty))
	}
	if struggling {
		sb.WriteString("The student has asked several similar questions in a row.\n")
	}
	return sb.String()
}

func historyFromTurns(turns []*types.ChatTurn, limit int) []ChatExchange {
	// turns arrive newest-first; the model wants chronological order.
	n := len(turns)
	if n > limit {
		n = limit
	}
	out := make([]ChatExchange, 0, n)
	for i := n - 1; i >= 0; i-- {
		out = append(out, ChatExchange{
			Prompt:   turns[i].Prompt,
			Response: turns[i].Response,
		})
	}
	return out
}

// generateTitle names a new session with a short model-written title. Any
// failure falls back to a fixed default rather than blocking the first turn.
func (cs *chatService) generateTitle(ctx context.Context, message string) string {
	title, err := cs.aiClient.GenerateChat(ctx, titleSystemPrompt, nil, message)
	if err != nil {
		cs.log.Warn("Title generation failed, using default", "error", err)
		return defaultSessionTitle
	}
	title = strings.Trim(strings.TrimSpace(title), `"`)
	if title == "" {
		return defaultSessionTitle
	}
	return truncateTitle(title)
}

func truncateTitle(message string) string {
	message = strings.TrimSpace(message)
	if utf8.RuneCountInString(message) <= maxTitleLength {
		return message
	}
	runes := []rune(message)
	return string(runes[:maxTitleLength-3]) + "..."
}
