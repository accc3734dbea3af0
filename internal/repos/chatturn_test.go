package repos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/skillloop/skillloop-backend/internal/types"
)

func seedChatTurn(t *testing.T, repo ChatTurnRepo, userID uuid.UUID, sessionID, title, prompt string, at time.Time) uuid.UUID {
	t.Helper()
	turn := &types.ChatTurn{
		ID:        uuid.New(),
		UserID:    userID,
		SessionID: sessionID,
		Title:     title,
		Prompt:    prompt,
		Response:  "ok",
		CreatedAt: at,
		UpdatedAt: at,
	}
	if _, err := repo.Create(context.Background(), nil, []*types.ChatTurn{turn}); err != nil {
		t.Fatalf("failed to seed chat turn: %v", err)
	}
	return turn.ID
}

func TestListSessions_GroupsTitlesAndOrders(t *testing.T) {
	repo := NewChatTurnRepo(testDB(t), testLogger(t))
	userID := uuid.New()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	seedChatTurn(t, repo, userID, "s1", "Pointers Intro", "what is a pointer?", base)
	seedChatTurn(t, repo, userID, "s1", "", "and references?", base.Add(time.Hour))
	seedChatTurn(t, repo, userID, "s2", "Goroutine Basics", "explain goroutines", base.Add(2*time.Hour))
	seedChatTurn(t, repo, uuid.New(), "s3", "Other Learner", "other", base)

	sessions, err := repo.ListSessions(context.Background(), nil, userID)
	if err != nil {
		t.Fatalf("list sessions failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d: %+v", len(sessions), sessions)
	}
	if sessions[0].SessionID != "s2" {
		t.Fatalf("most recently active session should come first, got %q", sessions[0].SessionID)
	}
	if sessions[1].SessionID != "s1" || sessions[1].Title != "Pointers Intro" {
		t.Fatalf("session title should come from the titled first turn: %+v", sessions[1])
	}
	if !sessions[1].LastUpdated.Equal(base.Add(time.Hour)) {
		t.Fatalf("session should be stamped by its newest turn, got %v", sessions[1].LastUpdated)
	}
}

func TestListByUser_Paginates(t *testing.T) {
	repo := NewChatTurnRepo(testDB(t), testLogger(t))
	userID := uuid.New()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	seedChatTurn(t, repo, userID, "s1", "", "oldest", base)
	seedChatTurn(t, repo, userID, "s1", "", "middle", base.Add(time.Hour))
	seedChatTurn(t, repo, userID, "s1", "", "newest", base.Add(2*time.Hour))

	turns, err := repo.ListByUser(context.Background(), nil, userID, 1, 1)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(turns) != 1 || turns[0].Prompt != "middle" {
		t.Fatalf("offset 1 limit 1 should land on the middle turn, got %+v", turns)
	}
}

func TestFullDeleteByID_ScopedToOwner(t *testing.T) {
	repo := NewChatTurnRepo(testDB(t), testLogger(t))
	owner := uuid.New()
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	turnID := seedChatTurn(t, repo, owner, "s1", "", "mine", at)

	affected, err := repo.FullDeleteByID(context.Background(), nil, uuid.New(), turnID)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("another user must not delete the turn, affected %d", affected)
	}

	affected, err = repo.FullDeleteByID(context.Background(), nil, owner, turnID)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("owner delete should remove one row, affected %d", affected)
	}
}
