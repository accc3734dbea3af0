package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillloop/skillloop-backend/internal/logger"
	"github.com/skillloop/skillloop-backend/internal/types"
)

type SessionSummary struct {
	SessionID   string    `json:"session_id"`
	Title       string    `json:"title"`
	LastUpdated time.Time `json:"last_updated"`
}

type ChatTurnRepo interface {
	Create(ctx context.Context, tx *gorm.DB, turns []*types.ChatTurn) ([]*types.ChatTurn, error)
	GetRecentBySession(ctx context.Context, tx *gorm.DB, userID uuid.UUID, sessionID string, limit int) ([]*types.ChatTurn, error)
	GetRecentByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.ChatTurn, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, offset, limit int) ([]*types.ChatTurn, error)
	ListBySession(ctx context.Context, tx *gorm.DB, userID uuid.UUID, sessionID string) ([]*types.ChatTurn, error)
	ListSessions(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]SessionSummary, error)
	FullDeleteByID(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) (int64, error)
	FullDeleteBySession(ctx context.Context, tx *gorm.DB, userID uuid.UUID, sessionID string) error
}

type chatTurnRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatTurnRepo(db *gorm.DB, baseLog *logger.Logger) ChatTurnRepo {
	repoLog := baseLog.With("repo", "ChatTurnRepo")
	return &chatTurnRepo{db: db, log: repoLog}
}

func (r *chatTurnRepo) Create(ctx context.Context, tx *gorm.DB, turns []*types.ChatTurn) ([]*types.ChatTurn, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(turns) == 0 {
		return []*types.ChatTurn{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&turns).Error; err != nil {
		return nil, err
	}
	return turns, nil
}

func (r *chatTurnRepo) GetRecentBySession(ctx context.Context, tx *gorm.DB, userID uuid.UUID, sessionID string, limit int) ([]*types.ChatTurn, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ChatTurn
	if userID == uuid.Nil || sessionID == "" {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *chatTurnRepo) GetRecentByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.ChatTurn, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ChatTurn
	if userID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *chatTurnRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, offset, limit int) ([]*types.ChatTurn, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ChatTurn
	if userID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *chatTurnRepo) ListBySession(ctx context.Context, tx *gorm.DB, userID uuid.UUID, sessionID string) ([]*types.ChatTurn, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ChatTurn
	if userID == uuid.Nil || sessionID == "" {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *chatTurnRepo) ListSessions(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]SessionSummary, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []SessionSummary
	if userID == uuid.Nil {
		return results, nil
	}

	var turns []*types.ChatTurn
	if err := transaction.WithContext(ctx).
		Select("session_id", "title", "created_at").
		Where("user_id = ? AND session_id <> ''", userID).
		Order("created_at DESC").
		Find(&turns).Error; err != nil {
		return nil, err
	}

	// Newest turn stamps the session; the title lives on the session's first
	// turn, so keep filling until one shows up.
	index := make(map[string]int, len(turns))
	for _, turn := range turns {
		i, ok := index[turn.SessionID]
		if !ok {
			index[turn.SessionID] = len(results)
			results = append(results, SessionSummary{
				SessionID:   turn.SessionID,
				Title:       turn.Title,
				LastUpdated: turn.CreatedAt,
			})
			continue
		}
		if results[i].Title == "" {
			results[i].Title = turn.Title
		}
	}
	return results, nil
}

func (r *chatTurnRepo) FullDeleteByID(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).
		Unscoped().
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&types.ChatTurn{})
	return res.RowsAffected, res.Error
}

func (r *chatTurnRepo) FullDeleteBySession(ctx context.Context, tx *gorm.DB, userID uuid.UUID, sessionID string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Unscoped().
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Delete(&types.ChatTurn{}).Error
}
