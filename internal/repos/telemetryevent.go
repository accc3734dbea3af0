package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillloop/skillloop-backend/internal/logger"
	"github.com/skillloop/skillloop-backend/internal/types"
)

type TelemetryEventRepo interface {
	Create(ctx context.Context, tx *gorm.DB, events []*types.TelemetryEvent) ([]*types.TelemetryEvent, error)
	GetBySession(ctx context.Context, tx *gorm.DB, userID uuid.UUID, sessionID string) ([]*types.TelemetryEvent, error)
	GetLatestSessionID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (string, error)
}

type telemetryEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTelemetryEventRepo(db *gorm.DB, baseLog *logger.Logger) TelemetryEventRepo {
	repoLog := baseLog.With("repo", "TelemetryEventRepo")
	return &telemetryEventRepo{db: db, log: repoLog}
}

func (r *telemetryEventRepo) Create(ctx context.Context, tx *gorm.DB, events []*types.TelemetryEvent) ([]*types.TelemetryEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(events) == 0 {
		return []*types.TelemetryEvent{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *telemetryEventRepo) GetBySession(ctx context.Context, tx *gorm.DB, userID uuid.UUID, sessionID string) ([]*types.TelemetryEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.TelemetryEvent
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

func (r *telemetryEventRepo) GetLatestSessionID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (string, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.TelemetryEvent
	err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&result).Error
	if err == gorm.ErrRecordNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return result.SessionID, nil
}
