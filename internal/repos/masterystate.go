package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillloop/skillloop-backend/internal/logger"
	"github.com/skillloop/skillloop-backend/internal/types"
)

type MasteryStateRepo interface {
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.MasteryState, error)
	Save(ctx context.Context, tx *gorm.DB, record *types.MasteryState) error
}

type masteryStateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMasteryStateRepo(db *gorm.DB, baseLog *logger.Logger) MasteryStateRepo {
	repoLog := baseLog.With("repo", "MasteryStateRepo")
	return &masteryStateRepo{db: db, log: repoLog}
}

func (r *masteryStateRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.MasteryState, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.MasteryState
	err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&result).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *masteryStateRepo) Save(ctx context.Context, tx *gorm.DB, record *types.MasteryState) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(record).Error
}
