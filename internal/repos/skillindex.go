package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillloop/skillloop-backend/internal/logger"
	"github.com/skillloop/skillloop-backend/internal/types"
)

type SkillIndexRepo interface {
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.SkillIndex, error)
	Save(ctx context.Context, tx *gorm.DB, record *types.SkillIndex) error
}

type skillIndexRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSkillIndexRepo(db *gorm.DB, baseLog *logger.Logger) SkillIndexRepo {
	repoLog := baseLog.With("repo", "SkillIndexRepo")
	return &skillIndexRepo{db: db, log: repoLog}
}

func (r *skillIndexRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.SkillIndex, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.SkillIndex
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

func (r *skillIndexRepo) Save(ctx context.Context, tx *gorm.DB, record *types.SkillIndex) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(record).Error
}
