package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillloop/skillloop-backend/internal/logger"
	"github.com/skillloop/skillloop-backend/internal/types"
)

type LearningPathRepo interface {
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.LearningPath, error)
	Save(ctx context.Context, tx *gorm.DB, record *types.LearningPath) error
}

type learningPathRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLearningPathRepo(db *gorm.DB, baseLog *logger.Logger) LearningPathRepo {
	repoLog := baseLog.With("repo", "LearningPathRepo")
	return &learningPathRepo{db: db, log: repoLog}
}

func (r *learningPathRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.LearningPath, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.LearningPath
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

func (r *learningPathRepo) Save(ctx context.Context, tx *gorm.DB, record *types.LearningPath) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(record).Error
}
