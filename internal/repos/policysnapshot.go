package repos

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/skillloop/skillloop-backend/internal/logger"
	"github.com/skillloop/skillloop-backend/internal/types"
)

type PolicySnapshotRepo interface {
	Get(ctx context.Context, tx *gorm.DB, name string) (*types.PolicySnapshot, error)
	Save(ctx context.Context, tx *gorm.DB, snapshot *types.PolicySnapshot) error
}

type policySnapshotRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPolicySnapshotRepo(db *gorm.DB, baseLog *logger.Logger) PolicySnapshotRepo {
	repoLog := baseLog.With("repo", "PolicySnapshotRepo")
	return &policySnapshotRepo{db: db, log: repoLog}
}

func (r *policySnapshotRepo) Get(ctx context.Context, tx *gorm.DB, name string) (*types.PolicySnapshot, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.PolicySnapshot
	err := transaction.WithContext(ctx).
		Where("name = ?", name).
		First(&result).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *policySnapshotRepo) Save(ctx context.Context, tx *gorm.DB, snapshot *types.PolicySnapshot) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	// Whole-table overwrite; the snapshot row is the unit of persistence.
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"q_table", "updated_at"}),
		}).
		Create(snapshot).Error
}
