package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/skillloop/skillloop-backend/internal/logger"
	"github.com/skillloop/skillloop-backend/internal/repos"
	"github.com/skillloop/skillloop-backend/internal/types"
)

const policySnapshotName = "teaching_policy"

// SnapshotPolicyStore keeps the Q-table as a single whole-table JSON row.
// Saving inside the caller's transaction makes the policy write atomic with
// the skill and path writes of the same cycle.
type SnapshotPolicyStore struct {
	log  *logger.Logger
	repo repos.PolicySnapshotRepo
}

func NewSnapshotPolicyStore(log *logger.Logger, repo repos.PolicySnapshotRepo) *SnapshotPolicyStore {
	return &SnapshotPolicyStore{
		log:  log.With("service", "SnapshotPolicyStore"),
		repo: repo,
	}
}

func (s *SnapshotPolicyStore) Load(ctx context.Context) (QTable, error) {
	snapshot, err := s.repo.Get(ctx, nil, policySnapshotName)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return QTable{}, nil
	}
	var table QTable
	if err := json.Unmarshal(snapshot.Table, &table); err != nil {
		return nil, fmt.Errorf("corrupt policy snapshot: %w", err)
	}
	return table, nil
}

func (s *SnapshotPolicyStore) Save(ctx context.Context, tx *gorm.DB, table QTable) error {
	raw, err := json.Marshal(table)
	if err != nil {
		return err
	}
	return s.repo.Save(ctx, tx, &types.PolicySnapshot{
		Name:  policySnapshotName,
		Table: datatypes.JSON(raw),
	})
}
