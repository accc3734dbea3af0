package engine

import (
	"context"
	"testing"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/skillloop/skillloop-backend/internal/types"
)

type fakePolicySnapshotRepo struct {
	snapshot *types.PolicySnapshot
}

func (f *fakePolicySnapshotRepo) Get(ctx context.Context, tx *gorm.DB, name string) (*types.PolicySnapshot, error) {
	return f.snapshot, nil
}

func (f *fakePolicySnapshotRepo) Save(ctx context.Context, tx *gorm.DB, snapshot *types.PolicySnapshot) error {
	f.snapshot = snapshot
	return nil
}

func TestSnapshotPolicyStore_EmptyTableWhenNoSnapshot(t *testing.T) {
	store := NewSnapshotPolicyStore(testLogger(t), &fakePolicySnapshotRepo{})

	table, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if table == nil || len(table) != 0 {
		t.Fatalf("expected an empty table, got %v", table)
	}
}

func TestSnapshotPolicyStore_RoundTrips(t *testing.T) {
	repo := &fakePolicySnapshotRepo{}
	store := NewSnapshotPolicyStore(testLogger(t), repo)

	in := QTable{
		"Weak_High": {ActionTheoryFirst: 1.5, ActionCodeFirst: -2.0, ActionBalanced: 0.0},
	}
	if err := store.Save(context.Background(), nil, in); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if repo.snapshot == nil || repo.snapshot.Name == "" {
		t.Fatalf("snapshot row was not written")
	}

	out, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if out["Weak_High"][ActionTheoryFirst] != 1.5 || out["Weak_High"][ActionCodeFirst] != -2.0 {
		t.Fatalf("table did not round trip: %v", out)
	}
}

func TestSnapshotPolicyStore_CorruptSnapshotFailsLoad(t *testing.T) {
	repo := &fakePolicySnapshotRepo{
		snapshot: &types.PolicySnapshot{Name: "teaching_policy", Table: datatypes.JSON(`{broken`)},
	}
	store := NewSnapshotPolicyStore(testLogger(t), repo)

	if _, err := store.Load(context.Background()); err == nil {
		t.Fatalf("expected corrupt snapshot to fail loudly")
	}
}
