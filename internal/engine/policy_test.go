package engine

import (
	"context"
	"math"
	"testing"

	"gorm.io/gorm"

	"github.com/skillloop/skillloop-backend/internal/logger"
	"github.com/skillloop/skillloop-backend/internal/types"
)

type memoryPolicyStore struct {
	table    QTable
	saves    int
	loadErr  error
	saveErr  error
	lastSave QTable
}

func (s *memoryPolicyStore) Load(ctx context.Context) (QTable, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.table, nil
}

func (s *memoryPolicyStore) Save(ctx context.Context, tx *gorm.DB, table QTable) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.lastSave = table
	return nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("failed to build logger: %v", err)
	}
	return log
}

func newTestAgent(t *testing.T, store PolicyStore, alpha, gamma, epsilon float64) *PolicyAgent {
	t.Helper()
	agent, err := NewPolicyAgent(testLogger(t), store, alpha, gamma, epsilon)
	if err != nil {
		t.Fatalf("failed to build agent: %v", err)
	}
	return agent
}

func TestLearn_AppliesExactBellmanUpdate(t *testing.T) {
	store := &memoryPolicyStore{}
	agent := newTestAgent(t, store, 0.1, 0.9, 0.0)

	state := StateKey(types.BucketModerate, "Low")
	next := StateKey(types.BucketStrong, "Low")

	if err := agent.Learn(context.Background(), nil, state, ActionBalanced, 10.0, next); err != nil {
		t.Fatalf("learn failed: %v", err)
	}

	// Q = 0 + 0.1 * (10 + 0.9*0 - 0) = 1.0
	if got := agent.Value(state, ActionBalanced); math.Abs(got-1.0) > 1e-12 {
		t.Fatalf("expected 1.0 after first update, got %f", got)
	}
	if store.saves != 1 {
		t.Fatalf("expected exactly one persist, got %d", store.saves)
	}
}

func TestLearn_BootstrapsFromNextState(t *testing.T) {
	store := &memoryPolicyStore{
		table: QTable{
			"Strong_Low": {ActionTheoryFirst: 0.0, ActionCodeFirst: 4.0, ActionBalanced: 2.0},
		},
	}
	agent := newTestAgent(t, store, 0.5, 0.9, 0.0)

	if err := agent.Learn(context.Background(), nil, "Moderate_Low", ActionBalanced, 10.0, "Strong_Low"); err != nil {
		t.Fatalf("learn failed: %v", err)
	}

	// Q = 0 + 0.5 * (10 + 0.9*4 - 0) = 6.8
	if got := agent.Value("Moderate_Low", ActionBalanced); math.Abs(got-6.8) > 1e-12 {
		t.Fatalf("expected 6.8, got %f", got)
	}
}

func TestLearn_ZeroRewardIsFixedPoint(t *testing.T) {
	store := &memoryPolicyStore{}
	agent := newTestAgent(t, store, 0.1, 0.9, 0.0)

	for i := 0; i < 5; i++ {
		if err := agent.Learn(context.Background(), nil, "Moderate_Low", ActionBalanced, 0.0, "Moderate_Low"); err != nil {
			t.Fatalf("learn failed: %v", err)
		}
	}
	if got := agent.Value("Moderate_Low", ActionBalanced); got != 0.0 {
		t.Fatalf("zero reward from an all-zero table must stay at zero, got %f", got)
	}
}

func TestChooseAction_GreedyIsDeterministic(t *testing.T) {
	store := &memoryPolicyStore{
		table: QTable{
			"Weak_High": {ActionTheoryFirst: 1.0, ActionCodeFirst: 5.0, ActionBalanced: 3.0},
		},
	}
	agent := newTestAgent(t, store, 0.1, 0.9, 0.0)

	for i := 0; i < 20; i++ {
		if got := agent.ChooseAction("Weak_High"); got != ActionCodeFirst {
			t.Fatalf("epsilon=0 should always pick the best action, got %q", got)
		}
	}
}

func TestChooseAction_TieBreaksTowardEarlierAction(t *testing.T) {
	store := &memoryPolicyStore{}
	agent := newTestAgent(t, store, 0.1, 0.9, 0.0)

	// Fresh state: all values zero, first listed action wins.
	if got := agent.ChooseAction("Weak_Low"); got != Actions[0] {
		t.Fatalf("expected %q on an all-zero row, got %q", Actions[0], got)
	}
}

func TestChooseAction_UnknownStateGetsRow(t *testing.T) {
	store := &memoryPolicyStore{}
	agent := newTestAgent(t, store, 0.1, 0.9, 0.0)

	_ = agent.ChooseAction("Strong_High")
	for _, action := range Actions {
		if got := agent.Value("Strong_High", action); got != 0.0 {
			t.Fatalf("auto-vivified row should start at zero, got %f for %q", got, action)
		}
	}
}

func TestPathForAction_RoundTrips(t *testing.T) {
	for _, action := range Actions {
		if back := ActionForPath(PathForAction(action)); back != action {
			t.Fatalf("round trip broke: %q -> %q -> %q", action, PathForAction(action), back)
		}
	}
	if PathForAction(ActionTheoryFirst) != types.PathReinforcement {
		t.Fatalf("Theory-First should map to Reinforcement")
	}
	if PathForAction(ActionCodeFirst) != types.PathAcceleration {
		t.Fatalf("Code-First should map to Acceleration")
	}
}

func TestStateKey_Format(t *testing.T) {
	if got := StateKey(types.BucketWeak, "High"); got != "Weak_High" {
		t.Fatalf("unexpected state key %q", got)
	}
}
