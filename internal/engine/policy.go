package engine

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/skillloop/skillloop-backend/internal/logger"
	"github.com/skillloop/skillloop-backend/internal/types"
)

const (
	ActionTheoryFirst = "Theory-First"
	ActionCodeFirst   = "Code-First"
	ActionBalanced    = "Balanced"
)

// Actions in fixed order; ties break toward the earlier action so greedy
// selection is reproducible for identical tables.
var Actions = []string{ActionTheoryFirst, ActionCodeFirst, ActionBalanced}

// PathForAction maps policy actions to the learner-facing path types, 1:1.
func PathForAction(action string) string {
	switch action {
	case ActionTheoryFirst:
		return types.PathReinforcement
	case ActionCodeFirst:
		return types.PathAcceleration
	default:
		return types.PathBalanced
	}
}

// ActionForPath is the inverse of PathForAction.
func ActionForPath(pathType string) string {
	switch pathType {
	case types.PathReinforcement:
		return ActionTheoryFirst
	case types.PathAcceleration:
		return ActionCodeFirst
	default:
		return ActionBalanced
	}
}

// StateKey composes the policy state from skill bucket and dependency level.
func StateKey(bucket, dependencyLevel string) string {
	return fmt.Sprintf("%s_%s", bucket, dependencyLevel)
}

// QTable maps state key to per-action value estimates. Grows unboundedly as
// new state keys appear.
type QTable map[string]map[string]float64

func (t QTable) clone() QTable {
	out := make(QTable, len(t))
	for state, actions := range t {
		row := make(map[string]float64, len(actions))
		for a, v := range actions {
			row[a] = v
		}
		out[state] = row
	}
	return out
}

// PolicyStore persists the whole value table. Save is called after every
// learning step, inside the caller's transaction when one is given.
type PolicyStore interface {
	Load(ctx context.Context) (QTable, error)
	Save(ctx context.Context, tx *gorm.DB, table QTable) error
}

// PolicyAgent is the tabular Q-learner choosing a teaching strategy per
// (skill bucket, dependency level) state. The table is a process-wide shared
// resource; the mutex serializes every learn+persist pair so concurrent user
// cycles cannot lose updates.
type PolicyAgent struct {
	mu      sync.Mutex
	log     *logger.Logger
	store   PolicyStore
	table   QTable
	alpha   float64
	gamma   float64
	epsilon float64
	rng     *rand.Rand
}

func NewPolicyAgent(log *logger.Logger, store PolicyStore, alpha, gamma, epsilon float64) (*PolicyAgent, error) {
	agentLog := log.With("service", "PolicyAgent")
	table, err := store.Load(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to load policy table: %w", err)
	}
	if table == nil {
		table = QTable{}
	}
	agentLog.Info("Policy table loaded", "states", len(table))
	return &PolicyAgent{
		log:     agentLog,
		store:   store,
		table:   table,
		alpha:   alpha,
		gamma:   gamma,
		epsilon: epsilon,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// qValues auto-vivifies a state row at 0.0 before first read. Caller holds
// the mutex.
func (a *PolicyAgent) qValues(state string) map[string]float64 {
	row, ok := a.table[state]
	if !ok {
		row = make(map[string]float64, len(Actions))
		for _, action := range Actions {
			row[action] = 0.0
		}
		a.table[state] = row
	}
	return row
}

// ChooseAction is epsilon-greedy: with probability epsilon a uniformly random
// action, otherwise the highest-valued action for the state.
func (a *PolicyAgent) ChooseAction(state string) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.epsilon > 0 && a.rng.Float64() < a.epsilon {
		return Actions[a.rng.Intn(len(Actions))]
	}

	row := a.qValues(state)
	best := Actions[0]
	bestVal := row[best]
	for _, action := range Actions[1:] {
		if row[action] > bestVal {
			best = action
			bestVal = row[action]
		}
	}
	return best
}

// Learn applies the one-step tabular update
//
//	Q[s][a] += alpha * (reward + gamma * max_a' Q[s'][a'] - Q[s][a])
//
// and persists the whole table through the store before returning.
func (a *PolicyAgent) Learn(ctx context.Context, tx *gorm.DB, state, action string, reward float64, nextState string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	row := a.qValues(state)
	nextRow := a.qValues(nextState)

	currentQ, ok := row[action]
	if !ok {
		row[action] = 0.0
	}

	maxNextQ := nextRow[Actions[0]]
	for _, act := range Actions[1:] {
		if nextRow[act] > maxNextQ {
			maxNextQ = nextRow[act]
		}
	}

	row[action] = currentQ + a.alpha*(reward+a.gamma*maxNextQ-currentQ)

	if err := a.store.Save(ctx, tx, a.table.clone()); err != nil {
		return fmt.Errorf("failed to persist policy table: %w", err)
	}
	return nil
}

// Reload replaces the in-memory table with the last committed snapshot.
// Learn mutates memory before its surrounding transaction commits, so a
// rolled-back cycle must call this or the discarded update would leak into
// the next persisted snapshot.
func (a *PolicyAgent) Reload(ctx context.Context) error {
	table, err := a.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to reload policy table: %w", err)
	}
	if table == nil {
		table = QTable{}
	}
	a.mu.Lock()
	a.table = table
	a.mu.Unlock()
	a.log.Info("Policy table reloaded", "states", len(table))
	return nil
}

// Value returns the stored estimate for (state, action); zero for unvisited
// pairs.
func (a *PolicyAgent) Value(state, action string) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if row, ok := a.table[state]; ok {
		return row[action]
	}
	return 0.0
}
