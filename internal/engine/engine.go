package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/skillloop/skillloop-backend/internal/logger"
	"github.com/skillloop/skillloop-backend/internal/repos"
	"github.com/skillloop/skillloop-backend/internal/types"
)

const (
	recentQuizLimit = 5
	recentChatLimit = 10
)

const (
	rewardImproved    = 10.0
	rewardDeclined    = -10.0
	rewardIndependent = 5.0

	// independentCutoff grants the bonus reward below this dependency prob.
	independentCutoff = 0.4
)

// UpdateResult summarizes one completed update cycle.
type UpdateResult struct {
	SSI            float64 `json:"ssi"`
	Bucket         string  `json:"bucket"`
	DependencyProb float64 `json:"dependency_prob"`
	PathType       string  `json:"learning_path"`
	Difficulty     int     `json:"current_difficulty"`
	Reward         float64 `json:"rl_reward"`
}

// ProfileNotifier fans out profile-updated events. Failures are the
// notifier's problem; the engine treats publishing as fire-and-forget.
type ProfileNotifier interface {
	PublishProfileUpdated(ctx context.Context, userID uuid.UUID, result UpdateResult)
}

// Engine runs the adaptive student modeling cycle: aggregate signals, score
// the learner, and close the loop through the policy agent into the persisted
// learning path.
type Engine struct {
	db           *gorm.DB
	log          *logger.Logger
	chatTurns    repos.ChatTurnRepo
	quizScores   repos.QuizScoreRepo
	telemetry    repos.TelemetryEventRepo
	skillIndexes repos.SkillIndexRepo
	paths        repos.LearningPathRepo
	mastery      repos.MasteryStateRepo
	classifier   DependencyModel
	masteryModel MasteryModel
	agent        *PolicyAgent
	notifier     ProfileNotifier
}

func NewEngine(
	db *gorm.DB,
	log *logger.Logger,
	chatTurns repos.ChatTurnRepo,
	quizScores repos.QuizScoreRepo,
	telemetry repos.TelemetryEventRepo,
	skillIndexes repos.SkillIndexRepo,
	paths repos.LearningPathRepo,
	mastery repos.MasteryStateRepo,
	classifier DependencyModel,
	masteryModel MasteryModel,
	agent *PolicyAgent,
	notifier ProfileNotifier,
) *Engine {
	return &Engine{
		db:           db,
		log:          log.With("service", "Engine"),
		chatTurns:    chatTurns,
		quizScores:   quizScores,
		telemetry:    telemetry,
		skillIndexes: skillIndexes,
		paths:        paths,
		mastery:      mastery,
		classifier:   classifier,
		masteryModel: masteryModel,
		agent:        agent,
		notifier:     notifier,
	}
}

// OnQuizSubmitted runs a full update cycle after a quiz submission. The
// session is resolved from the latest telemetry event; with no telemetry the
// cycle degrades to chat-turn feature aggregation.
func (e *Engine) OnQuizSubmitted(ctx context.Context, userID uuid.UUID) (*UpdateResult, error) {
	sessionID, err := e.telemetry.GetLatestSessionID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve latest session: %w", err)
	}
	return e.runCycle(ctx, userID, sessionID)
}

// OnChatTurnSaved runs a full update cycle after a chat turn was persisted.
func (e *Engine) OnChatTurnSaved(ctx context.Context, userID uuid.UUID, sessionID string) (*UpdateResult, error) {
	return e.runCycle(ctx, userID, sessionID)
}

type cycleInputs struct {
	quizzes []*types.QuizScore
	chats   []*types.ChatTurn
	events  []*types.TelemetryEvent
}

func (e *Engine) gatherInputs(ctx context.Context, userID uuid.UUID, sessionID string) (*cycleInputs, error) {
	in := &cycleInputs{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		quizzes, err := e.quizScores.GetRecentByUser(gctx, nil, userID, recentQuizLimit)
		if err != nil {
			return fmt.Errorf("failed to load quiz history: %w", err)
		}
		in.quizzes = quizzes
		return nil
	})
	g.Go(func() error {
		chats, err := e.chatTurns.GetRecentByUser(gctx, nil, userID, recentChatLimit)
		if err != nil {
			return fmt.Errorf("failed to load chat history: %w", err)
		}
		in.chats = chats
		return nil
	})
	g.Go(func() error {
		if sessionID == "" {
			return nil
		}
		events, err := e.telemetry.GetBySession(gctx, nil, userID, sessionID)
		if err != nil {
			return fmt.Errorf("failed to load telemetry: %w", err)
		}
		in.events = events
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return in, nil
}

// runCycle recomputes the skill index and advances the policy, writing the
// skill record, the learning path, and the policy snapshot in one
// transaction so the three can never disagree.
func (e *Engine) runCycle(ctx context.Context, userID uuid.UUID, sessionID string) (*UpdateResult, error) {
	in, err := e.gatherInputs(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	var features FeatureVector
	if len(in.events) > 0 {
		features = AggregateTelemetryFeatures(in.events)
	} else {
		features = AggregateChatFallbackFeatures(in.chats)
	}

	// Classifier failure is loud: a guessed probability would corrupt the
	// skill score.
	dependencyProb, err := e.classifier.Predict(ctx, features)
	if err != nil {
		return nil, fmt.Errorf("dependency prediction failed: %w", err)
	}

	retention := RetentionTerm(in.quizzes)
	independence := IndependenceTerm(dependencyProb)
	quality := QualityTerm(in.chats)
	newSSI := CompositeSSI(retention, independence, quality)

	metrics, _ := json.Marshal(map[string]interface{}{
		"retention":       retention,
		"independence":    independence,
		"quality":         quality,
		"dependency_prob": dependencyProb,
		"features":        features,
	})

	result := &UpdateResult{SSI: newSSI, DependencyProb: dependencyProb}

	learned := false
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		skill, err := e.skillIndexes.GetByUserID(ctx, tx, userID)
		if err != nil {
			return fmt.Errorf("failed to load skill record: %w", err)
		}
		if skill == nil {
			skill = &types.SkillIndex{
				ID:         uuid.New(),
				UserID:     userID,
				IndexValue: 50.0,
				Bucket:     types.BucketModerate,
			}
		}
		oldSSI := skill.IndexValue
		oldBucket := skill.Bucket

		path, err := e.paths.GetByUserID(ctx, tx, userID)
		if err != nil {
			return fmt.Errorf("failed to load learning path: %w", err)
		}
		if path == nil {
			path = &types.LearningPath{
				ID:                uuid.New(),
				UserID:            userID,
				PathType:          types.PathBalanced,
				CurrentDifficulty: 1,
				AIPersonaMode:     "Tutor",
			}
		}

		newBucket := BucketFor(newSSI)
		dependencyLevel := DependencyLevel(dependencyProb)

		reward := 0.0
		if newSSI > oldSSI {
			reward += rewardImproved
		} else if newSSI < oldSSI {
			reward += rewardDeclined
		}
		if dependencyProb < independentCutoff {
			reward += rewardIndependent
		}

		prevAction := ActionForPath(path.PathType)
		state := StateKey(oldBucket, dependencyLevel)
		nextState := StateKey(newBucket, dependencyLevel)

		if err := e.agent.Learn(ctx, tx, state, prevAction, reward, nextState); err != nil {
			return err
		}
		learned = true
		nextAction := e.agent.ChooseAction(nextState)

		skill.IndexValue = newSSI
		skill.Bucket = newBucket
		skill.Metrics = datatypes.JSON(metrics)
		if err := e.skillIndexes.Save(ctx, tx, skill); err != nil {
			return fmt.Errorf("failed to save skill record: %w", err)
		}

		path.PathType = PathForAction(nextAction)
		path.CurrentDifficulty = DifficultyFor(newBucket)
		if err := e.paths.Save(ctx, tx, path); err != nil {
			return fmt.Errorf("failed to save learning path: %w", err)
		}

		result.Bucket = newBucket
		result.PathType = path.PathType
		result.Difficulty = path.CurrentDifficulty
		result.Reward = reward
		return nil
	})
	if err != nil {
		// The rollback discarded the persisted snapshot but not the agent's
		// in-memory update; resync from the store so the dropped value cannot
		// ride along with a later user's snapshot.
		if learned {
			if rErr := e.agent.Reload(ctx); rErr != nil {
				e.log.Error("Policy table reload failed after rolled-back cycle", "user_id", userID, "error", rErr)
			}
		}
		return nil, err
	}

	e.refreshMastery(ctx, userID, in.quizzes)

	if e.notifier != nil {
		e.notifier.PublishProfileUpdated(ctx, userID, *result)
	}

	e.log.Info("Update cycle completed",
		"user_id", userID,
		"ssi", result.SSI,
		"bucket", result.Bucket,
		"path_type", result.PathType,
		"reward", result.Reward,
	)
	return result, nil
}

// refreshMastery recomputes the cached mastery vector from quiz history.
// Best-effort: the cycle result does not depend on it.
func (e *Engine) refreshMastery(ctx context.Context, userID uuid.UUID, quizzes []*types.QuizScore) {
	if e.masteryModel == nil || e.mastery == nil {
		return
	}
	history := make([]MasteryObservation, 0, len(quizzes))
	for i := len(quizzes) - 1; i >= 0; i-- {
		q := quizzes[i]
		if q.TotalQuestions <= 0 {
			continue
		}
		history = append(history, MasteryObservation{
			SkillTag: q.TopicTag,
			Correct:  q.Score/float64(q.TotalQuestions) >= 0.5,
		})
	}
	vector, err := e.masteryModel.Predict(ctx, history)
	if err != nil {
		e.log.Warn("Mastery prediction failed", "user_id", userID, "error", err)
		return
	}
	raw, err := json.Marshal(vector)
	if err != nil {
		return
	}
	state, err := e.mastery.GetByUserID(ctx, nil, userID)
	if err != nil {
		e.log.Warn("Failed to load mastery state", "user_id", userID, "error", err)
		return
	}
	if state == nil {
		state = &types.MasteryState{ID: uuid.New(), UserID: userID}
	}
	state.SkillVector = datatypes.JSON(raw)
	if err := e.mastery.Save(ctx, nil, state); err != nil {
		e.log.Warn("Failed to save mastery state", "user_id", userID, "error", err)
	}
}
