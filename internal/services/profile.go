package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/skillloop/skillloop-backend/internal/logger"
	"github.com/skillloop/skillloop-backend/internal/repos"
	"github.com/skillloop/skillloop-backend/internal/requestdata"
	"github.com/skillloop/skillloop-backend/internal/types"
)

// SkillProfile is the read model returned to the client. Defaults stand in
// for users whose first update cycle has not run yet.
type SkillProfile struct {
	IndexValue float64 `json:"index_value"`
	Bucket     string  `json:"bucket"`
	Computed   bool    `json:"computed"`
}

type PathProfile struct {
	PathType          string `json:"path_type"`
	CurrentDifficulty int    `json:"current_difficulty"`
	AIPersonaMode     string `json:"ai_persona_mode"`
	Computed          bool   `json:"computed"`
}

// MasteryProfile exposes the cached per-skill mastery vector read-only.
type MasteryProfile struct {
	SkillVector []float64 `json:"skill_vector"`
	Computed    bool      `json:"computed"`
}

type ProfileService interface {
	GetSkill(ctx context.Context) (*SkillProfile, error)
	GetPath(ctx context.Context) (*PathProfile, error)
	GetMastery(ctx context.Context) (*MasteryProfile, error)
	GetUser(ctx context.Context) (*types.User, error)
}

type profileService struct {
	log              *logger.Logger
	userRepo         repos.UserRepo
	skillIndexRepo   repos.SkillIndexRepo
	learningPathRepo repos.LearningPathRepo
	masteryStateRepo repos.MasteryStateRepo
}

func NewProfileService(
	log *logger.Logger,
	userRepo repos.UserRepo,
	skillIndexRepo repos.SkillIndexRepo,
	learningPathRepo repos.LearningPathRepo,
	masteryStateRepo repos.MasteryStateRepo,
) ProfileService {
	return &profileService{
		log:              log.With("service", "ProfileService"),
		userRepo:         userRepo,
		skillIndexRepo:   skillIndexRepo,
		learningPathRepo: learningPathRepo,
		masteryStateRepo: masteryStateRepo,
	}
}

func (s *profileService) GetSkill(ctx context.Context) (*SkillProfile, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("no authenticated user in context")
	}
	skill, err := s.skillIndexRepo.GetByUserID(ctx, nil, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load skill record: %w", err)
	}
	if skill == nil {
		return &SkillProfile{IndexValue: 50.0, Bucket: types.BucketModerate, Computed: false}, nil
	}
	return &SkillProfile{IndexValue: skill.IndexValue, Bucket: skill.Bucket, Computed: true}, nil
}

func (s *profileService) GetPath(ctx context.Context) (*PathProfile, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("no authenticated user in context")
	}
	path, err := s.learningPathRepo.GetByUserID(ctx, nil, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load learning path: %w", err)
	}
	if path == nil {
		return &PathProfile{
			PathType:          types.PathBalanced,
			CurrentDifficulty: 1,
			AIPersonaMode:     "Tutor",
			Computed:          false,
		}, nil
	}
	return &PathProfile{
		PathType:          path.PathType,
		CurrentDifficulty: path.CurrentDifficulty,
		AIPersonaMode:     path.AIPersonaMode,
		Computed:          true,
	}, nil
}

func (s *profileService) GetMastery(ctx context.Context) (*MasteryProfile, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("no authenticated user in context")
	}
	state, err := s.masteryStateRepo.GetByUserID(ctx, nil, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load mastery state: %w", err)
	}
	if state == nil || len(state.SkillVector) == 0 {
		return &MasteryProfile{SkillVector: []float64{}, Computed: false}, nil
	}
	var vector []float64
	if uErr := json.Unmarshal(state.SkillVector, &vector); uErr != nil {
		return nil, fmt.Errorf("failed to decode mastery vector: %w", uErr)
	}
	return &MasteryProfile{SkillVector: vector, Computed: true}, nil
}

func (s *profileService) GetUser(ctx context.Context) (*types.User, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("no authenticated user in context")
	}
	users, err := s.userRepo.GetByIDs(ctx, nil, []uuid.UUID{rd.UserID})
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("user not found")
	}
	return users[0], nil
}
