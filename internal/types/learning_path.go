package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	PathReinforcement = "Reinforcement"
	PathBalanced      = "Balanced"
	PathAcceleration  = "Acceleration"
)

// LearningPath is the one-per-user teaching strategy record. path_type is the
// last action chosen by the policy agent and is never set independently.
type LearningPath struct {
	ID                uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID            uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User              *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	PathType          string    `gorm:"column:path_type;not null;default:Balanced" json:"path_type"`
	CurrentDifficulty int       `gorm:"column:current_difficulty;not null;default:1" json:"current_difficulty"`
	AIPersonaMode     string    `gorm:"column:ai_persona_mode;not null;default:Tutor" json:"ai_persona_mode"`
	CreatedAt         time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt         time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (LearningPath) TableName() string { return "learning_path" }
