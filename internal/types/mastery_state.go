package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MasteryState caches the per-skill mastery vector emitted by the sequence
// mastery model. One row per user.
type MasteryState struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User        *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	SkillVector datatypes.JSON `gorm:"type:jsonb;column:skill_vector" json:"skill_vector"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"last_update"`
}

func (MasteryState) TableName() string { return "mastery_state" }
