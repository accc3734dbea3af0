package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	BucketWeak     = "Weak"
	BucketModerate = "Moderate"
	BucketStrong   = "Strong"
)

// SkillIndex is the one-per-user composite skill record. Mutated in place on
// every engine update cycle; created lazily with index 50.0 / Moderate.
type SkillIndex struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User       *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	IndexValue float64        `gorm:"column:index_value;not null;default:50.0" json:"index_value"`
	Bucket     string         `gorm:"column:bucket;not null;default:Moderate" json:"bucket"`
	Metrics    datatypes.JSON `gorm:"type:jsonb;column:metrics" json:"metrics,omitempty"`
	CreatedAt  time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null;default:now()" json:"last_updated"`
}

func (SkillIndex) TableName() string { return "skill_index" }
