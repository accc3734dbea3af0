package types

import (
	"time"

	"gorm.io/datatypes"
)

// PolicySnapshot holds the serialized Q-table as a single whole-table
// snapshot. One row per table name; overwritten on every learning step.
type PolicySnapshot struct {
	Name      string         `gorm:"primaryKey;column:name" json:"name"`
	Table     datatypes.JSON `gorm:"type:jsonb;column:q_table;not null" json:"q_table"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (PolicySnapshot) TableName() string { return "policy_snapshot" }
