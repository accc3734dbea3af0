package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ChatTurn is one prompt/response pair. The embedding is attached at write
// time and never recomputed afterward; it is a point-in-time snapshot of the
// query's meaning.
type ChatTurn struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	SessionID string         `gorm:"column:session_id;index" json:"session_id"`
	Title     string         `gorm:"column:title" json:"title,omitempty"`
	Prompt    string         `gorm:"column:prompt;not null" json:"prompt"`
	Response  string         `gorm:"column:response" json:"response"`
	Embedding datatypes.JSON `gorm:"type:jsonb;column:embedding" json:"embedding,omitempty"`
	Telemetry datatypes.JSON `gorm:"type:jsonb;column:telemetry" json:"telemetry,omitempty"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ChatTurn) TableName() string { return "chat_turn" }
