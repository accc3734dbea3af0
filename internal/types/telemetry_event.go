package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	TelemetryEventCopy       = "Copy"
	TelemetryEventPaste      = "Paste"
	TelemetryEventTabSwitch  = "TabSwitch"
	TelemetryEventHesitation = "Hesitation"
)

// TelemetryEvent is append-only per session; rows are never mutated.
type TelemetryEvent struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_telemetry_user_session" json:"user_id"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	SessionID string    `gorm:"column:session_id;not null;index:idx_telemetry_user_session" json:"session_id"`
	EventType string    `gorm:"column:event_type;not null" json:"event_type"`
	LatencyMS *int      `gorm:"column:latency_ms" json:"latency_ms,omitempty"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (TelemetryEvent) TableName() string { return "telemetry_event" }
