package types

import (
	"time"

	"github.com/google/uuid"
)

type QuizScore struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User           *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	TopicTag       string    `gorm:"column:topic_tag;not null;index" json:"topic_tag"`
	Score          float64   `gorm:"column:score;not null" json:"score"`
	TotalQuestions int       `gorm:"column:total_questions;not null" json:"total_questions"`
	Attempts       int       `gorm:"column:attempts;not null;default:1" json:"attempts"`
	CreatedAt      time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (QuizScore) TableName() string { return "quiz_score" }
