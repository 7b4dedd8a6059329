package model

import "time"

type Session struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	UserID          uint          `gorm:"not null;index" json:"user_id"`
	Title           string        `gorm:"size:255" json:"title"`
	Status          SessionStatus `gorm:"size:16;not null;index;default:active" json:"status"`
	ExamType        ExamType      `gorm:"size:32;not null;index" json:"exam_type"`
	SubjectType     SubjectType   `gorm:"size:32;not null;index" json:"subject_type"`
	SubjectID       *uint         `gorm:"index" json:"subject_id,omitempty"`
	TopicID         *uint         `gorm:"index" json:"topic_id,omitempty"`
	LastInteraction time.Time     `gorm:"index" json:"last_interaction"`
	ExpiresAt       *time.Time    `json:"expires_at,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}
