package model

import "time"

// Message content is immutable once created; only its Response carries
// mutable feedback fields.
type Message struct {
	ID                 uint          `gorm:"primaryKey" json:"id"`
	SessionID          uint          `gorm:"not null;index:idx_session_created" json:"session_id"`
	Type               MessageType   `gorm:"size:16;not null;index" json:"type"`
	Content            string        `gorm:"type:text;not null" json:"content"`
	QueryCategory      QueryCategory `gorm:"size:32;not null;default:general" json:"query_category"`
	ReferenceSubjectID *uint         `json:"reference_subject_id,omitempty"`
	ReferenceTopicID   *uint         `json:"reference_topic_id,omitempty"`
	ParentMessageID    *uint         `gorm:"index" json:"parent_message_id,omitempty"`
	TokensUsed         int           `gorm:"default:0" json:"tokens_used"`
	ModelVersion       string        `gorm:"size:50" json:"model_version"`
	CreatedAt          time.Time     `gorm:"index:idx_session_created" json:"created_at"`
}
