package model

import "time"

// Response is the AI turn recorded against a user message, at most one per
// message. Quality scores stay NULL until a scorer supplies them; feedback
// fields are the only ones mutable after creation.
type Response struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	MessageID    uint         `gorm:"not null;uniqueIndex" json:"message_id"`
	ResponseText string       `gorm:"type:text;not null" json:"response_text"`
	ResponseType ResponseType `gorm:"size:16;not null;default:text" json:"response_type"`

	ModelName        string `gorm:"size:100" json:"model_name"`
	TokensUsed       int    `gorm:"default:0" json:"tokens_used"`
	ProcessingTimeMS int64  `gorm:"default:0" json:"processing_time_ms"`

	ConfidenceScore *float64 `json:"confidence_score,omitempty"`
	RelevanceScore  *float64 `json:"relevance_score,omitempty"`
	AccuracyScore   *float64 `json:"accuracy_score,omitempty"`

	HasCode   bool `gorm:"default:false" json:"has_code"`
	HasTables bool `gorm:"default:false" json:"has_tables"`
	HasLinks  bool `gorm:"default:false" json:"has_links"`

	UserFeedback  UserFeedback `gorm:"size:32;not null;default:no_feedback" json:"user_feedback"`
	FeedbackNotes string       `gorm:"type:text" json:"feedback_notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
