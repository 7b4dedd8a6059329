package model

import "time"

// CurrentAffair is one digested news item: the model's structured summary of
// a day's headlines for a category, produced by the digest worker.
type CurrentAffair struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Date        time.Time `gorm:"type:date;not null;index" json:"date"`
	Category    string    `gorm:"size:100;not null;index" json:"category"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Summary     string    `gorm:"type:text;not null" json:"summary"`
	KeyConcepts string    `gorm:"type:text" json:"key_concepts"`
	UsageHint   string    `gorm:"type:text" json:"usage_hint"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
