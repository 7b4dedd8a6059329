package model

import "time"

type Subject struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Category    string    `gorm:"size:32;not null;default:general_studies" json:"category"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Topic struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SubjectID   uint      `gorm:"not null;index" json:"subject_id"`
	Name        string    `gorm:"size:200;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Question struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	TopicID         uint            `gorm:"not null;index" json:"topic_id"`
	QuestionText    string          `gorm:"type:text;not null" json:"question_text"`
	Answer          string          `gorm:"type:text;not null" json:"answer"`
	DifficultyLevel DifficultyLevel `gorm:"size:16;not null;default:medium" json:"difficulty_level"`
	QuestionType    QuestionType    `gorm:"size:32;not null;default:multiple_choice" json:"question_type"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type StudyMaterial struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TopicID   uint      `gorm:"not null;index" json:"topic_id"`
	Title     string    `gorm:"size:200;not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	FileName  string    `gorm:"size:256" json:"file_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
