package repository

import (
	"fmt"

	"gorm.io/gorm"

	"examtutor/internal/model"
)

type QuestionRepository struct {
	db *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

func (r *QuestionRepository) Create(question *model.Question) error {
	if err := r.db.Create(question).Error; err != nil {
		return fmt.Errorf("create question failed: %w", err)
	}
	return nil
}

func (r *QuestionRepository) ListByTopicID(topicID uint, difficulty model.DifficultyLevel) ([]model.Question, error) {
	query := r.db.Where("topic_id = ?", topicID)
	if difficulty != "" {
		query = query.Where("difficulty_level = ?", difficulty)
	}

	var questions []model.Question
	if err := query.Order("created_at ASC").Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("list questions failed: %w", err)
	}
	return questions, nil
}
