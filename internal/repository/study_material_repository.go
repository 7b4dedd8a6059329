package repository

import (
	"fmt"

	"gorm.io/gorm"

	"examtutor/internal/model"
)

type StudyMaterialRepository struct {
	db *gorm.DB
}

func NewStudyMaterialRepository(db *gorm.DB) *StudyMaterialRepository {
	return &StudyMaterialRepository{db: db}
}

func (r *StudyMaterialRepository) Create(material *model.StudyMaterial) error {
	if err := r.db.Create(material).Error; err != nil {
		return fmt.Errorf("create study material failed: %w", err)
	}
	return nil
}

func (r *StudyMaterialRepository) ListByTopicID(topicID uint) ([]model.StudyMaterial, error) {
	var materials []model.StudyMaterial
	if err := r.db.Where("topic_id = ?", topicID).Order("created_at DESC").Find(&materials).Error; err != nil {
		return nil, fmt.Errorf("list study materials failed: %w", err)
	}
	return materials, nil
}
