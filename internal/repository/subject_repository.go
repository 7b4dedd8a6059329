package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"examtutor/internal/model"
)

type SubjectRepository struct {
	db *gorm.DB
}

func NewSubjectRepository(db *gorm.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

func (r *SubjectRepository) Create(subject *model.Subject) error {
	if err := r.db.Create(subject).Error; err != nil {
		return fmt.Errorf("create subject failed: %w", err)
	}
	return nil
}

func (r *SubjectRepository) List() ([]model.Subject, error) {
	var subjects []model.Subject
	if err := r.db.Order("name ASC").Find(&subjects).Error; err != nil {
		return nil, fmt.Errorf("list subjects failed: %w", err)
	}
	return subjects, nil
}

func (r *SubjectRepository) GetByID(subjectID uint) (*model.Subject, error) {
	var subject model.Subject
	if err := r.db.First(&subject, subjectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get subject failed: %w", err)
	}
	return &subject, nil
}
