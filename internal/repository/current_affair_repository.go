package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"examtutor/internal/model"
)

type CurrentAffairRepository struct {
	db *gorm.DB
}

func NewCurrentAffairRepository(db *gorm.DB) *CurrentAffairRepository {
	return &CurrentAffairRepository{db: db}
}

func (r *CurrentAffairRepository) Create(affair *model.CurrentAffair) error {
	if err := r.db.Create(affair).Error; err != nil {
		return fmt.Errorf("create current affair failed: %w", err)
	}
	return nil
}

func (r *CurrentAffairRepository) List(start, end *time.Time, category string) ([]model.CurrentAffair, error) {
	query := r.db.Model(&model.CurrentAffair{})
	if start != nil && end != nil {
		query = query.Where("date BETWEEN ? AND ?", start, end)
	}
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var affairs []model.CurrentAffair
	if err := query.Order("date DESC, created_at DESC").Find(&affairs).Error; err != nil {
		return nil, fmt.Errorf("list current affairs failed: %w", err)
	}
	return affairs, nil
}

func (r *CurrentAffairRepository) GetByID(affairID uint) (*model.CurrentAffair, error) {
	var affair model.CurrentAffair
	if err := r.db.First(&affair, affairID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get current affair failed: %w", err)
	}
	return &affair, nil
}
