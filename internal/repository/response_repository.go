package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"examtutor/internal/model"
)

// ErrResponseExists enforces the one-response-per-message invariant at the
// recorder boundary; the unique index on message_id backs it up in the DB.
var ErrResponseExists = errors.New("response already exists for message")

type ResponseRepository struct {
	db *gorm.DB
}

func NewResponseRepository(db *gorm.DB) *ResponseRepository {
	return &ResponseRepository{db: db}
}

func (r *ResponseRepository) Create(response *model.Response) error {
	existing, err := r.GetByMessageID(response.MessageID)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrResponseExists
	}
	if err := r.db.Create(response).Error; err != nil {
		return fmt.Errorf("create response failed: %w", err)
	}
	return nil
}

func (r *ResponseRepository) GetByMessageID(messageID uint) (*model.Response, error) {
	var response model.Response
	if err := r.db.Where("message_id = ?", messageID).First(&response).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get response failed: %w", err)
	}
	return &response, nil
}

// UpdateFeedback touches only the feedback fields; everything else on a
// recorded response is immutable.
func (r *ResponseRepository) UpdateFeedback(responseID uint, feedback model.UserFeedback, notes string) error {
	result := r.db.Model(&model.Response{}).Where("id = ?", responseID).Updates(map[string]interface{}{
		"user_feedback":  feedback,
		"feedback_notes": notes,
	})
	if result.Error != nil {
		return fmt.Errorf("update response feedback failed: %w", result.Error)
	}
	return nil
}

func (r *ResponseRepository) DeleteBySessionID(sessionID uint) error {
	sub := r.db.Model(&model.Message{}).Select("id").Where("session_id = ?", sessionID)
	if err := r.db.Where("message_id IN (?)", sub).Delete(&model.Response{}).Error; err != nil {
		return fmt.Errorf("delete session responses failed: %w", err)
	}
	return nil
}

func (r *ResponseRepository) DeleteByMessageID(messageID uint) error {
	if err := r.db.Where("message_id = ?", messageID).Delete(&model.Response{}).Error; err != nil {
		return fmt.Errorf("delete message response failed: %w", err)
	}
	return nil
}
