package db

import (
	"context"
	"errors"

	"github.com/nikhilsahni7/StandupX/models"
	"github.com/nikhilsahni7/StandupX/response"
	"gorm.io/gorm"
)

func byID(tx *gorm.DB) *gorm.DB {
	return tx.Order("id ASC")
}

func (s *Store) HasResponse(ctx context.Context, ceremonyID, userID uint) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.CeremonyResponse{}).
		Where("ceremony_id = ? AND user_id = ?", ceremonyID, userID).Count(&n).Error
	return n > 0, err
}

// CreateResponse stores resp and its question responses in one transaction.
func (s *Store) CreateResponse(ctx context.Context, resp *models.CeremonyResponse) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(resp).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return response.ErrAlreadySubmitted
			}
			return err
		}
		return nil
	})
}

func (s *Store) GetResponse(ctx context.Context, id uint) (*models.CeremonyResponse, error) {
	var r models.CeremonyResponse
	if err := s.db.WithContext(ctx).Preload("QuestionResponses", byID).First(&r, id).Error; err != nil {
		return nil, notFound(err, "response", id)
	}
	return &r, nil
}

// ListResponses returns the ceremony's responses in submission order.
func (s *Store) ListResponses(ctx context.Context, ceremonyID uint) ([]models.CeremonyResponse, error) {
	var responses []models.CeremonyResponse
	err := s.db.WithContext(ctx).Preload("QuestionResponses", byID).
		Where("ceremony_id = ?", ceremonyID).
		Order("submitted_at ASC, id ASC").
		Find(&responses).Error
	return responses, err
}

// UpdateResponse saves the response's own fields and replaces its question
// responses in one transaction.
func (s *Store) UpdateResponse(ctx context.Context, resp *models.CeremonyResponse) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CeremonyResponse{}).Where("id = ?", resp.ID).Updates(map[string]any{
			"status":       resp.Status,
			"is_complete":  resp.IsComplete,
			"notes":        resp.Notes,
			"mood_rating":  resp.MoodRating,
			"energy_level": resp.EnergyLevel,
			"completed_at": resp.CompletedAt,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound(gorm.ErrRecordNotFound, "response", resp.ID)
		}
		if err := tx.Where("ceremony_response_id = ?", resp.ID).Delete(&models.QuestionResponse{}).Error; err != nil {
			return err
		}
		for i := range resp.QuestionResponses {
			resp.QuestionResponses[i].ID = 0
			resp.QuestionResponses[i].CeremonyResponseID = resp.ID
		}
		if len(resp.QuestionResponses) > 0 {
			return tx.Create(&resp.QuestionResponses).Error
		}
		return nil
	})
}

// DeleteResponse removes the response and its question responses.
func (s *Store) DeleteResponse(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ceremony_response_id = ?", id).Delete(&models.QuestionResponse{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.CeremonyResponse{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound(gorm.ErrRecordNotFound, "response", id)
		}
		return nil
	})
}

// ResponseFilter narrows FindResponses. Zero fields match everything.
type ResponseFilter struct {
	UserID     uint
	TeamID     uint
	CeremonyID uint
	Status     string
}

// FindResponses returns the matching responses, newest first.
func (s *Store) FindResponses(ctx context.Context, f ResponseFilter) ([]models.CeremonyResponse, error) {
	tx := s.db.WithContext(ctx).Preload("QuestionResponses", byID)
	if f.UserID != 0 {
		tx = tx.Where("user_id = ?", f.UserID)
	}
	if f.TeamID != 0 {
		tx = tx.Where("team_id = ?", f.TeamID)
	}
	if f.CeremonyID != 0 {
		tx = tx.Where("ceremony_id = ?", f.CeremonyID)
	}
	if f.Status != "" {
		tx = tx.Where("status = ?", f.Status)
	}
	responses := []models.CeremonyResponse{}
	err := tx.Order("submitted_at DESC, id DESC").Find(&responses).Error
	return responses, err
}

func (s *Store) CreateWebhook(ctx context.Context, w *models.Webhook) error {
	return s.db.WithContext(ctx).Create(w).Error
}

func (s *Store) ListWebhooks(ctx context.Context, ceremonyID uint) ([]models.Webhook, error) {
	var hooks []models.Webhook
	err := s.db.WithContext(ctx).Where("ceremony_id = ?", ceremonyID).Order("id ASC").Find(&hooks).Error
	return hooks, err
}

func (s *Store) GetWebhook(ctx context.Context, id uint) (*models.Webhook, error) {
	var w models.Webhook
	if err := s.db.WithContext(ctx).First(&w, id).Error; err != nil {
		return nil, notFound(err, "webhook", id)
	}
	return &w, nil
}

func (s *Store) DeleteWebhook(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Webhook{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "webhook", id)
	}
	return nil
}

func (s *Store) UpdateWebhook(ctx context.Context, w *models.Webhook) error {
	res := s.db.WithContext(ctx).Model(&models.Webhook{ID: w.ID}).Select("url", "events", "secret").Updates(w)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "webhook", w.ID)
	}
	return nil
}
