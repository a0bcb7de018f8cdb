package db

import (
	"context"

	"github.com/nikhilsahni7/StandupX/models"
	"gorm.io/gorm"
)

func (s *Store) CreateCeremony(ctx context.Context, c *models.Ceremony) error {
	return s.db.WithContext(ctx).Create(c).Error
}

func (s *Store) GetCeremony(ctx context.Context, id uint) (*models.Ceremony, error) {
	var c models.Ceremony
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, notFound(err, "ceremony", id)
	}
	return &c, nil
}

// ListCeremonies returns the ceremonies of the given teams. A nil teamIDs
// lists every ceremony.
func (s *Store) ListCeremonies(ctx context.Context, teamIDs []uint) ([]models.Ceremony, error) {
	tx := s.db.WithContext(ctx).Order("id ASC")
	if teamIDs != nil {
		if len(teamIDs) == 0 {
			return []models.Ceremony{}, nil
		}
		tx = tx.Where("team_id IN ?", teamIDs)
	}
	var ceremonies []models.Ceremony
	err := tx.Find(&ceremonies).Error
	return ceremonies, err
}

func (s *Store) UpdateCeremony(ctx context.Context, c *models.Ceremony) error {
	res := s.db.WithContext(ctx).Model(&models.Ceremony{ID: c.ID}).
		Select("name", "description", "cadence", "start_time", "timezone", "status",
			"is_active", "send_notifications", "notification_lead_time").
		Updates(c)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "ceremony", c.ID)
	}
	return nil
}

// SetCeremonyActive opens or pauses a ceremony for submissions.
func (s *Store) SetCeremonyActive(ctx context.Context, id uint, active bool) (*models.Ceremony, error) {
	status := models.CeremonyPaused
	if active {
		status = models.CeremonyActive
	}
	res := s.db.WithContext(ctx).Model(&models.Ceremony{}).Where("id = ?", id).
		Updates(map[string]any{"is_active": active, "status": status})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, notFound(gorm.ErrRecordNotFound, "ceremony", id)
	}
	return s.GetCeremony(ctx, id)
}

// DeleteCeremony removes the ceremony with its attachments, responses and
// webhooks. Catalog questions are kept.
func (s *Store) DeleteCeremony(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		responses := tx.Model(&models.CeremonyResponse{}).Select("id").Where("ceremony_id = ?", id)
		if err := tx.Where("ceremony_response_id IN (?)", responses).Delete(&models.QuestionResponse{}).Error; err != nil {
			return err
		}
		for _, model := range []any{&models.CeremonyResponse{}, &models.CeremonyQuestion{}, &models.Webhook{}} {
			if err := tx.Where("ceremony_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&models.Ceremony{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound(gorm.ErrRecordNotFound, "ceremony", id)
		}
		return nil
	})
}
