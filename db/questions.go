package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/nikhilsahni7/StandupX/models"
	"github.com/nikhilsahni7/StandupX/question"
	"gorm.io/gorm"
)

var ErrQuestionInUse = errors.New("question is attached to a ceremony")

// ListQuestions returns the catalog questions matching f, newest last.
func (s *Store) ListQuestions(ctx context.Context, f question.Filter) ([]models.Question, error) {
	tx := s.db.WithContext(ctx).Preload("Options", optionsByOrder).Order("id ASC")
	if f.Type != "" {
		tx = tx.Where("question_type = ?", f.Type)
	}
	var questions []models.Question
	if err := tx.Find(&questions).Error; err != nil {
		return nil, err
	}
	return f.Apply(questions), nil
}

func (s *Store) GetQuestion(ctx context.Context, id uint) (*models.Question, error) {
	var q models.Question
	if err := s.db.WithContext(ctx).Preload("Options", optionsByOrder).First(&q, id).Error; err != nil {
		return nil, notFound(err, "question", id)
	}
	return &q, nil
}

// QuestionsForCeremony returns the catalog questions attached to the ceremony.
func (s *Store) QuestionsForCeremony(ctx context.Context, ceremonyID uint) ([]models.Question, error) {
	tx := s.db.WithContext(ctx)
	attached := tx.Model(&models.CeremonyQuestion{}).Select("question_id").Where("ceremony_id = ?", ceremonyID)
	var questions []models.Question
	err := tx.Preload("Options", optionsByOrder).
		Where("id IN (?)", attached).
		Find(&questions).Error
	return questions, err
}

// UpdateQuestion saves the question's fields and replaces its options.
func (s *Store) UpdateQuestion(ctx context.Context, q *models.Question) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Question{ID: q.ID}).
			Select("text", "question_type", "is_required", "help_text", "min_value", "max_value",
				"min_label", "max_label", "allowed_file_types", "max_file_size").
			Updates(q)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound(gorm.ErrRecordNotFound, "question", q.ID)
		}
		if err := tx.Where("question_id = ?", q.ID).Delete(&models.QuestionOption{}).Error; err != nil {
			return err
		}
		for i := range q.Options {
			q.Options[i].ID = 0
			q.Options[i].QuestionID = q.ID
		}
		if len(q.Options) > 0 {
			return tx.Create(&q.Options).Error
		}
		return nil
	})
}

// AddOption appends opt to the question's options.
func (s *Store) AddOption(ctx context.Context, questionID uint, opt *models.QuestionOption) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Question{}, questionID).Error; err != nil {
			return notFound(err, "question", questionID)
		}
		var next int64
		if err := tx.Model(&models.QuestionOption{}).Where("question_id = ?", questionID).Count(&next).Error; err != nil {
			return err
		}
		opt.ID = 0
		opt.QuestionID = questionID
		opt.OrderIndex = int(next)
		if opt.Value == "" {
			opt.Value = opt.Text
		}
		return tx.Create(opt).Error
	})
}

// DeleteQuestion removes a catalog question and its options. Questions still
// attached to a ceremony are refused with ErrQuestionInUse.
func (s *Store) DeleteQuestion(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var attached int64
		if err := tx.Model(&models.CeremonyQuestion{}).Where("question_id = ?", id).Count(&attached).Error; err != nil {
			return err
		}
		if attached > 0 {
			return fmt.Errorf("question %d: %w", id, ErrQuestionInUse)
		}
		if err := tx.Where("question_id = ?", id).Delete(&models.QuestionOption{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Question{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound(gorm.ErrRecordNotFound, "question", id)
		}
		return nil
	})
}

// UpdateOption saves the text, value and correctness of one of the
// question's options.
func (s *Store) UpdateOption(ctx context.Context, opt *models.QuestionOption) error {
	tx := s.db.WithContext(ctx)
	res := tx.Model(&models.QuestionOption{}).
		Where("id = ? AND question_id = ?", opt.ID, opt.QuestionID).
		Updates(map[string]any{"text": opt.Text, "value": opt.Value, "is_correct": opt.IsCorrect})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "option", opt.ID)
	}
	return tx.First(opt, opt.ID).Error
}

// DeleteOption removes one option and renumbers the rest from zero.
func (s *Store) DeleteOption(ctx context.Context, questionID, optionID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("question_id = ?", questionID).Delete(&models.QuestionOption{}, optionID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound(gorm.ErrRecordNotFound, "option", optionID)
		}
		var rest []models.QuestionOption
		if err := optionsByOrder(tx.Where("question_id = ?", questionID)).Find(&rest).Error; err != nil {
			return err
		}
		for i, o := range rest {
			if o.OrderIndex == i {
				continue
			}
			if err := tx.Model(&models.QuestionOption{}).Where("id = ?", o.ID).Update("order_index", i).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
