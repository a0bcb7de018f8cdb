// Package db holds the gorm-backed persistence of StandupX.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/nikhilsahni7/StandupX/models"
	"github.com/nikhilsahni7/StandupX/ordering"
	"github.com/nikhilsahni7/StandupX/response"
	"gorm.io/gorm"
)

var (
	_ ordering.Store = (*Store)(nil)
	_ response.Store = (*Store)(nil)
)

// ErrNotFound is returned for lookups of missing records.
var ErrNotFound = errors.New("record not found")

type Store struct {
	db *gorm.DB
}

func NewStore(gdb *gorm.DB) *Store {
	return &Store{db: gdb}
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func notFound(err error, what string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return err
}

// optionsByOrder preloads question options in display order.
func optionsByOrder(tx *gorm.DB) *gorm.DB {
	return tx.Order("order_index ASC, id ASC")
}

func (s *Store) ListCeremonyQuestions(ctx context.Context, ceremonyID uint) ([]models.CeremonyQuestion, error) {
	return listCeremonyQuestions(s.db.WithContext(ctx), ceremonyID)
}

func listCeremonyQuestions(tx *gorm.DB, ceremonyID uint) ([]models.CeremonyQuestion, error) {
	var rows []models.CeremonyQuestion
	err := tx.Where("ceremony_id = ?", ceremonyID).Order("order_index ASC, id ASC").Find(&rows).Error
	return rows, err
}

func applyOrders(tx *gorm.DB, ceremonyID uint, orders []models.QuestionOrder) error {
	for _, o := range orders {
		res := tx.Model(&models.CeremonyQuestion{}).
			Where("ceremony_id = ? AND question_id = ?", ceremonyID, o.QuestionID).
			Update("order_index", o.OrderIndex)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("question %d: %w", o.QuestionID, ordering.ErrNotFound)
		}
	}
	return nil
}

// InsertCeremonyQuestion shifts the rows at or after cq.OrderIndex when that
// index is taken and inserts cq, in one transaction.
func (s *Store) InsertCeremonyQuestion(ctx context.Context, cq *models.CeremonyQuestion) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := listCeremonyQuestions(tx, cq.CeremonyID)
		if err != nil {
			return err
		}
		if err := applyOrders(tx, cq.CeremonyID, ordering.InsertShifts(rows, cq.OrderIndex)); err != nil {
			return err
		}
		if err := tx.Create(cq).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ordering.ErrDuplicateAttachment
			}
			return err
		}
		return nil
	})
}

func (s *Store) UpdateCeremonyQuestion(ctx context.Context, cq *models.CeremonyQuestion) error {
	res := s.db.WithContext(ctx).Model(&models.CeremonyQuestion{}).
		Where("ceremony_id = ? AND question_id = ?", cq.CeremonyID, cq.QuestionID).
		Update("is_required", cq.IsRequired)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ordering.ErrNotFound
	}
	return nil
}

// RemoveCeremonyQuestion deletes the row and closes the gap it leaves, in one
// transaction.
func (s *Store) RemoveCeremonyQuestion(ctx context.Context, ceremonyID, questionID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := listCeremonyQuestions(tx, ceremonyID)
		if err != nil {
			return err
		}
		shifts := ordering.RemoveShifts(rows, questionID)

		res := tx.Where("ceremony_id = ? AND question_id = ?", ceremonyID, questionID).Delete(&models.CeremonyQuestion{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ordering.ErrNotFound
		}
		return applyOrders(tx, ceremonyID, shifts)
	})
}

func (s *Store) ReorderCeremonyQuestions(ctx context.Context, ceremonyID uint, orders []models.QuestionOrder) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return applyOrders(tx, ceremonyID, orders)
	})
}

// CreateQuestion stores q together with its options.
func (s *Store) CreateQuestion(ctx context.Context, q *models.Question) error {
	return s.db.WithContext(ctx).Create(q).Error
}
