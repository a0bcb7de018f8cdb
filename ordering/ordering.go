// Package ordering keeps the questions attached to a ceremony in a single,
// gapless sequence of 1-based order indexes.
package ordering

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nikhilsahni7/StandupX/models"
)

var (
	ErrDuplicateAttachment = errors.New("question is already in this ceremony")
	ErrNotFound            = errors.New("ceremony question not found")
	ErrIncompleteList      = errors.New("incomplete order list: every ceremony question must appear exactly once")
)

// Store persists ceremony questions. InsertCeremonyQuestion and
// RemoveCeremonyQuestion must apply InsertShifts and RemoveShifts together
// with the row change, as one unit.
type Store interface {
	ListCeremonyQuestions(ctx context.Context, ceremonyID uint) ([]models.CeremonyQuestion, error)
	InsertCeremonyQuestion(ctx context.Context, cq *models.CeremonyQuestion) error
	UpdateCeremonyQuestion(ctx context.Context, cq *models.CeremonyQuestion) error
	RemoveCeremonyQuestion(ctx context.Context, ceremonyID, questionID uint) error
	ReorderCeremonyQuestions(ctx context.Context, ceremonyID uint, orders []models.QuestionOrder) error
	CreateQuestion(ctx context.Context, q *models.Question) error
}

type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case Up, Down:
		return d, nil
	}
	return "", fmt.Errorf("invalid direction %q: must be up or down", s)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// List returns the ceremony's questions in display order.
func (s *Service) List(ctx context.Context, ceremonyID uint) ([]models.CeremonyQuestion, error) {
	rows, err := s.store.ListCeremonyQuestions(ctx, ceremonyID)
	if err != nil {
		return nil, err
	}
	return Sorted(rows), nil
}

// Attach adds questionID to the ceremony at orderIndex. An index that is
// already taken pushes that row and every later one down by one. An index of
// zero or less appends.
func (s *Service) Attach(ctx context.Context, ceremonyID, questionID uint, orderIndex int, required bool) (*models.CeremonyQuestion, error) {
	rows, err := s.store.ListCeremonyQuestions(ctx, ceremonyID)
	if err != nil {
		return nil, err
	}
	if _, ok := find(rows, questionID); ok {
		return nil, ErrDuplicateAttachment
	}
	if orderIndex <= 0 {
		orderIndex = NextIndex(rows)
	}

	cq := &models.CeremonyQuestion{
		CeremonyID: ceremonyID,
		QuestionID: questionID,
		OrderIndex: orderIndex,
		IsRequired: required,
	}
	if err := s.store.InsertCeremonyQuestion(ctx, cq); err != nil {
		return nil, err
	}
	return cq, nil
}

// Detach removes questionID from the ceremony and closes the gap it leaves.
// The question itself is kept in the catalog.
func (s *Service) Detach(ctx context.Context, ceremonyID, questionID uint) error {
	rows, err := s.store.ListCeremonyQuestions(ctx, ceremonyID)
	if err != nil {
		return err
	}
	if _, ok := find(rows, questionID); !ok {
		return ErrNotFound
	}
	return s.store.RemoveCeremonyQuestion(ctx, ceremonyID, questionID)
}

// Update changes the required flag and, when orderIndex is positive and
// different, moves the question to that position. Positions past the end
// move it to the end.
func (s *Service) Update(ctx context.Context, ceremonyID, questionID uint, orderIndex int, required bool) (*models.CeremonyQuestion, error) {
	rows, err := s.List(ctx, ceremonyID)
	if err != nil {
		return nil, err
	}
	cq, ok := find(rows, questionID)
	if !ok {
		return nil, ErrNotFound
	}

	if cq.IsRequired != required {
		cq.IsRequired = required
		if err := s.store.UpdateCeremonyQuestion(ctx, &cq); err != nil {
			return nil, err
		}
	}

	if orderIndex > 0 && orderIndex != cq.OrderIndex {
		ids := IDs(rows)
		from := indexOf(ids, questionID)
		to := orderIndex - 1
		if to >= len(ids) {
			to = len(ids) - 1
		}
		if from != to {
			ids = move(ids, from, to)
		}
		if err := s.store.ReorderCeremonyQuestions(ctx, ceremonyID, Positions(ids)); err != nil {
			return nil, err
		}
		cq.OrderIndex = to + 1
	}
	return &cq, nil
}

// Reorder assigns positions 1..n following orderedIDs, which must name every
// attached question exactly once.
func (s *Service) Reorder(ctx context.Context, ceremonyID uint, orderedIDs []uint) error {
	rows, err := s.store.ListCeremonyQuestions(ctx, ceremonyID)
	if err != nil {
		return err
	}
	if err := checkPermutation(rows, orderedIDs); err != nil {
		return err
	}
	return s.store.ReorderCeremonyQuestions(ctx, ceremonyID, Positions(orderedIDs))
}

func checkPermutation(rows []models.CeremonyQuestion, ids []uint) error {
	if len(ids) != len(rows) {
		return fmt.Errorf("%w: got %d ids for %d questions", ErrIncompleteList, len(ids), len(rows))
	}
	attached := make(map[uint]bool, len(rows))
	for _, r := range rows {
		attached[r.QuestionID] = true
	}
	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if !attached[id] {
			return fmt.Errorf("%w: question %d is not attached", ErrIncompleteList, id)
		}
		if seen[id] {
			return fmt.Errorf("%w: question %d listed twice", ErrIncompleteList, id)
		}
		seen[id] = true
	}
	return nil
}

// MoveOne swaps questionID with its neighbour in direction dir. Moving the
// first question up or the last one down does nothing.
func (s *Service) MoveOne(ctx context.Context, ceremonyID, questionID uint, dir Direction) error {
	rows, err := s.List(ctx, ceremonyID)
	if err != nil {
		return err
	}
	ids := IDs(rows)
	i := indexOf(ids, questionID)
	if i < 0 {
		return ErrNotFound
	}

	j := i + 1
	if dir == Up {
		j = i - 1
	}
	if j < 0 || j >= len(ids) {
		return nil
	}
	ids[i], ids[j] = ids[j], ids[i]
	return s.Reorder(ctx, ceremonyID, ids)
}

func indexOf(ids []uint, id uint) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
