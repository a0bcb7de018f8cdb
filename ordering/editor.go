package ordering

import (
	"context"
	"errors"

	"github.com/nikhilsahni7/StandupX/models"
)

// Editor caches the ordered question list of one ceremony for an interactive
// caller. Every change goes through the Service and the cache is reloaded
// afterwards, so it always reflects the store, including after a failure.
type Editor struct {
	svc        *Service
	ceremonyID uint
	rows       []models.CeremonyQuestion
}

func NewEditor(svc *Service, ceremonyID uint) *Editor {
	return &Editor{svc: svc, ceremonyID: ceremonyID}
}

// Load replaces the cached list with the store's.
func (e *Editor) Load(ctx context.Context) error {
	rows, err := e.svc.List(ctx, e.ceremonyID)
	if err != nil {
		return err
	}
	e.rows = rows
	return nil
}

// Questions returns the cached list in display order.
func (e *Editor) Questions() []models.CeremonyQuestion {
	return append([]models.CeremonyQuestion(nil), e.rows...)
}

func (e *Editor) Attach(ctx context.Context, questionID uint, orderIndex int, required bool) error {
	return e.apply(ctx, func() error {
		_, err := e.svc.Attach(ctx, e.ceremonyID, questionID, orderIndex, required)
		return err
	})
}

func (e *Editor) Detach(ctx context.Context, questionID uint) error {
	return e.apply(ctx, func() error {
		return e.svc.Detach(ctx, e.ceremonyID, questionID)
	})
}

// AttachMany runs Service.AttachMany and reloads. The error is the bulk
// result's error, joined with any reload failure.
func (e *Editor) AttachMany(ctx context.Context, questionIDs []uint, start int, required bool) (BulkResult, error) {
	var res BulkResult
	err := e.apply(ctx, func() error {
		res = e.svc.AttachMany(ctx, e.ceremonyID, questionIDs, start, required)
		return res.Err()
	})
	return res, err
}

func (e *Editor) DetachMany(ctx context.Context, questionIDs []uint) (BulkResult, error) {
	var res BulkResult
	err := e.apply(ctx, func() error {
		res = e.svc.DetachMany(ctx, e.ceremonyID, questionIDs)
		return res.Err()
	})
	return res, err
}

func (e *Editor) Update(ctx context.Context, questionID uint, orderIndex int, required bool) error {
	return e.apply(ctx, func() error {
		_, err := e.svc.Update(ctx, e.ceremonyID, questionID, orderIndex, required)
		return err
	})
}

func (e *Editor) Reorder(ctx context.Context, orderedIDs []uint) error {
	return e.apply(ctx, func() error {
		return e.svc.Reorder(ctx, e.ceremonyID, orderedIDs)
	})
}

func (e *Editor) MoveOne(ctx context.Context, questionID uint, dir Direction) error {
	return e.apply(ctx, func() error {
		return e.svc.MoveOne(ctx, e.ceremonyID, questionID, dir)
	})
}

// Drop moves the question shown at position from to position to, both
// 0-based over the cached list. The cache changes only once the store has
// accepted the new order.
func (e *Editor) Drop(ctx context.Context, from, to int) error {
	ids := IDs(e.rows)
	if from < 0 || from >= len(ids) || to < 0 || to >= len(ids) {
		return ErrNotFound
	}
	if from == to {
		return nil
	}
	return e.Reorder(ctx, move(ids, from, to))
}

func (e *Editor) apply(ctx context.Context, op func() error) error {
	if err := op(); err != nil {
		if lerr := e.Load(ctx); lerr != nil {
			return errors.Join(err, lerr)
		}
		return err
	}
	return e.Load(ctx)
}
