package ordering

import (
	"context"
	"errors"
	"testing"

	"github.com/nikhilsahni7/StandupX/models"
	"github.com/nikhilsahni7/StandupX/templates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore keeps ceremony questions in memory and applies the shift planners
// the same way the database store does.
type memStore struct {
	rows       map[uint][]models.CeremonyQuestion
	questions  map[uint]models.Question
	nextID     uint
	reorders   int
	failList   error
	failCreate func(q *models.Question) error
}

func newMemStore() *memStore {
	return &memStore{rows: map[uint][]models.CeremonyQuestion{}, questions: map[uint]models.Question{}, nextID: 100}
}

func (m *memStore) seed(ceremonyID uint, questionIDs ...uint) {
	for i, id := range questionIDs {
		m.nextID++
		m.rows[ceremonyID] = append(m.rows[ceremonyID], models.CeremonyQuestion{
			ID: m.nextID, CeremonyID: ceremonyID, QuestionID: id, OrderIndex: i + 1,
		})
	}
}

func (m *memStore) ListCeremonyQuestions(_ context.Context, ceremonyID uint) ([]models.CeremonyQuestion, error) {
	if m.failList != nil {
		return nil, m.failList
	}
	return append([]models.CeremonyQuestion(nil), m.rows[ceremonyID]...), nil
}

func (m *memStore) InsertCeremonyQuestion(_ context.Context, cq *models.CeremonyQuestion) error {
	rows := m.rows[cq.CeremonyID]
	ApplyOrders(rows, InsertShifts(rows, cq.OrderIndex))
	m.nextID++
	cq.ID = m.nextID
	m.rows[cq.CeremonyID] = append(rows, *cq)
	return nil
}

func (m *memStore) UpdateCeremonyQuestion(_ context.Context, cq *models.CeremonyQuestion) error {
	rows := m.rows[cq.CeremonyID]
	for i := range rows {
		if rows[i].QuestionID == cq.QuestionID {
			rows[i].IsRequired = cq.IsRequired
			return nil
		}
	}
	return ErrNotFound
}

func (m *memStore) RemoveCeremonyQuestion(_ context.Context, ceremonyID, questionID uint) error {
	rows := m.rows[ceremonyID]
	shifts := RemoveShifts(rows, questionID)
	kept := rows[:0]
	for _, r := range rows {
		if r.QuestionID != questionID {
			kept = append(kept, r)
		}
	}
	ApplyOrders(kept, shifts)
	m.rows[ceremonyID] = kept
	return nil
}

func (m *memStore) ReorderCeremonyQuestions(_ context.Context, ceremonyID uint, orders []models.QuestionOrder) error {
	m.reorders++
	ApplyOrders(m.rows[ceremonyID], orders)
	return nil
}

func (m *memStore) CreateQuestion(_ context.Context, q *models.Question) error {
	if m.failCreate != nil {
		if err := m.failCreate(q); err != nil {
			return err
		}
	}
	m.nextID++
	q.ID = m.nextID
	m.questions[q.ID] = *q
	return nil
}

func indexes(rows []models.CeremonyQuestion) map[uint]int {
	out := make(map[uint]int, len(rows))
	for _, r := range rows {
		out[r.QuestionID] = r.OrderIndex
	}
	return out
}

func orderOf(t *testing.T, svc *Service, ceremonyID uint) []uint {
	t.Helper()
	rows, err := svc.List(context.Background(), ceremonyID)
	require.NoError(t, err)
	return IDs(rows)
}

func TestAttach(t *testing.T) {
	ctx := context.Background()

	t.Run("taken index shifts later rows", func(t *testing.T) {
		store := newMemStore()
		store.seed(1, 10, 20, 30)
		svc := NewService(store)

		cq, err := svc.Attach(ctx, 1, 40, 2, true)
		require.NoError(t, err)
		assert.Equal(t, 2, cq.OrderIndex)
		assert.True(t, cq.IsRequired)
		assert.Equal(t, map[uint]int{10: 1, 40: 2, 20: 3, 30: 4}, indexes(store.rows[1]))
	})

	t.Run("free index leaves rows alone", func(t *testing.T) {
		store := newMemStore()
		store.seed(1, 10, 20)
		svc := NewService(store)

		_, err := svc.Attach(ctx, 1, 40, 5, false)
		require.NoError(t, err)
		assert.Equal(t, map[uint]int{10: 1, 20: 2, 40: 5}, indexes(store.rows[1]))
	})

	t.Run("zero index appends", func(t *testing.T) {
		store := newMemStore()
		store.seed(1, 10, 20)
		svc := NewService(store)

		cq, err := svc.Attach(ctx, 1, 40, 0, false)
		require.NoError(t, err)
		assert.Equal(t, 3, cq.OrderIndex)

		cq, err = svc.Attach(ctx, 2, 40, -1, false)
		require.NoError(t, err)
		assert.Equal(t, 1, cq.OrderIndex)
	})

	t.Run("duplicate is rejected", func(t *testing.T) {
		store := newMemStore()
		store.seed(1, 10, 20)
		svc := NewService(store)

		_, err := svc.Attach(ctx, 1, 20, 1, false)
		assert.ErrorIs(t, err, ErrDuplicateAttachment)
		assert.Len(t, store.rows[1], 2)
	})

	t.Run("store failure is returned", func(t *testing.T) {
		store := newMemStore()
		store.failList = errors.New("connection reset")
		_, err := NewService(store).Attach(ctx, 1, 10, 0, false)
		assert.EqualError(t, err, "connection reset")
	})
}

func TestDetach(t *testing.T) {
	ctx := context.Background()

	t.Run("closes the gap", func(t *testing.T) {
		store := newMemStore()
		store.seed(1, 10, 20, 30)
		svc := NewService(store)

		require.NoError(t, svc.Detach(ctx, 1, 20))
		assert.Equal(t, map[uint]int{10: 1, 30: 2}, indexes(store.rows[1]))
	})

	t.Run("unknown question", func(t *testing.T) {
		store := newMemStore()
		store.seed(1, 10)
		err := NewService(store).Detach(ctx, 1, 99)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("attach then detach restores the list", func(t *testing.T) {
		store := newMemStore()
		store.seed(1, 10, 20, 30)
		svc := NewService(store)
		before := indexes(store.rows[1])

		for _, at := range []int{1, 2, 3, 4, 0} {
			_, err := svc.Attach(ctx, 1, 40, at, false)
			require.NoError(t, err)
			require.NoError(t, svc.Detach(ctx, 1, 40))
			assert.Equal(t, before, indexes(store.rows[1]), "attach at %d", at)
		}
	})
}

func TestReorder(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns contiguous positions", func(t *testing.T) {
		store := newMemStore()
		store.seed(1, 10, 20, 30)
		svc := NewService(store)

		require.NoError(t, svc.Reorder(ctx, 1, []uint{30, 10, 20}))
		assert.Equal(t, map[uint]int{30: 1, 10: 2, 20: 3}, indexes(store.rows[1]))
		assert.Equal(t, []uint{30, 10, 20}, orderOf(t, svc, 1))
	})

	t.Run("is idempotent", func(t *testing.T) {
		store := newMemStore()
		store.seed(1, 10, 20, 30)
		svc := NewService(store)

		require.NoError(t, svc.Reorder(ctx, 1, []uint{20, 30, 10}))
		first := indexes(store.rows[1])
		require.NoError(t, svc.Reorder(ctx, 1, []uint{20, 30, 10}))
		assert.Equal(t, first, indexes(store.rows[1]))
	})

	t.Run("rejects anything but a permutation", func(t *testing.T) {
		store := newMemStore()
		store.seed(1, 10, 20, 30)
		svc := NewService(store)

		for name, ids := range map[string][]uint{
			"missing":   {10, 20},
			"extra":     {10, 20, 30, 40},
			"unknown":   {10, 20, 99},
			"duplicate": {10, 20, 20},
		} {
			err := svc.Reorder(ctx, 1, ids)
			assert.ErrorIs(t, err, ErrIncompleteList, name)
		}
		assert.Zero(t, store.reorders)
	})
}

func TestMoveOne(t *testing.T) {
	ctx := context.Background()

	t.Run("edges are a no-op", func(t *testing.T) {
		store := newMemStore()
		store.seed(1, 10, 20, 30)
		svc := NewService(store)

		require.NoError(t, svc.MoveOne(ctx, 1, 10, Up))
		require.NoError(t, svc.MoveOne(ctx, 1, 30, Down))
		assert.Zero(t, store.reorders)
		assert.Equal(t, []uint{10, 20, 30}, orderOf(t, svc, 1))
	})

	t.Run("swaps with the neighbour", func(t *testing.T) {
		store := newMemStore()
		store.seed(1, 10, 20, 30)
		svc := NewService(store)

		require.NoError(t, svc.MoveOne(ctx, 1, 10, Down))
		assert.Equal(t, []uint{20, 10, 30}, orderOf(t, svc, 1))
		require.NoError(t, svc.MoveOne(ctx, 1, 30, Up))
		assert.Equal(t, []uint{20, 30, 10}, orderOf(t, svc, 1))
	})

	t.Run("unknown question", func(t *testing.T) {
		store := newMemStore()
		store.seed(1, 10)
		assert.ErrorIs(t, NewService(store).MoveOne(ctx, 1, 99, Up), ErrNotFound)
	})
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection(" UP ")
	require.NoError(t, err)
	assert.Equal(t, Up, d)

	_, err = ParseDirection("sideways")
	assert.Error(t, err)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.seed(1, 10, 20, 30)
	svc := NewService(store)

	cq, err := svc.Update(ctx, 1, 10, 3, true)
	require.NoError(t, err)
	assert.Equal(t, 3, cq.OrderIndex)
	assert.True(t, cq.IsRequired)
	assert.Equal(t, []uint{20, 30, 10}, orderOf(t, svc, 1))

	cq, err = svc.Update(ctx, 1, 20, 99, false)
	require.NoError(t, err)
	assert.Equal(t, 3, cq.OrderIndex)
	assert.Equal(t, []uint{30, 10, 20}, orderOf(t, svc, 1))

	_, err = svc.Update(ctx, 1, 99, 1, false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApplyTemplates(t *testing.T) {
	ctx := context.Background()
	standup, ok := templates.Default().Get("daily-standup")
	require.True(t, ok)

	t.Run("continues after existing questions", func(t *testing.T) {
		store := newMemStore()
		store.seed(1, 1, 2)
		svc := NewService(store)

		res, err := svc.ApplyTemplates(ctx, 1, []templates.Template{standup}, 3, false)
		require.NoError(t, err)
		require.NoError(t, res.Err())
		require.Len(t, res.Succeeded, 5)

		rows, err := svc.List(ctx, 1)
		require.NoError(t, err)
		require.Len(t, rows, 7)
		for i, r := range rows {
			assert.Equal(t, i+1, r.OrderIndex)
		}
		assert.Equal(t, []uint{1, 2}, IDs(rows)[:2])
		assert.Equal(t, standup.Questions[0].Text, store.questions[rows[2].QuestionID].Text)
		assert.Equal(t, standup.Questions[4].Text, store.questions[rows[6].QuestionID].Text)
		assert.Equal(t, standup.Questions[2].IsRequired, rows[4].IsRequired)
	})

	t.Run("zero start appends", func(t *testing.T) {
		store := newMemStore()
		store.seed(1, 1, 2)
		res, err := NewService(store).ApplyTemplates(ctx, 1, []templates.Template{standup}, 0, true)
		require.NoError(t, err)
		require.Len(t, res.Succeeded, 5)
		assert.Equal(t, 3, res.Succeeded[0].OrderIndex)
		for _, cq := range res.Succeeded {
			assert.True(t, cq.IsRequired)
		}
	})

	t.Run("failed items are reported and skipped", func(t *testing.T) {
		store := newMemStore()
		boom := errors.New("disk full")
		store.failCreate = func(q *models.Question) error {
			if q.Text == standup.Questions[1].Text {
				return boom
			}
			return nil
		}
		svc := NewService(store)

		res, err := svc.ApplyTemplates(ctx, 1, []templates.Template{standup}, 1, false)
		require.NoError(t, err)
		assert.Len(t, res.Succeeded, 4)
		require.Len(t, res.Failed, 1)
		assert.Equal(t, 1, res.Failed[0].Position)
		assert.Equal(t, standup.Questions[1].Text, res.Failed[0].Text)

		var bulk *BulkError
		require.ErrorAs(t, res.Err(), &bulk)
		assert.ErrorIs(t, res.Err(), boom)

		rows, err := svc.List(ctx, 1)
		require.NoError(t, err)
		for i, r := range rows {
			assert.Equal(t, i+1, r.OrderIndex)
		}
	})
}

func TestAttachManyAndDetachMany(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.seed(1, 10, 20)
	svc := NewService(store)

	res := svc.AttachMany(ctx, 1, []uint{30, 10, 40}, 2, false)
	assert.Len(t, res.Succeeded, 2)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, uint(10), res.Failed[0].QuestionID)
	assert.ErrorIs(t, res.Err(), ErrDuplicateAttachment)
	assert.Equal(t, []uint{10, 30, 40, 20}, orderOf(t, svc, 1))

	res = svc.DetachMany(ctx, 1, []uint{30, 99, 40})
	assert.Equal(t, []uint{30, 40}, res.Removed)
	require.Len(t, res.Failed, 1)
	assert.ErrorIs(t, res.Err(), ErrNotFound)
	assert.Equal(t, map[uint]int{10: 1, 20: 2}, indexes(store.rows[1]))

	res = svc.DetachMany(ctx, 1, nil)
	assert.Empty(t, res.Removed)
	assert.NoError(t, res.Err())
}

func TestEditor(t *testing.T) {
	ctx := context.Background()

	t.Run("reloads after a failed change", func(t *testing.T) {
		store := newMemStore()
		store.seed(1, 10, 20)
		ed := NewEditor(NewService(store), 1)
		require.NoError(t, ed.Load(ctx))

		// Someone else attaches a question after our load.
		store.seed(1, 30)
		store.rows[1][2].OrderIndex = 3

		err := ed.Reorder(ctx, []uint{20, 10})
		assert.ErrorIs(t, err, ErrIncompleteList)
		assert.Equal(t, []uint{10, 20, 30}, IDs(ed.Questions()))
	})

	t.Run("reload failure is joined", func(t *testing.T) {
		store := newMemStore()
		store.seed(1, 10)
		ed := NewEditor(NewService(store), 1)
		require.NoError(t, ed.Load(ctx))

		store.failList = errors.New("offline")
		err := ed.Detach(ctx, 10)
		assert.EqualError(t, err, "offline\noffline")
	})

	t.Run("drop reorders once accepted", func(t *testing.T) {
		store := newMemStore()
		store.seed(1, 10, 20, 30)
		ed := NewEditor(NewService(store), 1)
		require.NoError(t, ed.Load(ctx))

		require.NoError(t, ed.Drop(ctx, 0, 2))
		assert.Equal(t, []uint{20, 30, 10}, IDs(ed.Questions()))
		assert.Equal(t, 1, store.reorders)

		require.NoError(t, ed.Drop(ctx, 1, 1))
		assert.Equal(t, 1, store.reorders)
		assert.ErrorIs(t, ed.Drop(ctx, 5, 0), ErrNotFound)
	})

	t.Run("mutations refresh the cache", func(t *testing.T) {
		store := newMemStore()
		store.seed(1, 10)
		ed := NewEditor(NewService(store), 1)
		require.NoError(t, ed.Load(ctx))

		require.NoError(t, ed.Attach(ctx, 20, 1, true))
		assert.Equal(t, []uint{20, 10}, IDs(ed.Questions()))
		require.NoError(t, ed.MoveOne(ctx, 20, Down))
		assert.Equal(t, []uint{10, 20}, IDs(ed.Questions()))
		require.NoError(t, ed.Update(ctx, 20, 0, false))
		assert.False(t, ed.Questions()[1].IsRequired)
	})

	t.Run("bulk changes refresh the cache on partial failure", func(t *testing.T) {
		store := newMemStore()
		store.seed(1, 10, 20)
		ed := NewEditor(NewService(store), 1)
		require.NoError(t, ed.Load(ctx))

		res, err := ed.AttachMany(ctx, []uint{30, 10}, 1, false)
		assert.ErrorIs(t, err, ErrDuplicateAttachment)
		assert.Len(t, res.Succeeded, 1)
		assert.Equal(t, []uint{30, 10, 20}, IDs(ed.Questions()))

		res, err = ed.DetachMany(ctx, []uint{10, 99})
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, []uint{10}, res.Removed)
		assert.Equal(t, []uint{30, 20}, IDs(ed.Questions()))
	})
}
