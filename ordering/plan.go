package ordering

import (
	"sort"

	"github.com/nikhilsahni7/StandupX/models"
)

// Sorted returns a copy of rows in display order. Ties on OrderIndex are
// broken by row id so the order is stable across reloads.
func Sorted(rows []models.CeremonyQuestion) []models.CeremonyQuestion {
	out := append([]models.CeremonyQuestion(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].OrderIndex != out[j].OrderIndex {
			return out[i].OrderIndex < out[j].OrderIndex
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// NextIndex is the index one past the last row, or 1 for an empty ceremony.
func NextIndex(rows []models.CeremonyQuestion) int {
	next := 1
	for _, r := range rows {
		if r.OrderIndex >= next {
			next = r.OrderIndex + 1
		}
	}
	return next
}

// InsertShifts returns the index changes needed before a row is inserted at
// index at. Nothing moves unless at is already taken; otherwise every row at
// or after it moves down by one.
func InsertShifts(rows []models.CeremonyQuestion, at int) []models.QuestionOrder {
	taken := false
	for _, r := range rows {
		if r.OrderIndex == at {
			taken = true
			break
		}
	}
	if !taken {
		return nil
	}
	var shifts []models.QuestionOrder
	for _, r := range Sorted(rows) {
		if r.OrderIndex >= at {
			shifts = append(shifts, models.QuestionOrder{QuestionID: r.QuestionID, OrderIndex: r.OrderIndex + 1})
		}
	}
	return shifts
}

// RemoveShifts returns the index changes that close the gap left by removing
// questionID. Rows after the removed one move up by one. No row moves if
// another row still holds the removed index or the question is not in rows.
func RemoveShifts(rows []models.CeremonyQuestion, questionID uint) []models.QuestionOrder {
	removed, ok := find(rows, questionID)
	if !ok {
		return nil
	}
	for _, r := range rows {
		if r.QuestionID != questionID && r.OrderIndex == removed.OrderIndex {
			return nil
		}
	}
	var shifts []models.QuestionOrder
	for _, r := range Sorted(rows) {
		if r.QuestionID != questionID && r.OrderIndex > removed.OrderIndex {
			shifts = append(shifts, models.QuestionOrder{QuestionID: r.QuestionID, OrderIndex: r.OrderIndex - 1})
		}
	}
	return shifts
}

// Positions assigns 1-based positions to ids in the given order.
func Positions(ids []uint) []models.QuestionOrder {
	orders := make([]models.QuestionOrder, len(ids))
	for i, id := range ids {
		orders[i] = models.QuestionOrder{QuestionID: id, OrderIndex: i + 1}
	}
	return orders
}

// ApplyOrders sets the order index of every row named in orders. Rows not
// named are left alone.
func ApplyOrders(rows []models.CeremonyQuestion, orders []models.QuestionOrder) {
	byID := make(map[uint]int, len(orders))
	for _, o := range orders {
		byID[o.QuestionID] = o.OrderIndex
	}
	for i := range rows {
		if idx, ok := byID[rows[i].QuestionID]; ok {
			rows[i].OrderIndex = idx
		}
	}
}

// IDs returns the question ids of rows in display order.
func IDs(rows []models.CeremonyQuestion) []uint {
	sorted := Sorted(rows)
	ids := make([]uint, len(sorted))
	for i, r := range sorted {
		ids[i] = r.QuestionID
	}
	return ids
}

func find(rows []models.CeremonyQuestion, questionID uint) (models.CeremonyQuestion, bool) {
	for _, r := range rows {
		if r.QuestionID == questionID {
			return r, true
		}
	}
	return models.CeremonyQuestion{}, false
}

// move returns ids with the element at from relocated to to.
func move(ids []uint, from, to int) []uint {
	out := append([]uint(nil), ids...)
	id := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]uint{id}, out[to:]...)...)
	return out
}
