package ordering

import (
	"context"
	"fmt"
	"strings"

	"github.com/nikhilsahni7/StandupX/models"
	"github.com/nikhilsahni7/StandupX/question"
	"github.com/nikhilsahni7/StandupX/templates"
)

// ItemFailure records one item of a bulk operation that did not go through.
// QuestionID is set when the question exists; for template items it may have
// been created but not attached.
type ItemFailure struct {
	Position   int    `json:"position"`
	QuestionID uint   `json:"question_id,omitempty"`
	Text       string `json:"text,omitempty"`
	Err        error  `json:"-"`
	Message    string `json:"error"`
}

// BulkResult reports every item of a bulk operation. Bulk operations attempt
// all items; completed items are not rolled back when a later one fails.
type BulkResult struct {
	Succeeded []models.CeremonyQuestion `json:"succeeded"`
	Removed   []uint                    `json:"removed,omitempty"`
	Failed    []ItemFailure             `json:"failed"`
}

func (r *BulkResult) fail(pos int, questionID uint, text string, err error) {
	r.Failed = append(r.Failed, ItemFailure{Position: pos, QuestionID: questionID, Text: text, Err: err, Message: err.Error()})
}

// Err is non-nil when at least one item failed.
func (r *BulkResult) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	return &BulkError{Failed: r.Failed}
}

type BulkError struct {
	Failed []ItemFailure
}

func (e *BulkError) Error() string {
	msgs := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		msgs = append(msgs, fmt.Sprintf("item %d: %s", f.Position, f.Message))
	}
	return fmt.Sprintf("%d bulk item(s) failed: %s", len(e.Failed), strings.Join(msgs, "; "))
}

// Unwrap exposes the item errors to errors.Is and errors.As.
func (e *BulkError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, f := range e.Failed {
		errs = append(errs, f.Err)
	}
	return errs
}

// AttachMany attaches existing questions at consecutive indexes starting at
// start. Failed items do not consume an index. A start of zero or less
// appends them in order.
func (s *Service) AttachMany(ctx context.Context, ceremonyID uint, questionIDs []uint, start int, required bool) BulkResult {
	var res BulkResult
	for i, id := range questionIDs {
		at := 0
		if start > 0 {
			at = start + len(res.Succeeded)
		}
		cq, err := s.Attach(ctx, ceremonyID, id, at, required)
		if err != nil {
			res.fail(i, id, "", err)
			continue
		}
		res.Succeeded = append(res.Succeeded, *cq)
	}
	return res
}

// DetachMany removes each question from the ceremony.
func (s *Service) DetachMany(ctx context.Context, ceremonyID uint, questionIDs []uint) BulkResult {
	var res BulkResult
	for i, id := range questionIDs {
		if err := s.Detach(ctx, ceremonyID, id); err != nil {
			res.fail(i, id, "", err)
			continue
		}
		res.Removed = append(res.Removed, id)
	}
	return res
}

// ApplyTemplates creates a new question for every template item and attaches
// it at consecutive indexes starting at start, keeping template order. Failed
// items do not consume an index. A start of zero or less appends after the
// current last question.
func (s *Service) ApplyTemplates(ctx context.Context, ceremonyID uint, list []templates.Template, start int, allRequired bool) (BulkResult, error) {
	if start <= 0 {
		rows, err := s.store.ListCeremonyQuestions(ctx, ceremonyID)
		if err != nil {
			return BulkResult{}, err
		}
		start = NextIndex(rows)
	}

	var res BulkResult
	for i, e := range templates.Expand(list, start, allRequired) {
		q := e.Item.Question()
		question.Normalize(&q)
		if errs := question.ValidateDefinition(&q); len(errs) > 0 {
			res.fail(i, 0, q.Text, errs)
			continue
		}
		if err := s.store.CreateQuestion(ctx, &q); err != nil {
			res.fail(i, 0, q.Text, fmt.Errorf("create question: %w", err))
			continue
		}
		cq, err := s.Attach(ctx, ceremonyID, q.ID, e.OrderIndex-len(res.Failed), e.IsRequired)
		if err != nil {
			res.fail(i, q.ID, q.Text, fmt.Errorf("attach question: %w", err))
			continue
		}
		res.Succeeded = append(res.Succeeded, *cq)
	}
	return res, nil
}
