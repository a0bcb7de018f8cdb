// Package response builds, validates and records a team member's answers to
// one ceremony.
package response

import (
	"errors"
	"fmt"

	"github.com/nikhilsahni7/StandupX/models"
	"github.com/nikhilsahni7/StandupX/ordering"
	"github.com/nikhilsahni7/StandupX/question"
)

// ErrOrphanedQuestion matches every *OrphanedQuestionError.
var ErrOrphanedQuestion = errors.New("ceremony question refers to a missing question")

// OrphanedQuestionError reports a ceremony question whose question no longer
// exists in the catalog.
type OrphanedQuestionError struct {
	CeremonyID uint
	QuestionID uint
}

func (e *OrphanedQuestionError) Error() string {
	return fmt.Sprintf("ceremony %d: question %d no longer exists", e.CeremonyID, e.QuestionID)
}

func (e *OrphanedQuestionError) Is(target error) bool {
	return target == ErrOrphanedQuestion
}

// FileRef points at an uploaded file.
type FileRef struct {
	Name string `json:"name" yaml:"name"`
	Path string `json:"path,omitempty" yaml:"path"`
	Size int64  `json:"size" yaml:"size"`
	Type string `json:"type" yaml:"type"`
}

// Entry is the answer to one question. Only the field matching the question's
// kind is read.
type Entry struct {
	QuestionID      uint     `json:"question_id" yaml:"question_id"`
	TextResponse    *string  `json:"text_response,omitempty" yaml:"text_response"`
	SelectedOptions []string `json:"selected_options,omitempty" yaml:"selected_options"`
	NumericResponse *int     `json:"numeric_response,omitempty" yaml:"numeric_response"`
	DateResponse    *string  `json:"date_response,omitempty" yaml:"date_response"`
	TimeResponse    *string  `json:"time_response,omitempty" yaml:"time_response"`
	File            *FileRef `json:"file,omitempty" yaml:"file"`

	// Options lists the allowed values of a choice question. Blank fills it
	// for form rendering; it is never submitted.
	Options []string `json:"options,omitempty" yaml:"-"`
}

// Submission is one member's answers to a ceremony.
type Submission struct {
	CeremonyID        uint    `json:"ceremony_id" yaml:"ceremony_id"`
	TeamID            uint    `json:"team_id" yaml:"team_id"`
	UserID            uint    `json:"-" yaml:"-"`
	QuestionResponses []Entry `json:"question_responses" yaml:"question_responses"`
	Notes             *string `json:"notes,omitempty" yaml:"notes"`
	MoodRating        *int    `json:"mood_rating,omitempty" yaml:"mood_rating"`
	EnergyLevel       *int    `json:"energy_level,omitempty" yaml:"energy_level"`
}

// Item is a ceremony question resolved to its catalog question.
type Item struct {
	CeremonyQuestion models.CeremonyQuestion `json:"ceremony_question"`
	Question         models.Question         `json:"question"`
	Kind             question.FieldKind      `json:"kind"`
}

// Required reports whether the ceremony requires an answer.
func (it Item) Required() bool {
	return it.CeremonyQuestion.IsRequired
}

// Resolve pairs every ceremony question with its catalog question, in display
// order. A ceremony question whose question is missing stops resolution.
func Resolve(rows []models.CeremonyQuestion, catalog []models.Question) ([]Item, error) {
	byID := make(map[uint]models.Question, len(catalog))
	for _, q := range catalog {
		byID[q.ID] = q
	}

	items := make([]Item, 0, len(rows))
	for _, cq := range ordering.Sorted(rows) {
		q, ok := byID[cq.QuestionID]
		if !ok {
			return nil, &OrphanedQuestionError{CeremonyID: cq.CeremonyID, QuestionID: cq.QuestionID}
		}
		kind, err := question.FieldFor(q.QuestionType)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", q.ID, err)
		}
		items = append(items, Item{CeremonyQuestion: cq, Question: q, Kind: kind})
	}
	return items, nil
}

// Blank returns one empty entry per item, ready to be filled in.
func Blank(items []Item) []Entry {
	entries := make([]Entry, len(items))
	for i, it := range items {
		entries[i] = Entry{QuestionID: it.Question.ID}
		if it.Kind == question.FieldSingleChoice || it.Kind == question.FieldMultiChoice {
			entries[i].Options = it.Question.OptionValues()
		}
	}
	return entries
}

// ToRecords maps the entries of sub onto rows for storage. Entries must have
// passed Validate against the same items.
func ToRecords(items []Item, sub *Submission) []models.QuestionResponse {
	required := make(map[uint]bool, len(items))
	for _, it := range items {
		required[it.Question.ID] = it.Required()
	}

	records := make([]models.QuestionResponse, 0, len(sub.QuestionResponses))
	for _, e := range sub.QuestionResponses {
		qr := models.QuestionResponse{
			QuestionID:      e.QuestionID,
			TextResponse:    e.TextResponse,
			NumericResponse: e.NumericResponse,
			DateResponse:    e.DateResponse,
			TimeResponse:    e.TimeResponse,
			IsRequired:      required[e.QuestionID],
		}
		if len(e.SelectedOptions) > 0 {
			qr.SelectedOptions = append([]string(nil), e.SelectedOptions...)
		}
		if e.File != nil {
			name, path, typ, size := e.File.Name, e.File.Path, e.File.Type, e.File.Size
			qr.FileName, qr.FilePath, qr.FileType, qr.FileSize = &name, &path, &typ, &size
		}
		records = append(records, qr)
	}
	return records
}
