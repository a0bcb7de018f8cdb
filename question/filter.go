package question

import (
	"strings"

	"github.com/nikhilsahni7/StandupX/models"
)

// Filter selects questions from the catalog. Zero fields match everything.
type Filter struct {
	Query      string
	Type       models.QuestionType
	ExcludeIDs []uint
}

// Match reports whether q passes f.
func (f Filter) Match(q *models.Question) bool {
	if f.Type != "" && q.QuestionType != f.Type {
		return false
	}
	for _, id := range f.ExcludeIDs {
		if q.ID == id {
			return false
		}
	}
	query := strings.ToLower(strings.TrimSpace(f.Query))
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(q.Text), query) ||
		strings.Contains(strings.ToLower(q.HelpText), query)
}

// Apply returns the questions matching f, in their original order.
func (f Filter) Apply(questions []models.Question) []models.Question {
	out := make([]models.Question, 0, len(questions))
	for i := range questions {
		if f.Match(&questions[i]) {
			out = append(out, questions[i])
		}
	}
	return out
}
