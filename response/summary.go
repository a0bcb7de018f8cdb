package response

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nikhilsahni7/StandupX/models"
	"github.com/nikhilsahni7/StandupX/question"
)

// QuestionSummary aggregates the answers to one question. Only the fields
// relevant to the question's kind are set.
type QuestionSummary struct {
	QuestionID     uint                `json:"question_id"`
	Text           string              `json:"question_text"`
	QuestionType   models.QuestionType `json:"question_type"`
	Answered       int                 `json:"answered"`
	CompletionRate float64             `json:"completion_rate"`

	OptionCounts map[string]int `json:"option_counts,omitempty"`

	Average *float64 `json:"average,omitempty"`
	Min     *int     `json:"min,omitempty"`
	Max     *int     `json:"max,omitempty"`

	TextResponses int     `json:"total_text_responses,omitempty"`
	AverageLength float64 `json:"average_length,omitempty"`
}

type Summary struct {
	CeremonyID     uint              `json:"ceremony_id"`
	TotalResponses int               `json:"total_responses"`
	TeamSize       int               `json:"team_size"`
	CompletionRate float64           `json:"completion_rate"`
	AverageMood    *float64          `json:"average_mood,omitempty"`
	AverageEnergy  *float64          `json:"average_energy,omitempty"`
	Questions      []QuestionSummary `json:"question_summaries"`
}

// counted reports whether a response takes part in summaries. Drafts and
// archived responses do not.
func counted(r *models.CeremonyResponse) bool {
	return r.Status == models.ResponseSubmitted || r.Status == models.ResponseCompleted
}

// Summarize aggregates responses per question of items. Completion rates are
// percentages of teamSize, zero for an empty team.
func Summarize(ceremonyID uint, items []Item, responses []models.CeremonyResponse, teamSize int) Summary {
	sum := Summary{CeremonyID: ceremonyID, TeamSize: teamSize, Questions: make([]QuestionSummary, 0, len(items))}

	var mood, energy []int
	byQuestion := map[uint][]models.QuestionResponse{}
	for i := range responses {
		r := &responses[i]
		if !counted(r) {
			continue
		}
		sum.TotalResponses++
		if r.MoodRating != nil {
			mood = append(mood, *r.MoodRating)
		}
		if r.EnergyLevel != nil {
			energy = append(energy, *r.EnergyLevel)
		}
		for _, qr := range r.QuestionResponses {
			byQuestion[qr.QuestionID] = append(byQuestion[qr.QuestionID], qr)
		}
	}
	sum.CompletionRate = rate(sum.TotalResponses, teamSize)
	sum.AverageMood = average(mood)
	sum.AverageEnergy = average(energy)

	for _, it := range items {
		answers := byQuestion[it.Question.ID]
		qs := QuestionSummary{
			QuestionID:   it.Question.ID,
			Text:         it.Question.Text,
			QuestionType: it.Question.QuestionType,
		}
		switch it.Kind {
		case question.FieldText:
			total := 0
			for _, a := range answers {
				if a.TextResponse != nil && strings.TrimSpace(*a.TextResponse) != "" {
					qs.TextResponses++
					total += len([]rune(*a.TextResponse))
				}
			}
			qs.Answered = qs.TextResponses
			if qs.TextResponses > 0 {
				qs.AverageLength = float64(total) / float64(qs.TextResponses)
			}
		case question.FieldSingleChoice, question.FieldMultiChoice:
			qs.OptionCounts = map[string]int{}
			for _, v := range it.Question.OptionValues() {
				qs.OptionCounts[v] = 0
			}
			for _, a := range answers {
				if len(a.SelectedOptions) > 0 {
					qs.Answered++
				}
				for _, v := range a.SelectedOptions {
					qs.OptionCounts[v]++
				}
			}
		case question.FieldNumeric:
			var values []int
			for _, a := range answers {
				if a.NumericResponse != nil {
					values = append(values, *a.NumericResponse)
				}
			}
			qs.Answered = len(values)
			qs.Average = average(values)
			if len(values) > 0 {
				lo, hi := values[0], values[0]
				for _, v := range values[1:] {
					lo, hi = min(lo, v), max(hi, v)
				}
				qs.Min, qs.Max = &lo, &hi
			}
		case question.FieldDate, question.FieldTime, question.FieldFile:
			for _, a := range answers {
				if answerText(it.Kind, a) != "" {
					qs.Answered++
				}
			}
		}
		qs.CompletionRate = rate(qs.Answered, teamSize)
		sum.Questions = append(sum.Questions, qs)
	}
	return sum
}

func rate(n, of int) float64 {
	if of <= 0 {
		return 0
	}
	return float64(n) / float64(of) * 100
}

func average(values []int) *float64 {
	if len(values) == 0 {
		return nil
	}
	total := 0
	for _, v := range values {
		total += v
	}
	avg := float64(total) / float64(len(values))
	return &avg
}

// WriteCSV writes one row per response with a column per item, in item order.
func WriteCSV(w io.Writer, items []Item, responses []models.CeremonyResponse) error {
	cw := csv.NewWriter(w)

	header := []string{"response_id", "user_id", "status", "submitted_at", "mood_rating", "energy_level", "notes"}
	for _, it := range items {
		header = append(header, it.Question.Text)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range responses {
		row := []string{
			strconv.FormatUint(uint64(r.ID), 10),
			strconv.FormatUint(uint64(r.UserID), 10),
			r.Status,
			r.SubmittedAt.UTC().Format(time.RFC3339),
			optInt(r.MoodRating),
			optInt(r.EnergyLevel),
			optString(r.Notes),
		}
		answers := make(map[uint]models.QuestionResponse, len(r.QuestionResponses))
		for _, qr := range r.QuestionResponses {
			answers[qr.QuestionID] = qr
		}
		for _, it := range items {
			row = append(row, answerText(it.Kind, answers[it.Question.ID]))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func answerText(kind question.FieldKind, qr models.QuestionResponse) string {
	switch kind {
	case question.FieldText:
		return optString(qr.TextResponse)
	case question.FieldSingleChoice, question.FieldMultiChoice:
		return strings.Join(qr.SelectedOptions, "; ")
	case question.FieldNumeric:
		return optInt(qr.NumericResponse)
	case question.FieldDate:
		return optString(qr.DateResponse)
	case question.FieldTime:
		return optString(qr.TimeResponse)
	case question.FieldFile:
		if qr.FileName == nil {
			return ""
		}
		return fmt.Sprintf("%s (%d bytes)", *qr.FileName, derefInt64(qr.FileSize))
	}
	return ""
}

func optInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func optString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func derefInt64(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
