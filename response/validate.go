package response

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nikhilsahni7/StandupX/question"
)

const (
	MinRating     = 1
	MaxRating     = 10
	MaxNotesChars = 5000
)

// Field error codes.
const (
	CodeRequired        = "required"
	CodeInvalidOption   = "invalid_option"
	CodeTooManyValues   = "too_many_values"
	CodeDuplicateValue  = "duplicate_value"
	CodeOutOfRange      = "out_of_range"
	CodeInvalidDate     = "invalid_date"
	CodeInvalidTime     = "invalid_time"
	CodeInvalidFileType = "invalid_file_type"
	CodeInvalidFileSize = "invalid_file_size"
	CodeUnknownQuestion = "unknown_question"
	CodeDuplicateEntry  = "duplicate_entry"
	CodeTooLong         = "too_long"
)

var timeOfDay = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// FieldError is one problem with a submission. QuestionID is zero for
// ceremony-level fields.
type FieldError struct {
	QuestionID uint   `json:"question_id,omitempty"`
	Field      string `json:"field"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

// ValidationError collects every problem found in one submission.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.QuestionID != 0 {
			msgs = append(msgs, fmt.Sprintf("question %d: %s", f.QuestionID, f.Message))
		} else {
			msgs = append(msgs, f.Field+": "+f.Message)
		}
	}
	return "invalid response: " + strings.Join(msgs, "; ")
}

// For returns the errors reported against questionID.
func (e *ValidationError) For(questionID uint) []FieldError {
	var out []FieldError
	for _, f := range e.Fields {
		if f.QuestionID == questionID {
			out = append(out, f)
		}
	}
	return out
}

type collector struct {
	fields []FieldError
}

func (c *collector) add(questionID uint, field, code, format string, args ...any) {
	c.fields = append(c.fields, FieldError{QuestionID: questionID, Field: field, Code: code, Message: fmt.Sprintf(format, args...)})
}

func (c *collector) err() error {
	if len(c.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: c.fields}
}

// Validate checks sub against items and returns a *ValidationError listing
// every problem, or nil. Required checks apply only to required items; values
// that are present are always checked.
func Validate(items []Item, sub *Submission) error {
	var c collector

	byID := make(map[uint]*Entry, len(sub.QuestionResponses))
	known := make(map[uint]bool, len(items))
	for _, it := range items {
		known[it.Question.ID] = true
	}
	for i := range sub.QuestionResponses {
		e := &sub.QuestionResponses[i]
		switch {
		case !known[e.QuestionID]:
			c.add(e.QuestionID, "question_id", CodeUnknownQuestion, "question is not part of this ceremony")
		case byID[e.QuestionID] != nil:
			c.add(e.QuestionID, "question_id", CodeDuplicateEntry, "question answered more than once")
		default:
			byID[e.QuestionID] = e
		}
	}

	for _, it := range items {
		e := byID[it.Question.ID]
		if e == nil {
			e = &Entry{QuestionID: it.Question.ID}
		}
		validateEntry(&c, it, e)
	}

	validateRating(&c, "mood_rating", sub.MoodRating)
	validateRating(&c, "energy_level", sub.EnergyLevel)
	if sub.Notes != nil && utf8.RuneCountInString(*sub.Notes) > MaxNotesChars {
		c.add(0, "notes", CodeTooLong, "notes must be at most %d characters", MaxNotesChars)
	}
	return c.err()
}

func validateRating(c *collector, field string, v *int) {
	if v != nil && (*v < MinRating || *v > MaxRating) {
		c.add(0, field, CodeOutOfRange, "%s must be between %d and %d", field, MinRating, MaxRating)
	}
}

func validateEntry(c *collector, it Item, e *Entry) {
	q := it.Question
	id := q.ID
	switch it.Kind {
	case question.FieldText:
		if e.TextResponse == nil || strings.TrimSpace(*e.TextResponse) == "" {
			if it.Required() {
				c.add(id, "text_response", CodeRequired, "an answer is required")
			}
		}

	case question.FieldSingleChoice:
		if len(e.SelectedOptions) == 0 {
			if it.Required() {
				c.add(id, "selected_options", CodeRequired, "choose one option")
			}
			return
		}
		if len(e.SelectedOptions) > 1 {
			c.add(id, "selected_options", CodeTooManyValues, "choose only one option")
		}
		checkOptions(c, q.OptionValues(), id, e.SelectedOptions)

	case question.FieldMultiChoice:
		if len(e.SelectedOptions) == 0 {
			if it.Required() {
				c.add(id, "selected_options", CodeRequired, "choose at least one option")
			}
			return
		}
		seen := make(map[string]bool, len(e.SelectedOptions))
		for _, v := range e.SelectedOptions {
			if seen[v] {
				c.add(id, "selected_options", CodeDuplicateValue, "option %q selected twice", v)
			}
			seen[v] = true
		}
		checkOptions(c, q.OptionValues(), id, e.SelectedOptions)

	case question.FieldNumeric:
		if e.NumericResponse == nil {
			if it.Required() {
				c.add(id, "numeric_response", CodeRequired, "a value is required")
			}
			return
		}
		v := *e.NumericResponse
		if (q.MinValue != nil && v < *q.MinValue) || (q.MaxValue != nil && v > *q.MaxValue) {
			c.add(id, "numeric_response", CodeOutOfRange, "value must be between %s and %s", bound(q.MinValue), bound(q.MaxValue))
		}

	case question.FieldDate:
		if e.DateResponse == nil || strings.TrimSpace(*e.DateResponse) == "" {
			if it.Required() {
				c.add(id, "date_response", CodeRequired, "a date is required")
			}
			return
		}
		if !isDate(*e.DateResponse) {
			c.add(id, "date_response", CodeInvalidDate, "%q is not a valid date", *e.DateResponse)
		}

	case question.FieldTime:
		if e.TimeResponse == nil || strings.TrimSpace(*e.TimeResponse) == "" {
			if it.Required() {
				c.add(id, "time_response", CodeRequired, "a time is required")
			}
			return
		}
		if !timeOfDay.MatchString(*e.TimeResponse) {
			c.add(id, "time_response", CodeInvalidTime, "%q is not a valid HH:MM time", *e.TimeResponse)
		}

	case question.FieldFile:
		if e.File == nil {
			if it.Required() {
				c.add(id, "file", CodeRequired, "a file is required")
			}
			return
		}
		if !allowedType(q.AllowedFileTypes, e.File) {
			c.add(id, "file", CodeInvalidFileType, "file type must be one of %s", strings.Join(q.AllowedFileTypes, ", "))
		}
		if e.File.Size <= 0 || (q.MaxFileSize != nil && e.File.Size > *q.MaxFileSize) {
			c.add(id, "file", CodeInvalidFileSize, "file size must be between 1 and %s bytes", bound64(q.MaxFileSize))
		}
	}
}

func checkOptions(c *collector, allowed []string, id uint, values []string) {
	valid := make(map[string]bool, len(allowed))
	for _, v := range allowed {
		valid[v] = true
	}
	for _, v := range values {
		if !valid[v] {
			c.add(id, "selected_options", CodeInvalidOption, "%q is not an option of this question", v)
		}
	}
}

func isDate(s string) bool {
	if _, err := time.Parse(time.DateOnly, s); err == nil {
		return true
	}
	_, err := time.Parse(time.RFC3339, s)
	return err == nil
}

// allowedType checks the declared type, or the name's extension when no type
// is declared. A MIME type is compared by its subtype.
func allowedType(allowed []string, f *FileRef) bool {
	got := normalizeExt(f.Type)
	if i := strings.LastIndexByte(got, '/'); i >= 0 {
		got = got[i+1:]
	}
	if got == "" {
		got = normalizeExt(filepath.Ext(f.Name))
	}
	if got == "" {
		return false
	}
	for _, a := range allowed {
		if normalizeExt(a) == got {
			return true
		}
	}
	return false
}

func normalizeExt(s string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")
}

func bound(v *int) string {
	if v == nil {
		return "any"
	}
	return fmt.Sprint(*v)
}

func bound64(v *int64) string {
	if v == nil {
		return "any"
	}
	return fmt.Sprint(*v)
}
