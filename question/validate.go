package question

import (
	"strings"

	"github.com/nikhilsahni7/StandupX/models"
)

// ConfigCode identifies a problem with a question definition.
type ConfigCode string

const (
	EmptyText          ConfigCode = "empty_text"
	UnknownType        ConfigCode = "unknown_type"
	InvalidRange       ConfigCode = "invalid_range"
	NoOptions          ConfigCode = "no_options"
	MissingConstraints ConfigCode = "missing_constraints"
	DuplicateOption    ConfigCode = "duplicate_option"
)

// ConfigError is a single problem with a question definition.
type ConfigError struct {
	Code    ConfigCode `json:"code"`
	Field   string     `json:"field"`
	Message string     `json:"message"`
}

func (e ConfigError) Error() string {
	return e.Field + ": " + e.Message
}

// ConfigErrors collects every problem found in one definition.
type ConfigErrors []ConfigError

func (e ConfigErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, ce := range e {
		msgs = append(msgs, ce.Error())
	}
	return "invalid question: " + strings.Join(msgs, "; ")
}

// Has reports whether any error carries code.
func (e ConfigErrors) Has(code ConfigCode) bool {
	for _, ce := range e {
		if ce.Code == code {
			return true
		}
	}
	return false
}

// Err returns e as an error, or nil when e is empty.
func (e ConfigErrors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// ValidateDefinition checks q against the rules of its type. It returns nil
// when the definition is usable.
func ValidateDefinition(q *models.Question) ConfigErrors {
	var errs ConfigErrors
	if strings.TrimSpace(q.Text) == "" {
		errs = append(errs, ConfigError{Code: EmptyText, Field: "text", Message: "question text is required"})
	}

	kind, err := FieldFor(q.QuestionType)
	if err != nil {
		return append(errs, ConfigError{Code: UnknownType, Field: "question_type", Message: err.Error()})
	}

	switch kind {
	case FieldNumeric:
		switch {
		case q.MinValue == nil || q.MaxValue == nil:
			errs = append(errs, ConfigError{Code: InvalidRange, Field: "min_value", Message: "linear scale questions must have min_value and max_value"})
		case *q.MinValue >= *q.MaxValue:
			errs = append(errs, ConfigError{Code: InvalidRange, Field: "min_value", Message: "min_value must be less than max_value"})
		}
	case FieldSingleChoice, FieldMultiChoice:
		if len(q.Options) == 0 {
			errs = append(errs, ConfigError{Code: NoOptions, Field: "options", Message: "choice questions need at least one option"})
		}
		seen := make(map[string]bool, len(q.Options))
		for _, o := range q.Options {
			if seen[o.Value] {
				errs = append(errs, ConfigError{Code: DuplicateOption, Field: "options", Message: "duplicate option value " + o.Value})
			}
			seen[o.Value] = true
		}
	case FieldFile:
		if len(q.AllowedFileTypes) == 0 {
			errs = append(errs, ConfigError{Code: MissingConstraints, Field: "allowed_file_types", Message: "file upload questions must specify allowed_file_types"})
		}
		if q.MaxFileSize == nil || *q.MaxFileSize <= 0 {
			errs = append(errs, ConfigError{Code: MissingConstraints, Field: "max_file_size", Message: "file upload questions must specify a positive max_file_size"})
		}
	case FieldText, FieldDate, FieldTime:
	}
	return errs
}
