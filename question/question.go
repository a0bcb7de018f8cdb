// Package question defines the question variants, the response field each
// variant maps to, and the configuration rules each variant must satisfy.
package question

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nikhilsahni7/StandupX/models"
)

// ErrUnknownType is returned for a question type outside the closed set.
var ErrUnknownType = errors.New("unknown question type")

// Types lists every supported question type in display order.
var Types = []models.QuestionType{
	models.ShortAnswer,
	models.Paragraph,
	models.MultipleChoice,
	models.Checkboxes,
	models.Dropdown,
	models.LinearScale,
	models.Date,
	models.Time,
	models.FileUpload,
}

// ParseType returns the question type named by s.
func ParseType(s string) (models.QuestionType, error) {
	t := models.QuestionType(strings.TrimSpace(s))
	if _, err := FieldFor(t); err != nil {
		return "", err
	}
	return t, nil
}

// FieldKind is the shape a response to a question is stored in.
type FieldKind string

const (
	FieldText         FieldKind = "text"
	FieldSingleChoice FieldKind = "single_choice"
	FieldMultiChoice  FieldKind = "multi_choice"
	FieldNumeric      FieldKind = "numeric"
	FieldDate         FieldKind = "date"
	FieldTime         FieldKind = "time"
	FieldFile         FieldKind = "file"
)

// FieldFor maps a question type to the response field it is answered with.
func FieldFor(t models.QuestionType) (FieldKind, error) {
	switch t {
	case models.ShortAnswer, models.Paragraph:
		return FieldText, nil
	case models.MultipleChoice, models.Dropdown:
		return FieldSingleChoice, nil
	case models.Checkboxes:
		return FieldMultiChoice, nil
	case models.LinearScale:
		return FieldNumeric, nil
	case models.Date:
		return FieldDate, nil
	case models.Time:
		return FieldTime, nil
	case models.FileUpload:
		return FieldFile, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownType, t)
}

// HasOptions reports whether answers to t are picked from an option list.
func HasOptions(t models.QuestionType) bool {
	kind, err := FieldFor(t)
	if err != nil {
		return false
	}
	return kind == FieldSingleChoice || kind == FieldMultiChoice
}

// Normalize drops configuration that does not belong to the question's type
// and renumbers options from zero.
func Normalize(q *models.Question) {
	q.Text = strings.TrimSpace(q.Text)
	if !HasOptions(q.QuestionType) {
		q.Options = nil
	}
	for i := range q.Options {
		q.Options[i].OrderIndex = i
		if q.Options[i].Value == "" {
			q.Options[i].Value = q.Options[i].Text
		}
	}
	if q.QuestionType != models.LinearScale {
		q.MinValue, q.MaxValue = nil, nil
		q.MinLabel, q.MaxLabel = "", ""
	}
	if q.QuestionType != models.FileUpload {
		q.AllowedFileTypes = nil
		q.MaxFileSize = nil
	}
}
