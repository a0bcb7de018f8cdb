package question

import (
	"testing"

	"github.com/nikhilsahni7/StandupX/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int       { return &v }
func int64p(v int64) *int64 { return &v }

func TestFieldForIsTotal(t *testing.T) {
	want := map[models.QuestionType]FieldKind{
		models.ShortAnswer:    FieldText,
		models.Paragraph:      FieldText,
		models.MultipleChoice: FieldSingleChoice,
		models.Dropdown:       FieldSingleChoice,
		models.Checkboxes:     FieldMultiChoice,
		models.LinearScale:    FieldNumeric,
		models.Date:           FieldDate,
		models.Time:           FieldTime,
		models.FileUpload:     FieldFile,
	}
	require.Len(t, Types, len(want))
	for _, typ := range Types {
		kind, err := FieldFor(typ)
		require.NoError(t, err, typ)
		assert.Equal(t, want[typ], kind, typ)
	}

	_, err := FieldFor("multiple_choice_grid")
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestParseType(t *testing.T) {
	typ, err := ParseType(" checkboxes ")
	require.NoError(t, err)
	assert.Equal(t, models.Checkboxes, typ)

	_, err = ParseType("rating")
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestValidateLinearScale(t *testing.T) {
	tests := []struct {
		name     string
		min, max *int
		invalid  bool
	}{
		{"valid", intp(1), intp(10), false},
		{"equal bounds", intp(5), intp(5), true},
		{"inverted", intp(10), intp(1), true},
		{"missing min", nil, intp(10), true},
		{"missing max", intp(1), nil, true},
		{"both missing", nil, nil, true},
		{"zero lower bound", intp(0), intp(4), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &models.Question{Text: "Mood", QuestionType: models.LinearScale, MinValue: tt.min, MaxValue: tt.max}
			errs := ValidateDefinition(q)
			assert.Equal(t, tt.invalid, errs.Has(InvalidRange))
			if !tt.invalid {
				assert.Empty(t, errs)
			}
		})
	}
}

func TestValidateChoiceNeedsOptions(t *testing.T) {
	for _, typ := range []models.QuestionType{models.MultipleChoice, models.Checkboxes, models.Dropdown} {
		errs := ValidateDefinition(&models.Question{Text: "Pick", QuestionType: typ})
		assert.True(t, errs.Has(NoOptions), typ)

		errs = ValidateDefinition(&models.Question{
			Text:         "Pick",
			QuestionType: typ,
			Options:      []models.QuestionOption{{Text: "A", Value: "a"}, {Text: "B", Value: "b"}},
		})
		assert.Empty(t, errs, typ)
	}

	errs := ValidateDefinition(&models.Question{
		Text:         "Pick",
		QuestionType: models.Dropdown,
		Options:      []models.QuestionOption{{Text: "A", Value: "a"}, {Text: "A again", Value: "a"}},
	})
	assert.True(t, errs.Has(DuplicateOption))
}

func TestValidateFileUpload(t *testing.T) {
	errs := ValidateDefinition(&models.Question{Text: "Upload", QuestionType: models.FileUpload})
	assert.True(t, errs.Has(MissingConstraints))
	assert.Len(t, errs, 2)

	errs = ValidateDefinition(&models.Question{
		Text:             "Upload",
		QuestionType:     models.FileUpload,
		AllowedFileTypes: []string{"pdf"},
		MaxFileSize:      int64p(0),
	})
	assert.True(t, errs.Has(MissingConstraints))

	errs = ValidateDefinition(&models.Question{
		Text:             "Upload",
		QuestionType:     models.FileUpload,
		AllowedFileTypes: []string{"pdf", "png"},
		MaxFileSize:      int64p(1 << 20),
	})
	assert.Nil(t, errs.Err())
}

func TestValidateTextAndType(t *testing.T) {
	errs := ValidateDefinition(&models.Question{Text: "  ", QuestionType: "grid"})
	assert.True(t, errs.Has(EmptyText))
	assert.True(t, errs.Has(UnknownType))
	assert.Contains(t, errs.Error(), "question text is required")

	assert.Empty(t, ValidateDefinition(&models.Question{Text: "When?", QuestionType: models.Date}))
}

func TestNormalize(t *testing.T) {
	q := &models.Question{
		Text:         "  Notes ",
		QuestionType: models.Paragraph,
		Options:      []models.QuestionOption{{Text: "x"}},
		MinValue:     intp(1),
		MaxValue:     intp(5),
		MaxFileSize:  int64p(10),
	}
	Normalize(q)
	assert.Equal(t, "Notes", q.Text)
	assert.Nil(t, q.Options)
	assert.Nil(t, q.MinValue)
	assert.Nil(t, q.MaxFileSize)

	q = &models.Question{
		Text:         "Pick",
		QuestionType: models.Checkboxes,
		Options:      []models.QuestionOption{{Text: "Red", OrderIndex: 7}, {Text: "Blue", Value: "b", OrderIndex: 3}},
	}
	Normalize(q)
	require.Len(t, q.Options, 2)
	assert.Equal(t, 0, q.Options[0].OrderIndex)
	assert.Equal(t, "Red", q.Options[0].Value)
	assert.Equal(t, 1, q.Options[1].OrderIndex)
	assert.Equal(t, []string{"Red", "b"}, q.OptionValues())
}

func TestFilter(t *testing.T) {
	catalog := []models.Question{
		{ID: 1, Text: "What did you do yesterday?", QuestionType: models.Paragraph},
		{ID: 2, Text: "Mood", HelpText: "How are you feeling today?", QuestionType: models.LinearScale},
		{ID: 3, Text: "Blockers", QuestionType: models.Paragraph},
	}

	assert.Len(t, Filter{}.Apply(catalog), 3)

	got := Filter{Query: "TODAY"}.Apply(catalog)
	require.Len(t, got, 1)
	assert.Equal(t, uint(2), got[0].ID)

	got = Filter{Type: models.Paragraph, ExcludeIDs: []uint{1}}.Apply(catalog)
	require.Len(t, got, 1)
	assert.Equal(t, uint(3), got[0].ID)
}
