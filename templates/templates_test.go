package templates

import (
	"testing"

	"github.com/nikhilsahni7/StandupX/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	require.Len(t, c.List(), 5)

	standup, ok := c.Get("daily-standup")
	require.True(t, ok)
	require.Len(t, standup.Questions, 5)
	assert.Equal(t, models.Paragraph, standup.Questions[0].QuestionType)
	assert.True(t, standup.Questions[0].IsRequired)
	assert.False(t, standup.Questions[2].IsRequired)

	scale := standup.Questions[3]
	require.NotNil(t, scale.MinValue)
	assert.Equal(t, 1, *scale.MinValue)
	assert.Equal(t, 10, *scale.MaxValue)

	help := standup.Questions[4].Question()
	require.Len(t, help.Options, 5)
	assert.Equal(t, "technical", help.Options[0].Value)
	assert.Equal(t, 4, help.Options[4].OrderIndex)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestSearchAndCategories(t *testing.T) {
	c := Default()

	assert.Len(t, c.Search("AGILE"), 3)
	assert.Len(t, c.Search("kickoff"), 1)
	assert.Len(t, c.Search(""), 5)

	assert.Len(t, c.ByCategory("retrospective"), 1)
	assert.Len(t, c.Find("agile", "planning"), 1)
	assert.Empty(t, c.Find("kickoff", "planning"))
	assert.Len(t, c.Find("", "stand-up"), 1)
	assert.Equal(t, []string{"Kickoff", "Planning", "Retrospective", "Stand-up", "Weekly"}, c.Categories())
	assert.Contains(t, c.Tags(), "scrum")
}

func TestExpandKeepsTemplateOrder(t *testing.T) {
	c := Default()
	standup, _ := c.Get("daily-standup")
	retro, _ := c.Get("retrospective")

	got := Expand([]Template{standup, retro}, 3, false)
	require.Len(t, got, 10)
	for i, e := range got {
		assert.Equal(t, 3+i, e.OrderIndex)
	}
	assert.Equal(t, "daily-standup", got[4].TemplateID)
	assert.Equal(t, "retrospective", got[5].TemplateID)
	assert.Equal(t, standup.Questions[0].Text, got[0].Item.Text)
	assert.False(t, got[2].IsRequired)

	forced := Expand([]Template{standup}, 1, true)
	for _, e := range forced {
		assert.True(t, e.IsRequired)
	}
}

func TestParseRejectsBadTemplates(t *testing.T) {
	_, err := Parse([]byte(`
- id: broken
  name: Broken
  questions:
    - text: Pick one
      question_type: dropdown
`))
	assert.ErrorContains(t, err, "template broken question 1")

	_, err = Parse([]byte(`
- id: a
  name: A
- id: a
  name: Again
`))
	assert.ErrorContains(t, err, "duplicate template id")

	_, err = Parse([]byte(`not: [a list`))
	assert.Error(t, err)
}
