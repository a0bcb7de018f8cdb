// Package templates holds the catalog of reusable question bundles used to
// populate a ceremony in one step.
package templates

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/nikhilsahni7/StandupX/models"
	"github.com/nikhilsahni7/StandupX/question"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var builtin []byte

type Option struct {
	Text  string `yaml:"text" json:"text"`
	Value string `yaml:"value" json:"value"`
}

// Item is a question definition inside a template. It mirrors
// models.Question without identifiers.
type Item struct {
	Text         string              `yaml:"text" json:"text"`
	QuestionType models.QuestionType `yaml:"question_type" json:"question_type"`
	HelpText     string              `yaml:"help_text" json:"help_text,omitempty"`
	IsRequired   bool                `yaml:"is_required" json:"is_required"`
	Options      []Option            `yaml:"options" json:"options,omitempty"`
	MinValue     *int                `yaml:"min_value" json:"min_value,omitempty"`
	MaxValue     *int                `yaml:"max_value" json:"max_value,omitempty"`
	MinLabel     string              `yaml:"min_label" json:"min_label,omitempty"`
	MaxLabel     string              `yaml:"max_label" json:"max_label,omitempty"`
}

// Question builds the catalog question this item describes.
func (it Item) Question() models.Question {
	q := models.Question{
		Text:         it.Text,
		QuestionType: it.QuestionType,
		HelpText:     it.HelpText,
		IsRequired:   it.IsRequired,
		MinValue:     it.MinValue,
		MaxValue:     it.MaxValue,
		MinLabel:     it.MinLabel,
		MaxLabel:     it.MaxLabel,
	}
	for i, o := range it.Options {
		q.Options = append(q.Options, models.QuestionOption{Text: o.Text, Value: o.Value, OrderIndex: i})
	}
	return q
}

type Template struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Category    string   `yaml:"category" json:"category"`
	Tags        []string `yaml:"tags" json:"tags"`
	Questions   []Item   `yaml:"questions" json:"questions"`
}

// Catalog is a read-only set of templates.
type Catalog struct {
	templates []Template
}

// Parse decodes a YAML template list and validates every question in it.
func Parse(data []byte) (*Catalog, error) {
	var list []Template
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode templates: %w", err)
	}
	seen := make(map[string]bool, len(list))
	for _, t := range list {
		if t.ID == "" {
			return nil, fmt.Errorf("template %q has no id", t.Name)
		}
		if seen[t.ID] {
			return nil, fmt.Errorf("duplicate template id %q", t.ID)
		}
		seen[t.ID] = true
		for i, item := range t.Questions {
			q := item.Question()
			if errs := question.ValidateDefinition(&q); len(errs) > 0 {
				return nil, fmt.Errorf("template %s question %d: %w", t.ID, i+1, errs)
			}
		}
	}
	return &Catalog{templates: list}, nil
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(builtin)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) List() []Template {
	return append([]Template(nil), c.templates...)
}

func (c *Catalog) Get(id string) (Template, bool) {
	for _, t := range c.templates {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}

func (c *Catalog) ByCategory(category string) []Template {
	var out []Template
	for _, t := range c.templates {
		if strings.EqualFold(t.Category, category) {
			out = append(out, t)
		}
	}
	return out
}

// Search matches query against name, description and tags, ignoring case.
func (c *Catalog) Search(query string) []Template {
	return c.Find(query, "")
}

// Find is Search restricted to one category. An empty category matches all.
func (c *Catalog) Find(query, category string) []Template {
	list := c.List()
	if category != "" {
		list = c.ByCategory(category)
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return list
	}
	var out []Template
	for _, t := range list {
		if strings.Contains(strings.ToLower(t.Name), q) ||
			strings.Contains(strings.ToLower(t.Description), q) ||
			containsTag(t.Tags, q) {
			out = append(out, t)
		}
	}
	return out
}

func containsTag(tags []string, q string) bool {
	for _, tag := range tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

func (c *Catalog) Categories() []string {
	return c.unique(func(t Template) []string { return []string{t.Category} })
}

func (c *Catalog) Tags() []string {
	return c.unique(func(t Template) []string { return t.Tags })
}

func (c *Catalog) unique(values func(Template) []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range c.templates {
		for _, v := range values(t) {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Expanded is one template question placed at its target order index.
type Expanded struct {
	TemplateID string
	Item       Item
	OrderIndex int
	IsRequired bool
}

// Expand flattens templates into a single ordered list starting at start.
// Each template continues where the previous one ended. allRequired forces
// every question to be required.
func Expand(list []Template, start int, allRequired bool) []Expanded {
	var out []Expanded
	next := start
	for _, t := range list {
		for _, item := range t.Questions {
			out = append(out, Expanded{
				TemplateID: t.ID,
				Item:       item,
				OrderIndex: next,
				IsRequired: allRequired || item.IsRequired,
			})
			next++
		}
	}
	return out
}
