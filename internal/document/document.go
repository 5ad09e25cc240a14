// Package document defines the input record shape the search engine
// indexes: a mainframe knowledge-base entry with free-text fields, a
// category, tags, and usage counters.
package document

import "time"

// Category is a closed enum of knowledge-base entry kinds. The spec
// names "a closed enum" without listing it; this set fits a mainframe
// operations knowledge base: incident writeups, standard operating
// procedures, reference material, FAQs, and runbooks.
type Category string

const (
	CategoryIncident  Category = "incident"
	CategoryProcedure Category = "procedure"
	CategoryReference Category = "reference"
	CategoryFAQ       Category = "faq"
	CategoryRunbook   Category = "runbook"
)

// Document is the external record the engine indexes. Its id must be
// unique across the corpus; updating a document with an existing id
// must produce an index state equivalent to remove-then-add.
type Document struct {
	ID       string   `yaml:"id" json:"id"`
	Title    string   `yaml:"title" json:"title"`
	Problem  string   `yaml:"problem" json:"problem"`
	Solution string   `yaml:"solution" json:"solution"`
	Category Category `yaml:"category" json:"category"`
	Tags     []string `yaml:"tags,omitempty" json:"tags,omitempty"`

	CreatedAt time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at" json:"updated_at"`

	UsageCount   int `yaml:"usage_count" json:"usage_count"`
	SuccessCount int `yaml:"success_count" json:"success_count"`
	FailureCount int `yaml:"failure_count" json:"failure_count"`
}

// Fields returns the document's text fields paired with their index
// field name, in the fixed order the field-weight table expects.
func (d *Document) Fields() []struct {
	Name string
	Text string
} {
	return []struct {
		Name string
		Text string
	}{
		{"title", d.Title},
		{"problem", d.Problem},
		{"solution", d.Solution},
		{"tags", joinTags(d.Tags)},
		{"category", string(d.Category)},
	}
}

func joinTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	out := tags[0]
	for _, t := range tags[1:] {
		out += " " + t
	}
	return out
}
