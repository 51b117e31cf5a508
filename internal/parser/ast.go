package parser

import "slices"

// Token discriminates the kinds of block a Feature owns.
type Token string

const (
	TokenFeature         Token = "feature"
	TokenBackground      Token = "background"
	TokenScenario        Token = "scenario"
	TokenScenarioOutline Token = "scenario outline"
)

// Document is the result of one Parse call.
type Document struct {
	features []*Feature
	comments []Comment
}

// Features returns the top-level features in document order.
func (d *Document) Features() []*Feature { return slices.Clone(d.features) }

// Comments returns every comment line of the document, attached or not.
func (d *Document) Comments() []Comment { return slices.Clone(d.comments) }

type Tag struct {
	Name string // e.g. "@smoke"
	Line int
}

type Comment struct {
	Text string // including the leading "#"
	Line int
}

type Feature struct {
	keyword     string
	name        string
	description string
	line        int
	tags        []Tag
	comments    []Comment
	scenarios   []*Scenario
}

func (f *Feature) Keyword() string { return f.keyword }
func (f *Feature) Name() string { return f.name }
func (f *Feature) Description() string { return f.description }
func (f *Feature) Line() int { return f.line }
func (f *Feature) Tags() []Tag { return slices.Clone(f.tags) }
func (f *Feature) Comments() []Comment { return slices.Clone(f.comments) }
func (f *Feature) Scenarios() []*Scenario { return slices.Clone(f.scenarios) }

// TagNames returns the feature's tag names in encounter order.
func (f *Feature) TagNames() []string { return tagNames(f.tags) }

// Background returns the feature's background block, if it has one.
func (f *Feature) Background() (*Scenario, bool) {
	if len(f.scenarios) > 0 && f.scenarios[0].token == TokenBackground {
		return f.scenarios[0], true
	}
	return nil, false
}

func (f *Feature) latest() *Scenario {
	if len(f.scenarios) == 0 {
		return nil
	}
	return f.scenarios[len(f.scenarios)-1]
}

// Scenario is a Background, Scenario or Scenario Outline, told apart by Token.
type Scenario struct {
	token       Token
	keyword     string
	name        string
	description string
	line        int
	tags        []Tag
	comments    []Comment
	steps       []*Step
	examples    []*Example
}

func (s *Scenario) Token() Token { return s.token }
func (s *Scenario) Keyword() string { return s.keyword }
func (s *Scenario) Name() string { return s.name }
func (s *Scenario) Description() string { return s.description }
func (s *Scenario) Line() int { return s.line }
func (s *Scenario) Tags() []Tag { return slices.Clone(s.tags) }
func (s *Scenario) Comments() []Comment { return slices.Clone(s.comments) }
func (s *Scenario) Steps() []*Step { return slices.Clone(s.steps) }
func (s *Scenario) Examples() []*Example { return slices.Clone(s.examples) }
func (s *Scenario) TagNames() []string { return tagNames(s.tags) }

type Step struct {
	keyword    string // Given, When, Then, And, But, *
	name       string
	line       int
	rows       []Row
	docStrings []DocString
}

func (s *Step) Keyword() string { return s.keyword }
func (s *Step) Name() string { return s.name }
func (s *Step) Line() int { return s.line }
func (s *Step) Rows() []Row { return cloneRows(s.rows) }
func (s *Step) DocStrings() []DocString { return slices.Clone(s.docStrings) }
func (s *Step) HasTable() bool { return len(s.rows) > 0 }
func (s *Step) HasDocString() bool { return len(s.docStrings) > 0 }

// Example is an Examples block of a Scenario Outline. Its first row is the
// header row.
type Example struct {
	keyword     string
	name        string
	description string
	line        int
	tags        []Tag
	comments    []Comment
	rows        []Row
}

func (e *Example) Keyword() string { return e.keyword }
func (e *Example) Name() string { return e.name }
func (e *Example) Description() string { return e.description }
func (e *Example) Line() int { return e.line }
func (e *Example) Tags() []Tag { return slices.Clone(e.tags) }
func (e *Example) Comments() []Comment { return slices.Clone(e.comments) }
func (e *Example) Rows() []Row { return cloneRows(e.rows) }
func (e *Example) TagNames() []string { return tagNames(e.tags) }

// Header returns row 0, which names the outline's placeholders.
func (e *Example) Header() (Row, bool) {
	if len(e.rows) == 0 {
		return Row{}, false
	}
	return e.rows[0].clone(), true
}

// Body returns every row after the header.
func (e *Example) Body() []Row {
	if len(e.rows) < 2 {
		return nil
	}
	return cloneRows(e.rows[1:])
}

type Row struct {
	cells []string
	line  int
}

func (r Row) Cells() []string { return slices.Clone(r.cells) }
func (r Row) Line() int { return r.line }
func (r Row) Len() int { return len(r.cells) }

func (r Row) clone() Row {
	return Row{cells: slices.Clone(r.cells), line: r.line}
}

type DocString struct {
	content   string
	mediaType string
	delimiter string
	line      int // line of the opening delimiter
}

func (d DocString) Content() string { return d.content }
func (d DocString) MediaType() string { return d.mediaType }
func (d DocString) Delimiter() string { return d.delimiter }
func (d DocString) Line() int { return d.line }

func cloneRows(rows []Row) []Row {
	if rows == nil {
		return nil
	}
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = r.clone()
	}
	return out
}

func tagNames(tags []Tag) []string {
	if len(tags) == 0 {
		return nil
	}
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return names
}
