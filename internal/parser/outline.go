package parser

import (
	"fmt"
	"strings"
)

// Expand turns a Scenario Outline into one concrete scenario per Examples
// body row, substituting <column> placeholders in the name, step text,
// table cells and doc strings. Any other scenario expands to itself.
func (s *Scenario) Expand() ([]*Scenario, error) {
	if s.token != TokenScenarioOutline {
		return []*Scenario{s}, nil
	}

	var out []*Scenario
	for _, ex := range s.examples {
		header, ok := ex.Header()
		if !ok {
			continue
		}
		for _, row := range ex.Body() {
			if row.Len() != header.Len() {
				return nil, fmt.Errorf("line %d: example row has %d cells, header has %d", row.line, row.Len(), header.Len())
			}
			r := placeholderReplacer(header.cells, row.cells)
			sc := &Scenario{
				token:       TokenScenario,
				keyword:     s.keyword,
				name:        r.Replace(s.name),
				description: s.description,
				line:        row.line,
				tags:        append(s.Tags(), ex.tags...),
			}
			for _, st := range s.steps {
				sc.steps = append(sc.steps, st.substitute(r))
			}
			out = append(out, sc)
		}
	}
	return out, nil
}

func placeholderReplacer(header, values []string) *strings.Replacer {
	pairs := make([]string, 0, 2*len(header))
	for i, h := range header {
		pairs = append(pairs, "<"+h+">", values[i])
	}
	return strings.NewReplacer(pairs...)
}

func (s *Step) substitute(r *strings.Replacer) *Step {
	out := &Step{
		keyword: s.keyword,
		name:    r.Replace(s.name),
		line:    s.line,
	}
	for _, row := range s.rows {
		cells := make([]string, len(row.cells))
		for i, c := range row.cells {
			cells[i] = r.Replace(c)
		}
		out.rows = append(out.rows, Row{cells: cells, line: row.line})
	}
	for _, ds := range s.docStrings {
		ds.content = r.Replace(ds.content)
		out.docStrings = append(out.docStrings, ds)
	}
	return out
}
