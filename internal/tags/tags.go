// Package tags aggregates and filters the tags of parsed features.
package tags

import (
	"fmt"
	"sort"

	tagexpressions "github.com/cucumber/tag-expressions/go/v6"

	"github.com/oss-specs/specs/internal/parser"
)

// Frequency is how many times a tag occurs across a set of features.
type Frequency struct {
	Name  string
	Count int
}

// Count tallies every tag occurrence on features, their scenarios and their
// examples. The result is ordered by count, then name.
func Count(features []*parser.Feature) []Frequency {
	counts := make(map[string]int)
	add := func(names []string) {
		for _, n := range names {
			counts[n]++
		}
	}
	for _, f := range features {
		add(f.TagNames())
		for _, sc := range f.Scenarios() {
			add(sc.TagNames())
			for _, ex := range sc.Examples() {
				add(ex.TagNames())
			}
		}
	}
	return sorted(counts)
}

// Merge sums frequency lists, e.g. one per file.
func Merge(lists ...[]Frequency) []Frequency {
	counts := make(map[string]int)
	for _, list := range lists {
		for _, f := range list {
			counts[f.Name] += f.Count
		}
	}
	return sorted(counts)
}

func sorted(counts map[string]int) []Frequency {
	out := make([]Frequency, 0, len(counts))
	for name, n := range counts {
		out = append(out, Frequency{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Matcher evaluates a cucumber tag expression such as
// "@smoke and not @slow".
type Matcher struct {
	expr tagexpressions.Evaluatable
}

// NewMatcher compiles expr. An empty expression matches everything.
func NewMatcher(expr string) (m *Matcher, err error) {
	if expr == "" {
		return &Matcher{}, nil
	}
	// Parse panics on some dangling operators.
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, fmt.Errorf("parsing tag expression %q: %v", expr, r)
		}
	}()
	e, err := tagexpressions.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("parsing tag expression %q: %w", expr, err)
	}
	return &Matcher{expr: e}, nil
}

func (m *Matcher) Match(tags []string) bool {
	if m.expr == nil {
		return true
	}
	return m.expr.Evaluate(tags)
}

func (m *Matcher) String() string {
	if m.expr == nil {
		return ""
	}
	return m.expr.ToString()
}

// Filter returns the feature's scenarios whose tags, together with the
// feature's own tags, match m. Outlines also match through any of their
// examples' tags. The background is never returned.
func Filter(f *parser.Feature, m *Matcher) []*parser.Scenario {
	var out []*parser.Scenario
	inherited := f.TagNames()
	for _, sc := range f.Scenarios() {
		if sc.Token() == parser.TokenBackground {
			continue
		}
		tags := append(append([]string(nil), inherited...), sc.TagNames()...)
		if m.Match(tags) {
			out = append(out, sc)
			continue
		}
		for _, ex := range sc.Examples() {
			if m.Match(append(tags, ex.TagNames()...)) {
				out = append(out, sc)
				break
			}
		}
	}
	return out
}
