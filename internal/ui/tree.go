package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/oss-specs/specs/internal/parser"
	"github.com/oss-specs/specs/internal/tags"
)

const (
	branch = "├── "
	last   = "└── "
	pipe   = "│   "
	space  = "    "
)

// Tree prints a feature and the given blocks of it, with their steps and
// examples, as a tree.
func Tree(w io.Writer, f *parser.Feature, scenarios []*parser.Scenario) {
	fmt.Fprintln(w, keywordStyle.Render(f.Keyword()+":")+" "+f.Name()+tagSuffix(f.TagNames()))

	for i, sc := range scenarios {
		prefix, child := branch, pipe
		if i == len(scenarios)-1 {
			prefix, child = last, space
		}
		fmt.Fprintln(w, prefix+keywordStyle.Render(sc.Keyword()+":")+titled(sc.Name())+tagSuffix(sc.TagNames()))

		steps := sc.Steps()
		examples := sc.Examples()
		for j, st := range steps {
			p := branch
			if j == len(steps)-1 && len(examples) == 0 {
				p = last
			}
			fmt.Fprintln(w, child+p+stepStyle.Render(st.Keyword())+" "+st.Name()+stepSuffix(st))
		}
		for j, ex := range examples {
			p := branch
			if j == len(examples)-1 {
				p = last
			}
			fmt.Fprintf(w, "%s%s%s%s (%d rows)\n", child, p, keywordStyle.Render(ex.Keyword()+":"), titled(ex.Name())+tagSuffix(ex.TagNames()), len(ex.Body()))
		}
	}
}

func titled(name string) string {
	if name == "" {
		return ""
	}
	return " " + name
}

func tagSuffix(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return "  " + tagStyle.Render(strings.Join(names, " "))
}

func stepSuffix(st *parser.Step) string {
	var parts []string
	if rows := st.Rows(); len(rows) > 0 {
		parts = append(parts, fmt.Sprintf("%d rows", len(rows)))
	}
	for _, ds := range st.DocStrings() {
		if ds.MediaType() != "" {
			parts = append(parts, "doc string ("+ds.MediaType()+")")
		} else {
			parts = append(parts, "doc string")
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return commentStyle.Render(" [" + strings.Join(parts, ", ") + "]")
}

var cloudStyles = []lipgloss.Style{
	lipgloss.NewStyle().Faint(true),
	lipgloss.NewStyle(),
	lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true),
}

// Cloud prints tag frequencies, the most used first, styled by weight.
func Cloud(w io.Writer, freqs []tags.Frequency) {
	if len(freqs) == 0 {
		fmt.Fprintln(w, "no tags")
		return
	}
	top := freqs[0].Count
	for _, f := range freqs {
		fmt.Fprintf(w, "%4d  %s\n", f.Count, cloudStyles[Weight(f.Count, top, len(cloudStyles))].Render(f.Name))
	}
}

// Weight buckets count into 0..buckets-1 relative to top.
func Weight(count, top, buckets int) int {
	if top <= 0 || buckets <= 1 {
		return 0
	}
	b := count * buckets / top
	return min(max(b, 0), buckets-1)
}
