package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/oss-specs/specs/internal/parser"
)

var (
	idStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	fileStyle    = lipgloss.NewStyle().Faint(true)
	tagStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	keywordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true)
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	commentStyle = lipgloss.NewStyle().Faint(true)
)

// ListWidths holds the column widths of a listing.
type ListWidths struct {
	ID, File, Name int
}

// Fit widens lw to hold one more row.
func (lw *ListWidths) Fit(id int64, file, name string) {
	lw.ID = max(lw.ID, len(ScenarioRef(id)))
	lw.File = max(lw.File, len(file))
	lw.Name = max(lw.Name, len(name))
}

// ScenarioRef is how scenarios are referred to on the command line.
func ScenarioRef(id int64) string {
	return fmt.Sprintf("#%d", id)
}

func ListRow(w io.Writer, id int64, file, name string, tags []string, lw ListWidths) {
	ref := fmt.Sprintf("%-*s", lw.ID, ScenarioRef(id))
	f := fmt.Sprintf("%-*s", lw.File, file)
	line := idStyle.Render(ref) + "  " + fileStyle.Render(f) + "  " + name
	if len(tags) > 0 {
		line += strings.Repeat(" ", lw.Name-len(name)) + "  " + tagStyle.Render(strings.Join(tags, " "))
	}
	fmt.Fprintln(w, line)
}

func ShowHeader(w io.Writer, id int64, file string, token parser.Token) {
	fmt.Fprintf(w, "%s  %s  %s\n", idStyle.Render(ScenarioRef(id)), fileStyle.Render(file), token)
}

func ShowTags(w io.Writer, tags []string) {
	if len(tags) == 0 {
		return
	}
	fmt.Fprintln(w, "Tags: "+tagStyle.Render(strings.Join(tags, " ")))
}

// ShowGherkin prints feature file text with keywords, steps, tags and
// comments highlighted. Lines inside doc strings are printed as is.
func ShowGherkin(w io.Writer, content string, kw *parser.Keywords) {
	var delimiter string
	for i, raw := range parser.SplitLines(content) {
		if delimiter != "" {
			if strings.TrimSpace(raw) == delimiter {
				delimiter = ""
			}
			fmt.Fprintln(w, raw)
			continue
		}
		line, err := parser.ScanLine(i+1, raw, kw)
		if err != nil {
			fmt.Fprintln(w, raw)
			continue
		}
		indent := raw[:line.Indent]
		switch line.Kind {
		case parser.LineKeyword:
			fmt.Fprintln(w, indent+keywordStyle.Render(line.Keyword+":")+" "+line.Text)
		case parser.LineStep:
			fmt.Fprintln(w, indent+stepStyle.Render(line.Keyword)+strings.TrimPrefix(line.Trimmed, line.Keyword))
		case parser.LineTag:
			fmt.Fprintln(w, indent+tagStyle.Render(line.Trimmed))
		case parser.LineComment:
			fmt.Fprintln(w, indent+commentStyle.Render(line.Trimmed))
		case parser.LineDocString:
			delimiter = line.Delimiter
			fmt.Fprintln(w, raw)
		default:
			fmt.Fprintln(w, raw)
		}
	}
}
