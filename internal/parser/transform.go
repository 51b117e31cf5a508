package parser

import (
	"strings"
)

// ParsedFile is a flat view of a parsed document, shaped for storage and
// listing rather than traversal.
type ParsedFile struct {
	Path      string
	Name      string
	Tags      []string
	Scenarios []ParsedScenario
}

// ParsedScenario represents a single block extracted from a feature file.
type ParsedScenario struct {
	Name    string
	Token   Token
	Tags    []string // the block's own tags, not the feature's
	Line    int      // 1-based line number of the keyword line
	Steps   int
	Content string // raw text from the keyword line to the end of the block
}

// Transform flattens every feature of doc into a ParsedFile. text must be the
// source doc was parsed from.
func Transform(doc *Document, path, text string) *ParsedFile {
	pf := &ParsedFile{
		Path: path,
		Name: filenameWithoutExt(path),
	}

	features := doc.Features()
	if len(features) == 0 {
		return pf
	}
	pf.Name = features[0].Name()

	lines := SplitLines(text)

	for _, f := range features {
		pf.Tags = append(pf.Tags, f.TagNames()...)

		scenarios := f.Scenarios()
		for i, sc := range scenarios {
			ps := ParsedScenario{
				Name:  sc.Name(),
				Token: sc.Token(),
				Tags:  sc.TagNames(),
				Line:  sc.Line(),
				Steps: len(sc.steps),
			}

			startLine := sc.Line() - 1 // 0-based
			endLine := len(lines)

			if i+1 < len(scenarios) {
				// The content ends before the next block's tags or keyword line.
				candidateEnd := scenarios[i+1].Line() - 1
				// Walk back to exclude tag, comment and blank lines before the next block
				for candidateEnd > startLine {
					t := strings.TrimSpace(lines[candidateEnd-1])
					if t == "" || strings.HasPrefix(t, "@") || strings.HasPrefix(t, "#") {
						candidateEnd--
					} else {
						break
					}
				}
				endLine = candidateEnd
			}

			// Trim trailing blank lines
			for endLine > startLine && strings.TrimSpace(lines[endLine-1]) == "" {
				endLine--
			}

			if startLine < len(lines) {
				ps.Content = strings.Join(lines[startLine:endLine], "\n")
			}

			pf.Scenarios = append(pf.Scenarios, ps)
		}
	}

	return pf
}

func filenameWithoutExt(filename string) string {
	name := filename
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[:idx]
	}
	return name
}
