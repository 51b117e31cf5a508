package parser

import (
	"fmt"
	"regexp"
	"strings"
)

// LineKind is the classification the scanner gives one physical line.
type LineKind int

const (
	LineBlank LineKind = iota
	LineDocString
	LineTableRow
	LineTag
	LineComment
	LineKeyword
	LineStep
	LineText
	LineVerbatim
)

func (k LineKind) String() string {
	switch k {
	case LineBlank:
		return "blank line"
	case LineDocString:
		return "doc string delimiter"
	case LineTableRow:
		return "table row"
	case LineTag:
		return "tag line"
	case LineComment:
		return "comment"
	case LineKeyword:
		return "keyword line"
	case LineStep:
		return "step"
	case LineText:
		return "free text"
	case LineVerbatim:
		return "doc string content"
	default:
		return "line"
	}
}

// Line is one classified physical line.
type Line struct {
	Number  int // 1-based
	Kind    LineKind
	Raw     string
	Trimmed string
	Indent  int // leading whitespace, in bytes

	// LineKeyword
	KeywordKind KeywordKind
	// LineKeyword and LineStep
	Keyword string
	// LineKeyword: the title after the colon. LineStep: the step text.
	Text string
	// LineTableRow
	Cells []string
	// LineTag
	Tags []string
	// LineDocString
	Delimiter string
	MediaType string
}

var tagPattern = regexp.MustCompile(`@[^@\s]+`)

var docStringDelimiters = []string{`"""`, "```"}

// SplitLines splits text into physical lines, accepting \n and \r\n. A
// leading byte order mark is dropped.
func SplitLines(text string) []string {
	text = strings.TrimPrefix(text, "\ufeff")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	// A trailing newline does not open another line.
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Scanner hands out classified lines one at a time. The parser drives it,
// so it can read a doc string's interior verbatim instead of classifying it.
type Scanner struct {
	kw    *Keywords
	lines []string
	pos   int
}

func NewScanner(text string, kw *Keywords) *Scanner {
	return &Scanner{kw: kw, lines: SplitLines(text)}
}

// Next classifies the next line. ok is false at end of input.
func (s *Scanner) Next() (line Line, ok bool, err error) {
	if s.pos >= len(s.lines) {
		return Line{}, false, nil
	}
	s.pos++
	line, err = ScanLine(s.pos, s.lines[s.pos-1], s.kw)
	if err != nil {
		return Line{}, false, err
	}
	return line, true, nil
}

// LastLine is the number of the last line handed out.
func (s *Scanner) LastLine() int { return s.pos }

// DocString reads raw lines up to the delimiter that closes open. Content is
// de-indented by the opening delimiter's indentation and escaped delimiters
// are unescaped.
func (s *Scanner) DocString(open Line) (DocString, []Line, error) {
	var (
		content []string
		raw     []Line
	)
	escapedDelim := strings.Join(strings.Split(open.Delimiter, ""), `\`)
	escapedDelim = `\` + escapedDelim
	for s.pos < len(s.lines) {
		s.pos++
		text := s.lines[s.pos-1]
		if strings.TrimSpace(text) == open.Delimiter {
			return DocString{
				content:   strings.Join(content, "\n"),
				mediaType: open.MediaType,
				delimiter: open.Delimiter,
				line:      open.Number,
			}, raw, nil
		}
		raw = append(raw, Line{Number: s.pos, Kind: LineVerbatim, Raw: text, Trimmed: strings.TrimSpace(text)})
		text = dedent(text, open.Indent)
		content = append(content, strings.ReplaceAll(text, escapedDelim, open.Delimiter))
	}
	return DocString{}, nil, &ParseError{
		Kind:     UnterminatedDocString,
		Line:     open.Number,
		Expected: "closing " + open.Delimiter,
		Found:    "end of input",
	}
}

func dedent(text string, indent int) string {
	i := 0
	for i < indent && i < len(text) && (text[i] == ' ' || text[i] == '\t') {
		i++
	}
	return text[i:]
}

// Scan classifies every line of text. Lines between doc string delimiters
// come back as LineVerbatim.
func Scan(text string, kw *Keywords) ([]Line, error) {
	s := NewScanner(text, kw)
	var lines []Line
	for {
		line, ok, err := s.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return lines, nil
		}
		lines = append(lines, line)
		if line.Kind != LineDocString {
			continue
		}
		_, interior, err := s.DocString(line)
		if err != nil {
			return nil, err
		}
		lines = append(lines, interior...)
		closing, err := ScanLine(s.LastLine(), s.lines[s.LastLine()-1], kw)
		if err != nil {
			return nil, err
		}
		lines = append(lines, closing)
	}
}

// ScanLine classifies a single line.
func ScanLine(number int, raw string, kw *Keywords) (Line, error) {
	trimmed := strings.TrimSpace(raw)
	line := Line{
		Number:  number,
		Raw:     raw,
		Trimmed: trimmed,
		Indent:  len(raw) - len(strings.TrimLeft(raw, " \t")),
	}

	if trimmed == "" {
		line.Kind = LineBlank
		return line, nil
	}

	if delim, mediaType, ok := matchDocString(trimmed); ok {
		line.Kind = LineDocString
		line.Delimiter = delim
		line.MediaType = mediaType
		return line, nil
	}

	if strings.HasPrefix(trimmed, "|") {
		cells, err := splitCells(number, trimmed)
		if err != nil {
			return Line{}, err
		}
		line.Kind = LineTableRow
		line.Cells = cells
		return line, nil
	}

	if strings.HasPrefix(trimmed, "@") {
		tags, err := parseTags(number, trimmed)
		if err != nil {
			return Line{}, err
		}
		line.Kind = LineTag
		line.Tags = tags
		return line, nil
	}

	if strings.HasPrefix(trimmed, "#") {
		line.Kind = LineComment
		return line, nil
	}

	if kind, keyword, title, ok := kw.matchStructural(trimmed); ok {
		line.Kind = LineKeyword
		line.KeywordKind = kind
		line.Keyword = keyword
		line.Text = title
		return line, nil
	}

	if keyword, text, ok := kw.matchStep(trimmed); ok {
		line.Kind = LineStep
		line.Keyword = keyword
		line.Text = text
		return line, nil
	}

	line.Kind = LineText
	return line, nil
}

func matchDocString(trimmed string) (delim, mediaType string, ok bool) {
	for _, d := range docStringDelimiters {
		if strings.HasPrefix(trimmed, d) {
			rest := strings.TrimSpace(trimmed[len(d):])
			// A media type is a single word; anything else is not a delimiter.
			if strings.ContainsAny(rest, " \t") || strings.Contains(rest, d[:1]) {
				return "", "", false
			}
			return d, rest, true
		}
	}
	return "", "", false
}

var tagWordPattern = regexp.MustCompile(`^(@[^@\s]+)+$`)

// parseTags collects @tags up to a trailing comment. Any other word on the
// line is an error.
func parseTags(number int, trimmed string) ([]string, error) {
	if i := strings.Index(trimmed, " #"); i >= 0 {
		trimmed = trimmed[:i]
	}
	for _, word := range strings.Fields(trimmed) {
		if !tagWordPattern.MatchString(word) {
			return nil, unexpected(number, "only tags on a tag line", fmt.Sprintf("%q", word))
		}
	}
	return tagPattern.FindAllString(trimmed, -1), nil
}

// splitCells splits a trimmed "| a | b |" row into cells. Whitespace around
// a cell is trimmed before escapes are decoded, so an escaped newline at
// either end survives. Inside a cell, \| is a literal pipe, \n a newline
// and \\ a backslash; any other backslash is kept as written.
func splitCells(number int, trimmed string) ([]string, error) {
	var (
		cells   []string
		raw     strings.Builder
		escaped bool
		closed  bool
	)
	for _, r := range trimmed[1:] {
		closed = false
		if escaped {
			raw.WriteRune(r)
			escaped = false
			continue
		}
		switch r {
		case '\\':
			escaped = true
			raw.WriteRune(r)
		case '|':
			cells = append(cells, decodeCell(strings.TrimSpace(raw.String())))
			raw.Reset()
			closed = true
		default:
			raw.WriteRune(r)
		}
	}
	if !closed || escaped {
		return nil, &ParseError{
			Kind:     MalformedTableRow,
			Line:     number,
			Expected: `a row ending with an unescaped "|"`,
			Found:    trimmed,
		}
	}
	return cells, nil
}

func decodeCell(raw string) string {
	var b strings.Builder
	escaped := false
	for _, r := range raw {
		if !escaped {
			if r == '\\' {
				escaped = true
			} else {
				b.WriteRune(r)
			}
			continue
		}
		switch r {
		case '|':
			b.WriteRune('|')
		case 'n':
			b.WriteRune('\n')
		case '\\':
			b.WriteRune('\\')
		default:
			b.WriteRune('\\')
			b.WriteRune(r)
		}
		escaped = false
	}
	if escaped {
		b.WriteRune('\\')
	}
	return b.String()
}
