package parser

import (
	"fmt"
	"log/slog"
	"strings"
)

// Parser turns feature-file text into a Document. It carries configuration
// only, so a single Parser may be shared between goroutines.
type Parser struct {
	keywords *Keywords
	logger   *slog.Logger
}

type Option func(*Parser)

// WithKeywords replaces the English keyword set.
func WithKeywords(kw *Keywords) Option {
	return func(p *Parser) {
		if kw != nil {
			p.keywords = kw
		}
	}
}

// WithLogger sets the logger used to trace state transitions at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func New(opts ...Option) *Parser {
	p := &Parser{
		keywords: DefaultKeywords(),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse parses text with the default keywords.
func Parse(text string) (*Document, error) {
	return New().Parse(text)
}

// Parse parses one document. Any structural problem aborts the parse and is
// returned as a *ParseError; no partial document is returned.
func (p *Parser) Parse(text string) (*Document, error) {
	b := &builder{
		scanner: NewScanner(text, p.keywords),
		logger:  p.logger,
		doc:     &Document{},
	}
	if err := b.run(); err != nil {
		p.logger.Debug("parse failed", "error", err)
		return nil, err
	}
	return b.doc, nil
}

type state int

const (
	awaitingFeature state = iota
	inFeatureHeader
	inScenarioBlock
	inStep
	inTable
	inExamples
	inExamplesTable
)

func (s state) String() string {
	switch s {
	case awaitingFeature:
		return "AwaitingFeature"
	case inFeatureHeader:
		return "InFeatureHeader"
	case inScenarioBlock:
		return "InScenarioBlock"
	case inStep:
		return "InStep"
	case inTable:
		return "InTable"
	case inExamples:
		return "InExamples"
	case inExamplesTable:
		return "InExamplesTable"
	default:
		return "unknown"
	}
}

// builder holds everything one Parse call mutates.
type builder struct {
	scanner *Scanner
	logger  *slog.Logger
	doc     *Document
	state   state

	feature  *Feature
	scenario *Scenario
	step     *Step
	example  *Example

	pendingTags     []Tag
	pendingComments []Comment

	// description lines collect here until the next structural line.
	description      *string
	descriptionLines []string
}

func (b *builder) run() error {
	for {
		line, ok, err := b.scanner.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if err := b.consume(line); err != nil {
			return err
		}
	}
	return b.finish()
}

func (b *builder) transition(line Line, to state) {
	if b.state != to {
		b.logger.Debug("parser transition", "line", line.Number, "from", b.state, "to", to)
	}
	b.state = to
}

func (b *builder) consume(line Line) error {
	switch line.Kind {
	case LineBlank:
		if b.description != nil && len(b.descriptionLines) > 0 {
			b.descriptionLines = append(b.descriptionLines, "")
		}
		return nil
	case LineComment:
		c := Comment{Text: line.Trimmed, Line: line.Number}
		b.pendingComments = append(b.pendingComments, c)
		b.doc.comments = append(b.doc.comments, c)
		return nil
	case LineTag:
		b.closeDescription()
		for _, name := range line.Tags {
			b.pendingTags = append(b.pendingTags, Tag{Name: name, Line: line.Number})
		}
		return nil
	case LineKeyword:
		b.closeDescription()
		return b.keyword(line)
	case LineStep:
		b.closeDescription()
		return b.addStep(line)
	case LineTableRow:
		b.closeDescription()
		return b.addRow(line)
	case LineDocString:
		b.closeDescription()
		return b.addDocString(line)
	default:
		return b.text(line)
	}
}

func (b *builder) keyword(line Line) error {
	if line.KeywordKind == KeywordFeature {
		if b.feature != nil {
			return unexpected(line.Number, "Background, Scenario, Scenario Outline or Examples", "a second "+describe(line))
		}
		b.feature = &Feature{
			keyword: line.Keyword,
			name:    line.Text,
			line:    line.Number,
		}
		b.feature.tags, b.feature.comments = b.flushPending()
		b.doc.features = append(b.doc.features, b.feature)
		b.startDescription(&b.feature.description)
		b.transition(line, inFeatureHeader)
		return nil
	}

	if err := b.requireFeature(line); err != nil {
		return err
	}

	switch line.KeywordKind {
	case KeywordRule:
		return &ParseError{Kind: UnexpectedStructure, Line: line.Number, Found: "Rule is not supported"}
	case KeywordBackground:
		if latest := b.feature.latest(); latest != nil {
			if latest.token == TokenBackground {
				return unexpected(line.Number, "Scenario or Scenario Outline", "a second Background")
			}
			return unexpected(line.Number, "Scenario or Scenario Outline", "Background after a scenario")
		}
		b.openScenario(line, TokenBackground)
	case KeywordScenario:
		b.openScenario(line, TokenScenario)
	case KeywordScenarioOutline:
		b.openScenario(line, TokenScenarioOutline)
	case KeywordExamples:
		if b.scenario == nil || b.scenario.token != TokenScenarioOutline {
			return unexpected(line.Number, "Examples inside a Scenario Outline", describe(line)+" outside a Scenario Outline")
		}
		b.example = &Example{
			keyword: line.Keyword,
			name:    line.Text,
			line:    line.Number,
		}
		b.example.tags, b.example.comments = b.flushPending()
		b.scenario.examples = append(b.scenario.examples, b.example)
		b.step = nil
		b.startDescription(&b.example.description)
		b.transition(line, inExamples)
	}
	return nil
}

func (b *builder) openScenario(line Line, token Token) {
	b.scenario = &Scenario{
		token:   token,
		keyword: line.Keyword,
		name:    line.Text,
		line:    line.Number,
	}
	b.scenario.tags, b.scenario.comments = b.flushPending()
	b.feature.scenarios = append(b.feature.scenarios, b.scenario)
	b.step = nil
	b.example = nil
	b.startDescription(&b.scenario.description)
	b.transition(line, inScenarioBlock)
}

func (b *builder) addStep(line Line) error {
	if err := b.requireFeature(line); err != nil {
		return err
	}
	if err := b.rejectPendingTags(line); err != nil {
		return err
	}
	switch b.state {
	case inScenarioBlock, inStep, inTable:
	case inExamples, inExamplesTable:
		return unexpected(line.Number, "Examples rows, Scenario or Scenario Outline", describe(line)+" after Examples")
	default:
		return unexpected(line.Number, "Background, Scenario or Scenario Outline", describe(line)+" before any scenario")
	}
	b.step = &Step{
		keyword: line.Keyword,
		name:    line.Text,
		line:    line.Number,
	}
	b.scenario.steps = append(b.scenario.steps, b.step)
	b.transition(line, inStep)
	return nil
}

func (b *builder) addRow(line Line) error {
	if err := b.requireFeature(line); err != nil {
		return err
	}
	if err := b.rejectPendingTags(line); err != nil {
		return err
	}
	row := Row{cells: line.Cells, line: line.Number}
	switch b.state {
	case inStep, inTable:
		b.step.rows = append(b.step.rows, row)
		b.transition(line, inTable)
	case inExamples, inExamplesTable:
		b.example.rows = append(b.example.rows, row)
		b.transition(line, inExamplesTable)
	default:
		return unexpected(line.Number, "a step or Examples before a table row", describe(line))
	}
	return nil
}

func (b *builder) addDocString(line Line) error {
	if err := b.requireFeature(line); err != nil {
		return err
	}
	if err := b.rejectPendingTags(line); err != nil {
		return err
	}
	if b.state != inStep && b.state != inTable {
		return unexpected(line.Number, "a step before a doc string", describe(line))
	}
	ds, _, err := b.scanner.DocString(line)
	if err != nil {
		return err
	}
	b.step.docStrings = append(b.step.docStrings, ds)
	b.transition(line, inStep)
	return nil
}

func (b *builder) text(line Line) error {
	if err := b.requireFeature(line); err != nil {
		return err
	}
	if err := b.rejectPendingTags(line); err != nil {
		return err
	}
	if b.description == nil {
		return unexpected(line.Number, "a step, table row, doc string or keyword", describe(line))
	}
	b.descriptionLines = append(b.descriptionLines, strings.TrimRight(line.Raw, " \t"))
	return nil
}

func (b *builder) finish() error {
	b.closeDescription()
	if b.feature == nil {
		return &ParseError{
			Kind:     MissingFeature,
			Line:     max(b.scanner.LastLine(), 1),
			Expected: "Feature",
			Found:    "end of input",
		}
	}
	if len(b.pendingTags) > 0 {
		return unexpected(b.pendingTags[0].Line, "Feature, Background, Scenario, Scenario Outline or Examples after tags", "end of input")
	}
	return nil
}

func (b *builder) requireFeature(line Line) error {
	if b.feature != nil {
		return nil
	}
	return &ParseError{
		Kind:     MissingFeature,
		Line:     line.Number,
		Expected: "Feature",
		Found:    describe(line),
	}
}

func (b *builder) rejectPendingTags(line Line) error {
	if len(b.pendingTags) == 0 {
		return nil
	}
	return unexpected(line.Number, "Feature, Background, Scenario, Scenario Outline or Examples after tags", describe(line))
}

// flushPending hands the buffered tags and comments to the entity being
// opened and clears the buffer.
func (b *builder) flushPending() ([]Tag, []Comment) {
	tags, comments := b.pendingTags, b.pendingComments
	b.pendingTags, b.pendingComments = nil, nil
	return tags, comments
}

func (b *builder) startDescription(target *string) {
	b.description = target
	b.descriptionLines = nil
}

func (b *builder) closeDescription() {
	if b.description == nil {
		return
	}
	lines := b.descriptionLines
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	*b.description = strings.Join(lines, "\n")
	b.description = nil
	b.descriptionLines = nil
}

func describe(line Line) string {
	switch line.Kind {
	case LineKeyword:
		return line.Keyword + ":"
	case LineStep:
		return fmt.Sprintf("step %q", line.Trimmed)
	case LineText:
		return fmt.Sprintf("free text %q", line.Trimmed)
	default:
		return line.Kind.String()
	}
}
