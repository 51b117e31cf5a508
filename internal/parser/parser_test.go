package parser

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseOne(t *testing.T, content string) *Feature {
	t.Helper()
	doc, err := Parse(content)
	require.NoError(t, err)
	features := doc.Features()
	require.Len(t, features, 1)
	return features[0]
}

func requireParseError(t *testing.T, content string, target error, line int) *ParseError {
	t.Helper()
	doc, err := Parse(content)
	require.Error(t, err)
	assert.Nil(t, doc)
	assert.ErrorIs(t, err, target)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, line, pe.Line)
	return pe
}

func stepNames(sc *Scenario) []string {
	var names []string
	for _, st := range sc.Steps() {
		names = append(names, st.Name())
	}
	return names
}

func TestParse_SingleScenario(t *testing.T) {
	f := parseOne(t, "Feature: Login\n  Scenario: Valid login\n    Given a user\n    When they log in\n    Then they see the dashboard")

	assert.Equal(t, "Login", f.Name())
	assert.Equal(t, "Feature", f.Keyword())
	assert.Equal(t, 1, f.Line())
	scenarios := f.Scenarios()
	require.Len(t, scenarios, 1)
	assert.Equal(t, TokenScenario, scenarios[0].Token())
	assert.Equal(t, "Valid login", scenarios[0].Name())
	assert.Equal(t, 2, scenarios[0].Line())
	assert.Equal(t, []string{"a user", "they log in", "they see the dashboard"}, stepNames(scenarios[0]))

	steps := scenarios[0].Steps()
	assert.Equal(t, "Given", steps[0].Keyword())
	assert.Equal(t, "When", steps[1].Keyword())
	assert.Equal(t, "Then", steps[2].Keyword())
	assert.Equal(t, 5, steps[2].Line())
}

func TestParse_MultipleScenarios(t *testing.T) {
	f := parseOne(t, `Feature: Login
  Scenario: User logs in
    Given a user

  Scenario: User fails login
    Given a user
    But  the password is wrong
`)
	scenarios := f.Scenarios()
	require.Len(t, scenarios, 2)
	assert.Equal(t, "User logs in", scenarios[0].Name())
	assert.Equal(t, "User fails login", scenarios[1].Name())
	assert.Equal(t, []string{"a user", "the password is wrong"}, stepNames(scenarios[1]))
	assert.Equal(t, "But", scenarios[1].Steps()[1].Keyword())
}

func TestParse_Background(t *testing.T) {
	f := parseOne(t, `Feature: Login
  Background: Registered
    Given a registered user

  Scenario: User logs in
    When  they log in
    Then  they see the dashboard
`)
	scenarios := f.Scenarios()
	require.Len(t, scenarios, 2)
	assert.Equal(t, TokenBackground, scenarios[0].Token())
	assert.Equal(t, "Registered", scenarios[0].Name())
	assert.Equal(t, []string{"a registered user"}, stepNames(scenarios[0]))

	bg, ok := f.Background()
	require.True(t, ok)
	assert.Same(t, scenarios[0], bg)
	assert.Equal(t, "User logs in", scenarios[1].Name())
}

func TestParse_NoBackground(t *testing.T) {
	f := parseOne(t, "Feature: Login\n  Scenario: s\n    Given a\n")
	_, ok := f.Background()
	assert.False(t, ok)
}

func TestParse_BackgroundAfterScenario(t *testing.T) {
	requireParseError(t, `Feature: Login
  Scenario: s
    Given a
  Background:
    Given b
`, ErrUnexpectedStructure, 4)
}

func TestParse_SecondBackground(t *testing.T) {
	requireParseError(t, `Feature: Login
  Background:
    Given a
  Background:
    Given b
`, ErrUnexpectedStructure, 4)
}

func TestParse_FeatureTags(t *testing.T) {
	f := parseOne(t, `@web @auth
@slow
Feature: Login
  Scenario: s
    Given a
`)
	assert.Equal(t, []string{"@web", "@auth", "@slow"}, f.TagNames())
	assert.Equal(t, []Tag{{Name: "@web", Line: 1}, {Name: "@auth", Line: 1}, {Name: "@slow", Line: 2}}, f.Tags())
	assert.Empty(t, f.Scenarios()[0].Tags())
}

func TestParse_MultipleTags(t *testing.T) {
	f := parseOne(t, `Feature: Login
  @smoke @ft:5 @regression
  Scenario: User logs in
    Given a user
`)
	assert.Equal(t, []string{"@smoke", "@ft:5", "@regression"}, f.Scenarios()[0].TagNames())
}

func TestParse_TagsBeforeMultipleScenarios(t *testing.T) {
	f := parseOne(t, `Feature: Login
  @tag1
  Scenario: First
    Given a

  @tag2
  Scenario: Second
    Given b
`)
	scenarios := f.Scenarios()
	require.Len(t, scenarios, 2)
	assert.Equal(t, []string{"@tag1"}, scenarios[0].TagNames())
	assert.Equal(t, []string{"@tag2"}, scenarios[1].TagNames())
}

func TestParse_TagLineWithTrailingComment(t *testing.T) {
	f := parseOne(t, "Feature: Login\n  @a @b # not a tag\n  Scenario: s\n    Given a\n")
	assert.Equal(t, []string{"@a", "@b"}, f.Scenarios()[0].TagNames())
}

func TestParse_BackgroundTakesPendingTags(t *testing.T) {
	f := parseOne(t, "Feature: Login\n  @setup\n  Background:\n    Given a\n")
	bg, ok := f.Background()
	require.True(t, ok)
	assert.Equal(t, []string{"@setup"}, bg.TagNames())
}

func TestParse_Comments(t *testing.T) {
	doc, err := Parse(`# This is a comment
Feature: Login
  # Another comment
  Scenario: User logs in
    Given a user
    # trailing
`)
	require.NoError(t, err)
	f := doc.Features()[0]
	assert.Equal(t, []Comment{{Text: "# This is a comment", Line: 1}}, f.Comments())
	assert.Equal(t, []Comment{{Text: "# Another comment", Line: 3}}, f.Scenarios()[0].Comments())
	// The trailing comment never attaches, but the document keeps it.
	assert.Len(t, doc.Comments(), 3)
	assert.Equal(t, "# trailing", doc.Comments()[2].Text)
}

func TestParse_CommentsBetweenStepsAttachToNextScenario(t *testing.T) {
	f := parseOne(t, `Feature: Login
  Scenario: First
    Given a
    # about the second
  Scenario: Second
    Given b
`)
	scenarios := f.Scenarios()
	assert.Empty(t, scenarios[0].Comments())
	assert.Equal(t, []Comment{{Text: "# about the second", Line: 4}}, scenarios[1].Comments())
}

func TestParse_Descriptions(t *testing.T) {
	f := parseOne(t, `Feature: Login
  As a user
  I want to log in

  So that I can work

  Scenario: User logs in
    Only the happy path
    Given a user
`)
	assert.Equal(t, "  As a user\n  I want to log in\n\n  So that I can work", f.Description())
	assert.Equal(t, "    Only the happy path", f.Scenarios()[0].Description())
}

func TestParse_BlankLinesWithinScenario(t *testing.T) {
	f := parseOne(t, `Feature: Login
  Scenario: User logs in
    Given a user

    When  they log in

    Then  they see the dashboard
`)
	assert.Equal(t, []string{"a user", "they log in", "they see the dashboard"}, stepNames(f.Scenarios()[0]))
}

func TestParse_StepTable(t *testing.T) {
	f := parseOne(t, `Feature: Accounts
  Scenario: Many users
    Given these users:
      | name  | role  |
      | alice | admin |
      | bob   |
    Then there are 2 users
`)
	steps := f.Scenarios()[0].Steps()
	require.True(t, steps[0].HasTable())
	rows := steps[0].Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"name", "role"}, rows[0].Cells())
	assert.Equal(t, []string{"alice", "admin"}, rows[1].Cells())
	// Ragged rows are kept as written.
	assert.Equal(t, []string{"bob"}, rows[2].Cells())
	assert.Equal(t, 6, rows[2].Line())

	assert.False(t, steps[1].HasTable())
	assert.Nil(t, steps[1].Rows())
	assert.False(t, steps[1].HasDocString())
}

func TestParse_TableDataOrderAcrossScenarios(t *testing.T) {
	f := parseOne(t, `Feature: Tables
  Scenario: One
    Given a table
      | a | b |
    And another
      | c |
  Scenario: Two
    Given a table
      | d | e |
      | f | g |
`)
	var flat []string
	for _, sc := range f.Scenarios() {
		for _, st := range sc.Steps() {
			for _, row := range st.Rows() {
				flat = append(flat, row.Cells()...)
			}
		}
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f", "g"}, flat)
}

func TestParse_TableWithoutStep(t *testing.T) {
	requireParseError(t, "Feature: Tables\n  Scenario: s\n    | a |\n", ErrUnexpectedStructure, 3)
}

func TestParse_MalformedTableRow(t *testing.T) {
	pe := requireParseError(t, "Feature: Tables\n  Scenario: s\n    Given t\n      | a | b\n", ErrMalformedTableRow, 4)
	assert.Contains(t, pe.Error(), "line 4")
}

func TestParse_DocString(t *testing.T) {
	f := parseOne(t, `Feature: Docs
  Scenario: Has a doc string
    Given the text:
      """markdown
      # Title

        indented
      | not | a table
      """
    Then it is kept
`)
	steps := f.Scenarios()[0].Steps()
	require.True(t, steps[0].HasDocString())
	ds := steps[0].DocStrings()
	require.Len(t, ds, 1)
	assert.Equal(t, "# Title\n\n  indented\n| not | a table", ds[0].Content())
	assert.Equal(t, "markdown", ds[0].MediaType())
	assert.Equal(t, `"""`, ds[0].Delimiter())
	assert.Equal(t, 4, ds[0].Line())
	assert.Equal(t, []string{"the text:", "it is kept"}, stepNames(f.Scenarios()[0]))
}

func TestParse_DocStringContentIsOpaque(t *testing.T) {
	doc, err := Parse(`Feature: Parse Scenarios
  Scenario: Already-tagged scenario is skipped
    Given the file fts/login.ft contains:
      """
      Feature: Login
        @ft:1
        Scenario: User logs in
          Given a user
      """
    When the user runs sync
    Then no new scenarios record is created
`)
	require.NoError(t, err)
	f := doc.Features()[0]
	require.Len(t, f.Scenarios(), 1)
	assert.Equal(t, "Already-tagged scenario is skipped", f.Scenarios()[0].Name())
	ds := f.Scenarios()[0].Steps()[0].DocStrings()[0]
	assert.Equal(t, "Feature: Login\n  @ft:1\n  Scenario: User logs in\n    Given a user", ds.Content())
	assert.Empty(t, doc.Comments())
}

func TestParse_DocStringWithBackticks(t *testing.T) {
	f := parseOne(t, "Feature: Test\n  Scenario: Has code block\n    Given content:\n      ```\n      Scenario: Not real\n      @ft:99\n      ```\n    Then it works\n")
	require.Len(t, f.Scenarios(), 1)
	ds := f.Scenarios()[0].Steps()[0].DocStrings()[0]
	assert.Equal(t, "Scenario: Not real\n@ft:99", ds.Content())
	assert.Equal(t, "```", ds.Delimiter())
}

func TestParse_DocStringEscapedDelimiter(t *testing.T) {
	f := parseOne(t, "Feature: T\n  Scenario: s\n    Given content:\n      \"\"\"\n      a \\\"\\\"\\\" b\n      \"\"\"\n")
	assert.Equal(t, `a """ b`, f.Scenarios()[0].Steps()[0].DocStrings()[0].Content())
}

func TestParse_EmptyDocStringIsPresent(t *testing.T) {
	f := parseOne(t, "Feature: T\n  Scenario: s\n    Given nothing:\n      \"\"\"\n      \"\"\"\n")
	st := f.Scenarios()[0].Steps()[0]
	require.True(t, st.HasDocString())
	assert.Equal(t, "", st.DocStrings()[0].Content())
}

func TestParse_UnterminatedDocString(t *testing.T) {
	requireParseError(t, "Feature: T\n  Scenario: s\n    Given content:\n      \"\"\"\n      never closed\n", ErrUnterminatedDocString, 4)
}

func TestParse_DocStringWithoutStep(t *testing.T) {
	requireParseError(t, "Feature: T\n  Scenario: s\n    \"\"\"\n    x\n    \"\"\"\n", ErrUnexpectedStructure, 3)
}

func TestParse_TableAndDocStringOnOneStep(t *testing.T) {
	f := parseOne(t, "Feature: T\n  Scenario: s\n    Given both:\n      | a |\n      \"\"\"\n      text\n      \"\"\"\n")
	st := f.Scenarios()[0].Steps()[0]
	assert.True(t, st.HasTable())
	assert.True(t, st.HasDocString())
}

func TestParse_ScenarioOutline(t *testing.T) {
	f := parseOne(t, `Feature: Eating
  Scenario Outline: eating
    Given there are <start> cucumbers
    When I eat <eat> cucumbers

    @fast
    Examples: Small
      | start | eat |
      | 12    | 5   |
      | 20    | 5   |

    Examples:
      | start | eat |
`)
	scenarios := f.Scenarios()
	require.Len(t, scenarios, 1)
	outline := scenarios[0]
	assert.Equal(t, TokenScenarioOutline, outline.Token())
	assert.Equal(t, "Scenario Outline", outline.Keyword())
	examples := outline.Examples()
	require.Len(t, examples, 2)
	assert.Equal(t, "Small", examples[0].Name())
	assert.Equal(t, []string{"@fast"}, examples[0].TagNames())
	require.Len(t, examples[0].Rows(), 3)

	header, ok := examples[0].Header()
	require.True(t, ok)
	assert.Equal(t, []string{"start", "eat"}, header.Cells())
	require.Len(t, examples[0].Body(), 2)
	assert.Equal(t, []string{"20", "5"}, examples[0].Body()[1].Cells())

	assert.Empty(t, examples[1].Body())
}

func TestParse_ExamplesRowsIncludeHeader(t *testing.T) {
	f := parseOne(t, `Feature: F
  Scenario Outline: o
    Given <a> and <b>
    Examples:
      | a | b |
      | 1 | 2 |
`)
	var flat []string
	for _, row := range f.Scenarios()[0].Examples()[0].Rows() {
		flat = append(flat, row.Cells()...)
	}
	assert.Equal(t, []string{"a", "b", "1", "2"}, flat)
	assert.Equal(t, []string{"1", "2"}, f.Scenarios()[0].Examples()[0].Body()[0].Cells())
}

func TestParse_ExamplesOutsideOutline(t *testing.T) {
	pe := requireParseError(t, `Feature: Login
  Scenario: s
    Given a
  Examples: Table
    | a |
`, ErrUnexpectedStructure, 4)
	assert.Contains(t, pe.Error(), "Examples")
}

func TestParse_StepAfterExamples(t *testing.T) {
	requireParseError(t, `Feature: F
  Scenario Outline: o
    Given <a>
    Examples:
      | a |
    Then late
`, ErrUnexpectedStructure, 6)
}

func TestParse_OnlyScenarioTokensPresent(t *testing.T) {
	f := parseOne(t, `Feature: F
  Background:
    Given a
  Scenario: s
    Given b
  Scenario Template: o
    Given <x>
    Scenarios:
      | x |
  Example: e
    Given c
`)
	var tokens []Token
	for _, sc := range f.Scenarios() {
		tokens = append(tokens, sc.Token())
		if sc.Token() != TokenScenarioOutline {
			assert.Empty(t, sc.Examples())
		}
	}
	assert.Equal(t, []Token{TokenBackground, TokenScenario, TokenScenarioOutline, TokenScenario}, tokens)
}

func TestParse_RuleError(t *testing.T) {
	pe := requireParseError(t, `Feature: Login
  Rule: Business rule
    Scenario: Test
`, ErrUnexpectedStructure, 2)
	assert.Equal(t, "Rule is not supported", pe.Found)
}

func TestParse_NoFeatureLine(t *testing.T) {
	pe := requireParseError(t, `  Scenario: User logs in
    Given a user
`, ErrMissingFeature, 1)
	assert.Equal(t, "Feature", pe.Expected)
}

func TestParse_EmptyFile(t *testing.T) {
	requireParseError(t, "", ErrMissingFeature, 1)
}

func TestParse_OnlyComments(t *testing.T) {
	requireParseError(t, "# just a comment\n\n", ErrMissingFeature, 2)
}

func TestParse_SecondFeature(t *testing.T) {
	requireParseError(t, "Feature: One\n  Scenario: s\n    Given a\nFeature: Two\n", ErrUnexpectedStructure, 4)
}

func TestParse_StepBeforeScenario(t *testing.T) {
	requireParseError(t, "Feature: F\n  Given a\n", ErrUnexpectedStructure, 2)
}

func TestParse_TagsBeforeStep(t *testing.T) {
	requireParseError(t, "Feature: F\n  Scenario: s\n    @oops\n    Given a\n", ErrUnexpectedStructure, 4)
}

func TestParse_DanglingTags(t *testing.T) {
	requireParseError(t, "Feature: F\n  Scenario: s\n    Given a\n  @orphan\n", ErrUnexpectedStructure, 4)
}

func TestParse_FreeTextAfterSteps(t *testing.T) {
	requireParseError(t, "Feature: F\n  Scenario: s\n    Given a\n    stray text\n", ErrUnexpectedStructure, 4)
}

func TestParse_TrailingWhitespaceAndCRLF(t *testing.T) {
	f := parseOne(t, "Feature: Login   \r\n  Scenario: s\t\r\n    Given a user  \r\n")
	assert.Equal(t, "Login", f.Name())
	assert.Equal(t, "s", f.Scenarios()[0].Name())
	assert.Equal(t, []string{"a user"}, stepNames(f.Scenarios()[0]))
}

func TestParse_AccessorsReturnCopies(t *testing.T) {
	f := parseOne(t, "@a\nFeature: F\n  Scenario: s\n    Given t\n      | x |\n")
	tags := f.Tags()
	tags[0].Name = "@changed"
	assert.Equal(t, "@a", f.Tags()[0].Name)

	cells := f.Scenarios()[0].Steps()[0].Rows()[0].Cells()
	cells[0] = "changed"
	assert.Equal(t, "x", f.Scenarios()[0].Steps()[0].Rows()[0].Cells()[0])
}

func TestParse_RoundTripIdempotent(t *testing.T) {
	content := `@web
Feature: Login
  Background:
    Given a user
  @smoke
  Scenario Outline: log in as <role>
    When they log in as <role>
      """
      payload
      """
    Examples:
      | role  |
      | admin |
`
	first, err := Parse(content)
	require.NoError(t, err)
	second, err := Parse(content)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestParser_ConcurrentParses(t *testing.T) {
	p := New()
	content := "Feature: F\n  Scenario: s\n    Given a\n      | x | y |\n"
	want, err := p.Parse(content)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*Document, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc, err := p.Parse(content)
			if err == nil {
				results[i] = doc
			}
		}()
	}
	wg.Wait()
	for _, doc := range results {
		assert.Equal(t, want, doc)
	}
}

func TestParseError_IsMatchesOnlyItsKind(t *testing.T) {
	err := error(&ParseError{Kind: MalformedTableRow, Line: 3, Found: "| a"})
	assert.True(t, errors.Is(err, ErrMalformedTableRow))
	assert.False(t, errors.Is(err, ErrMissingFeature))
	assert.Equal(t, "line 3: malformed table row: | a", err.Error())
}

func BenchmarkParse(b *testing.B) {
	content := `Feature: Bench
  Background:
    Given the system is running

  Scenario: one
    Given a table
      | a | b | c |
      | 1 | 2 | 3 |
    When something happens
    Then a doc string is checked
      """
      some text
      """
`
	p := New()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := p.Parse(content); err != nil {
			b.Fatal(err)
		}
	}
}

func TestParse_ByteOrderMark(t *testing.T) {
	f := parseOne(t, "\ufeffFeature: F\n  Scenario: s\n    Given a\n")
	assert.Equal(t, "F", f.Name())
	assert.Equal(t, 1, f.Line())
}

func TestParse_TagLineWithTrailingText(t *testing.T) {
	requireParseError(t, "@a notatag\nFeature: F\n", ErrUnexpectedStructure, 1)
}

func TestParse_TableCellKeepsEdgeNewlines(t *testing.T) {
	f := parseOne(t, "Feature: F\n  Scenario: s\n    Given t\n      | a\\n | \\n |\n")
	rows := f.Scenarios()[0].Steps()[0].Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"a\n", "\n"}, rows[0].Cells())
}
