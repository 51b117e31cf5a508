package parser

import (
	"fmt"
	"sort"
	"strings"

	gherkin "github.com/cucumber/gherkin/go/v26"
)

// Keywords is the vocabulary the scanner recognizes. Structural keywords are
// matched when followed by ":"; step keywords are matched as written, so a
// trailing space is part of the keyword ("Given ").
type Keywords struct {
	Language        string
	Feature         []string
	Background      []string
	Scenario        []string
	ScenarioOutline []string
	Examples        []string
	Rule            []string
	Steps           []string

	structural []structuralKeyword
	steps      []string
}

type structuralKeyword struct {
	text string
	kind KeywordKind
}

// KeywordKind identifies which structural keyword a line opened with.
type KeywordKind int

const (
	KeywordFeature KeywordKind = iota + 1
	KeywordBackground
	KeywordScenario
	KeywordScenarioOutline
	KeywordExamples
	KeywordRule
)

func (k KeywordKind) String() string {
	switch k {
	case KeywordFeature:
		return "Feature"
	case KeywordBackground:
		return "Background"
	case KeywordScenario:
		return "Scenario"
	case KeywordScenarioOutline:
		return "Scenario Outline"
	case KeywordExamples:
		return "Examples"
	case KeywordRule:
		return "Rule"
	default:
		return "keyword"
	}
}

// DefaultKeywords returns the English keyword set.
func DefaultKeywords() *Keywords {
	return compileKeywords(&Keywords{
		Language:        "en",
		Feature:         []string{"Feature"},
		Background:      []string{"Background"},
		Scenario:        []string{"Scenario", "Example"},
		ScenarioOutline: []string{"Scenario Outline", "Scenario Template"},
		Examples:        []string{"Examples", "Scenarios"},
		Rule:            []string{"Rule"},
		Steps:           []string{"Given ", "When ", "Then ", "And ", "But ", "* "},
	})
}

// KeywordsFor builds a keyword set from the built-in Gherkin dialect for lang.
func KeywordsFor(lang string) (*Keywords, error) {
	if lang == "" || lang == "en" {
		return DefaultKeywords(), nil
	}
	dialect := gherkin.DialectsBuiltin().GetDialect(lang)
	if dialect == nil {
		return nil, fmt.Errorf("unknown language %q", lang)
	}
	kw := &Keywords{
		Language:        lang,
		Feature:         dialect.Keywords["feature"],
		Background:      dialect.Keywords["background"],
		Scenario:        dialect.Keywords["scenario"],
		ScenarioOutline: dialect.Keywords["scenarioOutline"],
		Examples:        dialect.Keywords["examples"],
		Rule:            dialect.Keywords["rule"],
	}
	for _, key := range []string{"given", "when", "then", "and", "but"} {
		kw.Steps = append(kw.Steps, dialect.Keywords[key]...)
	}
	return compileKeywords(kw), nil
}

func compileKeywords(kw *Keywords) *Keywords {
	add := func(kind KeywordKind, words []string) {
		for _, w := range words {
			kw.structural = append(kw.structural, structuralKeyword{text: w + ":", kind: kind})
		}
	}
	add(KeywordFeature, kw.Feature)
	add(KeywordBackground, kw.Background)
	add(KeywordScenario, kw.Scenario)
	add(KeywordScenarioOutline, kw.ScenarioOutline)
	add(KeywordExamples, kw.Examples)
	add(KeywordRule, kw.Rule)
	sort.SliceStable(kw.structural, func(i, j int) bool {
		return len(kw.structural[i].text) > len(kw.structural[j].text)
	})

	seen := make(map[string]bool)
	for _, s := range kw.Steps {
		if !seen[s] {
			kw.steps = append(kw.steps, s)
			seen[s] = true
		}
	}
	sort.SliceStable(kw.steps, func(i, j int) bool {
		return len(kw.steps[i]) > len(kw.steps[j])
	})
	return kw
}

// matchStructural reports the keyword a trimmed line starts with, and the
// title that follows its colon.
func (kw *Keywords) matchStructural(trimmed string) (kind KeywordKind, keyword, title string, ok bool) {
	for _, s := range kw.structural {
		if strings.HasPrefix(trimmed, s.text) {
			return s.kind, strings.TrimSuffix(s.text, ":"), strings.TrimSpace(trimmed[len(s.text):]), true
		}
	}
	return 0, "", "", false
}

// matchStep reports the step keyword a trimmed line starts with.
func (kw *Keywords) matchStep(trimmed string) (keyword, text string, ok bool) {
	for _, s := range kw.steps {
		if strings.HasPrefix(trimmed, s) {
			return strings.TrimSpace(s), strings.TrimSpace(trimmed[len(s):]), true
		}
		// "Given" alone on a line has no trailing space to match.
		if trimmed == strings.TrimSpace(s) && trimmed != "" {
			return trimmed, "", true
		}
	}
	return "", "", false
}
