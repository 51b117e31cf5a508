// Package stub generates Go test skeletons from parsed features.
package stub

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/dave/jennifer/jen"

	"github.com/oss-specs/specs/internal/parser"
)

// Options controls generation. ImportPath, when set, is the import path of
// the generated file's package.
type Options struct {
	Package    string
	ImportPath string
	Source     string
}

// Generate writes one test function per scenario of f. Outlines become
// table-driven tests with a subtest per example row. Background steps go
// into a helper every test calls first.
func Generate(w io.Writer, f *parser.Feature, opts Options) error {
	pkg := opts.Package
	if pkg == "" {
		pkg = "features"
	}
	var file *jen.File
	if opts.ImportPath != "" {
		file = jen.NewFilePathName(opts.ImportPath, pkg)
	} else {
		file = jen.NewFile(pkg)
	}
	if opts.Source != "" {
		file.HeaderComment("Test stubs for " + opts.Source + ".")
	}

	featureID := Identifier(f.Name(), "Feature")
	names := make(map[string]bool)

	var background jen.Code
	if bg, ok := f.Background(); ok {
		helper := "background" + featureID
		file.Func().Id(helper).Params(jen.Id("t").Op("*").Qual("testing", "T")).Block(
			append([]jen.Code{jen.Id("t").Dot("Helper").Call()}, stepComments(bg.Steps())...)...,
		)
		background = jen.Id(helper).Call(jen.Id("t"))
	}

	for _, sc := range f.Scenarios() {
		if sc.Token() == parser.TokenBackground {
			continue
		}
		name := "Test" + featureID + "_" + Identifier(sc.Name(), "Scenario"+strconv.Itoa(sc.Line()))
		if names[name] {
			name += "_L" + strconv.Itoa(sc.Line())
		}
		names[name] = true

		var body []jen.Code
		if background != nil {
			body = append(body, background)
		}
		if sc.Token() == parser.TokenScenarioOutline {
			table, err := outlineBody(sc)
			if err != nil {
				return fmt.Errorf("%s: %w", sc.Name(), err)
			}
			body = append(body, table...)
		} else {
			body = append(body, stepComments(sc.Steps())...)
			body = append(body, skip())
		}

		file.Commentf("%s: %s (line %d)", sc.Keyword(), sc.Name(), sc.Line())
		file.Func().Id(name).Params(jen.Id("t").Op("*").Qual("testing", "T")).Block(body...)
	}

	return file.Render(w)
}

func outlineBody(sc *parser.Scenario) ([]jen.Code, error) {
	expanded, err := sc.Expand()
	if err != nil {
		return nil, err
	}

	var header []string
	for _, ex := range sc.Examples() {
		if h, ok := ex.Header(); ok {
			header = h.Cells()
			break
		}
	}
	fields := []jen.Code{jen.Id("name").String()}
	fieldNames := make([]string, len(header))
	for i, h := range header {
		fieldNames[i] = lowerFirst(Identifier(h, "col"+strconv.Itoa(i)))
		fields = append(fields, jen.Id(fieldNames[i]).String())
	}

	var rows []jen.Code
	i := 0
	for _, ex := range sc.Examples() {
		for _, row := range ex.Body() {
			d := jen.Dict{jen.Id("name"): jen.Lit(expanded[i].Name())}
			for j, cell := range row.Cells() {
				if j < len(fieldNames) {
					d[jen.Id(fieldNames[j])] = jen.Lit(cell)
				}
			}
			rows = append(rows, jen.Values(d))
			i++
		}
	}

	run := append(stepComments(sc.Steps()), skip())
	return []jen.Code{
		jen.Id("tests").Op(":=").Index().Struct(fields...).Values(rows...),
		jen.For(jen.List(jen.Id("_"), jen.Id("tt")).Op(":=").Range().Id("tests")).Block(
			jen.Id("t").Dot("Run").Call(
				jen.Id("tt").Dot("name"),
				jen.Func().Params(jen.Id("t").Op("*").Qual("testing", "T")).Block(run...),
			),
		),
	}, nil
}

func stepComments(steps []*parser.Step) []jen.Code {
	out := make([]jen.Code, 0, len(steps))
	for _, st := range steps {
		out = append(out, jen.Comment(st.Keyword()+" "+st.Name()))
	}
	return out
}

func skip() jen.Code {
	return jen.Id("t").Dot("Skip").Call(jen.Lit("not implemented"))
}

// Identifier turns free text into an exported Go identifier, or returns
// fallback when the text has no letters or digits.
func Identifier(s, fallback string) string {
	var b strings.Builder
	upper := true
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	id := b.String()
	if id == "" {
		return fallback
	}
	if unicode.IsDigit([]rune(id)[0]) {
		id = "N" + id
	}
	return id
}

func lowerFirst(s string) string {
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}
