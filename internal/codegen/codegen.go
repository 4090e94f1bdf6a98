// Package codegen turns an analyzed grammar AST into a standalone Go parser:
// a pair of source files sharing one package, following the same split the
// DSL's %hpp/%cpp directives route verbatim code into.
package codegen

import (
	"fmt"
	"strings"

	"github.com/periwinkle-lang/periwinkle/internal/ast"
)

// Options controls the generated package's surface.
type Options struct {
	PackageName  string // defaults to "main"
	ReceiverName string // defaults to "p"
}

// Output is the pair of Go source files a Generate call produces.
type Output struct {
	TypesFile  []byte // <name>_types.go: Parser struct, public API, %hpp bodies
	ParserFile []byte // <name>_parser.go: rule bodies, runtime, %cpp bodies
}

type resultKind int

const (
	kindBool resultKind = iota
	kindExprResult
)

// Generator holds the precomputed per-rule facts (id, Go result type, whether
// it is left recursive) that every rule/expression template needs.
type Generator struct {
	gr   *ast.Grammar
	opts Options

	rules      []*ast.Rule
	ruleID     map[string]int
	ruleType   map[string]string
	rootRule   string
	parserName string
	headers    []string
	bodies     []string
}

// New builds a Generator over an already-analyzed grammar. Callers must run
// the left-recursion analyzer and static analyzer first; Generate assumes the
// grammar is valid and does not re-validate it.
func New(gr *ast.Grammar, opts Options) *Generator {
	if opts.PackageName == "" {
		opts.PackageName = "main"
	}
	if opts.ReceiverName == "" {
		opts.ReceiverName = "p"
	}
	g := &Generator{gr: gr, opts: opts, ruleID: map[string]int{}, ruleType: map[string]string{}}
	g.collect()
	return g
}

func (g *Generator) collect() {
	defaultType := ""
	for _, st := range g.gr.Statements {
		switch n := st.(type) {
		case *ast.NameDirective:
			g.parserName = n.Name
		case *ast.RuleTypeDirective:
			defaultType = n.TypeName
		case *ast.RootRuleDirective:
			g.rootRule = n.Name
		case *ast.HeaderBlock:
			g.headers = append(g.headers, n.Body)
		case *ast.CodeBlock:
			g.bodies = append(g.bodies, n.Body)
		case *ast.Rule:
			g.ruleID[n.Name] = len(g.rules)
			g.rules = append(g.rules, n)
		}
	}
	if g.rootRule == "" && len(g.rules) > 0 {
		g.rootRule = g.rules[0].Name
	}
	if g.parserName == "" {
		g.parserName = "Parser"
	}
	for _, r := range g.rules {
		g.ruleType[r.Name] = g.resolveType(r, defaultType)
	}
}

func ruleResultKind(r *ast.Rule) resultKind {
	if len(r.Sequences) == 0 {
		return kindBool
	}
	return seqResultKind(r.Sequences[0])
}

func seqResultKind(seq *ast.Sequence) resultKind {
	if !seq.HasAction() || !strings.Contains(seq.Action, "$$") {
		return kindBool
	}
	return kindExprResult
}

func (g *Generator) resolveType(r *ast.Rule, defaultType string) string {
	if r.ReturnType != "" {
		return r.ReturnType
	}
	if ruleResultKind(r) == kindBool {
		return "bool"
	}
	if defaultType != "" {
		return defaultType
	}
	return "any"
}

func (g *Generator) zeroValue(goType string) string {
	switch goType {
	case "bool":
		return "false"
	case "string":
		return `""`
	case "int", "int64", "float64":
		return "0"
	default:
		return "nil"
	}
}

// RuleStat summarizes one rule for the -stats report.
type RuleStat struct {
	Name          string
	Sequences     int
	LeftRecursive bool
	ResultType    string
}

// Stats returns one RuleStat per rule, in declaration order.
func (g *Generator) Stats() []RuleStat {
	stats := make([]RuleStat, len(g.rules))
	for i, r := range g.rules {
		stats[i] = RuleStat{
			Name:          r.Name,
			Sequences:     len(r.Sequences),
			LeftRecursive: r.LeftRecursive,
			ResultType:    g.ruleType[r.Name],
		}
	}
	return stats
}

// Generate renders the grammar into the two output source files.
func (g *Generator) Generate() (*Output, error) {
	if len(g.rules) == 0 {
		return nil, fmt.Errorf("codegen: grammar has no rules")
	}
	return &Output{
		TypesFile:  []byte(g.genTypesFile()),
		ParserFile: []byte(g.genParserFile()),
	}, nil
}

func (g *Generator) genTypesFile() string {
	var b strings.Builder
	fmt.Fprintf(&b, "// Code generated by pegc. DO NOT EDIT.\n\npackage %s\n\n", g.opts.PackageName)
	b.WriteString("import (\n\t\"fmt\"\n\t\"io\"\n\t\"os\"\n)\n\n")

	for _, h := range g.headers {
		b.WriteString(strings.TrimSpace(h))
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "// %s parses input produced by the %s grammar.\n", g.parserName, g.parserName)
	b.WriteString("type " + g.parserName + " struct {\n")
	b.WriteString("\tsrc  []rune\n")
	b.WriteString("\tfile string\n")
	b.WriteString("\tpos  int\n")
	b.WriteString("\tmemo map[int]map[int]memoEntry\n")
	b.WriteString("}\n\n")

	b.WriteString("type memoEntry struct {\n\tvalue  any\n\tok     bool\n\tendPos int\n}\n\n")

	b.WriteString("type tokenPos struct {\n\tStartLine, StartCol, EndLine, EndCol int\n}\n\n")

	b.WriteString("// parsingFail is the panic value parseError raises to abort a parse; only\n")
	b.WriteString("// the top-level entry point recovers it. Ordinary alternative backtracking\n")
	b.WriteString("// never raises it and instead returns false.\n")
	b.WriteString("type parsingFail struct{ err error }\n\n")

	fmt.Fprintf(&b, `// Parse%s parses b as a %s grammar and returns the root rule's result.
func Parse%s(file string, b []byte) (result %s, err error) {
	p := &%s{src: []rune(string(b)), file: file, memo: map[int]map[int]memoEntry{}}
	defer func() {
		if r := recover(); r != nil {
			pf, ok := r.(parsingFail)
			if !ok {
				panic(r)
			}
			err = pf.err
		}
	}()
	v, ok := p.rule%s()
	if !ok {
		return result, &ParseError{File: file, Line: 1, Col: 1, Message: "no match"}
	}
`, g.parserName, g.parserName, g.parserName, g.ruleType[g.rootRule], g.parserName, exportedName(g.rootRule))

	if g.ruleType[g.rootRule] == "bool" {
		b.WriteString("\t_ = v\n\treturn any(true).(" + g.ruleType[g.rootRule] + "), nil\n}\n\n")
	} else {
		b.WriteString("\treturn v, nil\n}\n\n")
	}

	fmt.Fprintf(&b, `// Parse%sReader parses r as a %s grammar.
func Parse%sReader(file string, r io.Reader) (%s, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		var zero %s
		return zero, err
	}
	return Parse%s(file, b)
}

`, g.parserName, g.parserName, g.parserName, g.ruleType[g.rootRule], g.ruleType[g.rootRule], g.parserName)

	fmt.Fprintf(&b, `// Parse%sFile opens and parses file as a %s grammar.
func Parse%sFile(file string) (%s, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		var zero %s
		return zero, err
	}
	return Parse%s(file, b)
}

`, g.parserName, g.parserName, g.parserName, g.ruleType[g.rootRule], g.ruleType[g.rootRule], g.parserName)

	b.WriteString("// ParseError is returned when the root rule does not match, or raised by\n")
	b.WriteString("// parseError; input left over after a successful match is not reported.\n")
	b.WriteString("type ParseError struct {\n\tFile    string\n\tLine    int\n\tCol     int\n\tMessage string\n}\n\n")
	b.WriteString("func (e *ParseError) Error() string {\n\treturn fmt.Sprintf(\"%s:%d:%d: %s\", e.File, e.Line, e.Col, e.Message)\n}\n")

	return b.String()
}

func (g *Generator) genParserFile() string {
	var b strings.Builder
	fmt.Fprintf(&b, "// Code generated by pegc. DO NOT EDIT.\n\npackage %s\n\n", g.opts.PackageName)

	if len(g.bodies) > 0 {
		fmt.Fprintf(&b, "// %%cpp blocks below; rule methods use %q as their receiver variable.\n", g.opts.ReceiverName)
	}
	for _, c := range g.bodies {
		b.WriteString(strings.TrimSpace(c))
		b.WriteString("\n\n")
	}

	b.WriteString(strings.ReplaceAll(runtimeHelpers, "parser_", g.parserName))

	for _, r := range g.rules {
		b.WriteString(g.genRule(r))
		b.WriteString("\n")
	}

	return b.String()
}

// exportedName capitalizes a rule name for use as a Go method-name suffix,
// so rule bodies read as ruleFoo / ruleFoo_ regardless of the DSL's own
// rule-naming case convention.
func exportedName(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
