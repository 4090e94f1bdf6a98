package codegen

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/periwinkle-lang/periwinkle/internal/analysis"
	"github.com/periwinkle-lang/periwinkle/internal/ast"
	"github.com/periwinkle-lang/periwinkle/internal/dslparser"
	"github.com/periwinkle-lang/periwinkle/internal/leftrec"
	"github.com/periwinkle-lang/periwinkle/internal/token"
)

// buildGrammar runs the full front end (tokenize, parse, left-recursion
// analysis, static analysis) used ahead of codegen in the real pipeline, so
// these tests exercise the same Generator inputs the driver would produce.
func buildGrammar(t *testing.T, src string) *ast.Grammar {
	t.Helper()
	toks, err := token.New("t.peg", src).Tokenize()
	if err != nil {
		t.Fatalf("tokenize error: %v", err)
	}
	gr, err := dslparser.New("t.peg", toks).Parse()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	leftrec.New(gr).Analyze()
	if err := analysis.New("t.peg", gr).Analyze(); err != nil {
		t.Fatalf("analysis error: %v", err)
	}
	return gr
}

func generate(t *testing.T, src string) (string, string) {
	t.Helper()
	gr := buildGrammar(t, src)
	out, err := New(gr, Options{PackageName: "sample"}).Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return string(out.TypesFile), string(out.ParserFile)
}

func TestGenerateSimpleRule(t *testing.T) {
	types, parser := generate(t, `A = "a"+ { $$ = 1 }`)

	for _, want := range []string{"package sample", "type Parser struct", "func ParseParser"} {
		if !strings.Contains(types, want) {
			t.Errorf("types file missing %q:\n%s", want, types)
		}
	}
	for _, want := range []string{"func (p *Parser) ruleA()", "__FAIL:", "goto __FAIL"} {
		if !strings.Contains(parser, want) {
			t.Errorf("parser file missing %q:\n%s", want, parser)
		}
	}
}

func TestGenerateBoolRuleEmitsSuccessLabel(t *testing.T) {
	_, parser := generate(t, `A = "a" "b"`)
	if !strings.Contains(parser, "__SUCCESS:") {
		t.Errorf("expected a __SUCCESS label for a bool-result rule:\n%s", parser)
	}
	if !strings.Contains(parser, "return true, true") {
		t.Errorf("expected bool rule to return true on match:\n%s", parser)
	}
}

func TestGenerateExprResultRuleOmitsSuccessLabel(t *testing.T) {
	_, parser := generate(t, `A = "a" { $$ = 1 }`)
	if strings.Contains(parser, "__SUCCESS:") {
		t.Errorf("expr-result rule should never emit __SUCCESS:\n%s", parser)
	}
	if !strings.Contains(parser, "return __ruleResult, true") {
		t.Errorf("expected an explicit return of __ruleResult:\n%s", parser)
	}
}

func TestGenerateLeftRecursiveRuleGrowsSeed(t *testing.T) {
	_, parser := generate(t, "Expr = Expr \"+\" Term { $$ = 1 } | Term { $$ = 1 }\nTerm = \"1\" { $$ = 1 }")
	if !strings.Contains(parser, "func (p *Parser) ruleExpr_()") {
		t.Errorf("expected a seed method for the left-recursive rule:\n%s", parser)
	}
	if !strings.Contains(parser, "__lastPos") || !strings.Contains(parser, "__lastResult") {
		t.Errorf("expected seed-growing loop state:\n%s", parser)
	}
}

func TestGenerateNamedStringCaptureIsBool(t *testing.T) {
	_, parser := generate(t, `A = ok:"x"? { $$ = ok }`)
	if !strings.Contains(parser, "var ok bool") {
		t.Errorf("expected an optional string capture to be typed bool:\n%s", parser)
	}
}

func TestGenerateNamedStringLoopCaptureIsInt(t *testing.T) {
	_, parser := generate(t, `A = n:"x"* { $$ = n }`)
	if !strings.Contains(parser, "var n int") {
		t.Errorf("expected a repeated string capture to be typed int:\n%s", parser)
	}
}

func TestGenerateNamedCharClassLoopConcatenates(t *testing.T) {
	_, parser := generate(t, `A = s:[0-9]* { $$ = s }`)
	if !strings.Contains(parser, "var s string") {
		t.Errorf("expected a repeated char-class capture to be typed string:\n%s", parser)
	}
	if !strings.Contains(parser, "s += string(__ch") {
		t.Errorf("expected char-class loop capture to concatenate:\n%s", parser)
	}
}

func TestGenerateNamedRuleRefLoopIsSlice(t *testing.T) {
	_, parser := generate(t, `A = xs:B* { $$ = len(xs) }
B = "b" { $$ = 1 }`)
	if !strings.Contains(parser, "var xs []any") {
		t.Errorf("expected a repeated rule-ref capture to be a slice:\n%s", parser)
	}
	if !strings.Contains(parser, "xs = append(xs, __r") {
		t.Errorf("expected rule-ref loop capture to append:\n%s", parser)
	}
}

func TestGenerateCharClassNegativeLookaheadSucceedsAtEOF(t *testing.T) {
	_, parser := generate(t, `A = ![0-9] "x" { $$ = 1 }`)
	// The negative lookahead's goto-next must be gated on "not at EOF", so
	// that reaching EOF (no digit to see) lets the lookahead succeed rather
	// than fail the alternative.
	if !strings.Contains(parser, "if !(p.pos >= len(p.src)) {") {
		t.Errorf("expected negative char-class lookahead to guard on non-EOF:\n%s", parser)
	}
}

func TestGenerateDotPositiveLookaheadCapturesChar(t *testing.T) {
	_, parser := generate(t, `A = x:&. "y" { $$ = x }`)
	if !strings.Contains(parser, "x = string(p.src[p.pos])") {
		t.Errorf("expected a positive lookahead dot capture to assign the looked-ahead character:\n%s", parser)
	}
}

func TestGenerateParseFileEntryPoint(t *testing.T) {
	types, _ := generate(t, `A = "a"+ { $$ = 1 }`)
	for _, want := range []string{"func ParseParserFile(file string) (any, error)", "os.ReadFile(file)", "\"os\""} {
		if !strings.Contains(types, want) {
			t.Errorf("types file missing %q:\n%s", want, types)
		}
	}
}

func TestGenerateCustomReceiverName(t *testing.T) {
	gr := buildGrammar(t, `A = "a"+ { $$ = 1 }`)
	out, err := New(gr, Options{PackageName: "sample", ReceiverName: "c"}).Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	parser := string(out.ParserFile)
	if !strings.Contains(parser, "func (c *Parser) ruleA()") {
		t.Errorf("expected rule methods to use the configured receiver name %q:\n%s", "c", parser)
	}
	if strings.Contains(parser, "func (p *Parser) ruleA()") {
		t.Errorf("expected no leftover default receiver name:\n%s", parser)
	}
}

func TestGeneratePositionalVarsCaptureTokenPos(t *testing.T) {
	_, parser := generate(t, `A = "x" { $$ = $1 }`)
	if !strings.Contains(parser, "tokenPos") {
		t.Errorf("expected a positional variable to produce a tokenPos capture:\n%s", parser)
	}
	if !strings.Contains(parser, "mark2pos") || !strings.Contains(parser, "closeTokenPos") {
		t.Errorf("expected mark2pos/closeTokenPos calls bracketing the item:\n%s", parser)
	}
}

func TestGenerateErrorActionFallsThroughToOriginalNext(t *testing.T) {
	_, parser := generate(t, `A = "x" { $$ = 1 } ~{ recoverSomehow() } | "y" { $$ = 2 }`)
	if !strings.Contains(parser, "_errorAction:") {
		t.Errorf("expected an error-action label:\n%s", parser)
	}
	if !strings.Contains(parser, "goto __NEXT_1") {
		t.Errorf("expected the error action to fall through to the next alternative, not loop on itself:\n%s", parser)
	}
}

func TestGenerateGroupCaptureIsFlatString(t *testing.T) {
	_, parser := generate(t, `A = g:("a" "b")* { $$ = g }`)
	if !strings.Contains(parser, "var g string") {
		t.Errorf("expected a group capture to stay a string even under a loop:\n%s", parser)
	}
}

func TestStatsReportsOneEntryPerRuleInOrder(t *testing.T) {
	gr := buildGrammar(t, "A = B { $$ = 1 }\nB = \"b\" \"b\" { $$ = 1 }")
	got := New(gr, Options{PackageName: "sample"}).Stats()
	want := []RuleStat{
		{Name: "A", Sequences: 1, LeftRecursive: false, ResultType: "any"},
		{Name: "B", Sequences: 1, LeftRecursive: false, ResultType: "any"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Stats() mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateNoRulesErrors(t *testing.T) {
	gr := &ast.Grammar{}
	if _, err := New(gr, Options{}).Generate(); err == nil {
		t.Fatal("expected an error generating from a grammar with no rules")
	}
}
