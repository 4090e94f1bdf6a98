package analysis

import (
	"strings"
	"testing"

	"github.com/periwinkle-lang/periwinkle/internal/ast"
	"github.com/periwinkle-lang/periwinkle/internal/dslparser"
	"github.com/periwinkle-lang/periwinkle/internal/token"
)

func grammarOf(t *testing.T, src string) *ast.Grammar {
	t.Helper()
	toks, err := token.New("g.peg", src).Tokenize()
	if err != nil {
		t.Fatalf("tokenize error: %v", err)
	}
	gr, err := dslparser.New("g.peg", toks).Parse()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return gr
}

func TestAnalyzeValidGrammar(t *testing.T) {
	gr := grammarOf(t, `
%root Start
Start = n:Number { $$ = $1 }
Number = [0-9]+ { $$ = $1 }
`)
	if err := New("g.peg", gr).Analyze(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAnalyzeRejectsCases(t *testing.T) {
	cases := []struct {
		name    string
		src     string
		wantErr string
	}{
		{
			name:    "duplicate rule name",
			src:     `A = "x"` + "\n" + `A = "y"`,
			wantErr: "more than one definition",
		},
		{
			name:    "duplicate directive",
			src:     "%name Foo\n%name Bar\nA = \"x\"",
			wantErr: "directive has more than one definition",
		},
		{
			name:    "root names a missing rule",
			src:     "%root Missing\nA = \"x\"",
			wantErr: "non-existing rule",
		},
		{
			name:    "reference to a nonexistent rule",
			src:     `A = Bogus`,
			wantErr: "invokes a nonexistent rule",
		},
		{
			name:    "unused rule",
			src:     "A = \"x\"\nB = \"y\"",
			wantErr: "defined but not used",
		},
		{
			name:    "left-recursive rule with a single alternative",
			src:     `A = A "x"`,
			wantErr: "at least 2 sequences",
		},
		{
			name:    "variable declared without an action",
			src:     `A = n:"x"`,
			wantErr: "no action",
		},
		{
			name:    "return type declared without $$",
			src:     `A <"int"> = "x" { return 1 }`,
			wantErr: "'$$' variable",
		},
		{
			name:    "duplicate variable name",
			src:     `A = n:"x" n:"y" { $$ = $1 }`,
			wantErr: "declared multiple times",
		},
		{
			name:    "negative lookahead cannot be captured",
			src:     `A = n:!"x" { $$ = $1 }`,
			wantErr: "cannot be assigned to a variable",
		},
		{
			name:    "plain string capture is pointless",
			src:     `A = n:"x" { $$ = $1 }`,
			wantErr: "plain string cannot be assigned",
		},
		{
			name:    "mismatched return types across alternatives",
			src:     "A = \"x\" { $$ = 1 } | \"y\"",
			wantErr: "return different types",
		},
		{
			name:    "duplicate character in class",
			src:     `A = [aa]`,
			wantErr: "same characters",
		},
		{
			name:    "degenerate range",
			src:     `A = [a-a]`,
			wantErr: "same",
		},
		{
			name:    "descending range",
			src:     `A = [z-a]`,
			wantErr: "greater",
		},
		{
			name:    "character intersects a range",
			src:     `A = [a-ca]`,
			wantErr: "intersects",
		},
		{
			name:    "positional variable out of range",
			src:     `A = "x" { $$ = $2 }`,
			wantErr: "index exceeds",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gr := grammarOf(t, tc.src)
			err := New("g.peg", gr).Analyze()
			if err == nil {
				t.Fatalf("expected an error containing %q, got none", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tc.wantErr)
			}
		})
	}
}

func TestSuggestDidYouMean(t *testing.T) {
	gr := grammarOf(t, "A = Numbr\nNumber = [0-9]+")
	err := New("g.peg", gr).Analyze()
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), `did you mean "Number"?`) {
		t.Errorf("error = %q, want a did-you-mean suggestion for Number", err.Error())
	}
}

func TestCharClassRangesPopulated(t *testing.T) {
	gr := grammarOf(t, `A = [a-z0-9_]`)
	if err := New("g.peg", gr).Analyze(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rule := gr.Statements[0].(*ast.Rule)
	cc := rule.Sequences[0].Items[0].(*ast.CharClass)
	if len(cc.Ranges) != 2 {
		t.Fatalf("got %d ranges, want 2: %+v", len(cc.Ranges), cc.Ranges)
	}
	if len(cc.Chars) != 1 || cc.Chars[0] != '_' {
		t.Fatalf("got chars %+v, want ['_']", cc.Chars)
	}
}
