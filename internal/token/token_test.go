package token

import (
	"testing"
)

func TestTokenizeKinds(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want []Kind
	}{
		{
			name: "simple rule",
			src:  `A = "a" [0-9]+ . { return 1 }`,
			want: []Kind{IDENT, EQUAL, STRING, CHARCLASS, PLUS, DOT, ACTION},
		},
		{
			name: "comment is discarded",
			src:  "# a comment\nA = .",
			want: []Kind{IDENT, EQUAL, DOT},
		},
		{
			name: "directives",
			src:  `%name Foo` + "\n" + `%root Start`,
			want: []Kind{PERCENT, IDENT, IDENT, PERCENT, IDENT, IDENT},
		},
		{
			name: "operators",
			src:  `A = &B !C D? E* F+ (G | H) n:I`,
			want: []Kind{
				IDENT, EQUAL, AMP, IDENT, BANG, IDENT, IDENT, QUESTION, IDENT, STAR,
				IDENT, PLUS, LPAREN, IDENT, PIPE, IDENT, RPAREN, IDENT, COLON, IDENT,
			},
		},
		{
			name: "rule type block",
			src:  `A <"int"> = "x"`,
			want: []Kind{IDENT, RULE_TYPE, EQUAL, STRING},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			toks, err := New(tc.name, tc.src).Tokenize()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(toks) != len(tc.want) {
				t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(tc.want), toks)
			}
			for i, k := range tc.want {
				if toks[i].Kind != k {
					t.Errorf("token %d kind = %v, want %v (lexeme %q)", i, toks[i].Kind, k, toks[i].Lexeme)
				}
			}
		})
	}
}

func TestTokenizeCodeSectionVsAction(t *testing.T) {
	toks, err := New("t", `%cpp { int x = 1; } A = "a" { return x; }`).Tokenize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var kinds []Kind
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	want := []Kind{PERCENT, IDENT, CODE_SECTION, IDENT, EQUAL, STRING, ACTION}
	if len(kinds) != len(want) {
		t.Fatalf("got %d tokens %v, want %d %v", len(kinds), kinds, len(want), want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("token %d kind = %v, want %v", i, kinds[i], want[i])
		}
	}
	if toks[2].Lexeme != " int x = 1; " {
		t.Errorf("code section lexeme = %q", toks[2].Lexeme)
	}
}

func TestTokenizeNestedBraces(t *testing.T) {
	toks, err := New("t", `A = "a" { if x { return 1 } return 2 }`).Tokenize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	action := toks[len(toks)-1]
	if action.Kind != ACTION {
		t.Fatalf("last token kind = %v, want ACTION", action.Kind)
	}
	if action.Lexeme != `{ if x { return 1 } return 2 }` {
		t.Errorf("action lexeme = %q", action.Lexeme)
	}
}

func TestTokenizeUnterminatedActionErrors(t *testing.T) {
	_, err := New("t", `A = "a" { return 1`).Tokenize()
	if err == nil {
		t.Fatal("expected an error for an unterminated action block")
	}
}

func TestTokenizeUnknownCharacterErrors(t *testing.T) {
	_, err := New("t", `A = @`).Tokenize()
	if err == nil {
		t.Fatal("expected an error for an unrecognized character")
	}
}

func TestUnescape(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`a\nb`, "a\nb"},
		{`a\\b`, `a\b`},
		{`a\tb`, "a\tb"},
		{`plain`, "plain"},
	}
	for _, tc := range cases {
		got := Unescape(tc.in, nil)
		if got != tc.want {
			t.Errorf("Unescape(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestUnescapeCharClassExtras(t *testing.T) {
	got := Unescape(`a\[b\]c`, CharClassExtraEscapes)
	want := "a[b]c"
	if got != want {
		t.Errorf("Unescape = %q, want %q", got, want)
	}
}

func TestStripOuter(t *testing.T) {
	if got := StripOuter(`"abc"`); got != "abc" {
		t.Errorf("StripOuter = %q, want abc", got)
	}
}
