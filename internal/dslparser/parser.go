// Package dslparser implements the backtracking recursive-descent parser for
// the grammar DSL. It consumes the token stream produced by internal/token
// and produces a grammar AST (internal/ast).
package dslparser

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/periwinkle-lang/periwinkle/internal/ast"
	"github.com/periwinkle-lang/periwinkle/internal/diag"
	"github.com/periwinkle-lang/periwinkle/internal/token"
)

// errFail is the backtracking control-flow signal: it means "this
// alternative did not match", never "the grammar is malformed". It is
// distinct from a fatal *diag.GrammarError.
var errFail = errors.New("no match")

// Parser is a backtracking recursive-descent parser over a fixed token
// stream. Its only primitive beyond ordinary recursive descent is the
// mark/reset pair used by the attempt helper to implement ordered choice.
type Parser struct {
	file string
	toks []token.Token
	pos  int
}

// New creates a Parser over toks, attributing diagnostics to file.
func New(file string, toks []token.Token) *Parser {
	return &Parser{file: file, toks: toks}
}

// Parse parses the full token stream into a Grammar. It never returns a
// partial AST: either the whole grammar parses, or a single *diag.GrammarError
// is returned.
func (p *Parser) Parse() (*ast.Grammar, error) {
	var stmts []ast.Node
	for {
		st, err := p.statement()
		if err != nil {
			if errors.Is(err, errFail) {
			break
			}
			return nil, err
		}
		stmts = append(stmts, st)
	}
	if p.pos != len(p.toks) {
		return nil, p.syntaxError("parsing fail")
	}
	return &ast.Grammar{Statements: stmts}, nil
}

// attempt runs fn from the current mark; on errFail it restores the mark so
// the caller may try the next alternative.
func attempt[T any](p *Parser, fn func() (T, error)) (T, error) {
	mark := p.pos
	v, err := fn()
	if err != nil && errors.Is(err, errFail) {
		p.pos = mark
	}
	return v, err
}

func (p *Parser) statement() (ast.Node, error) {
	if n, err := attempt(p, p.nameStatement); err == nil {
		return n, nil
	} else if !errors.Is(err, errFail) {
		return nil, err
	}
	if n, err := attempt(p, p.headerStatement); err == nil {
		return n, nil
	} else if !errors.Is(err, errFail) {
		return nil, err
	}
	if n, err := attempt(p, p.codeStatement); err == nil {
		return n, nil
	} else if !errors.Is(err, errFail) {
		return nil, err
	}
	if n, err := attempt(p, p.ruleTypeStatement); err == nil {
		return n, nil
	} else if !errors.Is(err, errFail) {
		return nil, err
	}
	if n, err := attempt(p, p.rootRuleStatement); err == nil {
		return n, nil
	} else if !errors.Is(err, errFail) {
		return nil, err
	}
	if n, err := attempt(p, p.ruleStatement); err == nil {
		return n, nil
	} else if !errors.Is(err, errFail) {
		return nil, err
	}
	return nil, errFail
}

func (p *Parser) nameStatement() (ast.Node, error) {
	if _, err := p.match(token.PERCENT); err != nil {
		return nil, err
	}
	id, err := p.match(token.IDENT)
	if err != nil {
		return nil, err
	}
	if id.Lexeme != "name" {
		return nil, errFail
	}
	id2, err := p.match(token.IDENT)
	if err != nil {
		return nil, err
	}
	n := &ast.NameDirective{Name: id2.Lexeme}
	n.Pos = posOf(id2)
	return n, nil
}

func (p *Parser) headerStatement() (ast.Node, error) {
	pct, err := p.match(token.PERCENT)
	if err != nil {
		return nil, err
	}
	id, err := p.match(token.IDENT)
	if err != nil {
		return nil, err
	}
	if id.Lexeme != "hpp" {
		return nil, errFail
	}
	code, err := p.match(token.CODE_SECTION)
	if err != nil {
		return nil, err
	}
	h := &ast.HeaderBlock{Body: code.Lexeme}
	h.Pos = posOf(pct)
	return h, nil
}

func (p *Parser) codeStatement() (ast.Node, error) {
	if _, err := p.match(token.PERCENT); err != nil {
		return nil, err
	}
	id, err := p.match(token.IDENT)
	if err != nil {
		return nil, err
	}
	if id.Lexeme != "cpp" {
		return nil, errFail
	}
	code, err := p.match(token.CODE_SECTION)
	if err != nil {
		return nil, err
	}
	c := &ast.CodeBlock{Body: code.Lexeme}
	c.Pos = posOf(code)
	return c, nil
}

func (p *Parser) ruleTypeStatement() (ast.Node, error) {
	if _, err := p.match(token.PERCENT); err != nil {
		return nil, err
	}
	id, err := p.match(token.IDENT)
	if err != nil {
		return nil, err
	}
	if id.Lexeme != "type" {
		return nil, errFail
	}
	str, err := p.match(token.STRING)
	if err != nil {
		return nil, err
	}
	rt := &ast.RuleTypeDirective{TypeName: token.StripOuter(str.Lexeme)}
	rt.Pos = posOf(str)
	return rt, nil
}

func (p *Parser) rootRuleStatement() (ast.Node, error) {
	if _, err := p.match(token.PERCENT); err != nil {
		return nil, err
	}
	id, err := p.match(token.IDENT)
	if err != nil {
		return nil, err
	}
	if id.Lexeme != "root" {
		return nil, errFail
	}
	id2, err := p.match(token.IDENT)
	if err != nil {
		return nil, err
	}
	rr := &ast.RootRuleDirective{Name: id2.Lexeme}
	rr.Pos = posOf(id2)
	return rr, nil
}

func (p *Parser) ruleStatement() (ast.Node, error) {
	name, err := p.match(token.IDENT)
	if err != nil {
		return nil, err
	}
	rtype := p.optional(token.RULE_TYPE)
	if _, err := p.match(token.EQUAL); err != nil {
		return nil, err
	}
	seqs, err := loop(p, true, p.parsingExpression)
	if err != nil {
		return nil, err
	}
	rule := &ast.Rule{Name: name.Lexeme, Sequences: seqs}
	rule.Pos = posOf(name)
	if rtype != nil {
		rule.ReturnType = stripAngles(rtype.Lexeme)
	}
	return rule, nil
}

// parsingExpression parses one alternative: an item sequence, an optional
// action, and an optional error action.
func (p *Parser) parsingExpression() (*ast.Sequence, error) {
	items, err := p.parsingExpressionSeq()
	if err != nil {
		return nil, err
	}
	action := p.optional(token.ACTION)
	errAction, err := p.errorAction()
	if err != nil {
		return nil, err
	}
	seq := &ast.Sequence{Items: items, PosVars: map[int]bool{}}
	if action != nil {
		seq.Action = action.Lexeme
		for _, m := range posVarRe.FindAllStringSubmatch(action.Lexeme, -1) {
			var k int
			fmt.Sscanf(m[1], "%d", &k)
			seq.PosVars[k] = true
		}
	}
	if errAction != nil {
		seq.ErrorAction = errAction.Lexeme
	}
	seq.Pos = items[0].Position()
	return seq, nil
}

var posVarRe = regexp.MustCompile(`\$([1-9][0-9]*)`)

func (p *Parser) errorAction() (*token.Token, error) {
	mark := p.pos
	if _, err := p.match(token.TILDE); err != nil {
		p.pos = mark
		return nil, nil
	}
	act, err := p.match(token.ACTION)
	if err != nil {
		return nil, err
	}
	return &act, nil
}

// parsingExpressionSeq parses one "| "-delimited alternative's item list:
// either the first alternative in a rule (no leading pipe) or a subsequent
// one (leading pipe).
func (p *Parser) parsingExpressionSeq() ([]ast.Item, error) {
	if items, err := attempt(p, func() ([]ast.Item, error) {
		return loop(p, true, p.namedItemOrItem)
	}); err == nil {
		return items, nil
	} else if !errors.Is(err, errFail) {
		return nil, err
	}
	if _, err := p.match(token.PIPE); err != nil {
		return nil, err
	}
	return loop(p, true, p.namedItemOrItem)
}

func (p *Parser) namedItemOrItem() (ast.Item, error) {
	if item, err := attempt(p, func() (ast.Item, error) {
		id, err := p.match(token.IDENT)
		if err != nil {
			return nil, err
		}
		if _, err := p.match(token.COLON); err != nil {
			return nil, err
		}
		item, err := p.item()
		if err != nil {
			return nil, err
		}
		item.Ctx().Name = id.Lexeme
		return item, nil
	}); err == nil {
		return item, nil
	} else if !errors.Is(err, errFail) {
		return nil, err
	}
	return p.item()
}

func (p *Parser) item() (ast.Item, error) {
	if item, err := attempt(p, func() (ast.Item, error) {
		atom, err := p.atom()
		if err != nil {
			return nil, err
		}
		if _, err := p.match(token.PLUS); err != nil {
			return nil, err
		}
		atom.Ctx().Loop = true
		atom.Ctx().LoopNonempty = true
		return atom, nil
	}); err == nil {
		return item, nil
	} else if !errors.Is(err, errFail) {
		return nil, err
	}
	if item, err := attempt(p, func() (ast.Item, error) {
		atom, err := p.atom()
		if err != nil {
			return nil, err
		}
		if _, err := p.match(token.STAR); err != nil {
			return nil, err
		}
		atom.Ctx().Loop = true
		atom.Ctx().LoopNonempty = false
		return atom, nil
	}); err == nil {
		return item, nil
	} else if !errors.Is(err, errFail) {
		return nil, err
	}
	if item, err := attempt(p, func() (ast.Item, error) {
		atom, err := p.atom()
		if err != nil {
			return nil, err
		}
		if _, err := p.match(token.QUESTION); err != nil {
			return nil, err
		}
		atom.Ctx().Optional = true
		return atom, nil
	}); err == nil {
		return item, nil
	} else if !errors.Is(err, errFail) {
		return nil, err
	}
	if item, err := attempt(p, p.atom); err == nil {
		return item, nil
	} else if !errors.Is(err, errFail) {
		return nil, err
	}
	if item, err := attempt(p, func() (ast.Item, error) {
		if _, err := p.match(token.AMP); err != nil {
			return nil, err
		}
		atom, err := p.atom()
		if err != nil {
			return nil, err
		}
		atom.Ctx().Lookahead = true
		atom.Ctx().LookaheadPositive = true
		return atom, nil
	}); err == nil {
		return item, nil
	} else if !errors.Is(err, errFail) {
		return nil, err
	}
	if item, err := attempt(p, func() (ast.Item, error) {
		if _, err := p.match(token.BANG); err != nil {
			return nil, err
		}
		atom, err := p.atom()
		if err != nil {
			return nil, err
		}
		atom.Ctx().Lookahead = true
		atom.Ctx().LookaheadPositive = false
		return atom, nil
	}); err == nil {
		return item, nil
	} else if !errors.Is(err, errFail) {
		return nil, err
	}
	return nil, errFail
}

// atom parses a rule reference, string, group, character class, or dot. A
// rule reference uses a two-token negative lookahead so that the identifier
// beginning the next rule is not stolen by the current rule's sequence.
func (p *Parser) atom() (ast.Item, error) {
	if item, err := attempt(p, func() (ast.Item, error) {
		id, err := p.match(token.IDENT)
		if err != nil {
			return nil, err
		}
		if err := p.negativeLookahead(token.EQUAL); err != nil {
			return nil, err
		}
		if err := p.negativeLookahead(token.RULE_TYPE); err != nil {
			return nil, err
		}
		r := &ast.RuleRef{Name: id.Lexeme}
		r.Pos = posOf(id)
		return r, nil
	}); err == nil {
		return item, nil
	} else if !errors.Is(err, errFail) {
		return nil, err
	}
	if item, err := attempt(p, func() (ast.Item, error) {
		str, err := p.match(token.STRING)
		if err != nil {
			return nil, err
		}
		value := token.Unescape(token.StripOuter(str.Lexeme), nil)
		strNode := &ast.String{Value: value}
		strNode.Pos = posOf(str)
		return strNode, nil
	}); err == nil {
		return item, nil
	} else if !errors.Is(err, errFail) {
		return nil, err
	}
	if item, err := attempt(p, func() (ast.Item, error) {
		lpar, err := p.match(token.LPAREN)
		if err != nil {
			return nil, err
		}
		seqs, err := loop(p, true, p.parsingExpression)
		if err != nil {
			return nil, err
		}
		if _, err := p.match(token.RPAREN); err != nil {
			return nil, err
		}
		g := &ast.Group{Sequences: seqs}
		g.Pos = posOf(lpar)
		return g, nil
	}); err == nil {
		return item, nil
	} else if !errors.Is(err, errFail) {
		return nil, err
	}
	if item, err := attempt(p, func() (ast.Item, error) {
		cc, err := p.match(token.CHARCLASS)
		if err != nil {
			return nil, err
		}
		raw := token.Unescape(token.StripOuter(cc.Lexeme), token.CharClassExtraEscapes)
		ccNode := &ast.CharClass{Raw: raw}
		ccNode.Pos = posOf(cc)
		return ccNode, nil
	}); err == nil {
		return item, nil
	} else if !errors.Is(err, errFail) {
		return nil, err
	}
	if item, err := attempt(p, func() (ast.Item, error) {
		dot, err := p.match(token.DOT)
		if err != nil {
			return nil, err
		}
		d := &ast.Dot{}
		d.Pos = posOf(dot)
		return d, nil
	}); err == nil {
		return item, nil
	} else if !errors.Is(err, errFail) {
		return nil, err
	}
	return nil, errFail
}

// --- low-level token helpers ---

func (p *Parser) peekToken() *token.Token {
	if p.pos < len(p.toks) {
		return &p.toks[p.pos]
	}
	return nil
}

func (p *Parser) match(k token.Kind) (token.Token, error) {
	tok := p.peekToken()
	if tok != nil && tok.Kind == k {
		p.pos++
		return *tok, nil
	}
	return token.Token{}, errFail
}

func (p *Parser) optional(k token.Kind) *token.Token {
	tok := p.peekToken()
	if tok != nil && tok.Kind == k {
		p.pos++
		return tok
	}
	return nil
}

func (p *Parser) negativeLookahead(k token.Kind) error {
	tok := p.peekToken()
	if tok != nil && tok.Kind == k {
		return errFail
	}
	return nil
}

// loop repeats fn until it fails, requiring at least `nonempty` (0 or 1)
// successes.
func loop[T any](p *Parser, nonempty bool, fn func() (T, error)) ([]T, error) {
	var out []T
	for {
		v, err := attempt(p, fn)
		if err != nil {
			if errors.Is(err, errFail) {
			break
			}
			return nil, err
		}
		out = append(out, v)
	}
	if nonempty && len(out) == 0 {
		return nil, errFail
	}
	return out, nil
}

func (p *Parser) syntaxError(message string) error {
	if p.pos < len(p.toks) {
		t := p.toks[p.pos]
		return &diag.GrammarError{File: p.file, Line: t.Line, Col: t.Col, Message: fmt.Sprintf("%s, token: %q", message, t.Lexeme)}
	}
	return &diag.GrammarError{File: p.file, Message: message}
}

func posOf(t token.Token) ast.Pos { return ast.Pos{Line: t.Line, Col: t.Col} }

// stripAngles removes the enclosing '<' '>' delimiters from a RULE_TYPE
// token's lexeme.
func stripAngles(s string) string {
	if len(s) < 2 {
		return s
	}
	return s[1 : len(s)-1]
}
