// Package ast defines the grammar AST produced by the DSL parser.
//
// Every node is created once during parsing. After that, the left-recursion
// analyzer sets Rule.LeftRecursive and the static analyzer fills in
// CharClass.Chars and CharClass.Ranges; nodes are otherwise read-only.
package ast

// Pos is a source position attached to every node for diagnostics.
type Pos struct {
	Line int
	Col  int
}

// Node is implemented by every AST node.
type Node interface {
	Position() Pos
}

// base embeds the position bookkeeping shared by every node.
type base struct {
	Pos Pos
}

func (b base) Position() Pos { return b.Pos }

// Grammar is the root of the AST: an ordered list of top-level statements.
type Grammar struct {
	base
	Statements []Node
}

// NameDirective sets the parser name (%name).
type NameDirective struct {
	base
	Name string
}

// HeaderBlock carries verbatim code destined for the interface file (%hpp).
type HeaderBlock struct {
	base
	Body string
}

// CodeBlock carries verbatim code destined for the implementation file (%cpp).
type CodeBlock struct {
	base
	Body string
}

// RuleTypeDirective sets the default semantic result type (%type).
type RuleTypeDirective struct {
	base
	TypeName string
}

// RootRuleDirective names the entry rule (%root).
type RootRuleDirective struct {
	base
	Name string
}

// Context holds the five independent modifiers an Item may carry.
type Context struct {
	Name              string // capture name, empty if none
	Lookahead         bool
	LookaheadPositive bool
	Loop              bool
	LoopNonempty      bool
	Optional          bool
}

// Item is implemented by every parsing-expression item: RuleRef, String,
// CharClass, Group, Dot.
type Item interface {
	Node
	Ctx() *Context
}

type itemBase struct {
	base
	Context Context
}

func (i *itemBase) Ctx() *Context { return &i.Context }

// RuleRef references another rule by name.
type RuleRef struct {
	itemBase
	Name string
}

// String is a literal string item (already unescaped).
type String struct {
	itemBase
	Value string
}

// CharRange is an inclusive [Lo, Hi] range of runes inside a character class.
type CharRange struct {
	Lo, Hi rune
}

// CharClass is a character-class item: a union of single runes and ranges.
// Chars and Ranges preserve declaration order for duplicate/overlap diagnostics.
type CharClass struct {
	itemBase
	Raw    string // the unescaped source text, for diagnostics
	Chars  []rune
	Ranges []CharRange
}

// Group is a parenthesized sub-alternation.
type Group struct {
	itemBase
	Sequences []*Sequence
}

// Dot matches any single code point.
type Dot struct {
	itemBase
}

// Sequence is an ordered list of items, plus an optional action, an optional
// error action, and the set of positional-variable indices (1-based) the
// action references.
type Sequence struct {
	base
	Items       []Item
	Action      string // verbatim text, including braces; empty if none
	ErrorAction string // verbatim text, including braces; empty if none
	PosVars     map[int]bool
}

// HasAction reports whether the sequence carries an action block.
func (s *Sequence) HasAction() bool { return s.Action != "" }

// Rule is a named alternation of sequences.
type Rule struct {
	base
	Name           string
	Sequences      []*Sequence
	ReturnType     string // from <...>, empty if not declared
	LeftRecursive  bool   // set once by the left-recursion analyzer
}
