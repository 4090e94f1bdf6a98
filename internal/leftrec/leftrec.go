// Package leftrec detects direct left recursion in a grammar and marks the
// affected rules so the code generator can emit Warth-style seed-growing
// bodies for them instead of ordinary recursive-descent bodies.
//
// Indirect left recursion (through an intermediate rule) is not detected;
// see the grammar's own Non-goals.
package leftrec

import "github.com/periwinkle-lang/periwinkle/internal/ast"

// Analyzer marks each directly left-recursive rule in a grammar by setting
// its Rule.LeftRecursive field.
type Analyzer struct {
	rules map[string]*ast.Rule
}

// New builds an Analyzer over the grammar's rules, indexed by name.
func New(gr *ast.Grammar) *Analyzer {
	a := &Analyzer{rules: map[string]*ast.Rule{}}
	for _, st := range gr.Statements {
		if r, ok := st.(*ast.Rule); ok {
			a.rules[r.Name] = r
		}
	}
	return a
}

// Analyze sets Rule.LeftRecursive on every rule in the grammar.
func (a *Analyzer) Analyze() {
	for _, rule := range a.rules {
		rule.LeftRecursive = a.isDirectLeftRecursive(rule)
	}
}

// isDirectLeftRecursive reports whether any of the rule's alternatives can
// reach the rule itself as the first thing they consume.
func (a *Analyzer) isDirectLeftRecursive(rule *ast.Rule) bool {
	for _, seq := range rule.Sequences {
		if ref := a.firstRuleRefOrNil(seq); ref != nil && ref.Name == rule.Name {
			return true
		}
	}
	return false
}

// firstRuleRefOrNil walks a sequence's items, skipping leading items whose
// modifier lets them consume zero input (optional, lookahead, or a
// zero-or-more loop), and returns the first rule reference without such a
// modifier. It returns nil if no such rule reference is reached (a literal,
// char class, or group without such a modifier comes first). A plain
// reference to a rule that can itself match empty input is returned, not
// looked through.
func (a *Analyzer) firstRuleRefOrNil(seq *ast.Sequence) *ast.RuleRef {
	for _, item := range seq.Items {
		ctx := item.Ctx()
		zeroByModifier := ctx.Optional || ctx.Lookahead || (ctx.Loop && !ctx.LoopNonempty)
		if ref, ok := item.(*ast.RuleRef); ok && !zeroByModifier {
			return ref
		}
		if !a.isItemZeroConsuming(item) {
			break
		}
	}
	return nil
}

// isItemZeroConsuming reports whether an item can succeed without consuming
// any input: an optional item, a lookahead (which always rewinds), a loop
// that permits zero repetitions, or a reference to a rule all of whose
// alternatives can consume zero input.
func (a *Analyzer) isItemZeroConsuming(item ast.Item) bool {
	ctx := item.Ctx()
	if ctx.Optional || ctx.Lookahead || (ctx.Loop && !ctx.LoopNonempty) {
		return true
	}
	if ref, ok := item.(*ast.RuleRef); ok {
		return a.isRuleZeroConsuming(ref.Name)
	}
	return false
}

// isRuleZeroConsuming reports whether every alternative of the named rule
// is made up entirely of items that can succeed without consuming input. An
// unknown rule name (already reported by the static analyzer's
// rule-existence check) is treated as non-zero-consuming so this does not
// panic.
func (a *Analyzer) isRuleZeroConsuming(name string) bool {
	rule, ok := a.rules[name]
	if !ok {
		return false
	}
	for _, seq := range rule.Sequences {
		for _, item := range seq.Items {
			if !a.isItemZeroConsuming(item) {
				return false
			}
		}
	}
	return true
}
