// Package analysis implements the fourteen grammar-wide invariant checks
// that run after parsing, in the fixed order the teacher's generator runs
// its own static checks. Left-recursion marking happens partway through
// that order, right after the unused-rules check.
package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/periwinkle-lang/periwinkle/internal/ast"
	"github.com/periwinkle-lang/periwinkle/internal/diag"
	"github.com/periwinkle-lang/periwinkle/internal/leftrec"
)

// Analyzer runs the fixed sequence of grammar-wide checks over a parsed
// grammar. It mutates the grammar in two ways only: by delegating to
// leftrec.Analyzer at the point in the sequence where left recursion must
// be known (after the unused-rules check, before the checks that depend on
// it), and by filling in each top-level CharClass item's Chars and Ranges
// from its Raw text during the character-class check.
type Analyzer struct {
	file         string
	gr           *ast.Grammar
	rootRuleName string
}

// New builds an Analyzer. rootRuleName is resolved from the grammar's
// %root directive, falling back to the first declared rule, matching the
// teacher's "first rule is the default root" convention.
func New(file string, gr *ast.Grammar) *Analyzer {
	a := &Analyzer{file: file, gr: gr}
	if root := a.rootDirective(); root != nil {
		a.rootRuleName = root.Name
	} else if first := a.firstRule(); first != nil {
		a.rootRuleName = first.Name
	}
	return a
}

// Analyze runs every check in order and returns the first failure. This
// matches the teacher's fail-fast behavior: diagnostics are not
// accumulated across unrelated checks, except within unused-rules, which
// batches one message per unused rule into a single diag.List.
func (a *Analyzer) Analyze() error {
	checks := []func() error{
		a.rulesPresence,
		a.sameRuleNames,
		a.checkDirectives,
		a.checkRuleNameInRootDirective,
		a.ruleNotExistButUsed,
		a.unusedRules,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}

	leftrec.New(a.gr).Analyze() // only after the unused-rules check

	checks = []func() error{
		a.wrongLeftRecursiveRules,
		a.checkActionPresence,
		a.sameVarNamesInSequence,
		a.groupWithRepetitionHasVarsInside,
		a.lookaheadFalseAssignedToVar,
		a.stringAssignedToVar,
		a.checkReturnTypesMatch,
		a.checkCharactersInsideCharClass,
		a.checkPositionVarsInAction,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

// --- check 1: at least one rule is defined ---

func (a *Analyzer) rulesPresence() error {
	if a.firstRule() == nil {
		return a.err(0, "no rule is defined")
	}
	return nil
}

// --- check 2: no duplicate rule names ---

func (a *Analyzer) sameRuleNames() error {
	names := a.ruleNames()
	for i := 0; i < len(names)-1; i++ {
		for j := i + 1; j < len(names); j++ {
			if names[i] == names[j] {
				return a.err(0, "rule %q has more than one definition", names[i])
			}
		}
	}
	return nil
}

// --- check 3: each directive appears at most once ---

func (a *Analyzer) checkDirectives() error {
	counts := map[string]int{}
	for _, st := range a.gr.Statements {
		switch st.(type) {
		case *ast.NameDirective:
			counts["name"]++
		case *ast.HeaderBlock:
			counts["hpp"]++
		case *ast.CodeBlock:
			counts["cpp"]++
		case *ast.RuleTypeDirective:
			counts["type"]++
		case *ast.RootRuleDirective:
			counts["root"]++
		}
	}
	for _, name := range []string{"name", "hpp", "cpp", "type", "root"} {
		if counts[name] > 1 {
			return a.err(0, "the '%%%s' directive has more than one definition", name)
		}
	}
	return nil
}

// --- check 4: %root names an existing rule ---

func (a *Analyzer) checkRuleNameInRootDirective() error {
	root := a.rootDirective()
	if root == nil {
		return nil
	}
	names := a.ruleNames()
	for _, n := range names {
		if n == root.Name {
			return nil
		}
	}
	return a.errAt(root.Position(), "the directive '%%root' contains a non-existing rule: %q%s", root.Name, a.suggest(root.Name, names))
}

// --- check 5: every referenced rule exists ---

func (a *Analyzer) ruleNotExistButUsed() error {
	names := a.ruleNames()
	nameSet := toSet(names)
	var check func(rule *ast.Rule, items []ast.Item) error
	check = func(rule *ast.Rule, items []ast.Item) error {
		for _, item := range items {
			if g, ok := item.(*ast.Group); ok {
				for _, gs := range g.Sequences {
					if err := check(rule, gs.Items); err != nil {
						return err
					}
				}
				continue
			}
			ref, ok := item.(*ast.RuleRef)
			if !ok {
				continue
			}
			if _, exists := nameSet[ref.Name]; !exists {
				return a.errAt(ref.Position(), "the '%s' rule invokes a nonexistent rule '%s'%s", rule.Name, ref.Name, a.suggest(ref.Name, names))
			}
		}
		return nil
	}
	for _, st := range a.gr.Statements {
		rule, ok := st.(*ast.Rule)
		if !ok {
			continue
		}
		for _, seq := range rule.Sequences {
			if err := check(rule, seq.Items); err != nil {
				return err
			}
		}
	}
	return nil
}

// --- check 6: every declared rule is reachable from the root rule ---

func (a *Analyzer) unusedRules() error {
	root := a.ruleByName(a.rootRuleName)
	if root == nil {
		return nil // already reported by rulesPresence/checkRuleNameInRootDirective
	}
	checked := map[string]bool{}
	used := map[string]bool{root.Name: true}
	var visit func(r *ast.Rule)
	var visitItems func(items []ast.Item)
	visitItems = func(items []ast.Item) {
		for _, item := range items {
			if g, ok := item.(*ast.Group); ok {
				for _, gs := range g.Sequences {
					visitItems(gs.Items)
				}
				continue
			}
			ref, ok := item.(*ast.RuleRef)
			if !ok || used[ref.Name] {
				continue
			}
			used[ref.Name] = true
			if next := a.ruleByName(ref.Name); next != nil {
				visit(next)
			}
		}
	}
	visit = func(r *ast.Rule) {
		if checked[r.Name] {
			return
		}
		checked[r.Name] = true
		for _, seq := range r.Sequences {
			visitItems(seq.Items)
		}
	}
	visit(root)

	var unused []*ast.Rule
	for _, st := range a.gr.Statements {
		rule, ok := st.(*ast.Rule)
		if !ok || used[rule.Name] {
			continue
		}
		unused = append(unused, rule)
	}
	if len(unused) == 0 {
		return nil
	}
	sort.Slice(unused, func(i, j int) bool { return unused[i].Name < unused[j].Name })
	var list diag.List
	for _, rule := range unused {
		list = append(list, &diag.GrammarError{
			File: a.file, Line: rule.Position().Line, Col: rule.Position().Col,
			Message: fmt.Sprintf("rule '%s' defined but not used", rule.Name),
		})
	}
	return list
}

// --- check 7: a left-recursive rule needs at least two alternatives ---

func (a *Analyzer) wrongLeftRecursiveRules() error {
	for _, st := range a.gr.Statements {
		rule, ok := st.(*ast.Rule)
		if !ok || !rule.LeftRecursive {
			continue
		}
		if len(rule.Sequences) == 1 {
			return a.errAt(rule.Position(), "in the '%s' rule, a left-recursive rule must have at least 2 sequences of expressions", rule.Name)
		}
	}
	return nil
}

// --- check 8: a sequence that declares variables has an action ---

func (a *Analyzer) checkActionPresence() error {
	for _, st := range a.gr.Statements {
		rule, ok := st.(*ast.Rule)
		if !ok {
			continue
		}
		ruleTyped := rule.ReturnType != ""
		for _, seq := range rule.Sequences {
			if sequenceDeclaresVars(seq) && !seq.HasAction() {
				return a.errAt(seq.Position(), "in the '%s' rule, variables are declared, but there is no action", rule.Name)
			}
			if ruleTyped {
				if !seq.HasAction() {
					return a.errAt(seq.Position(), "in the '%s' rule, the return type is defined, but the action not specified", rule.Name)
				}
				if !strings.Contains(seq.Action, "$$") {
					return a.errAt(seq.Position(), "in the '%s' rule, the return type is defined, but the '$$' variable in the action is not", rule.Name)
				}
			}
		}
	}
	return nil
}

func sequenceDeclaresVars(seq *ast.Sequence) bool {
	for _, item := range seq.Items {
		if g, ok := item.(*ast.Group); ok && len(varsFromGroup(g)) > 0 {
			return true
		}
		if item.Ctx().Name != "" {
			return true
		}
	}
	return false
}

// --- check 9: no variable name declared twice in one sequence ---

func (a *Analyzer) sameVarNamesInSequence() error {
	for _, st := range a.gr.Statements {
		rule, ok := st.(*ast.Rule)
		if !ok {
			continue
		}
		for _, seq := range rule.Sequences {
			seen := map[string]bool{}
			for _, item := range seq.Items {
				if g, ok := item.(*ast.Group); ok {
					for _, v := range varsFromGroup(g) {
						if seen[v] {
							return a.errAt(seq.Position(), "in the '%s' rule, variable '%s' is declared multiple times", rule.Name, v)
						}
						seen[v] = true
					}
				}
				if v := item.Ctx().Name; v != "" {
					if seen[v] {
						return a.errAt(seq.Position(), "in the '%s' rule, variable '%s' is declared multiple times", rule.Name, v)
					}
					seen[v] = true
				}
			}
		}
	}
	return nil
}

// --- check 10: a repeated group may not capture variables ---

func (a *Analyzer) groupWithRepetitionHasVarsInside() error {
	for _, st := range a.gr.Statements {
		rule, ok := st.(*ast.Rule)
		if !ok {
			continue
		}
		for _, seq := range rule.Sequences {
			for _, item := range seq.Items {
				g, ok := item.(*ast.Group)
				if !ok {
					continue
				}
				if g.Ctx().Loop && len(varsFromGroup(g)) > 0 {
					return a.errAt(g.Position(), "in the '%s' rule, the group uses variables inside itself and repetition operators simultaneously", rule.Name)
				}
			}
		}
	}
	return nil
}

// --- check 11: a negative lookahead cannot be captured ---

func (a *Analyzer) lookaheadFalseAssignedToVar() error {
	for _, st := range a.gr.Statements {
		rule, ok := st.(*ast.Rule)
		if !ok {
			continue
		}
		for _, seq := range rule.Sequences {
			for _, item := range seq.Items {
				ctx := item.Ctx()
				if ctx.Lookahead && !ctx.LookaheadPositive && ctx.Name != "" {
					return a.errAt(item.Position(), "in the '%s' rule, a parsing expression with the '!' operator cannot be assigned to a variable", rule.Name)
				}
			}
		}
	}
	return nil
}

// --- check 12: a plain string literal is a pointless capture ---

func (a *Analyzer) stringAssignedToVar() error {
	for _, st := range a.gr.Statements {
		rule, ok := st.(*ast.Rule)
		if !ok {
			continue
		}
		for _, seq := range rule.Sequences {
			for _, item := range seq.Items {
				s, ok := item.(*ast.String)
				if !ok || s.Ctx().Name == "" {
					continue
				}
				if s.Ctx().Lookahead {
					return a.errAt(s.Position(), "in the '%s' rule, a string with the '&' operator cannot be assigned to a variable", rule.Name)
				}
				if !s.Ctx().Loop && !s.Ctx().Optional {
					return a.errAt(s.Position(), "in the '%s' rule, a plain string cannot be assigned to a variable", rule.Name)
				}
			}
		}
	}
	return nil
}

// --- check 13: every alternative of a rule returns the same shape ---

type resultKind int

const (
	kindBool resultKind = iota
	kindExprResult
)

func resultKindOf(seq *ast.Sequence) resultKind {
	if !seq.HasAction() || !strings.Contains(seq.Action, "$$") {
		return kindBool
	}
	return kindExprResult
}

func (a *Analyzer) checkReturnTypesMatch() error {
	for _, st := range a.gr.Statements {
		rule, ok := st.(*ast.Rule)
		if !ok || len(rule.Sequences) <= 1 {
			continue
		}
		want := resultKindOf(rule.Sequences[0])
		for _, seq := range rule.Sequences[1:] {
			if resultKindOf(seq) != want {
				return a.errAt(rule.Position(), "in the '%s' rule, parsing expression sequences return different types", rule.Name)
			}
		}
	}
	return nil
}

// --- check 14a: character classes have no duplicate or overlapping members ---

func (a *Analyzer) checkCharactersInsideCharClass() error {
	for _, st := range a.gr.Statements {
		rule, ok := st.(*ast.Rule)
		if !ok {
			continue
		}
		for _, seq := range rule.Sequences {
			for _, item := range seq.Items {
				cc, ok := item.(*ast.CharClass)
				if !ok {
					continue
				}
				if err := a.checkOneCharClass(rule, cc); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (a *Analyzer) checkOneCharClass(rule *ast.Rule, cc *ast.CharClass) error {
	runes := []rune(cc.Raw)
	var chars []rune
	var ranges []ast.CharRange

	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		if i+2 < len(runes) && runes[i+1] == '-' {
			from, to := ch, runes[i+2]
			switch {
			case from == to:
				return a.errAt(cc.Position(), "in the '%s' rule, inside the character class '[%s]', the first and second characters in the range are the same '%s-%s'",
					rule.Name, escapeRunes(runes), escapeRune(from), escapeRune(to))
			case from > to:
				return a.errAt(cc.Position(), "in the '%s' rule, inside the character class '[%s]', the first character is 'greater' than the second in a range '%s-%s'",
					rule.Name, escapeRunes(runes), escapeRune(from), escapeRune(to))
			}
			ranges = append(ranges, ast.CharRange{Lo: from, Hi: to})
			i += 2
			continue
		}
		for _, seen := range chars {
			if seen == ch {
				return a.errAt(cc.Position(), "in the '%s' rule, the character class has the same characters: %s", rule.Name, escapeRune(ch))
			}
		}
		chars = append(chars, ch)
	}

	for _, rg := range ranges {
		for _, ch := range chars {
			if ch >= rg.Lo && ch <= rg.Hi {
				return a.errAt(cc.Position(), "in the '%s' rule, inside the character class '[%s]', the character '%s' intersects with the range '%s-%s'",
					rule.Name, escapeRunes(runes), escapeRune(ch), escapeRune(rg.Lo), escapeRune(rg.Hi))
			}
		}
	}

	cc.Chars = chars
	cc.Ranges = ranges
	return nil
}

// --- check 14b: positional variables reference an existing item ---

func (a *Analyzer) checkPositionVarsInAction() error {
	for _, st := range a.gr.Statements {
		rule, ok := st.(*ast.Rule)
		if !ok {
			continue
		}
		for _, seq := range rule.Sequences {
			for k := range seq.PosVars {
				if k > len(seq.Items) {
					return a.errAt(seq.Position(), "'$%d', the index exceeds the number of expressions", k)
				}
			}
		}
	}
	return nil
}

// --- shared helpers ---

func varsFromGroup(g *ast.Group) []string {
	var vars []string
	for _, seq := range g.Sequences {
		for _, item := range seq.Items {
			if inner, ok := item.(*ast.Group); ok {
				vars = append(vars, varsFromGroup(inner)...)
			} else if v := item.Ctx().Name; v != "" {
				vars = append(vars, v)
			}
		}
	}
	return vars
}

func (a *Analyzer) firstRule() *ast.Rule {
	for _, st := range a.gr.Statements {
		if r, ok := st.(*ast.Rule); ok {
			return r
		}
	}
	return nil
}

func (a *Analyzer) rootDirective() *ast.RootRuleDirective {
	for _, st := range a.gr.Statements {
		if r, ok := st.(*ast.RootRuleDirective); ok {
			return r
		}
	}
	return nil
}

func (a *Analyzer) ruleByName(name string) *ast.Rule {
	for _, st := range a.gr.Statements {
		if r, ok := st.(*ast.Rule); ok && r.Name == name {
			return r
		}
	}
	return nil
}

func (a *Analyzer) ruleNames() []string {
	var names []string
	for _, st := range a.gr.Statements {
		if r, ok := st.(*ast.Rule); ok {
			names = append(names, r.Name)
		}
	}
	return names
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// suggest returns a " did you mean %q?" hint for name against candidates,
// when the closest candidate is within edit-distance 2 or 30% of name's
// length, whichever is larger. It returns "" when no candidate is close
// enough to be worth suggesting.
func (a *Analyzer) suggest(name string, candidates []string) string {
	best := ""
	bestDist := -1
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(name, c)
		if bestDist == -1 || d < bestDist {
			bestDist = d
			best = c
		}
	}
	if bestDist == -1 {
		return ""
	}
	threshold := len(name) * 3 / 10
	if threshold < 2 {
		threshold = 2
	}
	if bestDist > threshold {
		return ""
	}
	return fmt.Sprintf(", did you mean %q?", best)
}

var escapeTable = map[rune]string{
	'\a': `\a`, '\b': `\b`, '\f': `\f`, '\n': `\n`, '\r': `\r`, '\t': `\t`, '\v': `\v`,
}

func escapeRune(r rune) string {
	if e, ok := escapeTable[r]; ok {
		return e
	}
	return string(r)
}

func escapeRunes(rs []rune) string {
	var b strings.Builder
	for _, r := range rs {
		b.WriteString(escapeRune(r))
	}
	return b.String()
}

func (a *Analyzer) err(line int, format string, args ...interface{}) error {
	return &diag.GrammarError{File: a.file, Message: fmt.Sprintf(format, args...)}
}

func (a *Analyzer) errAt(pos ast.Pos, format string, args ...interface{}) error {
	return &diag.GrammarError{File: a.file, Line: pos.Line, Col: pos.Col, Message: fmt.Sprintf(format, args...)}
}
