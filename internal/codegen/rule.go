package codegen

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/periwinkle-lang/periwinkle/internal/ast"
)

// genRule renders both Go methods a rule needs: the memoized entry point
// (ruleFoo) and, for left-recursive rules, the seed body it grows from
// (ruleFoo_). Non-left-recursive rules only get the first; its body is the
// ordinary recursive-descent template directly.
func (g *Generator) genRule(r *ast.Rule) string {
	id := g.ruleID[r.Name]
	goType := g.ruleType[r.Name]
	zero := g.zeroValue(goType)
	name := exportedName(r.Name)
	recv := g.opts.ReceiverName
	parser := g.parserName

	var b strings.Builder
	fmt.Fprintf(&b, "// rule%s implements the %q rule.\n", name, r.Name)

	if r.LeftRecursive {
		fmt.Fprintf(&b, "func (%s *%s) rule%s() (%s, bool) {\n", recv, parser, name, goType)
		fmt.Fprintf(&b, "\tif __e, __found := %s.memoGet(%d); __found {\n", recv, id)
		fmt.Fprintf(&b, "\t\t%s.pos = __e.endPos\n", recv)
		b.WriteString("\t\tif !__e.ok {\n")
		fmt.Fprintf(&b, "\t\t\treturn %s, false\n", zero)
		b.WriteString("\t\t}\n")
		fmt.Fprintf(&b, "\t\treturn __e.value.(%s), true\n", goType)
		b.WriteString("\t}\n")
		fmt.Fprintf(&b, "\t__mark := %s.pos\n", recv)
		fmt.Fprintf(&b, "\tvar __lastResult %s = %s\n", goType, zero)
		fmt.Fprintf(&b, "\t__lastPos := __mark\n")
		fmt.Fprintf(&b, "\t%s.memoSet(%d, __mark, nil, false)\n", recv, id)
		b.WriteString("\tfor {\n")
		fmt.Fprintf(&b, "\t\t%s.pos = __mark\n", recv)
		fmt.Fprintf(&b, "\t\t__result, __ok := %s.rule%s_()\n", recv, name)
		fmt.Fprintf(&b, "\t\t__endPos := %s.pos\n", recv)
		b.WriteString("\t\tif __endPos <= __lastPos {\n\t\t\tbreak\n\t\t}\n")
		fmt.Fprintf(&b, "\t\t%s.memoSet(%d, __mark, __result, __ok)\n", recv, id)
		b.WriteString("\t\t__lastResult = __result\n")
		b.WriteString("\t\t__lastPos = __endPos\n")
		b.WriteString("\t}\n")
		fmt.Fprintf(&b, "\tif __lastPos == __mark {\n\t\treturn %s, false\n\t}\n", zero)
		fmt.Fprintf(&b, "\t%s.pos = __lastPos\n", recv)
		b.WriteString("\treturn __lastResult, true\n")
		b.WriteString("}\n\n")

		fmt.Fprintf(&b, "func (%s *%s) rule%s_() (%s, bool) {\n", recv, parser, name, goType)
		b.WriteString(g.genRuleBody(r, id, goType, zero, recv, true))
		b.WriteString("}\n")
		return b.String()
	}

	fmt.Fprintf(&b, "func (%s *%s) rule%s() (%s, bool) {\n", recv, parser, name, goType)
	fmt.Fprintf(&b, "\tif __e, __found := %s.memoGet(%d); __found {\n", recv, id)
	fmt.Fprintf(&b, "\t\t%s.pos = __e.endPos\n", recv)
	b.WriteString("\t\tif !__e.ok {\n")
	fmt.Fprintf(&b, "\t\t\treturn %s, false\n", zero)
	b.WriteString("\t\t}\n")
	fmt.Fprintf(&b, "\t\treturn __e.value.(%s), true\n", goType)
	b.WriteString("\t}\n")
	b.WriteString(g.genRuleBody(r, id, goType, zero, recv, false))
	b.WriteString("}\n")
	return b.String()
}

// genRuleBody renders the shared alternative-trying skeleton: mark, each
// sequence in order falling through to NEXT_i on failure, then FAIL/SUCCESS.
func (g *Generator) genRuleBody(r *ast.Rule, id int, goType, zero, recv string, isLeftRecursive bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\t__mark := %s.pos\n", recv)
	kind := ruleResultKind(r)

	for i, seq := range r.Sequences {
		if i > 0 {
			fmt.Fprintf(&b, "__NEXT_%d:\n", i)
			fmt.Fprintf(&b, "\t%s.pos = __mark\n", recv)
		}
		next := "__FAIL"
		if i+1 < len(r.Sequences) {
			next = fmt.Sprintf("__NEXT_%d", i+1)
		}
		b.WriteString(g.genSequence(seq, next, goType, id, recv, isLeftRecursive, fmt.Sprintf("s%d", i+1)))
		b.WriteString("\n")
	}

	b.WriteString("__FAIL:\n")
	fmt.Fprintf(&b, "\t%s.pos = __mark\n", recv)
	if !isLeftRecursive {
		fmt.Fprintf(&b, "\t%s.memoSet(%d, __mark, nil, false)\n", recv, id)
	}
	fmt.Fprintf(&b, "\treturn %s, false\n", zero)

	if kind == kindBool {
		b.WriteString("__SUCCESS:\n")
		if !isLeftRecursive {
			fmt.Fprintf(&b, "\t%s.memoSet(%d, __mark, true, true)\n", recv, id)
		}
		b.WriteString("\treturn true, true\n")
	}
	return b.String()
}

// namedVarType computes the Go type of an item's capture variable. It
// mirrors the teacher's per-kind capture types rather than one uniform
// scheme: a rule reference carries real values worth collecting (a pointer
// when optional, a slice when repeated), but a string literal is already
// known at generation time, so an optional one only needs a bool ("did it
// match") and a repeated one only needs a count, not a copy of the same
// text over and over. Character classes, the dot and groups capture
// variable text, so they keep it as a string even under a loop
// (concatenated) and only go to a pointer when optional. Negative
// lookahead items never reach here: the static analyzer rejects a name on
// one before codegen runs.
func (g *Generator) namedVarType(item ast.Item) string {
	ctx := item.Ctx()
	switch n := item.(type) {
	case *ast.RuleRef:
		base := g.ruleType[n.Name]
		switch {
		case ctx.Loop:
			return "[]" + base
		case ctx.Optional:
			return "*" + base
		default:
			return base
		}
	case *ast.String:
		switch {
		case ctx.Loop:
			return "int"
		case ctx.Optional:
			return "bool"
		default:
			return "string"
		}
	default: // *ast.CharClass, *ast.Dot, *ast.Group
		if ctx.Optional {
			return "*string"
		}
		return "string"
	}
}

var posVarRe = regexp.MustCompile(`\$([1-9][0-9]*)\b`)

// genSequence renders one alternative's body: hoisted var declarations for
// every named/positional capture (so no goto jumps into their scope), each
// item's match code in order, and the action/error-action epilogue.
func (g *Generator) genSequence(seq *ast.Sequence, next, goType string, ruleID int, recv string, isLeftRecursive bool, prefix string) string {
	var items strings.Builder
	var hoisted strings.Builder

	itemNext := next
	if seq.ErrorAction != "" {
		itemNext = prefix + "_errorAction"
	}

	for i, item := range seq.Items {
		idx := i + 1
		if item.Ctx().Name != "" {
			fmt.Fprintf(&hoisted, "var %s %s\n", item.Ctx().Name, g.namedVarType(item))
		}
		code, decl, _ := g.genItem(item, itemNext, recv, fmt.Sprintf("%s_i%d", prefix, idx))
		if decl != "" {
			hoisted.WriteString(decl)
			hoisted.WriteString("\n")
		}
		if seq.PosVars[idx] {
			fmt.Fprintf(&hoisted, "var __tp%s_%d tokenPos\n", prefix, idx)
			fmt.Fprintf(&items, "__tp%s_%d = %s.mark2pos(%s.pos)\n", prefix, idx, recv, recv)
		}
		items.WriteString(code)
		items.WriteString("\n")
		if seq.PosVars[idx] {
			fmt.Fprintf(&items, "%s.closeTokenPos(&__tp%s_%d)\n", recv, prefix, idx)
		}
	}

	var out strings.Builder
	out.WriteString("{\n")
	out.WriteString(indent(hoisted.String(), "\t"))
	out.WriteString(indent(items.String(), "\t"))

	if seq.Action != "" {
		action := seq.Action
		action = strings.TrimPrefix(action, "{")
		action = strings.TrimSuffix(action, "}")
		action = posVarRe.ReplaceAllString(action, "__tp"+prefix+"_${1}")
		if strings.Contains(seq.Action, "$$") {
			fmt.Fprintf(&out, "\tvar __ruleResult %s\n", goType)
			action = strings.ReplaceAll(action, "$$", "__ruleResult")
			out.WriteString(indent(action, "\t"))
			out.WriteString("\n")
			if !isLeftRecursive {
				fmt.Fprintf(&out, "\t%s.memoSet(%d, __mark, __ruleResult, true)\n", recv, ruleID)
			}
			out.WriteString("\treturn __ruleResult, true\n")
		} else {
			out.WriteString(indent(action, "\t"))
			out.WriteString("\n")
		}
	}
	if seq.Action == "" || !strings.Contains(seq.Action, "$$") {
		out.WriteString("\tgoto __SUCCESS\n")
	}

	if seq.ErrorAction != "" {
		out.WriteString(prefix + "_errorAction:\n")
		errAction := strings.TrimPrefix(seq.ErrorAction, "{")
		errAction = strings.TrimSuffix(errAction, "}")
		out.WriteString(indent(errAction, "\t"))
		out.WriteString("\n")
		fmt.Fprintf(&out, "\tgoto %s\n", next)
	}
	out.WriteString("}\n")
	return out.String()
}

func indent(s, pad string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return ""
	}
	for i, l := range lines {
		if l == "" {
			continue
		}
		lines[i] = pad + l
	}
	return strings.Join(lines, "\n") + "\n"
}
