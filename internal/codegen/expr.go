package codegen

import (
	"fmt"
	"strings"

	"github.com/periwinkle-lang/periwinkle/internal/ast"
)

// genItem renders one parsing-expression item's match code for the modifier
// combination it actually carries (plain / lookahead / optional / loop), and
// returns any hoisted variable declarations it needs. Declarations are kept
// separate from the code so the caller can place every declaration for a
// sequence ahead of any label a goto could jump to — see the Go target
// design note on goto and variable scope.
func (g *Generator) genItem(item ast.Item, next, recv, pfx string) (code, decl, _ string) {
	ctx := item.Ctx()
	switch n := item.(type) {
	case *ast.RuleRef:
		return g.genRuleRef(n, ctx, next, recv, pfx)
	case *ast.String:
		return g.genString(n, ctx, next, recv, pfx)
	case *ast.CharClass:
		return g.genCharClass(n, ctx, next, recv, pfx)
	case *ast.Group:
		return g.genGroup(n, ctx, next, recv, pfx)
	case *ast.Dot:
		return g.genDot(ctx, next, recv, pfx)
	}
	panic(fmt.Sprintf("codegen: unhandled item type %T", item))
}

func (g *Generator) genRuleRef(n *ast.RuleRef, ctx *ast.Context, next, recv, pfx string) (code, decl, _ string) {
	goType := g.ruleType[n.Name]
	call := fmt.Sprintf("%s.rule%s()", recv, exportedName(n.Name))
	var b, d strings.Builder

	switch {
	case ctx.Lookahead:
		fmt.Fprintf(&d, "var __save%s int\n", pfx)
		fmt.Fprintf(&d, "var __ok%s bool\n", pfx)
		fmt.Fprintf(&b, "__save%s = %s.pos\n", pfx, recv)
		if ctx.Name != "" {
			fmt.Fprintf(&d, "var __r%s %s\n", pfx, goType)
			fmt.Fprintf(&b, "__r%s, __ok%s = %s\n", pfx, pfx, call)
		} else {
			fmt.Fprintf(&b, "_, __ok%s = %s\n", pfx, call)
		}
		fmt.Fprintf(&b, "%s.pos = __save%s\n", recv, pfx)
		lp := boolLit(ctx.LookaheadPositive)
		fmt.Fprintf(&b, "if __ok%s != %s {\n\tgoto %s\n}\n", pfx, lp, next)
		if ctx.Name != "" {
			fmt.Fprintf(&b, "%s = __r%s\n", ctx.Name, pfx)
		}
	case ctx.Optional:
		fmt.Fprintf(&d, "var __ok%s bool\n", pfx)
		if ctx.Name != "" {
			fmt.Fprintf(&d, "var __r%s %s\n", pfx, goType)
			fmt.Fprintf(&b, "__r%s, __ok%s = %s\n", pfx, pfx, call)
			fmt.Fprintf(&b, "if __ok%s {\n\t%s = &__r%s\n}\n", pfx, ctx.Name, pfx)
		} else {
			fmt.Fprintf(&b, "_, __ok%s = %s\n", pfx, call)
		}
	case ctx.Loop:
		fmt.Fprintf(&d, "var __i%s int\n", pfx)
		fmt.Fprintf(&d, "var __ok%s bool\n", pfx)
		b.WriteString("for {\n")
		if ctx.Name != "" {
			fmt.Fprintf(&d, "var __r%s %s\n", pfx, goType)
			fmt.Fprintf(&b, "\t__r%s, __ok%s = %s\n", pfx, pfx, call)
		} else {
			fmt.Fprintf(&b, "\t_, __ok%s = %s\n", pfx, call)
		}
		fmt.Fprintf(&b, "\tif !__ok%s {\n\t\tbreak\n\t}\n", pfx)
		if ctx.Name != "" {
			fmt.Fprintf(&b, "\t%s = append(%s, __r%s)\n", ctx.Name, ctx.Name, pfx)
		}
		fmt.Fprintf(&b, "\t__i%s++\n", pfx)
		b.WriteString("}\n")
		if ctx.LoopNonempty {
			fmt.Fprintf(&b, "if __i%s == 0 {\n\tgoto %s\n}\n", pfx, next)
		}
	default:
		fmt.Fprintf(&d, "var __ok%s bool\n", pfx)
		if ctx.Name != "" {
			fmt.Fprintf(&d, "var __r%s %s\n", pfx, goType)
			fmt.Fprintf(&b, "__r%s, __ok%s = %s\n", pfx, pfx, call)
		} else {
			fmt.Fprintf(&b, "_, __ok%s = %s\n", pfx, call)
		}
		fmt.Fprintf(&b, "if !__ok%s {\n\tgoto %s\n}\n", pfx, next)
		if ctx.Name != "" {
			fmt.Fprintf(&b, "%s = __r%s\n", ctx.Name, pfx)
		}
	}
	return b.String(), d.String(), ""
}

func boolLit(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func (g *Generator) genString(n *ast.String, ctx *ast.Context, next, recv, pfx string) (code, decl, _ string) {
	runes := []rune(n.Value)
	strLen := len(runes)
	var cond strings.Builder
	for i, r := range runes {
		fmt.Fprintf(&cond, "%s.src[%s.pos+%d] == %s", recv, recv, i, goRuneLit(r))
		if i+1 < len(runes) {
			cond.WriteString(" &&\n\t\t")
		}
	}
	bounds := fmt.Sprintf("%s.pos+%d > len(%s.src)", recv, strLen, recv)
	lit := goStringLit(n.Value)

	var b, d strings.Builder
	switch {
	case ctx.Lookahead:
		if ctx.LookaheadPositive {
			fmt.Fprintf(&b, "if %s || !(\n\t\t%s) {\n\tgoto %s\n}\n", bounds, cond.String(), next)
			if ctx.Name != "" {
				fmt.Fprintf(&b, "%s = %s\n", ctx.Name, lit)
			}
		} else {
			fmt.Fprintf(&b, "if !(%s) && (\n\t\t%s) {\n\tgoto %s\n}\n", bounds, cond.String(), next)
		}
	case ctx.Optional:
		fmt.Fprintf(&b, "if !(%s) && (\n\t\t%s) {\n", bounds, cond.String())
		if ctx.Name != "" {
			fmt.Fprintf(&b, "\t%s = true\n", ctx.Name)
		}
		fmt.Fprintf(&b, "\t%s.pos += %d\n}\n", recv, strLen)
	case ctx.Loop:
		fmt.Fprintf(&d, "var __i%s int\n", pfx)
		b.WriteString("for {\n")
		fmt.Fprintf(&b, "\tif %s {\n\t\tbreak\n\t}\n", bounds)
		fmt.Fprintf(&b, "\tif !(\n\t\t%s) {\n\t\tbreak\n\t}\n", cond.String())
		fmt.Fprintf(&b, "\t%s.pos += %d\n", recv, strLen)
		fmt.Fprintf(&b, "\t__i%s++\n", pfx)
		b.WriteString("}\n")
		if ctx.Name != "" {
			fmt.Fprintf(&b, "%s = __i%s\n", ctx.Name, pfx)
		}
		if ctx.LoopNonempty {
			fmt.Fprintf(&b, "if __i%s == 0 {\n\tgoto %s\n}\n", pfx, next)
		}
	default:
		fmt.Fprintf(&b, "if %s || !(\n\t\t%s) {\n\tgoto %s\n}\n", bounds, cond.String(), next)
		fmt.Fprintf(&b, "%s.pos += %d\n", recv, strLen)
		if ctx.Name != "" {
			fmt.Fprintf(&b, "%s = %s\n", ctx.Name, lit)
		}
	}
	return b.String(), d.String(), ""
}

func (g *Generator) genCharClass(n *ast.CharClass, ctx *ast.Context, next, recv, pfx string) (code, decl, _ string) {
	cond := charClassCondition(n, fmt.Sprintf("__ch%s", pfx))
	var b, d strings.Builder
	fmt.Fprintf(&d, "var __ch%s rune\n", pfx)
	eof := fmt.Sprintf("%s.pos >= len(%s.src)", recv, recv)
	readCh := fmt.Sprintf("__ch%s = %s.src[%s.pos]\n", pfx, recv, recv)

	switch {
	case ctx.Lookahead:
		if ctx.LookaheadPositive {
			fmt.Fprintf(&b, "if %s {\n\tgoto %s\n}\n", eof, next)
			b.WriteString(readCh)
			fmt.Fprintf(&b, "if !(%s) {\n\tgoto %s\n}\n", cond, next)
			if ctx.Name != "" {
				fmt.Fprintf(&b, "%s = string(__ch%s)\n", ctx.Name, pfx)
			}
		} else {
			// EOF always satisfies a negative lookahead, regardless of class.
			fmt.Fprintf(&b, "if !(%s) {\n", eof)
			b.WriteString("\t" + strings.ReplaceAll(strings.TrimRight(readCh, "\n"), "\n", "\n\t") + "\n")
			fmt.Fprintf(&b, "\tif %s {\n\t\tgoto %s\n\t}\n", cond, next)
			b.WriteString("}\n")
		}
	case ctx.Optional:
		if ctx.Name != "" {
			fmt.Fprintf(&d, "var __ok%s bool\n", pfx)
			fmt.Fprintf(&d, "var __cap%s string\n", pfx)
		}
		fmt.Fprintf(&b, "if !(%s) {\n", eof)
		b.WriteString("\t" + strings.ReplaceAll(strings.TrimRight(readCh, "\n"), "\n", "\n\t") + "\n")
		fmt.Fprintf(&b, "\tif %s {\n", cond)
		if ctx.Name != "" {
			fmt.Fprintf(&b, "\t\t__ok%s = true\n", pfx)
			fmt.Fprintf(&b, "\t\t__cap%s = string(__ch%s)\n", pfx, pfx)
		}
		fmt.Fprintf(&b, "\t\t%s.pos++\n", recv)
		b.WriteString("\t}\n}\n")
		if ctx.Name != "" {
			fmt.Fprintf(&b, "if __ok%s {\n\t%s = &__cap%s\n}\n", pfx, ctx.Name, pfx)
		}
	case ctx.Loop:
		fmt.Fprintf(&d, "var __i%s int\n", pfx)
		b.WriteString("for {\n")
		fmt.Fprintf(&b, "\tif %s {\n\t\tbreak\n\t}\n", eof)
		b.WriteString("\t" + strings.ReplaceAll(strings.TrimRight(readCh, "\n"), "\n", "\n\t") + "\n")
		fmt.Fprintf(&b, "\tif !(%s) {\n\t\tbreak\n\t}\n", cond)
		if ctx.Name != "" {
			fmt.Fprintf(&b, "\t%s += string(__ch%s)\n", ctx.Name, pfx)
		}
		fmt.Fprintf(&b, "\t%s.pos++\n", recv)
		fmt.Fprintf(&b, "\t__i%s++\n", pfx)
		b.WriteString("}\n")
		if ctx.LoopNonempty {
			fmt.Fprintf(&b, "if __i%s == 0 {\n\tgoto %s\n}\n", pfx, next)
		}
	default:
		fmt.Fprintf(&b, "if %s {\n\tgoto %s\n}\n", eof, next)
		b.WriteString(readCh)
		fmt.Fprintf(&b, "if !(%s) {\n\tgoto %s\n}\n", cond, next)
		if ctx.Name != "" {
			fmt.Fprintf(&b, "%s = string(__ch%s)\n", ctx.Name, pfx)
		}
		fmt.Fprintf(&b, "%s.pos++\n", recv)
	}
	return b.String(), d.String(), ""
}

func charClassCondition(n *ast.CharClass, chVar string) string {
	var parts []string
	for _, r := range n.Chars {
		parts = append(parts, fmt.Sprintf("%s == %s", chVar, goRuneLit(r)))
	}
	for _, rg := range n.Ranges {
		parts = append(parts, fmt.Sprintf("(%s >= %s && %s <= %s)", chVar, goRuneLit(rg.Lo), chVar, goRuneLit(rg.Hi)))
	}
	if len(parts) == 0 {
		return "false"
	}
	return strings.Join(parts, " || ")
}

func (g *Generator) genDot(ctx *ast.Context, next, recv, pfx string) (code, decl, _ string) {
	var b, d strings.Builder
	eof := fmt.Sprintf("%s.pos >= len(%s.src)", recv, recv)

	switch {
	case ctx.Lookahead:
		if ctx.LookaheadPositive {
			fmt.Fprintf(&b, "if %s {\n\tgoto %s\n}\n", eof, next)
			if ctx.Name != "" {
				fmt.Fprintf(&b, "%s = string(%s.src[%s.pos])\n", ctx.Name, recv, recv)
			}
		} else {
			fmt.Fprintf(&b, "if !(%s) {\n\tgoto %s\n}\n", eof, next)
		}
	case ctx.Optional:
		if ctx.Name != "" {
			fmt.Fprintf(&d, "var __cap%s string\n", pfx)
		}
		fmt.Fprintf(&b, "if !(%s) {\n", eof)
		if ctx.Name != "" {
			fmt.Fprintf(&b, "\t__cap%s = string(%s.src[%s.pos])\n", pfx, recv, recv)
		}
		fmt.Fprintf(&b, "\t%s.pos++\n}\n", recv)
		if ctx.Name != "" {
			fmt.Fprintf(&b, "if __cap%s != \"\" {\n\t%s = &__cap%s\n}\n", pfx, ctx.Name, pfx)
		}
	case ctx.Loop:
		fmt.Fprintf(&d, "var __i%s int\n", pfx)
		b.WriteString("for {\n")
		fmt.Fprintf(&b, "\tif %s {\n\t\tbreak\n\t}\n", eof)
		if ctx.Name != "" {
			fmt.Fprintf(&b, "\t%s += string(%s.src[%s.pos])\n", ctx.Name, recv, recv)
		}
		fmt.Fprintf(&b, "\t%s.pos++\n", recv)
		fmt.Fprintf(&b, "\t__i%s++\n", pfx)
		b.WriteString("}\n")
		if ctx.LoopNonempty {
			fmt.Fprintf(&b, "if __i%s == 0 {\n\tgoto %s\n}\n", pfx, next)
		}
	default:
		fmt.Fprintf(&b, "if %s {\n\tgoto %s\n}\n", eof, next)
		if ctx.Name != "" {
			fmt.Fprintf(&b, "%s = string(%s.src[%s.pos])\n", ctx.Name, recv, recv)
		}
		fmt.Fprintf(&b, "%s.pos++\n", recv)
	}
	return b.String(), d.String(), ""
}

// genGroup renders a parenthesized sub-alternation. A group's own action and
// error-action text, if the DSL grammar allowed any on an inner alternative,
// is not evaluated here: a group is purely a structural sub-match, matching
// the upstream generator's own treatment of group alternatives.
func (g *Generator) genGroup(n *ast.Group, ctx *ast.Context, next, recv, pfx string) (code, decl, _ string) {
	var b, d strings.Builder
	fmt.Fprintf(&d, "var __mark%s int\n", pfx)
	if ctx.Name != "" {
		fmt.Fprintf(&d, "var __start%s int\n", pfx)
	}

	body := func(failLabel, succLabel string) string {
		var inner strings.Builder
		fmt.Fprintf(&inner, "__mark%s = %s.pos\n", pfx, recv)
		for i, seq := range n.Sequences {
			if i > 0 {
				fmt.Fprintf(&inner, "%s_next%d:\n", pfx, i)
				fmt.Fprintf(&inner, "%s.pos = __mark%s\n", recv, pfx)
			}
			itemNext := failLabel
			if i+1 < len(n.Sequences) {
				itemNext = fmt.Sprintf("%s_next%d", pfx, i+1)
			}
			for j, item := range seq.Items {
				code, decl, _ := g.genItem(item, itemNext, recv, fmt.Sprintf("%s_%d_%d", pfx, i+1, j+1))
				if decl != "" {
					d.WriteString(decl)
				}
				inner.WriteString(code)
			}
			fmt.Fprintf(&inner, "goto %s\n", succLabel)
		}
		return inner.String()
	}

	failLabel := pfx + "_fail"
	succLabel := pfx + "_success"

	if ctx.Name != "" {
		fmt.Fprintf(&b, "__start%s = %s.pos\n", pfx, recv)
	}

	switch {
	case ctx.Lookahead:
		b.WriteString(body(failLabel, succLabel))
		fmt.Fprintf(&b, "%s:\n", failLabel)
		fmt.Fprintf(&b, "%s.pos = __mark%s\n", recv, pfx)
		if ctx.LookaheadPositive {
			fmt.Fprintf(&b, "goto %s\n", next)
			fmt.Fprintf(&b, "%s:\n", succLabel)
			fmt.Fprintf(&b, "%s.pos = __mark%s\n", recv, pfx)
		} else {
			fmt.Fprintf(&b, "goto %s_done\n", pfx)
			fmt.Fprintf(&b, "%s:\n", succLabel)
			fmt.Fprintf(&b, "%s.pos = __mark%s\n", recv, pfx)
			fmt.Fprintf(&b, "goto %s\n", next)
			fmt.Fprintf(&b, "%s_done:\n", pfx)
		}
	case ctx.Optional:
		b.WriteString(body(failLabel, succLabel))
		fmt.Fprintf(&b, "%s:\n", failLabel)
		fmt.Fprintf(&b, "%s.pos = __mark%s\n", recv, pfx)
		fmt.Fprintf(&b, "%s:\n", succLabel)
	case ctx.Loop:
		fmt.Fprintf(&d, "var __i%s int\n", pfx)
		b.WriteString("for {\n")
		b.WriteString(indent(body(failLabel, succLabel), "\t"))
		fmt.Fprintf(&b, "\t%s:\n", failLabel)
		fmt.Fprintf(&b, "\t%s.pos = __mark%s\n", recv, pfx)
		b.WriteString("\tbreak\n")
		fmt.Fprintf(&b, "\t%s:\n", succLabel)
		fmt.Fprintf(&b, "\t__i%s++\n", pfx)
		b.WriteString("}\n")
		if ctx.LoopNonempty {
			fmt.Fprintf(&b, "if __i%s == 0 {\n\tgoto %s\n}\n", pfx, next)
		}
	default:
		b.WriteString(body(failLabel, succLabel))
		fmt.Fprintf(&b, "%s:\n", failLabel)
		fmt.Fprintf(&b, "%s.pos = __mark%s\n", recv, pfx)
		fmt.Fprintf(&b, "goto %s\n", next)
		fmt.Fprintf(&b, "%s:\n", succLabel)
	}

	if ctx.Name != "" {
		if ctx.Optional {
			fmt.Fprintf(&d, "var __cap%s string\n", pfx)
		}
		fmt.Fprintf(&b, "if %s.pos != __start%s {\n", recv, pfx)
		if ctx.Optional {
			fmt.Fprintf(&b, "\t__cap%s = string(%s.src[__start%s:%s.pos])\n", pfx, recv, pfx, recv)
			fmt.Fprintf(&b, "\t%s = &__cap%s\n", ctx.Name, pfx)
		} else {
			fmt.Fprintf(&b, "\t%s = string(%s.src[__start%s:%s.pos])\n", ctx.Name, recv, pfx, recv)
		}
		b.WriteString("}\n")
	}
	return b.String(), d.String(), ""
}
