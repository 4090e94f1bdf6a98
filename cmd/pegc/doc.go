/*
Command pegc generates a standalone Go parser from a PEG grammar file.

A parsing expression grammar describes a language as an ordered set of
rules: each rule is tried in a fixed order of alternatives, and the first
one that matches wins (no ambiguity, unlike context-free grammars). pegc
reads one grammar file written in the DSL below and emits two Go source
files implementing a recursive-descent, packrat-memoized parser for it.

Command-line usage

	pegc [options] GRAMMAR_FILE_OR_GLOB

By default pegc reads GRAMMAR_FILE and writes <stem>_types.go and
<stem>_parser.go next to it, where <stem> is the grammar file's base name
without extension. A pattern containing *, ?, [ or { is expanded to every
matching file (batch mode); each file is processed independently, with no
state shared across files.

The following options can be specified:

	-debug : boolean, log one entry per pipeline stage (default: false).

	-o=STEM : string, output file stem (default: the input file's base name).

	-receiver-name=NAME : string, receiver variable name of every generated
	rule method, also named in a comment above %cpp verbatim blocks (default: p).

	-x : boolean, parse and analyze only, do not generate (default: false).

	-watch : boolean, watch the input for changes and regenerate (default: false).

	-stats : boolean, print a table of rules after a successful build (default: false).

	-config=FILE : string, load defaults from an INI file (default: ./.pegcrc if present).

	-repl=GRAMMAR_FILE : string, load a grammar and open an interactive
	line-editor session that tokenizes each line of sample input.

	-version : boolean, print the generator's version and exit.

Grammar syntax

A grammar file is a sequence of directives and rules.

Directives, each on its own:

	%name Identifier       sets the generated parser's type name
	%root RuleName         sets the entry rule (defaults to the first rule)
	%type "goType"         sets the default Go type for rules with a $$ action
	%hpp { ... }           verbatim code emitted into <stem>_types.go
	%cpp { ... }           verbatim code emitted into <stem>_parser.go

A rule is a name, an optional <goType> return-type annotation, "=", and
one or more "|"-separated alternatives:

	RuleName <goType> = Sequence ("|" Sequence)*

Each alternative is a sequence of items, an optional action block, and an
optional error-recovery block introduced by "~":

	item item ... { action } ~{ error action }

An item is one of:

	"literal"        a string literal (escape sequences: \\ \a \b \f \n \r \t \v)
	[a-z0-9_]        a character class (ranges and single characters)
	.                any single code point
	RuleName         a reference to another rule
	(a b | c)        a parenthesized group of alternatives

Any item may carry at most one of the prefix and suffix modifiers below,
and may be preceded by a capture name:

	&item    positive lookahead: item must match, consumes no input
	!item    negative lookahead: item must not match, consumes no input
	item?    optional: zero or one
	item*    loop: zero or more
	item+    loop, nonempty: one or more
	name:item   captures the item's match into the variable "name"

Inside an action, $$ refers to the rule's own result (assigning to it
returns that value from the rule), and $N refers to the Nth item's matched
source span as a {StartLine, StartCol, EndLine, EndCol} position, not its
value — use a named capture when the value itself is needed.

A rule with no $$-bearing action returns only whether it matched (bool);
every alternative of a rule must return the same shape, enforced by static
analysis before code generation runs.

Left recursion

Direct left recursion (a rule one of whose alternatives begins, possibly
after optional, lookahead or zero-or-more items, with a reference to
itself) is detected and compiled via seed-growing: the rule repeatedly
reparses from its mark, feeding back the longest match found so far, until
a parse no longer extends further. Indirect left recursion (through an
intermediate rule) is neither detected nor rejected by the analyzer.
*/
package main
