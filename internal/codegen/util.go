package codegen

import "strconv"

// goRuneLit renders r as a Go rune literal, e.g. 'a' or '\n'.
func goRuneLit(r rune) string {
	return strconv.QuoteRuneToASCII(r)
}

// goStringLit renders s as a Go double-quoted string literal.
func goStringLit(s string) string {
	return strconv.Quote(s)
}
