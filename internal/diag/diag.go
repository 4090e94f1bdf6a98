// Package diag defines the single positioned error type used across every
// pipeline stage (tokenizer, DSL parser, left-recursion analyzer, static
// analyzer), mirroring the teacher's parserError/errList pair.
package diag

import "fmt"

// GrammarError is a fatal, positioned diagnostic. Its Error method formats
// it as "file:line:col: message"; cmd/pegc prints it and exits 1.
type GrammarError struct {
	File    string
	Line    int
	Col     int
	Message string
}

func (e *GrammarError) Error() string {
	if e.Line == 0 && e.Col == 0 {
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Col, e.Message)
}

// List collects every GrammarError produced by a single pass over a
// grammar, for stages (currently only the static analyzer's unused-rules
// check) that batch several positioned messages into one diagnostic.
type List []*GrammarError

func (l List) Error() string {
	s := ""
	for i, e := range l {
		if i > 0 {
			s += "\n"
		}
		s += e.Error()
	}
	return s
}
