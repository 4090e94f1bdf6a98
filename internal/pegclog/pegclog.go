// Package pegclog provides the one logr.Logger every pipeline stage logs
// through: a funcr text sink writing to a configurable writer, raised to
// V(1) by -debug.
package pegclog

import (
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
)

// New builds the process-wide logger, writing to stderr. debug raises the
// verbosity so V(1) stage-timing entries are emitted; without it, only
// V(0) entries (a stage's warnings) reach the sink.
func New(debug bool) logr.Logger {
	return NewTo(os.Stderr, debug)
}

// NewTo is New with an explicit writer, for tests that want to capture output.
func NewTo(w io.Writer, debug bool) logr.Logger {
	verbosity := 0
	if debug {
		verbosity = 1
	}
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(w, "%s %s\n", prefix, args)
			return
		}
		fmt.Fprintln(w, args)
	}, funcr.Options{Verbosity: verbosity})
}
