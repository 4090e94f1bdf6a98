// Package driver wires the six pipeline stages (tokenize, parse, left-
// recursion analysis, static analysis, codegen, write) into single-file,
// batch, and watch entry points. Each file is processed independently; no
// state is shared across files, matching the generator's single-threaded,
// synchronous-per-grammar concurrency contract.
package driver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/periwinkle-lang/periwinkle/internal/analysis"
	"github.com/periwinkle-lang/periwinkle/internal/codegen"
	"github.com/periwinkle-lang/periwinkle/internal/dslparser"
	"github.com/periwinkle-lang/periwinkle/internal/leftrec"
	"github.com/periwinkle-lang/periwinkle/internal/token"
)

// Options controls one Build call.
type Options struct {
	OutputDir    string // defaults to the input file's directory
	OutputStem   string // defaults to the input file's base name without extension
	PackageName  string // defaults to "main"
	ReceiverName string
	AnalyzeOnly  bool // -x: parse and analyze only, do not generate
	Log          logr.Logger
}

// Result reports what one Build call did.
type Result struct {
	File           string
	TypesChanged   bool
	ParserChanged  bool
	Stats          []codegen.RuleStat
	AnalyzedOnly   bool
}

// Build runs the full pipeline over one grammar file.
func Build(path string, opts Options) (*Result, error) {
	log := opts.Log
	start := time.Now()

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("driver: read %s: %w", path, err)
	}

	toks, err := token.New(path, string(src)).Tokenize()
	if err != nil {
		return nil, err
	}
	log.V(1).Info("tokenize", "file", path, "tokens", len(toks))

	gr, err := dslparser.New(path, toks).Parse()
	if err != nil {
		return nil, err
	}
	log.V(1).Info("parse", "file", path)

	leftrec.New(gr).Analyze()
	log.V(1).Info("leftrec", "file", path)

	if err := analysis.New(path, gr).Analyze(); err != nil {
		return nil, err
	}
	log.V(1).Info("analyze", "file", path)

	if opts.AnalyzeOnly {
		log.V(1).Info("build complete", "file", path, "elapsed", time.Since(start), "analyzeOnly", true)
		return &Result{File: path, AnalyzedOnly: true}, nil
	}

	gen := codegen.New(gr, codegen.Options{PackageName: opts.PackageName, ReceiverName: opts.ReceiverName})
	out, err := gen.Generate()
	if err != nil {
		return nil, err
	}
	log.V(1).Info("codegen", "file", path, "rules", len(gen.Stats()))

	dir := opts.OutputDir
	if dir == "" {
		dir = filepath.Dir(path)
	}
	stem := opts.OutputStem
	if stem == "" {
		base := filepath.Base(path)
		stem = strings.TrimSuffix(base, filepath.Ext(base))
	}

	typesChanged, parserChanged, err := codegen.WriteOutput(dir, stem, out)
	if err != nil {
		return nil, err
	}
	log.V(1).Info("write", "file", path, "typesChanged", typesChanged, "parserChanged", parserChanged,
		"elapsed", time.Since(start))

	return &Result{
		File:          path,
		TypesChanged:  typesChanged,
		ParserChanged: parserChanged,
		Stats:         gen.Stats(),
	}, nil
}

// Batch runs Build over every file matched by pattern (a glob pattern or a
// plain path), returning one Result per file in match order. It stops and
// returns the first error encountered; files already built are unaffected,
// matching the testable property that batch mode is equivalent to
// processing each file alone.
func Batch(pattern string, opts Options) ([]*Result, error) {
	files, err := Expand(pattern)
	if err != nil {
		return nil, err
	}
	results := make([]*Result, 0, len(files))
	for _, f := range files {
		r, err := Build(f, opts)
		if err != nil {
			return results, fmt.Errorf("driver: %s: %w", f, err)
		}
		results = append(results, r)
	}
	return results, nil
}
