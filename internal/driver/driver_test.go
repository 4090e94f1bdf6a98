package driver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/periwinkle-lang/periwinkle/internal/pegclog"
)

func writeGrammar(t *testing.T, dir, name, src string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(src), 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

const sampleGrammar = `%name Sample
%root A
A = "a"+ { $$ = 1 }
`

func TestBuildWritesBothFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeGrammar(t, dir, "sample.peg", sampleGrammar)

	res, err := Build(path, Options{PackageName: "sample", Log: pegclog.New(false)})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !res.TypesChanged || !res.ParserChanged {
		t.Fatalf("expected both files to be written on first build, got %+v", res)
	}

	if _, err := os.Stat(filepath.Join(dir, "sample_types.go")); err != nil {
		t.Errorf("types file missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "sample_parser.go")); err != nil {
		t.Errorf("parser file missing: %v", err)
	}
	if len(res.Stats) != 1 || res.Stats[0].Name != "A" {
		t.Errorf("expected one rule stat for A, got %+v", res.Stats)
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := writeGrammar(t, dir, "sample.peg", sampleGrammar)
	opts := Options{PackageName: "sample", Log: pegclog.New(false)}

	if _, err := Build(path, opts); err != nil {
		t.Fatalf("first build: %v", err)
	}
	res, err := Build(path, opts)
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if res.TypesChanged || res.ParserChanged {
		t.Errorf("expected no rewrite for unchanged output, got %+v", res)
	}
}

func TestBuildAnalyzeOnlySkipsGeneration(t *testing.T) {
	dir := t.TempDir()
	path := writeGrammar(t, dir, "sample.peg", sampleGrammar)

	res, err := Build(path, Options{AnalyzeOnly: true, Log: pegclog.New(false)})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !res.AnalyzedOnly {
		t.Error("expected AnalyzedOnly to be true")
	}
	if _, err := os.Stat(filepath.Join(dir, "sample_types.go")); err == nil {
		t.Error("expected no output file under -x")
	}
}

func TestBuildPropagatesGrammarErrors(t *testing.T) {
	dir := t.TempDir()
	path := writeGrammar(t, dir, "bad.peg", "A = Missing\n")

	if _, err := Build(path, Options{Log: pegclog.New(false)}); err == nil {
		t.Fatal("expected an error referencing an undeclared rule")
	}
}

func TestBatchProcessesEachFileIndependently(t *testing.T) {
	dir := t.TempDir()
	writeGrammar(t, dir, "one.peg", "%name One\nA = \"a\"+ { $$ = 1 }\n")
	writeGrammar(t, dir, "two.peg", "%name Two\nA = \"b\"+ { $$ = 1 }\n")

	results, err := Batch(filepath.Join(dir, "*.peg"), Options{Log: pegclog.New(false)})
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.TypesChanged {
			t.Errorf("expected %s to be newly written", r.File)
		}
	}
}
