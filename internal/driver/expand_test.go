package driver

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestExpandPlainPath(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.peg")
	os.WriteFile(p, []byte("A = .\n"), 0o644)

	got, err := Expand(p)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(got) != 1 || got[0] != p {
		t.Errorf("Expand(%q) = %v, want [%q]", p, got, p)
	}
}

func TestExpandPlainPathMissingErrors(t *testing.T) {
	if _, err := Expand(filepath.Join(t.TempDir(), "missing.peg")); err == nil {
		t.Fatal("expected an error for a missing plain path")
	}
}

func TestExpandGlob(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.peg", "b.peg", "c.txt"} {
		os.WriteFile(filepath.Join(dir, name), []byte("A = .\n"), 0o644)
	}

	got, err := Expand(filepath.Join(dir, "*.peg"))
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	sort.Strings(got)
	want := []string{filepath.Join(dir, "a.peg"), filepath.Join(dir, "b.peg")}
	if len(got) != len(want) {
		t.Fatalf("Expand glob = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expand glob[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
