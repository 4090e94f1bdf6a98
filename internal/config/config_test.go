package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func TestLoadMissingDefaultIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	wd, _ := os.Getwd()
	defer os.Chdir(wd)
	os.Chdir(dir)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != (Config{}) {
		t.Errorf("expected zero Config, got %+v", cfg)
	}
}

func TestLoadMissingExplicitFileErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.pegcrc")); err == nil {
		t.Fatal("expected an error for a missing explicit -config file")
	}
}

func TestLoadParsesSection(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, ".pegcrc", "[pegc]\nreceiver_name = c\noutput_dir = gen\nwatch_debounce_ms = 250\n")

	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Config{ReceiverName: "c", OutputDir: "gen", WatchDebounceMS: 250}
	if cfg != want {
		t.Errorf("Load = %+v, want %+v", cfg, want)
	}
}

func TestMergeFlagsWinOverFile(t *testing.T) {
	fromFile := Config{ReceiverName: "c", OutputDir: "gen", WatchDebounceMS: 250}
	fromFlags := Config{ReceiverName: "p"}

	got := fromFile.Merge(fromFlags)
	want := Config{ReceiverName: "p", OutputDir: "gen", WatchDebounceMS: 250}
	if got != want {
		t.Errorf("Merge = %+v, want %+v", got, want)
	}
}
