package codegen

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// WriteFile writes content to path, but only touches disk when the content
// actually changed (by xxhash digest), and does so atomically: it renders
// to a sibling temp file first and renames it into place, so a reader never
// observes a partially-written output file and watch mode never sees a
// spurious change event for identical content.
func WriteFile(path string, content []byte) (wrote bool, err error) {
	if existing, err := os.ReadFile(path); err == nil {
		if xxhash.Sum64(existing) == xxhash.Sum64(content) {
			return false, nil
		}
	}

	dir := filepath.Dir(path)
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.NewString()))

	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return false, fmt.Errorf("codegen: write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return false, fmt.Errorf("codegen: rename into place: %w", err)
	}
	return true, nil
}

// WriteOutput writes both files an Output carries, stemmed from base (e.g.
// base="json" writes "json_types.go" and "json_parser.go"). It reports
// which of the two files actually changed.
func WriteOutput(dir, base string, out *Output) (typesChanged, parserChanged bool, err error) {
	typesPath := filepath.Join(dir, base+"_types.go")
	parserPath := filepath.Join(dir, base+"_parser.go")

	typesChanged, err = WriteFile(typesPath, out.TypesFile)
	if err != nil {
		return false, false, err
	}
	parserChanged, err = WriteFile(parserPath, out.ParserFile)
	if err != nil {
		return typesChanged, false, err
	}
	return typesChanged, parserChanged, nil
}
