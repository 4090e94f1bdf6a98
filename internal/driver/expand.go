package driver

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// Expand turns a batch-mode argument into a sorted list of grammar files.
// A plain path (no glob metacharacters) is returned as a single-element
// slice if it exists. A pattern containing *, ?, [ or { is matched against
// every file under its longest non-magic prefix directory.
func Expand(pattern string) ([]string, error) {
	if !strings.ContainsAny(pattern, "*?[{") {
		if _, err := os.Stat(pattern); err != nil {
			return nil, fmt.Errorf("driver: %s: %w", pattern, err)
		}
		return []string{pattern}, nil
	}

	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, fmt.Errorf("driver: invalid glob %q: %w", pattern, err)
	}

	root := magicFreeRoot(pattern)
	var matches []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if g.Match(path) {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// magicFreeRoot returns the longest leading directory of pattern that
// contains no glob metacharacters, so the walk doesn't need to scan the
// whole filesystem for a pattern like "grammars/*.peg".
func magicFreeRoot(pattern string) string {
	parts := strings.Split(pattern, "/")
	var safe []string
	for _, p := range parts {
		if strings.ContainsAny(p, "*?[{") {
			break
		}
		safe = append(safe, p)
	}
	if len(safe) == 0 {
		return "."
	}
	root := strings.Join(safe, "/")
	if root == "" {
		return "/"
	}
	return root
}
