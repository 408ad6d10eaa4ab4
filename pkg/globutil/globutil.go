// Package globutil provides the one POSIX glob dialect used throughout
// nosecrets — rule path filters, the global ignore list, and
// .nosecretsignore path suffixes all share it, per spec.md open question (c):
// POSIX globs with "**" crossing path separators.
package globutil

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Compile validates pattern and returns a matcher function. Patterns are
// normalized to forward slashes and a trailing "/" is treated as "/**" so
// "vendor/" excludes everything under vendor.
func Compile(pattern string) (func(path string) bool, error) {
	normalized := normalize(pattern)
	if _, err := doublestar.Match(normalized, "sentinel"); err != nil {
		return nil, err
	}
	return func(path string) bool {
		ok, _ := doublestar.Match(normalized, normalizePath(path))
		return ok
	}, nil
}

// Validate reports whether pattern is a well-formed glob, without building
// a reusable matcher. Used by rule compilation to fail fast on malformed
// globs.
func Validate(pattern string) error {
	_, err := doublestar.Match(normalize(pattern), "sentinel")
	return err
}

// Match compiles pattern and matches path in one step. Prefer Compile when
// the same pattern is matched against many paths.
func Match(pattern, path string) (bool, error) {
	return doublestar.Match(normalize(pattern), normalizePath(path))
}

func normalize(pattern string) string {
	p := filepath.ToSlash(pattern)
	if strings.HasSuffix(p, "/") {
		p += "**"
	}
	return p
}

func normalizePath(path string) string {
	p := filepath.ToSlash(path)
	return strings.TrimPrefix(p, "./")
}
