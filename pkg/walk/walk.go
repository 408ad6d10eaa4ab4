// Package walk enumerates candidate file paths under a directory root,
// applying .gitignore and hidden-file conventions before a single byte is
// read — the Scan Orchestrator decides how to read each surviving path.
package walk

import (
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// Options controls which paths under Root are yielded.
type Options struct {
	Root           string
	FollowSymlinks bool
	IncludeHidden  bool
	// SkipPath is consulted for every candidate path (relative to Root,
	// forward-slashed); returning true excludes it before any I/O. Typically
	// backed by the global [ignore].paths configuration.
	SkipPath func(relPath string) bool
}

// Walk returns every regular file under opts.Root that survives the
// .gitignore, hidden-file, symlink and SkipPath filters, relative-path
// sorted by filepath.Walk's natural lexical order.
func Walk(opts Options) ([]string, error) {
	var ignore *gitignore.GitIgnore
	if gi, err := os.Stat(filepath.Join(opts.Root, ".gitignore")); err == nil && !gi.IsDir() {
		ignore, _ = gitignore.CompileIgnoreFile(filepath.Join(opts.Root, ".gitignore"))
	}

	var paths []string
	err := filepath.Walk(opts.Root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if path != opts.Root && !opts.IncludeHidden && isHidden(info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if info.Mode()&os.ModeSymlink != 0 && !opts.FollowSymlinks {
			return nil
		}
		if !opts.IncludeHidden && isHidden(info.Name()) {
			return nil
		}

		rel, err := filepath.Rel(opts.Root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if ignore != nil && ignore.MatchesPath(rel) {
			return nil
		}
		if opts.SkipPath != nil && opts.SkipPath(rel) {
			return nil
		}

		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// isHidden reports whether name starts with "." (excluding "." and "..").
func isHidden(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return strings.HasPrefix(name, ".")
}
