// Package gitindex reads staged file content directly from a repository's
// git index, without shelling out to the git binary, so `scan --staged`
// sees exactly what `git commit` would.
package gitindex

import (
	"fmt"
	"io"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/filemode"
)

// StagedFile is one entry from the index: its repo-relative path and the
// content of the blob staged for it.
type StagedFile struct {
	Path    string
	Content []byte
}

// Staged opens the git repository rooted at or above dir and returns every
// regular-file entry in its index, with content read from the staged blob
// rather than the working tree — so edits made after `git add` don't leak
// into the scan.
func Staged(dir string) ([]StagedFile, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open git repository: %w", err)
	}

	index, err := repo.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("read git index: %w", err)
	}

	var out []StagedFile
	for _, entry := range index.Entries {
		if entry.Mode != filemode.Regular && entry.Mode != filemode.Executable {
			continue
		}

		blob, err := repo.BlobObject(entry.Hash)
		if err != nil {
			return nil, fmt.Errorf("read blob for %s: %w", entry.Name, err)
		}
		r, err := blob.Reader()
		if err != nil {
			return nil, fmt.Errorf("open blob reader for %s: %w", entry.Name, err)
		}
		content, err := io.ReadAll(r)
		r.Close()
		if err != nil {
			return nil, fmt.Errorf("read blob for %s: %w", entry.Name, err)
		}

		out = append(out, StagedFile{Path: entry.Name, Content: content})
	}

	return out, nil
}
