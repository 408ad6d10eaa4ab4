// Package suppress implements the Suppressor: the fixed, first-match-wins
// precedence chain that decides whether a validated Candidate is reported.
package suppress

import (
	"bytes"

	"github.com/nosecrets/nosecrets/pkg/config"
	"github.com/nosecrets/nosecrets/pkg/fingerprint"
	"github.com/nosecrets/nosecrets/pkg/rule"
	"github.com/nosecrets/nosecrets/pkg/types"
)

const (
	markerIgnore = "@nosecrets-ignore"
	markerShort  = "@nsi"
)

// Suppressor holds everything needed to evaluate the six-step precedence
// chain against a Candidate, without re-parsing configuration per call.
type Suppressor struct {
	Config *config.Compiled
	Ignore *IgnoreFile
}

// New builds a Suppressor from a compiled configuration and a parsed ignore
// file. ignore may be nil, equivalent to an empty .nosecretsignore.
func New(cfg *config.Compiled, ignore *IgnoreFile) *Suppressor {
	if ignore == nil {
		ignore = &IgnoreFile{}
	}
	return &Suppressor{Config: cfg, Ignore: ignore}
}

// Suppress reports whether candidate should be dropped, evaluating the six
// checks in spec order and stopping at the first that applies. content is
// the full file bytes the candidate's Start/End offsets index into, needed
// for the inline-directive check.
func (s *Suppressor) Suppress(cr *rule.CompiledRule, candidate types.Candidate, content []byte) bool {
	// 1. Per-rule path filter.
	if cr.PathInclude != nil && !cr.PathInclude(candidate.Path) {
		return true
	}
	if cr.PathExclude != nil && cr.PathExclude(candidate.Path) {
		return true
	}

	// 2. Global path ignore.
	if s.Config.IgnoresPath(candidate.Path) {
		return true
	}

	// 3. Per-rule allow.
	if ruleAllows(cr, candidate.Capture) {
		return true
	}

	// 4. Global allow.
	if s.Config.AllowsValue(candidate.Capture) {
		return true
	}

	// 5. Fingerprint ignore file.
	fp := fingerprint.Compute(candidate.Capture)
	if s.Ignore.Suppresses(fp, candidate.Path) {
		return true
	}

	// 6. Inline directive.
	if hasInlineDirective(content, candidate.Start) {
		return true
	}

	return false
}

func ruleAllows(cr *rule.CompiledRule, capture []byte) bool {
	if cr.Rule.Allow == nil {
		return false
	}
	s := string(capture)
	for _, v := range cr.Rule.Allow.Values {
		if v == s {
			return true
		}
	}
	for _, re := range cr.AllowRegex {
		if re.Match(capture) {
			return true
		}
	}
	return false
}

// hasInlineDirective reports whether the line containing byte offset start,
// or the line immediately before it, contains an inline-ignore marker.
// "Line" is the maximal [\n\r]-delimited byte range, and markers are matched
// as plain substrings so they work inside any comment syntax or none at all.
func hasInlineDirective(content []byte, start int) bool {
	if start < 0 || start > len(content) {
		return false
	}

	lineStarts := lineStartOffsets(content)
	idx := lineIndexForOffset(lineStarts, start)
	if lineContainsMarker(lineAt(content, lineStarts, idx)) {
		return true
	}
	if idx == 0 {
		return false
	}
	return lineContainsMarker(lineAt(content, lineStarts, idx-1))
}

// lineStartOffsets returns the byte offset where each line begins; line 0
// always starts at offset 0.
func lineStartOffsets(content []byte) []int {
	starts := []int{0}
	for i, b := range content {
		if b == '\n' && i+1 < len(content) {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// lineIndexForOffset returns the index of the line that contains offset.
func lineIndexForOffset(lineStarts []int, offset int) int {
	idx := 0
	for i, s := range lineStarts {
		if s > offset {
			break
		}
		idx = i
	}
	return idx
}

// lineAt returns line idx's bytes, with any trailing \r or \n stripped.
func lineAt(content []byte, lineStarts []int, idx int) []byte {
	start := lineStarts[idx]
	var end int
	if idx+1 < len(lineStarts) {
		end = lineStarts[idx+1]
	} else {
		end = len(content)
	}
	line := content[start:end]
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return line
}

func lineContainsMarker(line []byte) bool {
	return bytes.Contains(line, []byte(markerIgnore)) || bytes.Contains(line, []byte(markerShort))
}
