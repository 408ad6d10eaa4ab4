// Package prefilter narrows the rule set considered for a chunk of content
// before the (comparatively expensive) regex matcher runs, using a single
// Aho-Corasick automaton over every rule's keywords.
package prefilter

import (
	"github.com/cloudflare/ahocorasick"

	"github.com/nosecrets/nosecrets/pkg/types"
)

// Prefilter admits a rule for a chunk of content if one of its keywords is
// present (case-insensitively, ASCII-only) or if the rule declares no
// keywords at all, in which case it is always admitted.
type Prefilter struct {
	matcher        *ahocorasick.Matcher
	keywords       []string // lowercase keyword at each automaton index
	keywordRules   map[string][]*types.Rule
	noKeywordRules []*types.Rule
}

// New builds a Prefilter over rules. Keywords are folded to lowercase ASCII
// so that "AWS" in a rule and "aws" in a file match the same automaton state;
// folding is ASCII-only, matching the regex engine's own default posture on
// non-ASCII text.
func New(rules []*types.Rule) *Prefilter {
	pf := &Prefilter{
		keywordRules: make(map[string][]*types.Rule),
	}

	seen := make(map[string]bool)
	for _, r := range rules {
		if len(r.Keywords) == 0 {
			pf.noKeywordRules = append(pf.noKeywordRules, r)
			continue
		}
		for _, kw := range r.Keywords {
			folded := foldASCII(kw)
			if !seen[folded] {
				seen[folded] = true
				pf.keywords = append(pf.keywords, folded)
			}
			pf.keywordRules[folded] = append(pf.keywordRules[folded], r)
		}
	}

	if len(pf.keywords) > 0 {
		pf.matcher = ahocorasick.NewStringMatcher(pf.keywords)
	}
	return pf
}

// Filter returns the rules that might match content: every keyword-less
// rule, plus every rule whose keyword occurs in content.
func (pf *Prefilter) Filter(content []byte) []*types.Rule {
	result := make([]*types.Rule, 0, len(pf.noKeywordRules))
	result = append(result, pf.noKeywordRules...)

	if pf.matcher == nil {
		return result
	}

	folded := foldASCIIBytes(content)
	hits := pf.matcher.Match(folded)

	seen := make(map[*types.Rule]bool, len(result))
	for _, r := range result {
		seen[r] = true
	}
	for _, hit := range hits {
		for _, r := range pf.keywordRules[pf.keywords[hit]] {
			if !seen[r] {
				seen[r] = true
				result = append(result, r)
			}
		}
	}
	return result
}

func foldASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func foldASCIIBytes(content []byte) []byte {
	out := make([]byte, len(content))
	for i, c := range content {
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return out
}
