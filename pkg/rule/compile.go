package rule

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/nosecrets/nosecrets/pkg/globutil"
	"github.com/nosecrets/nosecrets/pkg/matcher"
	"github.com/nosecrets/nosecrets/pkg/nserr"
	"github.com/nosecrets/nosecrets/pkg/prefilter"
	"github.com/nosecrets/nosecrets/pkg/types"
)

// CompiledRule is a Rule with everything the downstream pipeline needs
// already built: its regex, its validator's charset class, its allowlist
// regexes, and its path filters.
type CompiledRule struct {
	Rule *types.Rule

	Regex       *regexp2.Regexp
	Charset     *regexp.Regexp   // nil unless Rule.Validate.Charset is set
	AllowRegex  []*regexp.Regexp // Rule.Allow.Patterns, compiled
	PathInclude func(path string) bool
	PathExclude func(path string) bool
}

// CompiledRuleSet is the Rule Compiler's output: every rule compiled, plus a
// shared Prefilter built across all of them.
type CompiledRuleSet struct {
	Rules     []*CompiledRule
	Prefilter *prefilter.Prefilter
}

// ByID looks up a compiled rule by its Rule.ID, used by the Suppressor when
// it needs a rule's allow/path configuration for a candidate it didn't
// originate.
func (s *CompiledRuleSet) ByID(id string) *CompiledRule {
	for _, cr := range s.Rules {
		if cr.Rule.ID == id {
			return cr
		}
	}
	return nil
}

// Fingerprint returns a stable hash of every rule's detection-relevant
// fields (ID, pattern, capture, severity), order-independent. Two
// CompiledRuleSets built from the same rules in any order share a
// Fingerprint; changing a single pattern changes it. Callers use this to
// invalidate state keyed to "the rule set that produced it" — the
// incremental scan cache is the current example.
func (s *CompiledRuleSet) Fingerprint() string {
	lines := make([]string, 0, len(s.Rules))
	for _, cr := range s.Rules {
		r := cr.Rule
		lines = append(lines, fmt.Sprintf("%s\x1f%s\x1f%d\x1f%s", r.ID, r.Pattern, r.EffectiveCapture(), r.Severity))
	}
	sort.Strings(lines)

	sum := sha256.Sum256([]byte(strings.Join(lines, "\x1e")))
	return hex.EncodeToString(sum[:])
}

// Compile validates every rule, rejecting the whole set on the first
// violation (InvalidRule, fatal, exit 3 per the error design), and compiles
// each surviving rule's regex, charset, allowlist and path filters. Non-fatal
// warnings (e.g. a keyword that never appears in its own pattern) are
// returned alongside the set so the caller can log them without failing the
// scan.
func Compile(rules []*types.Rule) (*CompiledRuleSet, []string, error) {
	var allWarnings []string
	seenIDs := make(map[string]bool, len(rules))
	compiled := make([]*CompiledRule, 0, len(rules))

	for _, r := range rules {
		warnings, err := validateRule(r, seenIDs)
		if err != nil {
			return nil, nil, err
		}
		seenIDs[r.ID] = true
		allWarnings = append(allWarnings, warnings...)

		cr, err := compileRule(r)
		if err != nil {
			return nil, nil, err
		}
		compiled = append(compiled, cr)
	}

	plain := make([]*types.Rule, 0, len(compiled))
	for _, cr := range compiled {
		plain = append(plain, cr.Rule)
	}

	return &CompiledRuleSet{
		Rules:     compiled,
		Prefilter: prefilter.New(plain),
	}, allWarnings, nil
}

func compileRule(r *types.Rule) (*CompiledRule, error) {
	re, err := matcher.Compile(r.Pattern)
	if err != nil {
		return nil, nserr.InvalidRule(r.ID, fmt.Errorf("compile pattern: %w", err))
	}

	cr := &CompiledRule{Rule: r, Regex: re}

	if r.Validate != nil && r.Validate.Charset != "" {
		charsetRe, err := regexp.Compile("^[" + r.Validate.Charset + "]+$")
		if err != nil {
			return nil, nserr.InvalidRule(r.ID, fmt.Errorf("compile charset: %w", err))
		}
		cr.Charset = charsetRe
	}

	if r.Allow != nil {
		for _, pattern := range r.Allow.Patterns {
			allowRe, err := regexp.Compile(pattern)
			if err != nil {
				return nil, nserr.InvalidRule(r.ID, fmt.Errorf("compile allow pattern %q: %w", pattern, err))
			}
			cr.AllowRegex = append(cr.AllowRegex, allowRe)
		}
	}

	if r.Paths != nil {
		if len(r.Paths.Include) > 0 {
			matchFn, err := compileGlobSet(r.Paths.Include)
			if err != nil {
				return nil, nserr.InvalidRule(r.ID, err)
			}
			cr.PathInclude = matchFn
		}
		if len(r.Paths.Exclude) > 0 {
			matchFn, err := compileGlobSet(r.Paths.Exclude)
			if err != nil {
				return nil, nserr.InvalidRule(r.ID, err)
			}
			cr.PathExclude = matchFn
		}
	}

	return cr, nil
}

// compileGlobSet builds a single matcher that reports true if path matches
// any glob in patterns.
func compileGlobSet(patterns []string) (func(path string) bool, error) {
	matchers := make([]func(string) bool, 0, len(patterns))
	for _, p := range patterns {
		m, err := globutil.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("malformed glob %q: %w", p, err)
		}
		matchers = append(matchers, m)
	}
	return func(path string) bool {
		for _, m := range matchers {
			if m(path) {
				return true
			}
		}
		return false
	}, nil
}
