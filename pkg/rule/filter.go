package rule

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nosecrets/nosecrets/pkg/types"
)

// FilterConfig narrows a loaded rule set by ID before compilation, via the
// scan command's --include-rules/--exclude-rules flags.
type FilterConfig struct {
	Include []string // regexes; a rule must match at least one to survive. Empty means "all rules"
	Exclude []string // regexes; a rule matching any of these is dropped, after Include is applied
}

// ParsePatterns splits a comma-separated flag value into trimmed,
// non-empty patterns.
func ParsePatterns(patterns string) []string {
	if patterns == "" {
		return []string{}
	}
	var out []string
	for _, p := range strings.Split(patterns, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Filter returns the subset of rules whose ID matches cfg's Include/Exclude
// patterns, Include applied before Exclude. rules is returned unmodified
// when cfg has no patterns at all.
func Filter(rules []*types.Rule, cfg FilterConfig) ([]*types.Rule, error) {
	include, err := compilePatterns(cfg.Include)
	if err != nil {
		return nil, err
	}
	exclude, err := compilePatterns(cfg.Exclude)
	if err != nil {
		return nil, err
	}
	if len(include) == 0 && len(exclude) == 0 {
		return rules, nil
	}

	out := make([]*types.Rule, 0, len(rules))
	for _, r := range rules {
		if len(include) > 0 && !anyMatch(include, r.ID) {
			continue
		}
		if anyMatch(exclude, r.ID) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	regexes := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("rule filter pattern %q: %w", p, err)
		}
		regexes[i] = re
	}
	return regexes, nil
}

func anyMatch(regexes []*regexp.Regexp, ruleID string) bool {
	for _, re := range regexes {
		if re.MatchString(ruleID) {
			return true
		}
	}
	return false
}
