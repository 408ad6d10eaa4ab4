package rule

import (
	"fmt"
	"regexp"
	"unicode"

	"github.com/dlclark/regexp2"
	"github.com/nosecrets/nosecrets/pkg/globutil"
	"github.com/nosecrets/nosecrets/pkg/nserr"
	"github.com/nosecrets/nosecrets/pkg/types"
)

// validateRule checks the invariants from the data model before a Rule is
// compiled: unique, non-empty id; known severity; a compilable regex;
// a capture index within the regex's group count; consistent length
// constraints; and (non-fatally) that keywords actually appear in example
// matches of the pattern.
//
// Returns an *nserr.Error of Kind InvalidRule on any violation except the
// keyword-presence check, which is a warning only (returned alongside a nil
// error via the warnings slice).
func validateRule(r *types.Rule, seenIDs map[string]bool) (warnings []string, err error) {
	if r.ID == "" {
		return nil, nserr.InvalidRule("<empty>", fmt.Errorf("id is required"))
	}
	if seenIDs[r.ID] {
		return nil, nserr.InvalidRule(r.ID, fmt.Errorf("duplicate rule id"))
	}
	if r.Name == "" {
		return nil, nserr.InvalidRule(r.ID, fmt.Errorf("name is required"))
	}
	if r.Pattern == "" {
		return nil, nserr.InvalidRule(r.ID, fmt.Errorf("pattern is required"))
	}
	if _, err := types.ParseSeverity(string(r.Severity)); err != nil {
		return nil, nserr.InvalidRule(r.ID, err)
	}

	groupCount, err := countCaptureGroups(r.Pattern)
	if err != nil {
		return nil, nserr.InvalidRule(r.ID, fmt.Errorf("unparseable regex: %w", err))
	}
	if groupCount == 0 {
		return nil, nserr.InvalidRule(r.ID, fmt.Errorf("pattern must have at least one capture group"))
	}
	capture := r.EffectiveCapture()
	if capture > groupCount {
		return nil, nserr.InvalidRule(r.ID, fmt.Errorf("capture index %d exceeds group count %d", capture, groupCount))
	}

	if r.Validate != nil {
		if r.Validate.Length != 0 {
			if r.Validate.MinLength != 0 && r.Validate.MinLength != r.Validate.Length {
				return nil, nserr.InvalidRule(r.ID, fmt.Errorf("length and min_length conflict"))
			}
			if r.Validate.MaxLength != 0 && r.Validate.MaxLength != r.Validate.Length {
				return nil, nserr.InvalidRule(r.ID, fmt.Errorf("length and max_length conflict"))
			}
		}
		if r.Validate.Charset != "" {
			if _, err := regexp.Compile("^[" + r.Validate.Charset + "]+$"); err != nil {
				return nil, nserr.InvalidRule(r.ID, fmt.Errorf("invalid charset: %w", err))
			}
		}
	}

	if r.Paths != nil {
		for _, g := range append(append([]string{}, r.Paths.Include...), r.Paths.Exclude...) {
			if err := globutil.Validate(g); err != nil {
				return nil, nserr.InvalidRule(r.ID, fmt.Errorf("malformed glob %q: %w", g, err))
			}
		}
	}

	for _, kw := range r.Keywords {
		if kw == "" || !isASCII(kw) {
			return nil, nserr.InvalidRule(r.ID, fmt.Errorf("keyword %q must be non-empty ASCII", kw))
		}
	}
	warnings = append(warnings, keywordPresenceWarnings(r)...)

	return warnings, nil
}

// countCaptureGroups reports the number of capturing groups in pattern,
// using the same engine the Matcher compiles rules with so that the
// reported count matches what Capture will be checked against at match time.
func countCaptureGroups(pattern string) (int, error) {
	re, err := regexp2.Compile(pattern, regexp2.RE2)
	if err != nil {
		re, err = regexp2.Compile(pattern, regexp2.None)
		if err != nil {
			return 0, err
		}
	}
	names := re.GetGroupNumbers()
	count := 0
	for _, n := range names {
		if n != 0 {
			count++
		}
	}
	return count, nil
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// keywordPresenceWarnings implements the spec's "implementer may warn but
// must not reject" rule: a keyword is expected to appear (case-insensitively)
// in at least one string the pattern can match. We approximate this cheaply
// by checking whether the pattern's literal (non-metacharacter) portions
// could plausibly contain the keyword; a full solver is not worth it for a
// warning-only check.
func keywordPresenceWarnings(r *types.Rule) []string {
	var warnings []string
	lowerPattern := toLowerASCII(r.Pattern)
	for _, kw := range r.Keywords {
		if !containsASCIIFold(lowerPattern, kw) {
			warnings = append(warnings, fmt.Sprintf(
				"rule %s: keyword %q does not appear literally in its pattern; prefilter may never admit this rule",
				r.ID, kw))
		}
	}
	return warnings
}

func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func containsASCIIFold(haystack, needle string) bool {
	needle = toLowerASCII(needle)
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}
