// Package matcher applies a rule's regex across file content and extracts
// the designated capture group for every non-overlapping match.
package matcher

import (
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/nosecrets/nosecrets/pkg/types"
)

// DefaultTimeout bounds a single Regexp's matching work on one file. RE2 mode
// already rules out catastrophic backtracking for the rules we compile
// ourselves, but a rule file is untrusted input and a pattern that falls back
// to backtracking mode (see Compile) can still run away on adversarial
// content.
const DefaultTimeout = 5 * time.Second

// Compile builds a *regexp2.Regexp for pattern, preferring RE2 (linear-time,
// no backtracking) and falling back to the default backtracking engine only
// when the pattern uses syntax RE2 cannot express (lookaround, backreferences).
// The fallback is why every compiled regex still carries a MatchTimeout.
func Compile(pattern string) (*regexp2.Regexp, error) {
	re, err := regexp2.Compile(pattern, regexp2.RE2)
	if err != nil {
		re, err = regexp2.Compile(pattern, regexp2.None)
		if err != nil {
			return nil, err
		}
	}
	re.MatchTimeout = DefaultTimeout
	return re, nil
}

// TimeoutError reports whether err is a regexp2 match-timeout error. regexp2
// does not export a sentinel for this, so we match on its message the same
// way the rest of the ecosystem does.
func TimeoutError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "match timeout")
}

// Match runs re across content and returns one Candidate per non-overlapping
// match whose designated capture group is populated. A match whose capture
// group did not participate (e.g. inside an alternation) is silently
// discarded, per the Matcher's contract: a rule with an empty capture is not
// a secret, it is a pattern that needs fixing.
func Match(re *regexp2.Regexp, rule *types.Rule, path string, content []byte) ([]types.Candidate, error) {
	capture := rule.EffectiveCapture()
	contentStr := string(content)

	var candidates []types.Candidate

	m, err := re.FindStringMatch(contentStr)
	for {
		if err != nil {
			return candidates, fmt.Errorf("rule %s: %w", rule.ID, err)
		}
		if m == nil {
			break
		}

		if g := m.GroupByNumber(capture); g != nil && len(g.Captures) > 0 {
			c := g.Captures[0]
			candidates = append(candidates, types.Candidate{
				Path:    path,
				RuleID:  rule.ID,
				Start:   m.Index,
				End:     m.Index + m.Length,
				Capture: []byte(c.String()),
			})
		}

		m, err = re.FindNextMatch(m)
	}

	return candidates, nil
}
