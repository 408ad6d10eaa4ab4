// Package validate implements the Validator stage: pure, stateless
// structural checks on a Candidate's capture bytes.
package validate

import (
	"bytes"

	"github.com/nosecrets/nosecrets/pkg/rule"
)

// Accept reports whether capture satisfies every constraint the compiled
// rule's Validate table configures. A rule with no Validate table accepts
// every capture — structural validation is opt-in per rule.
func Accept(cr *rule.CompiledRule, capture []byte) bool {
	v := cr.Rule.Validate
	if v == nil {
		return true
	}

	if len(v.Prefix) > 0 && !hasAnyPrefix(capture, v.Prefix) {
		return false
	}
	if cr.Charset != nil && !cr.Charset.Match(capture) {
		return false
	}
	if v.Length != 0 && len(capture) != v.Length {
		return false
	}
	if v.MinLength != 0 && len(capture) < v.MinLength {
		return false
	}
	if v.MaxLength != 0 && len(capture) > v.MaxLength {
		return false
	}
	return true
}

func hasAnyPrefix(capture []byte, prefixes []string) bool {
	for _, p := range prefixes {
		if bytes.HasPrefix(capture, []byte(p)) {
			return true
		}
	}
	return false
}
