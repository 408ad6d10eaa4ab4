package types

// Rule is a detection rule loaded from a TOML rule file.
type Rule struct {
	ID       string   // stable unique identifier within a rule set
	Name     string   // human-readable name
	Severity Severity // critical, high, medium, low
	Pattern  string   // regex with at least one capture group
	Keywords []string // lowercase keyword literals for prefiltering; empty means always-on
	Capture  int      // 1-based capture group index, default 1

	Validate *RuleValidate // optional structural constraints
	Paths    *RulePaths    // optional per-rule path filter
	Allow    *RuleAllow    // optional per-rule allowlist
}

// RuleValidate describes the structural constraints a capture must satisfy
// to survive the Validator stage.
type RuleValidate struct {
	Prefix    []string // capture must start with one of these
	Charset   string   // character class body, compiled as ^[<charset>]+$
	Length    int      // exact byte length; 0 means unset
	MinLength int      // 0 means unset
	MaxLength int      // 0 means unset
}

// RulePaths restricts a rule to a subset of candidate paths.
type RulePaths struct {
	Include []string // glob patterns; non-empty means "only these"
	Exclude []string // glob patterns; matching suppresses
}

// RuleAllow is a per-rule allowlist checked against the raw capture.
type RuleAllow struct {
	Patterns []string // unanchored regexes
	Values   []string // literal values
}

// EffectiveCapture returns Capture, defaulting to 1 when unset.
func (r *Rule) EffectiveCapture() int {
	if r.Capture <= 0 {
		return 1
	}
	return r.Capture
}
