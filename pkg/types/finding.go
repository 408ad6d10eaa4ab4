package types

// Candidate is a regex match that survived the Prefilter and Matcher stages,
// prior to structural validation and suppression.
type Candidate struct {
	Path    string
	RuleID  string
	Start   int // byte offset of the full match
	End     int
	Capture []byte // the designated capture group's raw bytes
}

// Finding is a surviving Candidate scheduled for emission.
type Finding struct {
	RuleID          string   `json:"rule_id"`
	Name            string   `json:"name"`
	Severity        Severity `json:"severity"`
	Path            string   `json:"path"`
	Line            int      `json:"line"`
	Column          int      `json:"column"`
	Fingerprint     string   `json:"fingerprint"`
	RedactedPreview string   `json:"preview"`

	// RawSecret is never serialized. It exists only long enough to compute
	// the fingerprint and preview, and must never be logged.
	RawSecret []byte `json:"-"`
}
