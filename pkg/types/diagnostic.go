package types

import "fmt"

// DiagnosticKind classifies a non-fatal event surfaced during a scan.
type DiagnosticKind string

const (
	DiagnosticIgnoreParseWarning DiagnosticKind = "ignore_parse_warning"
	DiagnosticFileReadError      DiagnosticKind = "file_read_error"
	DiagnosticRuleTimeout        DiagnosticKind = "rule_timeout"
)

// Diagnostic is a non-fatal event: the scan continues, but the condition is
// worth reporting on stderr.
type Diagnostic struct {
	Kind    DiagnosticKind
	Path    string
	RuleID  string // empty unless Kind == DiagnosticRuleTimeout
	Message string
}

func (d Diagnostic) String() string {
	if d.RuleID != "" {
		return fmt.Sprintf("%s: %s (rule %s): %s", d.Kind, d.Path, d.RuleID, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.Kind, d.Path, d.Message)
}

// ScanStats aggregates counters for the human-readable summary line.
type ScanStats struct {
	FilesScanned       int
	FilesSkippedBinary int
	FilesSkippedError  int
	BytesScanned       int64
}
